package hyperdrive

import (
	"crypto/ed25519"

	"golang.org/x/crypto/blake2b"
)

// kdfContext is the build-time constant identifying this derivation, mirroring
// the 8-byte ASCII context string a libsodium-style keyed KDF expects.
const kdfContext = "hyperdri"

// contentKeySubkeyID is the (fixed) subkey identifier used to derive the
// content log's seed from the metadata log's secret key.
const contentKeySubkeyID uint64 = 1

// Keypair is an Ed25519 signing keypair for one of the drive's two logs.
type Keypair struct {
	Public ed25519.PublicKey
	Secret ed25519.PrivateKey
}

// deriveSeed runs a keyed-hash KDF (BLAKE2b keyed with the metadata secret
// key) over (context || subkeyID) to produce a 32-byte seed, mirroring
// libsodium's crypto_kdf_derive_from_key(seed, subkeyID, context, masterKey).
func deriveSeed(masterSecretKey ed25519.PrivateKey, subkeyID uint64) ([32]byte, error) {
	h, err := blake2b.New256(masterSecretKey)
	if err != nil {
		return [32]byte{}, err
	}
	var input [16]byte
	copy(input[:8], kdfContext)
	for i := 0; i < 8; i++ {
		input[8+i] = byte(subkeyID >> (8 * i))
	}
	h.Write(input[:])
	sum := h.Sum(nil)

	var seed [32]byte
	copy(seed[:], sum)
	// zeroize the intermediate digest; it is equivalent to the seed and has
	// no further use once copied out
	for i := range sum {
		sum[i] = 0
	}
	return seed, nil
}

// DeriveContentKeypair derives the content log's Ed25519 keypair
// deterministically from the metadata log's secret key. It is pure:
// identical inputs always yield identical outputs.
func DeriveContentKeypair(metadataSecretKey ed25519.PrivateKey) (*Keypair, error) {
	seed, err := deriveSeed(metadataSecretKey, contentKeySubkeyID)
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{Public: pub, Secret: priv}, nil
}

// GenerateKeypair creates a fresh random Ed25519 keypair, used when a drive
// is created from scratch rather than opened by an existing public key.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Keypair{Public: pub, Secret: priv}, nil
}
