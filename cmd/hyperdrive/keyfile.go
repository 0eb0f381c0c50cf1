package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// keyFile persists the metadata log's keypair alongside the drive's storage
// folder, a CLI-level convenience so `hyperdrive create` followed by
// `hyperdrive ls` against the same -root just works. The coordinator itself
// never does this — callers are expected to hold onto the keypair
// themselves.
func keyFilePath(root string) string { return filepath.Join(root, "drive.key") }

func saveKeypair(root string, pub ed25519.PublicKey, secret ed25519.PrivateKey) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	contents := hex.EncodeToString(pub) + "\n" + hex.EncodeToString(secret) + "\n"
	return os.WriteFile(keyFilePath(root), []byte(contents), 0o600)
}

func loadKeypair(root string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	b, err := os.ReadFile(keyFilePath(root))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s (run `hyperdrive create -root %s` first): %w", keyFilePath(root), root, err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		return nil, nil, fmt.Errorf("%s: malformed key file", keyFilePath(root))
	}
	pub, err := hex.DecodeString(lines[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: decoding public key: %w", keyFilePath(root), err)
	}
	secret, err := hex.DecodeString(lines[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: decoding secret key: %w", keyFilePath(root), err)
	}
	return ed25519.PublicKey(pub), ed25519.PrivateKey(secret), nil
}
