// Package feed implements the append-only log that the drive coordinator in
// the parent package binds to: a concrete, testable log with block-oriented
// reads modeled on io.ReaderAt-style block decoding, and handle/lifecycle
// management in the same shape as a plain file reader.
//
// Real hypercore-style replication, Merkle proofs and sparse storage are
// intentionally not reproduced here — the hash tree and wire format of a
// production append-only log are out of scope; this package only needs to
// honor the Feed contract the coordinator depends on.
package feed

import (
	"crypto/ed25519"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/anotherjesse/hyperdrive/internal/broadcast"
)

// EventKind distinguishes the two signals a Feed emits.
type EventKind int

const (
	EventAppend EventKind = iota
	EventError
)

// Event is published on every append and on any terminal error.
type Event struct {
	Kind EventKind
	Err  error
}

// ReadStreamOpts parameterizes CreateReadStream: a contiguous block range,
// further trimmed to a byte range within that range's concatenated bytes.
type ReadStreamOpts struct {
	BlockOffset uint64
	BlockLength uint64
	ByteOffset  int64
	ByteLength  int64
}

// Feed is the append-only log interface consumed by the drive coordinator.
// Blocks are immutable once appended; only the holder of the secret key may
// extend a Feed.
type Feed interface {
	Key() ed25519.PublicKey
	DiscoveryKey() [32]byte
	Writable() bool
	Length() uint64     // block count
	ByteLength() uint64 // total bytes across all blocks

	Append(block []byte) error
	Get(i uint64) ([]byte, error)

	CreateWriteStream() io.WriteCloser
	CreateReadStream(opts ReadStreamOpts) (io.ReadCloser, error)

	Replicate(rw io.ReadWriter) error

	Subscribe() (<-chan Event, func())
	Close() error
}

// discoveryKeyLabel is the fixed context hypercore-style feeds hash the
// public key under to produce a rendezvous tag that does not reveal the key.
const discoveryKeyLabel = "hyperdrive-discovery-key"

// DiscoveryKey derives the public, non-reversible peer-rendezvous tag for a
// feed's public key.
func DiscoveryKey(pub ed25519.PublicKey) [32]byte {
	h, err := blake2b.New256(pub)
	if err != nil {
		// blake2b.New256 only errors on an oversized key; ed25519 public
		// keys are always 32 bytes, well under the 64-byte limit.
		panic(err)
	}
	h.Write([]byte(discoveryKeyLabel))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// writeStream adapts a block-append sink to io.WriteCloser: every non-empty
// Write call appends exactly one block; an empty Write appends nothing.
type writeStream struct {
	append func([]byte) error
	closed bool
}

func (w *writeStream) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		return 0, nil
	}
	block := make([]byte, len(p))
	copy(block, p)
	if err := w.append(block); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *writeStream) Close() error {
	w.closed = true
	return nil
}

// readStream concatenates blocks [opts.BlockOffset, opts.BlockOffset+opts.BlockLength)
// fetched via get, trims ByteOffset bytes from the front of that
// concatenation and stops after ByteLength bytes. It works against any Feed
// implementation since block decoding stays in get.
type readStream struct {
	get  func(i uint64) ([]byte, error)
	opts ReadStreamOpts

	block     uint64
	remaining int64 // blocks left to visit, 0 once exhausted
	skip      int64 // bytes still to discard from the current block
	cur       []byte
}

func newReadStream(get func(uint64) ([]byte, error), opts ReadStreamOpts) *readStream {
	return &readStream{
		get:       get,
		opts:      opts,
		block:     opts.BlockOffset,
		remaining: int64(opts.BlockLength),
		skip:      opts.ByteOffset,
	}
}

func (r *readStream) Read(p []byte) (int, error) {
	if r.opts.ByteLength <= 0 {
		return 0, io.EOF
	}
	for len(r.cur) == 0 {
		if r.remaining <= 0 {
			return 0, io.EOF
		}
		b, err := r.get(r.block)
		if err != nil {
			return 0, err
		}
		r.block++
		r.remaining--
		if r.skip > 0 {
			if int64(len(b)) <= r.skip {
				r.skip -= int64(len(b))
				continue
			}
			b = b[r.skip:]
			r.skip = 0
		}
		r.cur = b
	}
	n := len(p)
	if int64(n) > r.opts.ByteLength {
		n = int(r.opts.ByteLength)
	}
	if n > len(r.cur) {
		n = len(r.cur)
	}
	copy(p, r.cur[:n])
	r.cur = r.cur[n:]
	r.opts.ByteLength -= int64(n)
	return n, nil
}

func (r *readStream) Close() error { return nil }

// newBroadcaster is shared by the memory and file Feed implementations.
func newBroadcaster() *broadcast.Publisher[Event] { return broadcast.New[Event]() }
