package feed

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"sync"

	"github.com/anotherjesse/hyperdrive/internal/broadcast"
)

// MemoryFeed is an in-process Feed backed by a slice of blocks, used for
// ephemeral drives and in tests.
type MemoryFeed struct {
	mu         sync.RWMutex
	public     ed25519.PublicKey
	secret     ed25519.PrivateKey // nil when read-only
	blocks     [][]byte
	byteLength uint64
	bus        *broadcast.Publisher[Event]
}

// NewMemoryFeed creates a writable feed for the given keypair, or a
// read-only one if secret is nil.
func NewMemoryFeed(public ed25519.PublicKey, secret ed25519.PrivateKey) *MemoryFeed {
	return &MemoryFeed{
		public: public,
		secret: secret,
		bus:    newBroadcaster(),
	}
}

func (f *MemoryFeed) Key() ed25519.PublicKey { return f.public }
func (f *MemoryFeed) DiscoveryKey() [32]byte { return DiscoveryKey(f.public) }
func (f *MemoryFeed) Writable() bool         { return f.secret != nil }

func (f *MemoryFeed) Length() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint64(len(f.blocks))
}

func (f *MemoryFeed) ByteLength() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.byteLength
}

func (f *MemoryFeed) Append(block []byte) error {
	if !f.Writable() {
		return fmt.Errorf("feed: not writable")
	}
	f.mu.Lock()
	f.blocks = append(f.blocks, block)
	f.byteLength += uint64(len(block))
	f.mu.Unlock()
	f.bus.Publish(Event{Kind: EventAppend})
	return nil
}

func (f *MemoryFeed) Get(i uint64) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if i >= uint64(len(f.blocks)) {
		return nil, fmt.Errorf("feed: block %d out of range (length %d)", i, len(f.blocks))
	}
	return f.blocks[i], nil
}

func (f *MemoryFeed) CreateWriteStream() io.WriteCloser {
	return &writeStream{append: f.Append}
}

func (f *MemoryFeed) CreateReadStream(opts ReadStreamOpts) (io.ReadCloser, error) {
	return newReadStream(f.Get, opts), nil
}

func (f *MemoryFeed) Subscribe() (<-chan Event, func()) { return f.bus.Subscribe() }

func (f *MemoryFeed) Close() error { return nil }

// appendReplicated stores a block received from a peer, bypassing the
// writable check: replication trusts the feed's own verification rather
// than local write authority (see replicateFeed).
func (f *MemoryFeed) appendReplicated(block []byte) error {
	f.mu.Lock()
	f.blocks = append(f.blocks, block)
	f.byteLength += uint64(len(block))
	f.mu.Unlock()
	f.bus.Publish(Event{Kind: EventAppend})
	return nil
}

func (f *MemoryFeed) Replicate(rw io.ReadWriter) error {
	return replicateFeed(f.Length, f.Get, f.appendReplicated, rw)
}
