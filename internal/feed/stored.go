package feed

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/anotherjesse/hyperdrive/internal/broadcast"
	"github.com/anotherjesse/hyperdrive/internal/storage"
)

// blockHeaderSize is the on-disk length prefix (big-endian uint32) written
// before every block's payload, mirroring the length-prefixed block framing
// internal/squashfs/reader.go decodes for SquashFS metadata blocks.
const blockHeaderSize = 4

// StoredFeed is a Feed whose blocks live in a caller-supplied ByteStorage
// handle: a random-access [4-byte length][payload] record log. It never
// opens a file or takes a lock itself — that belongs to the storage binder,
// which hands out the handle already positioned at the right path and
// already holding (or not holding) the write lock. This is what lets the
// same block-framing and scan logic serve a real file on disk, an in-memory
// buffer, or any other ByteStorage the binder produces.
type StoredFeed struct {
	mu sync.RWMutex

	public ed25519.PublicKey
	secret ed25519.PrivateKey

	store storage.ByteStorage

	offsets    []int64
	lengths    []uint32
	size       int64
	byteLength uint64

	bus *broadcast.Publisher[Event]
}

// OpenStoredFeed scans store for existing blocks and returns a feed over it.
// A non-nil secret marks the feed writable; store is assumed to already
// carry whatever write authority that implies (e.g. the Storage Binder took
// an exclusive flock before returning it).
func OpenStoredFeed(store storage.ByteStorage, public ed25519.PublicKey, secret ed25519.PrivateKey) (*StoredFeed, error) {
	sf := &StoredFeed{
		public: public,
		secret: secret,
		store:  store,
		bus:    newBroadcaster(),
	}
	if err := sf.scan(); err != nil {
		return nil, err
	}
	return sf, nil
}

// scan rebuilds the in-memory block index by walking the length-prefixed
// records from the start of the store, the same way a process recovers a
// hypercore feed's length after a restart.
func (sf *StoredFeed) scan() error {
	size, err := sf.store.Size()
	if err != nil {
		return fmt.Errorf("feed: stat: %w", err)
	}
	var off int64
	for off < size {
		var hdr [blockHeaderSize]byte
		if _, err := sf.store.ReadAt(hdr[:], off); err != nil {
			return fmt.Errorf("feed: corrupt block header at offset %d: %w", off, err)
		}
		length := binary.BigEndian.Uint32(hdr[:])
		sf.offsets = append(sf.offsets, off+blockHeaderSize)
		sf.lengths = append(sf.lengths, length)
		sf.byteLength += uint64(length)
		off += blockHeaderSize + int64(length)
	}
	sf.size = size
	return nil
}

func (sf *StoredFeed) Key() ed25519.PublicKey { return sf.public }
func (sf *StoredFeed) DiscoveryKey() [32]byte { return DiscoveryKey(sf.public) }
func (sf *StoredFeed) Writable() bool         { return sf.secret != nil }

func (sf *StoredFeed) Length() uint64 {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return uint64(len(sf.offsets))
}

func (sf *StoredFeed) ByteLength() uint64 {
	sf.mu.RLock()
	defer sf.mu.RUnlock()
	return sf.byteLength
}

func (sf *StoredFeed) appendLocked(block []byte) error {
	var hdr [blockHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(block)))
	if _, err := sf.store.WriteAt(hdr[:], sf.size); err != nil {
		return fmt.Errorf("feed: writing block header: %w", err)
	}
	if _, err := sf.store.WriteAt(block, sf.size+blockHeaderSize); err != nil {
		return fmt.Errorf("feed: writing block: %w", err)
	}
	sf.offsets = append(sf.offsets, sf.size+blockHeaderSize)
	sf.lengths = append(sf.lengths, uint32(len(block)))
	sf.byteLength += uint64(len(block))
	sf.size += blockHeaderSize + int64(len(block))
	return nil
}

func (sf *StoredFeed) Append(block []byte) error {
	if !sf.Writable() {
		return fmt.Errorf("feed: not writable")
	}
	sf.mu.Lock()
	err := sf.appendLocked(block)
	sf.mu.Unlock()
	if err != nil {
		sf.bus.Publish(Event{Kind: EventError, Err: err})
		return err
	}
	sf.bus.Publish(Event{Kind: EventAppend})
	return nil
}

// appendReplicated stores a block received from a peer without requiring
// the local secret key (see replicateFeed in replicate.go).
func (sf *StoredFeed) appendReplicated(block []byte) error {
	sf.mu.Lock()
	err := sf.appendLocked(block)
	sf.mu.Unlock()
	if err != nil {
		return err
	}
	sf.bus.Publish(Event{Kind: EventAppend})
	return nil
}

func (sf *StoredFeed) Get(i uint64) ([]byte, error) {
	sf.mu.RLock()
	if i >= uint64(len(sf.offsets)) {
		sf.mu.RUnlock()
		return nil, fmt.Errorf("feed: block %d out of range (length %d)", i, len(sf.offsets))
	}
	off, length := sf.offsets[i], sf.lengths[i]
	sf.mu.RUnlock()

	block := make([]byte, length)
	if _, err := sf.store.ReadAt(block, off); err != nil {
		return nil, fmt.Errorf("feed: reading block %d: %w", i, err)
	}
	return block, nil
}

func (sf *StoredFeed) CreateWriteStream() io.WriteCloser {
	return &writeStream{append: sf.Append}
}

func (sf *StoredFeed) CreateReadStream(opts ReadStreamOpts) (io.ReadCloser, error) {
	return newReadStream(sf.Get, opts), nil
}

func (sf *StoredFeed) Replicate(rw io.ReadWriter) error {
	return replicateFeed(sf.Length, sf.Get, sf.appendReplicated, rw)
}

func (sf *StoredFeed) Subscribe() (<-chan Event, func()) { return sf.bus.Subscribe() }

func (sf *StoredFeed) Close() error {
	return sf.store.Close()
}
