// Package index implements the persistent prefix-trie index the drive
// coordinator binds to. Every mutation is appended as a block to the
// backing metadata Feed, so the index's state is entirely reconstructible
// by replaying that feed.
package index

import (
	"fmt"
	"sync"

	"github.com/anotherjesse/hyperdrive/internal/broadcast"
	"github.com/anotherjesse/hyperdrive/internal/feed"
)

// ChangeEvent is published to Watch subscribers on every Put/Del made
// through this Index. Blocks that reach the backing feed through replication
// are not applied to the index and publish no ChangeEvent.
type ChangeEvent struct {
	Key string
}

// Index is a point get/put/del, prefix-iterable, versioned store keyed by
// normalized path and valued by opaque bytes (the caller decides what those
// bytes mean — the coordinator stores Stat encodings there).
type Index struct {
	mu sync.RWMutex

	feed feed.Feed
	root *trieNode

	header    []byte // content log public key, once written
	headerSet bool

	version uint64 // count of put/del ops applied; 1-based, matches the feed's own mutation count

	bus *broadcast.Publisher[ChangeEvent]

	readOnlySnapshot bool
}

// Open replays every block of f (a metadata-log-shaped Feed) to rebuild the
// in-memory trie, then returns an Index bound to f for future mutations. An
// empty feed yields a fresh Index with no header yet — the caller must call
// WriteHeader before any Put, matching the fresh-writable bootstrap path.
func Open(f feed.Feed) (*Index, error) {
	idx := &Index{
		feed: f,
		root: newTrieNode(),
		bus:  broadcast.New[ChangeEvent](),
	}
	if err := idx.replay(0, f.Length()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) replay(from, to uint64) error {
	for i := from; i < to; i++ {
		block, err := idx.feed.Get(i)
		if err != nil {
			return fmt.Errorf("index: reading block %d: %w", i, err)
		}
		entry, err := decodeEntry(block)
		if err != nil {
			return fmt.Errorf("index: decoding block %d: %w", i, err)
		}
		switch entry.op {
		case opHeader:
			idx.header = entry.value
			idx.headerSet = true
		case opPut:
			idx.root.put(entry.key, entry.value)
			idx.version++
		case opDel:
			idx.root.del(entry.key)
			idx.version++
		}
	}
	return nil
}

// WriteHeader commits the metadata header block (block 0) carrying the
// content log's public key. It must be called exactly once, before any Put.
func (idx *Index) WriteHeader(meta []byte) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.headerSet {
		return fmt.Errorf("index: header already written")
	}
	if err := idx.feed.Append(encodeHeader(meta)); err != nil {
		return fmt.Errorf("index: writing header: %w", err)
	}
	idx.header = meta
	idx.headerSet = true
	return nil
}

// GetMetadata returns the header bytes written by WriteHeader (or observed
// via replay of a restored feed).
func (idx *Index) GetMetadata() ([]byte, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.header, idx.headerSet
}

func (idx *Index) Version() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.version
}

func (idx *Index) Get(key string) ([]byte, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	v, ok := idx.root.get(key)
	return v, ok, nil
}

func (idx *Index) Put(key string, value []byte) error {
	if idx.readOnlySnapshot {
		return fmt.Errorf("index: checkout is read-only")
	}
	idx.mu.Lock()
	if err := idx.feed.Append(encodePut(key, value)); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("index: writing put(%s): %w", key, err)
	}
	idx.root.put(key, value)
	idx.version++
	idx.mu.Unlock()
	idx.bus.Publish(ChangeEvent{Key: key})
	return nil
}

func (idx *Index) Del(key string) error {
	if idx.readOnlySnapshot {
		return fmt.Errorf("index: checkout is read-only")
	}
	idx.mu.Lock()
	if _, ok := idx.root.get(key); !ok {
		idx.mu.Unlock()
		return fmt.Errorf("index: del(%s): %w", key, errNotFound)
	}
	if err := idx.feed.Append(encodeDel(key)); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("index: writing del(%s): %w", key, err)
	}
	idx.root.del(key)
	idx.version++
	idx.mu.Unlock()
	idx.bus.Publish(ChangeEvent{Key: key})
	return nil
}

// List returns every present entry at or below prefix.
func (idx *Index) List(prefix string) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.root.list(prefix)
}

// HasChildren reports whether prefix has any present descendant entry
// (used by rmdir/stat to distinguish an implicit directory from a missing
// path).
func (idx *Index) HasChildren(prefix string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.root.hasChildren(prefix)
}

// Checkout returns an immutable snapshot of the index as of the given
// version (the number of put/del ops applied, 1-based as it comes straight
// from the feed's own mutation count). It shares the backing feed but owns
// its own trie, built by replaying only the first `version` mutation
// blocks.
func (idx *Index) Checkout(version uint64) (*Index, error) {
	idx.mu.RLock()
	if version > idx.version {
		idx.mu.RUnlock()
		return nil, fmt.Errorf("index: checkout version %d exceeds current version %d", version, idx.version)
	}
	idx.mu.RUnlock()

	snap := &Index{
		feed:             idx.feed,
		root:             newTrieNode(),
		bus:              broadcast.New[ChangeEvent](),
		readOnlySnapshot: true,
	}
	// Replay header plus exactly `version` mutation blocks. Blocks are
	// ordered header-then-mutations, so we walk the feed until we've
	// applied `version` put/del ops.
	var applied uint64
	for i := uint64(0); i < idx.feed.Length() && applied < version; i++ {
		block, err := idx.feed.Get(i)
		if err != nil {
			return nil, fmt.Errorf("index: checkout: reading block %d: %w", i, err)
		}
		entry, err := decodeEntry(block)
		if err != nil {
			return nil, fmt.Errorf("index: checkout: decoding block %d: %w", i, err)
		}
		switch entry.op {
		case opHeader:
			snap.header = entry.value
			snap.headerSet = true
		case opPut:
			snap.root.put(entry.key, entry.value)
			applied++
		case opDel:
			snap.root.del(entry.key)
			applied++
		}
	}
	snap.version = applied
	return snap, nil
}

// Watch subscribes to changes under prefix. The returned unsubscribe func
// stops delivery and releases the subscription.
func (idx *Index) Watch(prefix string, cb func(key string)) func() {
	ch, unsubscribe := idx.bus.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					close(done)
					return
				}
				if prefix == "" || ev.Key == prefix || hasPrefix(ev.Key, prefix) {
					cb(ev.Key)
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}

func hasPrefix(key, prefix string) bool {
	if len(key) <= len(prefix) {
		return false
	}
	return key[:len(prefix)] == prefix && key[len(prefix)] == '/'
}

var errNotFound = fmt.Errorf("key not present")
