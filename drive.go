package hyperdrive

import (
	"crypto/ed25519"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/anotherjesse/hyperdrive/internal/feed"
	"github.com/anotherjesse/hyperdrive/internal/index"
	"github.com/anotherjesse/hyperdrive/internal/storage"
)

// Drive is the filesystem coordinator binding a metadata log, a content log
// and the persistent index together. It owns its append mutex, its cached
// content-log counters, its index handle and its bootstrap state — nothing
// else. The two logs are shared by reference with any checkouts derived
// from this drive.
type Drive struct {
	events *eventPublisher

	bootstrapOnce sync.Once
	bootstrapErr  error

	binder *storage.Binder
	opts   OpenOpts

	metadata feed.Feed
	content  feed.Feed
	idx      *index.Index

	// appendMu serializes content-log appends across concurrent
	// WriteStream callers.
	appendMu sync.Mutex

	countersMu            sync.Mutex
	contentFeedLength     uint64
	contentFeedByteLength uint64

	// closeOnDrop is false for checkouts: they share the parent's logs and
	// must never close them.
	closeOnDrop bool
}

// Create opens a brand-new drive over the given storage, generating a fresh
// metadata keypair.
func Create(d StorageDescriptor) (*Drive, error) {
	return open(d, OpenOpts{})
}

// Open opens an existing drive by its metadata log's public key. Pass a
// non-nil Secret to open it writable.
func Open(d StorageDescriptor, opts OpenOpts) (*Drive, error) {
	if opts.Key == nil {
		return nil, xerrors.New("hyperdrive: Open requires a Key; use Create for a new drive")
	}
	return open(d, opts)
}

func open(d StorageDescriptor, opts OpenOpts) (*Drive, error) {
	binder, err := bindStorage(d)
	if err != nil {
		return nil, err
	}
	drive := &Drive{
		events:      newEventPublisher(),
		binder:      binder,
		opts:        opts,
		closeOnDrop: true,
	}
	if _, err := drive.ensureReady(); err != nil {
		return nil, err
	}
	return drive, nil
}

// ensureReady runs bootstrap exactly once and caches its outcome; every
// caller, whether it arrives before or after the first run completes,
// observes the same result.
// sync.Once alone would give the "exactly once" guarantee but not a place to
// park the result for late arrivals, so the winning call stores into
// d.metadata/d.content/d.idx/d.bootstrapErr before the Once unblocks anyone
// waiting behind it.
func (d *Drive) ensureReady() (*bootstrapResult, error) {
	d.bootstrapOnce.Do(func() {
		result, err := doBootstrap(d.binder, d.opts, d.events)
		if err != nil {
			d.bootstrapErr = &BootstrapError{Cause: err}
			d.events.Publish(Event{Kind: EventError, Err: d.bootstrapErr})
			return
		}
		d.metadata = result.metadata
		d.content = result.content
		d.idx = result.idx
		d.countersMu.Lock()
		d.contentFeedLength = d.content.Length()
		d.contentFeedByteLength = d.content.ByteLength()
		d.countersMu.Unlock()
		d.events.Publish(Event{Kind: EventReady})
	})
	if d.bootstrapErr != nil {
		return nil, d.bootstrapErr
	}
	return &bootstrapResult{metadata: d.metadata, content: d.content, idx: d.idx}, nil
}

// Key is the metadata log's public key, the drive's stable identity.
func (d *Drive) Key() (ed25519.PublicKey, error) {
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	return d.metadata.Key(), nil
}

// DiscoveryKey is the public, non-reversible rendezvous tag derived from Key.
func (d *Drive) DiscoveryKey() ([32]byte, error) {
	if _, err := d.ensureReady(); err != nil {
		return [32]byte{}, err
	}
	return d.metadata.DiscoveryKey(), nil
}

// Version is the index's own mutation-count version, preserved unchanged,
// 1-based, rather than renumbered to a 0-based scheme.
func (d *Drive) Version() (uint64, error) {
	if _, err := d.ensureReady(); err != nil {
		return 0, err
	}
	return d.idx.Version(), nil
}

// Subscribe delivers every drive-level event (ready, content, update,
// appending, append, error) until unsubscribe is called.
func (d *Drive) Subscribe() (<-chan Event, func()) {
	return d.events.Subscribe()
}

// Close shuts down both logs. For a checkout, Close is a no-op: the logs are
// owned by the parent drive.
func (d *Drive) Close() error {
	if !d.closeOnDrop {
		return nil
	}
	if _, err := d.ensureReady(); err != nil {
		return err
	}
	var g errgroup.Group
	g.Go(d.metadata.Close)
	if d.content != nil {
		g.Go(d.content.Close)
	}
	return g.Wait()
}

// Checkout returns a new Drive sharing this drive's logs but bound to an
// immutable index snapshot as of version. The checkout skips bootstrap
// entirely — it starts already marked ready.
func (d *Drive) Checkout(version uint64) (*Drive, error) {
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	snap, err := d.idx.Checkout(version)
	if err != nil {
		return nil, &InvalidCheckoutError{Reason: err.Error()}
	}
	checkout := &Drive{
		events:      newEventPublisher(),
		binder:      d.binder,
		metadata:    d.metadata,
		content:     d.content,
		idx:         snap,
		closeOnDrop: false,
	}
	checkout.bootstrapOnce.Do(func() {})
	checkout.setContentCounters(d.contentCounters())
	checkout.events.Publish(Event{Kind: EventReady})
	return checkout, nil
}

func (d *Drive) contentCounters() (length, byteLength uint64) {
	d.countersMu.Lock()
	defer d.countersMu.Unlock()
	return d.contentFeedLength, d.contentFeedByteLength
}

func (d *Drive) setContentCounters(length, byteLength uint64) {
	d.countersMu.Lock()
	d.contentFeedLength, d.contentFeedByteLength = length, byteLength
	d.countersMu.Unlock()
}
