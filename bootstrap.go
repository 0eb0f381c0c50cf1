package hyperdrive

import (
	"crypto/ed25519"

	"golang.org/x/xerrors"

	"github.com/anotherjesse/hyperdrive/internal/feed"
	"github.com/anotherjesse/hyperdrive/internal/index"
	"github.com/anotherjesse/hyperdrive/internal/storage"
)

// OpenOpts parameterizes Open/Create.
type OpenOpts struct {
	// Key, if set, opens an existing drive by its metadata log's public
	// key. Leave nil to create a fresh drive (a new keypair is generated).
	Key ed25519.PublicKey
	// Secret, if set alongside Key, makes the metadata log writable.
	// Ignored when Key is nil (a fresh drive is always writable).
	Secret ed25519.PrivateKey
}

// bootstrapResult is everything a completed bootstrap produces.
type bootstrapResult struct {
	metadata feed.Feed
	content  feed.Feed
	idx      *index.Index
}

// doBootstrap opens the metadata log, then branches on whether it is
// freshly created or being restored from existing storage.
func doBootstrap(binder *storage.Binder, opts OpenOpts, events *eventPublisher) (*bootstrapResult, error) {
	writable := opts.Key == nil || opts.Secret != nil

	metaStore, err := binder.Metadata("data", writable)
	if err != nil {
		return nil, xerrors.Errorf("opening metadata storage: %w", err)
	}

	metaPub, metaSecret := opts.Key, opts.Secret
	if metaPub == nil {
		kp, err := GenerateKeypair()
		if err != nil {
			return nil, xerrors.Errorf("generating metadata keypair: %w", err)
		}
		metaPub, metaSecret = kp.Public, kp.Secret
	}

	metaFeed, err := feed.OpenStoredFeed(metaStore, metaPub, metaSecret)
	if err != nil {
		return nil, xerrors.Errorf("opening metadata log: %w", err)
	}
	forwardAppendEvents(metaFeed, events)

	if metaFeed.Writable() && metaFeed.Length() == 0 {
		return bootstrapFresh(binder, metaFeed, metaSecret, events)
	}
	return bootstrapRestore(binder, metaFeed, metaSecret, events)
}

// bootstrapFresh is the "fresh writable" branch: the metadata log is brand
// new, so derive the content keypair, open the content log, and build the
// index — writing the header block as the index's first committed entry.
func bootstrapFresh(binder *storage.Binder, metaFeed feed.Feed, metaSecret ed25519.PrivateKey, events *eventPublisher) (*bootstrapResult, error) {
	contentKeypair, err := DeriveContentKeypair(metaSecret)
	if err != nil {
		return nil, xerrors.Errorf("deriving content keypair: %w", err)
	}

	contentFeed, err := openContentFeed(binder, contentKeypair.Public, contentKeypair.Secret)
	if err != nil {
		return nil, err
	}

	idx, err := index.Open(metaFeed)
	if err != nil {
		return nil, xerrors.Errorf("opening index: %w", err)
	}
	if err := idx.WriteHeader([]byte(contentKeypair.Public)); err != nil {
		return nil, xerrors.Errorf("writing metadata header: %w", err)
	}

	events.Publish(Event{Kind: EventContent})
	return &bootstrapResult{metadata: metaFeed, content: contentFeed, idx: idx}, nil
}

// bootstrapRestore is the "restore" branch: the metadata log already
// exists. If it is writable the content secret key is recoverable
// deterministically; otherwise the content log's public key must come from
// the metadata header, which requires replaying the index first.
func bootstrapRestore(binder *storage.Binder, metaFeed feed.Feed, metaSecret ed25519.PrivateKey, events *eventPublisher) (*bootstrapResult, error) {
	idx, err := index.Open(metaFeed)
	if err != nil {
		return nil, xerrors.Errorf("opening index: %w", err)
	}

	if metaFeed.Writable() {
		contentKeypair, err := DeriveContentKeypair(metaSecret)
		if err != nil {
			return nil, xerrors.Errorf("deriving content keypair: %w", err)
		}
		contentFeed, err := openContentFeed(binder, contentKeypair.Public, contentKeypair.Secret)
		if err != nil {
			return nil, err
		}
		events.Publish(Event{Kind: EventContent})
		return &bootstrapResult{metadata: metaFeed, content: contentFeed, idx: idx}, nil
	}

	header, ok := idx.GetMetadata()
	if !ok {
		return nil, xerrors.Errorf("restoring drive: metadata log has no header block yet")
	}
	contentFeed, err := openContentFeed(binder, ed25519.PublicKey(header), nil)
	if err != nil {
		return nil, err
	}
	events.Publish(Event{Kind: EventContent})
	return &bootstrapResult{metadata: metaFeed, content: contentFeed, idx: idx}, nil
}

func openContentFeed(binder *storage.Binder, pub ed25519.PublicKey, secret ed25519.PrivateKey) (feed.Feed, error) {
	store, err := binder.Content("data", secret != nil)
	if err != nil {
		return nil, xerrors.Errorf("opening content storage: %w", err)
	}
	cf, err := feed.OpenStoredFeed(store, pub, secret)
	if err != nil {
		return nil, xerrors.Errorf("opening content log: %w", err)
	}
	return cf, nil
}

// forwardAppendEvents re-publishes the metadata log's append events as
// drive-level update events, and its error events as drive-level errors.
// The goroutine exits only if the feed's event channel closes; neither the
// feed's Close nor the drive's Close ends the subscription, so it keeps
// running after the drive is closed.
func forwardAppendEvents(f feed.Feed, events *eventPublisher) {
	ch, _ := f.Subscribe()
	go func() {
		for ev := range ch {
			switch ev.Kind {
			case feed.EventAppend:
				events.Publish(Event{Kind: EventUpdate})
			case feed.EventError:
				events.Publish(Event{Kind: EventError, Err: ev.Err})
			}
		}
	}()
}
