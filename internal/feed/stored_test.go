package feed

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/anotherjesse/hyperdrive/internal/storage"
)

func TestStoredFeedAppendGetAndReopen(t *testing.T) {
	pub, secret, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	factory := storage.FolderFactory(t.TempDir())
	store, err := factory("data", true)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	f, err := OpenStoredFeed(store, pub, secret)
	if err != nil {
		t.Fatalf("OpenStoredFeed: %v", err)
	}
	if err := f.Append([]byte("first")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append([]byte("second block")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store2, err := factory("data", false)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	restored, err := OpenStoredFeed(store2, pub, nil)
	if err != nil {
		t.Fatalf("OpenStoredFeed on restore: %v", err)
	}
	defer restored.Close()

	if got, want := restored.Length(), uint64(2); got != want {
		t.Fatalf("restored Length() = %d, want %d", got, want)
	}
	block, err := restored.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if !bytes.Equal(block, []byte("second block")) {
		t.Fatalf("Get(1) = %q, want %q", block, "second block")
	}
	if restored.Writable() {
		t.Fatalf("feed restored with no secret key reports Writable() = true")
	}
}

func TestStoredFeedByteLengthTracksAppendedBytes(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	store, err := storage.MemoryFactory()("data", true)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	f, err := OpenStoredFeed(store, pub, secret)
	if err != nil {
		t.Fatalf("OpenStoredFeed: %v", err)
	}

	if err := f.Append([]byte("abcd")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append([]byte("xyz")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got, want := f.ByteLength(), uint64(7); got != want {
		t.Fatalf("ByteLength() = %d, want %d", got, want)
	}
}

func TestStoredFeedGetOutOfRange(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	store, _ := storage.MemoryFactory()("data", true)
	f, err := OpenStoredFeed(store, pub, secret)
	if err != nil {
		t.Fatalf("OpenStoredFeed: %v", err)
	}
	if _, err := f.Get(0); err == nil {
		t.Fatalf("Get on empty feed succeeded, want error")
	}
}
