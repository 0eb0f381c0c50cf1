package feed

import (
	"bytes"
	"crypto/ed25519"
	"io"
	"testing"
)

func TestMemoryFeedAppendAndGet(t *testing.T) {
	pub, secret, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	f := NewMemoryFeed(pub, secret)

	if !f.Writable() {
		t.Fatalf("feed with a secret key reports Writable() = false")
	}
	if err := f.Append([]byte("block one")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append([]byte("block two")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got, want := f.Length(), uint64(2); got != want {
		t.Fatalf("Length() = %d, want %d", got, want)
	}
	if got, want := f.ByteLength(), uint64(len("block one")+len("block two")); got != want {
		t.Fatalf("ByteLength() = %d, want %d", got, want)
	}

	block, err := f.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if !bytes.Equal(block, []byte("block one")) {
		t.Fatalf("Get(0) = %q, want %q", block, "block one")
	}
}

func TestMemoryFeedReadOnlyRejectsAppend(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	f := NewMemoryFeed(pub, nil)
	if f.Writable() {
		t.Fatalf("feed with no secret key reports Writable() = true")
	}
	if err := f.Append([]byte("x")); err == nil {
		t.Fatalf("Append on a read-only feed succeeded, want error")
	}
}

func TestMemoryFeedGetOutOfRange(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	f := NewMemoryFeed(pub, secret)
	if _, err := f.Get(0); err == nil {
		t.Fatalf("Get on an empty feed succeeded, want error")
	}
}

func TestMemoryFeedCreateReadStream(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	f := NewMemoryFeed(pub, secret)
	for _, b := range []string{"aaaa", "bbbb", "cccc"} {
		if err := f.Append([]byte(b)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rs, err := f.CreateReadStream(ReadStreamOpts{
		BlockOffset: 1,
		BlockLength: 2,
		ByteOffset:  2,
		ByteLength:  5,
	})
	if err != nil {
		t.Fatalf("CreateReadStream: %v", err)
	}
	defer rs.Close()

	got, err := io.ReadAll(rs)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Blocks 1..2 concatenated is "bbbbcccc"; skipping 2 bytes and taking 5
	// yields "bbccc".
	if want := "bbccc"; string(got) != want {
		t.Fatalf("read stream = %q, want %q", got, want)
	}
}

func TestMemoryFeedCreateWriteStream(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	f := NewMemoryFeed(pub, secret)
	ws := f.CreateWriteStream()
	if _, err := ws.Write([]byte("one")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := ws.Write([]byte("two")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got, want := f.Length(), uint64(2); got != want {
		t.Fatalf("Length() = %d, want %d (one Write == one block)", got, want)
	}
	if _, err := ws.Write([]byte("after close")); err != io.ErrClosedPipe {
		t.Fatalf("Write after Close = %v, want io.ErrClosedPipe", err)
	}
}

func TestDiscoveryKeyDeterministicAndDistinct(t *testing.T) {
	pub1, _, _ := ed25519.GenerateKey(nil)
	pub2, _, _ := ed25519.GenerateKey(nil)

	if DiscoveryKey(pub1) != DiscoveryKey(pub1) {
		t.Fatalf("DiscoveryKey is not deterministic for the same public key")
	}
	if DiscoveryKey(pub1) == DiscoveryKey(pub2) {
		t.Fatalf("two distinct public keys produced the same discovery key")
	}
}
