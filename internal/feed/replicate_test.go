package feed

import (
	"bytes"
	"crypto/ed25519"
	"net"
	"testing"
	"time"
)

func TestReplicateSyncsBlocksBothWays(t *testing.T) {
	pub, secret, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	writer := NewMemoryFeed(pub, secret)
	for _, b := range []string{"one", "two", "three"} {
		if err := writer.Append([]byte(b)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// The peer only knows the public key: it cannot append locally, only
	// receive replicated blocks.
	peer := NewMemoryFeed(pub, nil)

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	errc := make(chan error, 2)
	go func() { errc <- writer.Replicate(a) }()
	go func() { errc <- peer.Replicate(b) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("Replicate: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Replicate did not complete in time")
		}
	}

	if got, want := peer.Length(), writer.Length(); got != want {
		t.Fatalf("peer.Length() = %d, want %d", got, want)
	}
	for i := uint64(0); i < peer.Length(); i++ {
		got, err := peer.Get(i)
		if err != nil {
			t.Fatalf("peer.Get(%d): %v", i, err)
		}
		want, err := writer.Get(i)
		if err != nil {
			t.Fatalf("writer.Get(%d): %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("block %d = %q, want %q", i, got, want)
		}
	}
}

func TestReplicateEmptyFeed(t *testing.T) {
	pub, secret, _ := ed25519.GenerateKey(nil)
	writer := NewMemoryFeed(pub, secret)
	peer := NewMemoryFeed(pub, nil)

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	errc := make(chan error, 2)
	go func() { errc <- writer.Replicate(a) }()
	go func() { errc <- peer.Replicate(b) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("Replicate: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Replicate did not complete in time")
		}
	}

	if got := peer.Length(); got != 0 {
		t.Fatalf("peer.Length() = %d, want 0", got)
	}
}
