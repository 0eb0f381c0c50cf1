package feed

import (
	"encoding/binary"
	"fmt"
	"io"
)

// replicateFeed runs the wire-level half of feed replication shared by
// MemoryFeed and StoredFeed: each side announces its block count, then sends
// every block it holds, unconditionally. This is a minimal full-resync
// protocol, not hypercore's Merkle-proof replication — it does not diff
// against what the peer already has.
func replicateFeed(length func() uint64, get func(uint64) ([]byte, error), receive func([]byte) error, rw io.ReadWriter) error {
	errc := make(chan error, 2)

	go func() {
		errc <- sendBlocks(length(), get, rw)
	}()
	go func() {
		errc <- recvBlocks(receive, rw)
	}()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func sendBlocks(length uint64, get func(uint64) ([]byte, error), w io.Writer) error {
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], length)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("replicate: announcing length: %w", err)
	}
	for i := uint64(0); i < length; i++ {
		block, err := get(i)
		if err != nil {
			return fmt.Errorf("replicate: reading block %d: %w", i, err)
		}
		var lbuf [4]byte
		binary.BigEndian.PutUint32(lbuf[:], uint32(len(block)))
		if _, err := w.Write(lbuf[:]); err != nil {
			return fmt.Errorf("replicate: writing block %d length: %w", i, err)
		}
		if _, err := w.Write(block); err != nil {
			return fmt.Errorf("replicate: writing block %d: %w", i, err)
		}
	}
	return nil
}

// recvBlocks reads the peer's announced blocks and hands each to receive,
// which stores it directly regardless of whether this feed holds the
// secret key — replication trusts the log's own verification, not local
// write authority.
func recvBlocks(receive func([]byte) error, r io.Reader) error {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return fmt.Errorf("replicate: reading peer length: %w", err)
	}
	peerLength := binary.BigEndian.Uint64(hdr[:])
	for i := uint64(0); i < peerLength; i++ {
		var lbuf [4]byte
		if _, err := io.ReadFull(r, lbuf[:]); err != nil {
			return fmt.Errorf("replicate: reading block %d length: %w", i, err)
		}
		block := make([]byte, binary.BigEndian.Uint32(lbuf[:]))
		if _, err := io.ReadFull(r, block); err != nil {
			return fmt.Errorf("replicate: reading block %d: %w", i, err)
		}
		if err := receive(block); err != nil {
			return fmt.Errorf("replicate: appending received block %d: %w", i, err)
		}
	}
	return nil
}
