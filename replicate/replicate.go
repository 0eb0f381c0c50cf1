// Package replicate attaches a Drive's two logs to a shared bidirectional
// transport. It declares ExpectedFeeds = 2 so a peer knows it must see both
// the metadata and content replication legs complete before considering the
// drive fully synced.
package replicate

import (
	"io"
	"net"

	"golang.org/x/net/netutil"
	"golang.org/x/xerrors"

	"github.com/anotherjesse/hyperdrive/internal/feed"
)

// ExpectedFeeds is the number of logs a full drive replication attaches:
// metadata and content.
const ExpectedFeeds = 2

// Stream replicates both of a drive's logs across rw, metadata first and
// then content. Feed.Replicate has no per-feed framing of its own — it reads
// and writes length-prefixed blocks directly on rw — so the two legs cannot
// run concurrently over one shared connection without their headers and
// block bytes interleaving; each leg must finish before the next starts. If
// content is nil (bootstrap hasn't reached content-ready yet), only the
// metadata leg runs; callers that need both feeds should wait for the
// drive's content-ready event before calling Stream.
func Stream(metadata, content feed.Feed, rw io.ReadWriter) error {
	if err := metadata.Replicate(rw); err != nil {
		return xerrors.Errorf("replicating metadata log: %w", err)
	}
	if content != nil {
		if err := content.Replicate(rw); err != nil {
			return xerrors.Errorf("replicating content log: %w", err)
		}
	}
	return nil
}

// Listen opens a TCP listener at addr, capped to maxConns simultaneous
// replication connections via golang.org/x/net/netutil, handing each
// accepted connection to handle.
func Listen(addr string, maxConns int, handle func(net.Conn)) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, xerrors.Errorf("listening on %s: %w", addr, err)
	}
	limited := netutil.LimitListener(ln, maxConns)
	go func() {
		for {
			conn, err := limited.Accept()
			if err != nil {
				return
			}
			go handle(conn)
		}
	}()
	return limited, nil
}
