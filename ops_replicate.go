package hyperdrive

import (
	"io"

	"github.com/anotherjesse/hyperdrive/replicate"
)

// Replicate obtains a bidirectional replication stream over rw. The
// metadata log always replicates; the content log is attached only once
// bootstrap has reached content-ready, so the content leg is simply never
// attached when content isn't ready yet.
func (d *Drive) Replicate(rw io.ReadWriter) error {
	if _, err := d.ensureReady(); err != nil {
		return err
	}
	return replicate.Stream(d.metadata, d.content, rw)
}
