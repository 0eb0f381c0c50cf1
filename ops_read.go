package hyperdrive

import (
	"io"

	"github.com/anotherjesse/hyperdrive/internal/feed"
)

// ReadStreamOpts parameterizes ReadStream.
type ReadStreamOpts struct {
	Start  int64 // defaults to 0
	Length int64 // defaults to stat.Size - Start; 0 means "unset", use the default
}

// ReadStream opens a byte-range stream over path's content, the stream's
// bytes coming straight from the content log's block range. Returns
// FileNotFoundError if path has no Stat.
func (d *Drive) ReadStream(path string, opts ReadStreamOpts) (io.ReadCloser, error) {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	st, err := d.lookupStat(path)
	if err != nil {
		return nil, err
	}

	start := opts.Start
	length := opts.Length
	if length == 0 {
		length = int64(st.Size) - start
	}

	rs, err := d.content.CreateReadStream(feed.ReadStreamOpts{
		BlockOffset: st.Offset,
		BlockLength: st.Blocks,
		ByteOffset:  start,
		ByteLength:  length,
	})
	if err != nil {
		return nil, &StreamError{Cause: err}
	}
	return rs, nil
}

// ReadFile is the buffer convenience over ReadStream: it collects the
// entire stream into memory.
func (d *Drive) ReadFile(path string) ([]byte, error) {
	rs, err := d.ReadStream(path, ReadStreamOpts{})
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	b, err := io.ReadAll(rs)
	if err != nil {
		return nil, &StreamError{Cause: err}
	}
	return b, nil
}

// lookupStat decodes the Stat stored at path, failing FileNotFound if
// absent.
func (d *Drive) lookupStat(path string) (*Stat, error) {
	raw, ok, err := d.idx.Get(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &FileNotFoundError{Path: path}
	}
	return Decode(raw)
}
