package hyperdrive

import (
	"io"

	"golang.org/x/xerrors"
)

// writeChunkSize is the largest buffer WriteFile will hand to a single
// content-log append, avoiding oversized single blocks.
const writeChunkSize = 64 * 1024

// WriteStream opens a byte sink appending to path's content. The append
// mutex is held for the sink's entire lifetime: acquired on open, released
// on Close (success or failure). The Stat is only committed to the index
// once Close succeeds; a write aborted by returning a non-nil error from a
// partial Write, or by never calling Close, leaves the appended bytes
// unreachable but present.
func (d *Drive) WriteStream(path string, opts FileOpts) (io.WriteCloser, error) {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}

	d.appendMu.Lock()
	offset0, byteOffset0 := d.content.Length(), d.content.ByteLength()
	d.events.Publish(Event{Kind: EventAppending, Path: path})

	return &writeSink{
		drive:       d,
		path:        path,
		opts:        opts,
		offset0:     offset0,
		byteOffset0: byteOffset0,
		sink:        d.content.CreateWriteStream(),
	}, nil
}

// writeSink is the io.WriteCloser handed back by WriteStream. Every Write
// forwards to the content log's own write stream (one Write = one block);
// Close computes the produced range, builds and commits the Stat, updates
// the drive's cached counters, and only then releases the append mutex.
type writeSink struct {
	drive *Drive
	path  string
	opts  FileOpts

	offset0, byteOffset0 uint64
	sink                 io.WriteCloser

	closed bool
	failed bool
	err    error
}

func (w *writeSink) Write(p []byte) (int, error) {
	n, err := w.sink.Write(p)
	if err != nil {
		w.failed = true
		w.err = err
	}
	return n, err
}

func (w *writeSink) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.drive.appendMu.Unlock()

	if err := w.sink.Close(); err != nil {
		w.failed = true
		w.err = err
	}
	if w.failed {
		w.drive.events.Publish(Event{Kind: EventError, Path: w.path, Err: &StreamError{Cause: w.err}})
		return &StreamError{Cause: w.err}
	}

	length := w.drive.content.ByteLength() - w.byteOffset0
	blocks := w.drive.content.Length() - w.offset0

	st := File(w.offset0, blocks, w.byteOffset0, length, w.opts)
	if err := w.drive.idx.Put(w.path, Encode(st)); err != nil {
		w.drive.events.Publish(Event{Kind: EventError, Path: w.path, Err: err})
		return xerrors.Errorf("committing stat for %s: %w", w.path, err)
	}

	w.drive.setContentCounters(w.drive.content.Length(), w.drive.content.ByteLength())
	w.drive.events.Publish(Event{Kind: EventAppend, Path: w.path})
	return nil
}

// WriteFile is the buffer convenience over WriteStream: buffers larger than
// writeChunkSize are split into chunks before writing.
func (d *Drive) WriteFile(path string, data []byte, opts FileOpts) error {
	sink, err := d.WriteStream(path, opts)
	if err != nil {
		return err
	}
	for len(data) > 0 {
		n := len(data)
		if n > writeChunkSize {
			n = writeChunkSize
		}
		if _, err := sink.Write(data[:n]); err != nil {
			sink.Close()
			return &StreamError{Cause: err}
		}
		data = data[n:]
	}
	return sink.Close()
}

// Mkdir inserts a directory Stat at path, snapshotting the content log's
// current position but never consuming content-log bytes.
func (d *Drive) Mkdir(path string, opts FileOpts) error {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return err
	}
	offset, byteOffset := d.contentCounters()
	st := Directory(offset, byteOffset, opts)
	return d.idx.Put(path, Encode(st))
}

// Unlink removes path's index entry. Content-log bytes are never reclaimed.
func (d *Drive) Unlink(path string) error {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return err
	}
	if _, ok, err := d.idx.Get(path); err != nil {
		return err
	} else if !ok {
		return &FileNotFoundError{Path: path}
	}
	return d.idx.Del(path)
}

// Rmdir removes the directory Stat at path if it has no children. This
// routes through Unlink rather than a separate recursive-delete helper.
func (d *Drive) Rmdir(path string) error {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return err
	}
	if d.idx.HasChildren(path) {
		return &DirectoryNotEmptyError{Path: path}
	}
	return d.Unlink(path)
}
