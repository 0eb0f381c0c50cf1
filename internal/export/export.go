// Package export streams a drive checkout out as a compressed tar-less
// archive of (path, bytes) records — one gzip member per file, so a reader
// can decompress entries independently without buffering the whole export.
// Uses github.com/klauspost/compress for the single-threaded path and
// github.com/klauspost/pgzip when the caller wants multiple cores
// compressing large files concurrently.
package export

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
	"golang.org/x/xerrors"

	"github.com/anotherjesse/hyperdrive"
)

// Opts controls export behavior.
type Opts struct {
	// Parallel selects pgzip (multiple cores) over compress/gzip
	// (single-threaded); worthwhile once individual files are large.
	Parallel bool
}

// Export walks every path in drive (as of whatever checkout the caller
// passed) and writes it to w as a sequence of records: a big-endian
// uint16 path length, the path bytes, a big-endian uint64 content length,
// then the gzip-compressed content itself.
func Export(drive *hyperdrive.Drive, w io.Writer, opts Opts) error {
	paths, err := walk(drive, "")
	if err != nil {
		return xerrors.Errorf("export: listing drive: %w", err)
	}
	for _, path := range paths {
		if err := exportOne(drive, w, path, opts); err != nil {
			return xerrors.Errorf("export: %s: %w", path, err)
		}
	}
	return nil
}

func walk(drive *hyperdrive.Drive, dir string) ([]string, error) {
	names, err := drive.Readdir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		child := name
		if dir != "" {
			child = dir + "/" + name
		}
		st, err := drive.Stat(child)
		if err != nil {
			return nil, err
		}
		if st.IsDirectory() {
			sub, err := walk(drive, child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, child)
	}
	return out, nil
}

func exportOne(drive *hyperdrive.Drive, w io.Writer, path string, opts Opts) error {
	data, err := drive.ReadFile(path)
	if err != nil {
		return err
	}

	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(path)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, path); err != nil {
		return err
	}

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}

	gz, err := newWriter(w, opts)
	if err != nil {
		return err
	}
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func newWriter(w io.Writer, opts Opts) (io.WriteCloser, error) {
	if opts.Parallel {
		return pgzip.NewWriterLevel(w, gzip.BestSpeed)
	}
	return gzip.NewWriterLevel(w, gzip.BestSpeed)
}
