package gateway

import (
	"bytes"
	"io"
	"os"
	"path"
	"time"

	"github.com/anotherjesse/hyperdrive"
)

// fileInfo adapts a hyperdrive.Stat to os.FileInfo so the standard
// net/http static-file machinery (and gzipped.FileServer, which is built on
// it) can negotiate range requests and modification times the usual way.
type fileInfo struct {
	name string
	st   *hyperdrive.Stat
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return int64(fi.st.Size) }
func (fi fileInfo) Mode() os.FileMode  { return os.FileMode(fi.st.Mode) }
func (fi fileInfo) ModTime() time.Time { return time.Unix(0, fi.st.MTime) }
func (fi fileInfo) IsDir() bool        { return fi.st.IsDirectory() }
func (fi fileInfo) Sys() interface{}   { return fi.st }

type driveFile struct {
	*bytes.Reader
	info fileInfo
}

func newDriveFile(p string, st *hyperdrive.Stat, data []byte) *driveFile {
	return &driveFile{Reader: bytes.NewReader(data), info: fileInfo{name: path.Base(p), st: st}}
}

func (f *driveFile) Close() error                       { return nil }
func (f *driveFile) Stat() (os.FileInfo, error)         { return f.info, nil }
func (f *driveFile) Readdir(int) ([]os.FileInfo, error) { return nil, os.ErrInvalid }

type driveDir struct {
	path  string
	names []string
	st    *hyperdrive.Stat
	pos   int
}

func (d *driveDir) Read([]byte) (int, error)     { return 0, os.ErrInvalid }
func (d *driveDir) Seek(int64, int) (int64, error) { return 0, os.ErrInvalid }
func (d *driveDir) Close() error                 { return nil }
func (d *driveDir) Stat() (os.FileInfo, error) {
	return fileInfo{name: path.Base(d.path), st: d.st}, nil
}

func (d *driveDir) Readdir(count int) ([]os.FileInfo, error) {
	remaining := d.names[d.pos:]
	if count > 0 && len(remaining) > count {
		remaining = remaining[:count]
	}
	out := make([]os.FileInfo, 0, len(remaining))
	for _, name := range remaining {
		out = append(out, fileInfo{name: name, st: hyperdrive.Directory(0, 0, hyperdrive.FileOpts{})})
	}
	d.pos += len(remaining)
	if count > 0 && len(remaining) == 0 {
		return nil, io.EOF
	}
	return out, nil
}
