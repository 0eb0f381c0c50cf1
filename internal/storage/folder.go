package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
	"golang.org/x/exp/mmap"
	"golang.org/x/sys/unix"
)

// fileHandle is a ByteStorage backed by a real file. Reads go through a
// memory-mapped view (re-opened lazily whenever the file has grown since the
// last read, the same staleness check internal/squashfs/reader.go applies to
// its own section cache); writes go straight to the os.File. A writable
// handle holds an exclusive, non-blocking flock for as long as it is open,
// enforcing the single-writer invariant at the OS level in addition to the
// in-process append mutex the coordinator already holds.
type fileHandle struct {
	mu sync.Mutex

	f        *os.File
	writable bool

	mr     *mmap.ReaderAt
	mrSize int64
}

func openFileHandle(path string, writable bool) (*fileHandle, error) {
	if writable {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// Materialize a fresh empty file atomically, the same
			// temp-then-rename pattern internal/install/install.go uses for
			// writing package files: a crash between creation and the first
			// real append must never leave a torn/partial file visible to a
			// concurrent opener.
			t, err := renameio.TempFile("", path)
			if err != nil {
				return nil, fmt.Errorf("storage: creating %s: %w", path, err)
			}
			defer t.Cleanup()
			if err := t.CloseAtomicallyReplace(); err != nil {
				return nil, fmt.Errorf("storage: creating %s: %w", path, err)
			}
		}
	}
	flags := os.O_RDONLY
	if writable {
		flags = os.O_CREATE | os.O_RDWR
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	if writable {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: locking %s: %w (already open for writing elsewhere?)", path, err)
		}
	}
	return &fileHandle{f: f, writable: writable}, nil
}

func (h *fileHandle) reader() (*mmap.ReaderAt, error) {
	fi, err := h.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("storage: stat: %w", err)
	}
	if h.mr != nil && h.mrSize == fi.Size() {
		return h.mr, nil
	}
	if h.mr != nil {
		h.mr.Close()
		h.mr = nil
	}
	if fi.Size() == 0 {
		return nil, nil
	}
	mr, err := mmap.Open(h.f.Name())
	if err != nil {
		return nil, fmt.Errorf("storage: mmap: %w", err)
	}
	h.mr = mr
	h.mrSize = fi.Size()
	return h.mr, nil
}

func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mr, err := h.reader()
	if err != nil {
		return 0, err
	}
	if mr == nil {
		return 0, fmt.Errorf("storage: read past end of empty file")
	}
	return mr.ReadAt(p, off)
}

func (h *fileHandle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.writable {
		return 0, fmt.Errorf("storage: handle opened read-only")
	}
	return h.f.WriteAt(p, off)
}

func (h *fileHandle) Size() (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fi, err := h.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat: %w", err)
	}
	return fi.Size(), nil
}

func (h *fileHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mr != nil {
		h.mr.Close()
		h.mr = nil
	}
	if h.writable {
		unix.Flock(int(h.f.Fd()), unix.LOCK_UN)
	}
	return h.f.Close()
}

// FolderFactory returns a Factory rooted at dir, one file per name. dir is
// created if it does not already exist.
func FolderFactory(dir string) Factory {
	return func(name string, writable bool) (ByteStorage, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
		}
		return openFileHandle(filepath.Join(dir, name), writable)
	}
}
