package storage

import (
	"fmt"
	"io"
	"sync"

	"github.com/orcaman/writerseeker"
)

// memoryHandle is an in-process ByteStorage backed by writerseeker's
// in-memory io.WriteSeeker. It is what BindMemory hands out, used for
// ephemeral drives and tests — the same role orcaman/writerseeker plays
// wherever a random-access sink is needed without touching disk.
type memoryHandle struct {
	mu sync.Mutex
	ws writerseeker.WriterSeeker
}

func (h *memoryHandle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ws.BytesReader().ReadAt(p, off)
}

func (h *memoryHandle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.ws.Seek(off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("storage: seeking in-memory handle: %w", err)
	}
	return h.ws.Write(p)
}

func (h *memoryHandle) Size() (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(h.ws.BytesReader().Len()), nil
}

func (h *memoryHandle) Close() error { return nil }

// MemoryFactory returns a Factory whose handles are shared in-process
// buffers, namespaced by name: repeated calls with the same name return the
// same handle, matching the "named handle" contract a folder-backed factory
// gives for a path.
func MemoryFactory() Factory {
	var mu sync.Mutex
	handles := make(map[string]*memoryHandle)
	return func(name string, writable bool) (ByteStorage, error) {
		mu.Lock()
		defer mu.Unlock()
		h, ok := handles[name]
		if !ok {
			h = &memoryHandle{}
			// force writerseeker to allocate its backing buffer now, so
			// BytesReader/Size are safe to call before any real Write.
			h.ws.Write(nil)
			handles[name] = h
		}
		return h, nil
	}
}

// BindMemory produces a Binder over two independent in-memory namespaces,
// one per log.
func BindMemory() *Binder {
	return &Binder{Metadata: MemoryFactory(), Content: MemoryFactory()}
}
