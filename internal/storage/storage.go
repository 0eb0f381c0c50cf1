// Package storage provides the random-access byte-storage handles a drive's
// two logs are bound to, and the binder that hands them out. It mirrors
// hypercore's random-access-storage contract: a named handle supporting
// ReadAt/WriteAt regardless of whether the caller ends up using it for
// writing.
package storage

import "io"

// ByteStorage is a random-access byte-storage handle, e.g. one feed's data
// file.
type ByteStorage interface {
	io.ReaderAt
	WriteAt(p []byte, off int64) (int, error)
	Size() (int64, error)
	Close() error
}

// Factory opens (creating if necessary) the named handle under some
// namespace. writable hints that the caller intends to append to it, so a
// file-backed factory can take an exclusive lock enforcing the
// single-writer invariant at the OS level.
type Factory func(name string, writable bool) (ByteStorage, error)

// Binder is the product of the Storage Binder: two namespaced
// factories, one for metadata-log files and one for content-log files.
type Binder struct {
	Metadata Factory
	Content  Factory
}
