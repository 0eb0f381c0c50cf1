package hyperdrive

import "fmt"

// FileNotFoundError is returned by read, stat, unlink and read_stream
// operations on a path absent from the index.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("%s: file not found", e.Path)
}

// DirectoryNotEmptyError is returned by rmdir when the directory still has
// at least one child entry.
type DirectoryNotEmptyError struct {
	Path string
}

func (e *DirectoryNotEmptyError) Error() string {
	return fmt.Sprintf("%s: directory not empty", e.Path)
}

// InvalidCheckoutError signals that the index could not produce a snapshot
// for the version passed to Checkout (e.g. a version beyond the current
// one).
type InvalidCheckoutError struct {
	Reason string
}

func (e *InvalidCheckoutError) Error() string {
	return "invalid checkout: " + e.Reason
}

// BootstrapError wraps the first failure encountered while bringing a
// drive up. It is cached on the drive and replayed verbatim to every
// subsequent caller.
type BootstrapError struct {
	Cause error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap failed: %v", e.Cause)
}

func (e *BootstrapError) Unwrap() error { return e.Cause }

// StreamError wraps a failure surfaced by the underlying log stream during
// a read or write.
type StreamError struct {
	Cause error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Cause)
}

func (e *StreamError) Unwrap() error { return e.Cause }
