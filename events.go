package hyperdrive

import "github.com/anotherjesse/hyperdrive/internal/broadcast"

// EventKind identifies one of the drive's observable signals.
type EventKind int

const (
	// EventReady fires once bootstrap completes successfully.
	EventReady EventKind = iota
	// EventContent fires once the content log becomes available. Bootstrap
	// opens the content log in every mode, so it is published before
	// EventReady.
	EventContent
	// EventUpdate fires on every metadata-log append, including remote ones
	// observed during replication.
	EventUpdate
	// EventAppending fires just before bytes for path are appended to the
	// content log.
	EventAppending
	// EventAppend fires once the Stat for path has been committed to the
	// index.
	EventAppend
	// EventError fires when bootstrap or a background subscription observes
	// a terminal error.
	EventError
)

// Event is one observable signal emitted by a drive.
type Event struct {
	Kind EventKind
	Path string // set for EventAppending/EventAppend
	Err  error  // set for EventError
}

type eventPublisher = broadcast.Publisher[Event]

func newEventPublisher() *eventPublisher { return broadcast.New[Event]() }
