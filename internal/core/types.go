package core

import (
	"fmt"
)

// EventKind is the normalized kind of a raw filesystem notification.
type EventKind int

const (
	EventInvalid EventKind = iota
	// EventAdded - new entry created inside a watched directory
	EventAdded
	// EventModified - watched file or an entry of a watched directory written
	EventModified
)

func (k EventKind) String() string {
	switch k {
	case EventInvalid:
		return "invalid"
	case EventAdded:
		return "added"
	case EventModified:
		return "modified"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}

// RawEvent is a single normalized change notification.
type RawEvent struct {
	// Target is the configured path the event is attributed to
	Target string
	// Name is the filesystem entry that actually changed,
	// equal to Target for file targets
	Name string
	Kind EventKind
}

func (e RawEvent) String() string {
	return fmt.Sprintf("%s %s (target %s)", e.Kind, e.Name, e.Target)
}
