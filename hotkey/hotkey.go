// Package hotkey watches the global keyboard for the push-to-talk
// combination, independent of which window has focus. Events are
// edge-triggered: a held key yields exactly one Press and one Release, no
// matter how long it is held or how the hardware repeats.
package hotkey

import "time"

type Kind int

const (
	Press Kind = iota
	Release
	// Cancel aborts any in-flight run without starting a new one
	// (bound to Escape where the platform backend supports it).
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

type Event struct {
	Kind Kind
	At   time.Time
}

// Watcher emits a lazy, infinite sequence of hotkey events. Register
// failures are fatal startup errors, not retryable ones.
type Watcher interface {
	Register() error
	Unregister()
	Events() <-chan Event
	// Rebind swaps the watched combination without restarting the
	// observation loop.
	Rebind(Combo) error
}
