package hotkey

import "time"

// FakeWatcher drives the pipeline in tests and headless test mode.
type FakeWatcher struct {
	events chan Event
}

func NewFake() *FakeWatcher {
	return &FakeWatcher{events: make(chan Event, 16)}
}

func (f *FakeWatcher) Register() error      { return nil }
func (f *FakeWatcher) Unregister()          {}
func (f *FakeWatcher) Rebind(Combo) error   { return nil }
func (f *FakeWatcher) Events() <-chan Event { return f.events }

func (f *FakeWatcher) SimPress()   { f.events <- Event{Kind: Press, At: time.Now()} }
func (f *FakeWatcher) SimRelease() { f.events <- Event{Kind: Release, At: time.Now()} }
func (f *FakeWatcher) SimCancel()  { f.events <- Event{Kind: Cancel, At: time.Now()} }
