package feedback

import (
	"fmt"
	"sync"
	"time"
)

// Recorder is a test sink that logs every notification it receives.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) RecordingStarted()    { r.add("recording_started") }
func (r *Recorder) RecordingStopped()    { r.add("recording_stopped") }
func (r *Recorder) NoSpeechDetected()    { r.add("no_speech") }
func (r *Recorder) TranscribingStarted() { r.add("transcribing") }
func (r *Recorder) Warning(msg string)   { r.add("warning: " + msg) }
func (r *Recorder) Done(text string)     { r.add("done: " + text) }

func (r *Recorder) Error(kind ErrorKind, msg string) {
	r.add(fmt.Sprintf("error(%s): %s", kind, msg))
}

// Level and Tick arrive on a timer and are not interesting to assert on.
func (r *Recorder) Level(float64) {}
func (r *Recorder) Tick(float64)  {}

// Events returns a snapshot of everything received so far.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many received events have the given prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, ev := range r.Events() {
		if len(ev) >= len(prefix) && ev[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// WaitFor polls until an event with the given prefix arrives or the timeout
// expires. Returns the matching event, or "" on timeout.
func (r *Recorder) WaitFor(prefix string, timeout time.Duration) string {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, ev := range r.Events() {
			if len(ev) >= len(prefix) && ev[:len(prefix)] == prefix {
				return ev
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	return ""
}
