// Package feedback carries state-transition notifications from the pipeline
// to the display and sound layers. Notifications are fire-and-forget: the
// pipeline never blocks on a sink and never reads anything back, so sink
// implementations must return quickly.
package feedback

type ErrorKind string

const (
	ErrDeviceUnavailable ErrorKind = "device_unavailable"
	ErrNetwork           ErrorKind = "network"
	ErrAuth              ErrorKind = "auth"
	ErrInjection         ErrorKind = "injection"
	ErrInternal          ErrorKind = "internal"
)

// Sink receives pipeline notifications. One method per event, the same way
// the transitions are enumerated: recording edges, the no-speech early exit,
// transcription start, non-fatal warnings, terminal errors, and completion.
// Level and Tick drive the live meter while recording.
type Sink interface {
	RecordingStarted()
	RecordingStopped()
	NoSpeechDetected()
	TranscribingStarted()
	Warning(msg string)
	Error(kind ErrorKind, msg string)
	Done(text string)
	Level(rms float64)
	Tick(seconds float64)
}

// Multi fans notifications out to several sinks in order.
type Multi []Sink

func (m Multi) RecordingStarted() {
	for _, s := range m {
		s.RecordingStarted()
	}
}

func (m Multi) RecordingStopped() {
	for _, s := range m {
		s.RecordingStopped()
	}
}

func (m Multi) NoSpeechDetected() {
	for _, s := range m {
		s.NoSpeechDetected()
	}
}

func (m Multi) TranscribingStarted() {
	for _, s := range m {
		s.TranscribingStarted()
	}
}

func (m Multi) Warning(msg string) {
	for _, s := range m {
		s.Warning(msg)
	}
}

func (m Multi) Error(kind ErrorKind, msg string) {
	for _, s := range m {
		s.Error(kind, msg)
	}
}

func (m Multi) Done(text string) {
	for _, s := range m {
		s.Done(text)
	}
}

func (m Multi) Level(rms float64) {
	for _, s := range m {
		s.Level(rms)
	}
}

func (m Multi) Tick(seconds float64) {
	for _, s := range m {
		s.Tick(seconds)
	}
}
