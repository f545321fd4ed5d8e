package beep

import "murmur/feedback"

// Sink maps pipeline notifications onto audible cues.
type Sink struct{}

func NewSink() Sink { return Sink{} }

func (Sink) RecordingStarted()    { go PlayStart() }
func (Sink) RecordingStopped()    { go PlayEnd() }
func (Sink) NoSpeechDetected()    {}
func (Sink) TranscribingStarted() {}
func (Sink) Warning(string)       { go PlayError() }
func (Sink) Done(string)          {}
func (Sink) Level(float64)        {}
func (Sink) Tick(float64)         {}

func (Sink) Error(feedback.ErrorKind, string) { go PlayError() }
