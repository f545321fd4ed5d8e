package transcriber

import (
	"context"
	"sync"
)

// FakeTranscriber returns a canned result or error and counts calls. When
// Gate is set, Transcribe blocks until the gate closes or the context is
// cancelled, which lets tests hold a run in flight.
type FakeTranscriber struct {
	Text string
	Err  error
	Gate chan struct{}

	mu    sync.Mutex
	calls []Request
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{Text: text, Err: err}
}

func (f *FakeTranscriber) Name() string { return "fake" }

func (f *FakeTranscriber) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
	}
	if ctx.Err() != nil {
		return nil, &Error{Kind: KindCancelled, Err: ctx.Err()}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &Result{Text: f.Text, Duration: 1.0}, nil
}

// Calls returns a snapshot of every request received so far.
func (f *FakeTranscriber) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.calls))
	copy(out, f.calls)
	return out
}
