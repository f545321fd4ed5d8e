package postproc

import (
	"context"
	"sync"
)

// FakeRewriter returns a canned rewrite and counts calls.
type FakeRewriter struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
}

func NewFake(text string, err error) *FakeRewriter {
	return &FakeRewriter{Text: text, Err: err}
}

func (f *FakeRewriter) Rewrite(ctx context.Context, instruction, transcript string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *FakeRewriter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
