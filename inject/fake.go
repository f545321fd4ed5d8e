package inject

import "sync"

// FakeInjector records delivered texts instead of touching the clipboard.
type FakeInjector struct {
	mu        sync.Mutex
	delivered []string
	Err       error
}

func NewFake() *FakeInjector {
	return &FakeInjector{}
}

func (f *FakeInjector) Deliver(text string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	f.delivered = append(f.delivered, text)
	f.mu.Unlock()
	return nil
}

func (f *FakeInjector) Delivered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.delivered))
	copy(out, f.delivered)
	return out
}
