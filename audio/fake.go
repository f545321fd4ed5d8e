package audio

import (
	"sync"
	"sync/atomic"
)

// FakeCapture replays a fixed PCM clip through the capture callback when
// started. Used by recorder tests and the headless test mode.
type FakeCapture struct {
	pcm       []byte
	chunkSize int

	callback atomic.Pointer[DataCallback]
	mu       sync.Mutex
	started  bool
}

const fakeChunkFrames = 1024

// NewFakeCapture wraps raw 16-bit mono little-endian PCM. The clip is fed to
// the callback in fakeChunkFrames-sized chunks synchronously on Start.
func NewFakeCapture(pcm []byte) *FakeCapture {
	return &FakeCapture{pcm: pcm, chunkSize: fakeChunkFrames * 2}
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()

	cb := f.callback.Load()
	if cb == nil {
		return nil
	}
	for pos := 0; pos < len(f.pcm); pos += f.chunkSize {
		end := min(pos+f.chunkSize, len(f.pcm))
		chunk := make([]byte, end-pos)
		copy(chunk, f.pcm[pos:end])
		(*cb)(chunk, uint32(len(chunk)/2))
	}
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.callback.Store(&cb)
}

func (f *FakeCapture) ClearCallback() {
	f.callback.Store(nil)
}

func (f *FakeCapture) DeviceName() string { return "fake" }
