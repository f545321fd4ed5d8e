package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Buffer holds the PCM accumulated over one capture session. It is mutable
// while the Recorder is writing and frozen once Stop returns it.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

func (b *Buffer) Empty() bool {
	return len(b.Samples) == 0
}

func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Recorder turns a CaptureDevice into discrete sessions: Start begins a new
// Buffer, Stop freezes and returns it. Only one session may be active at a
// time. Amplitude is a snapshot of the most recent chunk's RMS level and is
// safe to poll while the capture callback is writing.
type Recorder struct {
	capture    CaptureDevice
	sampleRate int

	mu        sync.Mutex
	recording bool
	samples   []int16
	tap       func(pcm []byte)

	lastAmp atomic.Uint64 // float64 bits
}

func NewRecorder(capture CaptureDevice, sampleRate int) *Recorder {
	return &Recorder{capture: capture, sampleRate: sampleRate}
}

// SetTap registers a callback that sees each raw PCM chunk as it arrives,
// used to feed the live VAD. Must be called while no session is active.
func (r *Recorder) SetTap(fn func(pcm []byte)) {
	r.mu.Lock()
	r.tap = fn
	r.mu.Unlock()
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("%w: capture session already active", ErrDeviceUnavailable)
	}
	r.samples = nil
	r.recording = true
	r.mu.Unlock()

	// Start outside the lock: the capture callback takes it.
	r.capture.SetCallback(r.onData)
	if err := r.capture.Start(); err != nil {
		r.capture.ClearCallback()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// Stop freezes the session and returns the accumulated buffer. Calling Stop
// with no active session returns an empty buffer; the pipeline state machine
// never takes that path.
func (r *Recorder) Stop() *Buffer {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return &Buffer{SampleRate: r.sampleRate}
	}
	r.recording = false
	r.mu.Unlock()

	// Stop outside the lock: the callback may be blocked on it.
	r.capture.Stop()
	r.capture.ClearCallback()

	r.mu.Lock()
	buf := &Buffer{Samples: r.samples, SampleRate: r.sampleRate}
	r.samples = nil
	r.mu.Unlock()

	r.lastAmp.Store(0)
	return buf
}

// Amplitude returns the RMS level (0..1) of the most recent chunk.
func (r *Recorder) Amplitude() float64 {
	return math.Float64frombits(r.lastAmp.Load())
}

func (r *Recorder) DeviceName() string {
	return r.capture.DeviceName()
}

func (r *Recorder) onData(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}

	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(binary.LittleEndian.Uint16(data[i:]))
		r.samples = append(r.samples, s)
		normalized := float64(s) / 32768.0
		sumSquares += normalized * normalized
	}
	tap := r.tap
	r.mu.Unlock()

	rms := math.Sqrt(sumSquares / float64(len(data)/2))
	r.lastAmp.Store(math.Float64bits(rms))

	if tap != nil {
		tap(data)
	}
}
