package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/feedback"
	"murmur/inject"
	"murmur/postproc"
	"murmur/transcriber"
)

const waitTimeout = 2 * time.Second

type fakeCapture struct {
	mu       sync.Mutex
	buf      *audio.Buffer
	startErr error
	starts   int
	stops    int
}

func (f *fakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	return nil
}

func (f *fakeCapture) Stop() *audio.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.buf != nil {
		return f.buf
	}
	return &audio.Buffer{SampleRate: encoder.SampleRate}
}

func (f *fakeCapture) Amplitude() float64      { return 0.1 }
func (f *fakeCapture) SetTap(func(pcm []byte)) {}

func speechBuffer(d time.Duration) *audio.Buffer {
	n := int(float64(encoder.SampleRate) * d.Seconds())
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 8000
	}
	return &audio.Buffer{Samples: samples, SampleRate: encoder.SampleRate}
}

func silentBuffer(d time.Duration) *audio.Buffer {
	n := int(float64(encoder.SampleRate) * d.Seconds())
	return &audio.Buffer{Samples: make([]int16, n), SampleRate: encoder.SampleRate}
}

func testConfig() Config {
	return Config{
		Format:        "wav",
		TrimThreshold: 0.01,
		MinSilence:    300 * time.Millisecond,
	}
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if c.State() == StateIdle {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("controller stuck in state %s", c.State())
}

func TestHappyPathWithoutRewrite(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("hello world", nil)
	rw := postproc.NewFake("REWRITTEN", nil)
	inj := inject.NewFake()
	sink := feedback.NewRecorder()

	c := New(mic, tr, rw, inj, sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("done", waitTimeout); got != "done: hello world" {
		t.Fatalf("got %q, want done with raw transcript", got)
	}
	if rw.Calls() != 0 {
		t.Errorf("rewriter called %d times with empty instruction, want 0", rw.Calls())
	}
	if d := inj.Delivered(); len(d) != 1 || d[0] != "hello world" {
		t.Errorf("delivered = %v", d)
	}
	waitIdle(t, c)
}

func TestRewriteApplied(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("helo wrld", nil)
	rw := postproc.NewFake("Hello, world.", nil)
	inj := inject.NewFake()
	sink := feedback.NewRecorder()

	cfg := testConfig()
	cfg.Instruction = "Fix spelling."
	c := New(mic, tr, rw, inj, sink, cfg)
	c.Press()
	c.Release()

	if got := sink.WaitFor("done", waitTimeout); got != "done: Hello, world." {
		t.Fatalf("got %q, want rewritten text", got)
	}
	if rw.Calls() != 1 {
		t.Errorf("rewriter calls = %d, want 1", rw.Calls())
	}
}

func TestRewriteFailureFallsBackToRaw(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("raw text", nil)
	rw := postproc.NewFake("", errors.New("llm down"))
	inj := inject.NewFake()
	sink := feedback.NewRecorder()

	cfg := testConfig()
	cfg.Instruction = "Fix."
	c := New(mic, tr, rw, inj, sink, cfg)
	c.Press()
	c.Release()

	if got := sink.WaitFor("done", waitTimeout); got != "done: raw text" {
		t.Fatalf("got %q, want raw transcript fallback", got)
	}
	if sink.Count("warning") == 0 {
		t.Error("expected a warning about the failed rewrite")
	}
}

func TestSilentBufferSkipsNetwork(t *testing.T) {
	mic := &fakeCapture{buf: silentBuffer(time.Second)}
	tr := transcriber.NewFake("should not run", nil)
	inj := inject.NewFake()
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inj, sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("no_speech", waitTimeout); got == "" {
		t.Fatal("expected no_speech notification")
	}
	if n := len(tr.Calls()); n != 0 {
		t.Errorf("transcriber called %d times for silent audio, want 0", n)
	}
	if len(inj.Delivered()) != 0 {
		t.Error("nothing should be delivered for silent audio")
	}
}

func TestTapTooShortSkipsNetwork(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(50 * time.Millisecond)}
	tr := transcriber.NewFake("x", nil)
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inject.NewFake(), sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("no_speech", waitTimeout); got == "" {
		t.Fatal("expected no_speech for sub-100ms capture")
	}
	if len(tr.Calls()) != 0 {
		t.Error("transcriber should not run for accidental taps")
	}
}

func TestNetworkErrorReturnsToIdle(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("", &transcriber.Error{Kind: transcriber.KindNetwork, Err: errors.New("dial tcp: timeout")})
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inject.NewFake(), sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("error(network)", waitTimeout); got == "" {
		t.Fatal("expected network error notification")
	}
	waitIdle(t, c)
}

func TestAuthErrorReported(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("", &transcriber.Error{Kind: transcriber.KindAuth, Err: errors.New("401")})
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inject.NewFake(), sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("error(auth)", waitTimeout); got == "" {
		t.Fatal("expected auth error notification")
	}
}

func TestInjectionFailureReported(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("text", nil)
	inj := inject.NewFake()
	inj.Err = &inject.PasteError{Err: errors.New("uinput denied")}
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inj, sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("error(injection)", waitTimeout); got == "" {
		t.Fatal("expected injection error notification")
	}
	if sink.Count("done") != 0 {
		t.Error("no done event after failed delivery")
	}
	waitIdle(t, c)
}

func TestDeviceUnavailableOnPress(t *testing.T) {
	mic := &fakeCapture{startErr: errors.New("no such device")}
	sink := feedback.NewRecorder()

	c := New(mic, transcriber.NewFake("", nil), nil, inject.NewFake(), sink, testConfig())
	c.Press()

	if got := sink.WaitFor("error(device_unavailable)", waitTimeout); got == "" {
		t.Fatal("expected device error notification")
	}
	if c.State() != StateIdle {
		t.Errorf("state = %s, want idle", c.State())
	}
}

func TestReleaseWithoutPressIsNoop(t *testing.T) {
	mic := &fakeCapture{}
	sink := feedback.NewRecorder()

	c := New(mic, transcriber.NewFake("", nil), nil, inject.NewFake(), sink, testConfig())
	c.Release()

	time.Sleep(20 * time.Millisecond)
	if n := len(sink.Events()); n != 0 {
		t.Errorf("got %d events from a stray release, want 0", n)
	}
	if mic.stops != 0 {
		t.Error("capture should not be touched")
	}
}

func TestCancelDuringRecording(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("text", nil)
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inject.NewFake(), sink, testConfig())
	c.Press()
	c.Cancel()

	if got := sink.WaitFor("recording_stopped", waitTimeout); got == "" {
		t.Fatal("expected recording_stopped on cancel")
	}
	time.Sleep(20 * time.Millisecond)
	if len(tr.Calls()) != 0 {
		t.Error("cancelled recording must not reach the transcriber")
	}
	if c.State() != StateIdle {
		t.Errorf("state = %s, want idle", c.State())
	}
}

func TestNewPressSupersedesInFlightRun(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("first run", nil)
	tr.Gate = make(chan struct{})
	inj := inject.NewFake()
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inj, sink, testConfig())

	// First run blocks inside the transcriber.
	c.Press()
	c.Release()
	if sink.WaitFor("transcribing", waitTimeout) == "" {
		t.Fatal("first run never reached transcribing")
	}

	// Second press cancels it and starts fresh.
	tr.Text = "second run"
	c.Press()
	c.Release()

	close(tr.Gate)

	if got := sink.WaitFor("done", waitTimeout); got != "done: second run" {
		t.Fatalf("got %q, want the superseding run's text", got)
	}
	time.Sleep(50 * time.Millisecond)
	if n := sink.Count("done"); n != 1 {
		t.Errorf("done count = %d, want exactly 1 (stale result dropped)", n)
	}
	if d := inj.Delivered(); len(d) != 1 || d[0] != "second run" {
		t.Errorf("delivered = %v, want only the second run's text", d)
	}
	waitIdle(t, c)
}

func TestEmptyTranscriptIsNoSpeech(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("   ", nil)
	sink := feedback.NewRecorder()

	c := New(mic, tr, nil, inject.NewFake(), sink, testConfig())
	c.Press()
	c.Release()

	if got := sink.WaitFor("no_speech", waitTimeout); got == "" {
		t.Fatal("expected no_speech for whitespace-only transcript")
	}
	if sink.Count("done") != 0 {
		t.Error("no done event for empty transcript")
	}
}

func TestUpdateConfigAppliesToNextRun(t *testing.T) {
	mic := &fakeCapture{buf: speechBuffer(time.Second)}
	tr := transcriber.NewFake("text", nil)
	rw := postproc.NewFake("edited", nil)
	sink := feedback.NewRecorder()

	c := New(mic, tr, rw, inject.NewFake(), sink, testConfig())

	c.Press()
	c.Release()
	if sink.WaitFor("done", waitTimeout) != "done: text" {
		t.Fatal("first run should deliver raw text")
	}

	cfg := testConfig()
	cfg.Instruction = "Edit."
	c.UpdateConfig(cfg)

	c.Press()
	c.Release()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) && sink.Count("done") < 2 {
		time.Sleep(2 * time.Millisecond)
	}
	events := sink.Events()
	if events[len(events)-1] != "done: edited" {
		t.Errorf("second run delivered %q, want rewritten text", events[len(events)-1])
	}
}
