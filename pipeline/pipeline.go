// Package pipeline drives one dictation run from hotkey press to delivered
// text: capture while the key is held, trim silence, transcribe remotely,
// optionally rewrite with an LLM, then paste into the focused application.
// A new press supersedes whatever run is still in flight; superseded runs
// are cancelled and their late results discarded.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/feedback"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/postproc"
	"murmur/transcriber"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateTrimming
	StateTranscribing
	StatePostProcessing
	StateInjecting
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateTrimming:
		return "trimming"
	case StateTranscribing:
		return "transcribing"
	case StatePostProcessing:
		return "postprocessing"
	case StateInjecting:
		return "injecting"
	}
	return "idle"
}

// minRunDuration filters out accidental key taps: anything shorter is
// treated as no speech without touching the network.
const minRunDuration = 100 * time.Millisecond

// Capture is the recording surface the controller drives. *audio.Recorder
// satisfies it.
type Capture interface {
	Start() error
	Stop() *audio.Buffer
	Amplitude() float64
	SetTap(func(pcm []byte))
}

type Config struct {
	Language      string
	Instruction   string // empty disables the rewrite stage
	Format        string // "flac" or "wav"
	TrimThreshold float64
	MinSilence    time.Duration
}

type warmer interface {
	Warm()
}

// Controller owns the run state machine. All transitions happen under mu;
// the slow stages run in a per-run goroutine that re-checks its run id
// before every side effect, so a superseded run can never paste, notify,
// or advance state.
type Controller struct {
	rec  Capture
	tr   transcriber.Transcriber
	rw   postproc.Rewriter
	inj  inject.Injector
	sink feedback.Sink
	vad  *vadProcessor

	mu     sync.Mutex
	cfg    Config
	state  State
	runID  uint64
	runCfg Config
	runCtx context.Context
	cancel context.CancelFunc
}

func New(rec Capture, tr transcriber.Transcriber, rw postproc.Rewriter, inj inject.Injector, sink feedback.Sink, cfg Config) *Controller {
	c := &Controller{
		rec:  rec,
		tr:   tr,
		rw:   rw,
		inj:  inj,
		sink: sink,
		cfg:  cfg,
	}
	if vp, err := newVADProcessor(); err == nil {
		c.vad = vp
		rec.SetTap(vp.Process)
	}
	return c
}

// UpdateConfig swaps the settings used by future runs. The run in flight
// keeps the snapshot it took at press time.
func (c *Controller) UpdateConfig(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run consumes hotkey events until ctx is cancelled or the channel closes.
func (c *Controller) Run(ctx context.Context, events <-chan hotkey.Event) {
	for {
		select {
		case <-ctx.Done():
			c.Cancel()
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case hotkey.Press:
				c.Press()
			case hotkey.Release:
				c.Release()
			case hotkey.Cancel:
				c.Cancel()
			}
		}
	}
}

// Press starts a new run. If a previous run is still in flight it is
// superseded: its context is cancelled and any result it produces later is
// dropped at the run-id checks.
func (c *Controller) Press() {
	c.mu.Lock()
	if c.state != StateIdle {
		log.Infof("run %d superseded in state %s", c.runID, c.state)
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		if c.state == StateRecording {
			c.mu.Unlock()
			c.rec.Stop() // discard
			c.mu.Lock()
		}
		c.state = StateIdle
	}

	c.runID++
	id := c.runID
	c.runCfg = c.cfg
	ctx, cancel := context.WithCancel(context.Background())
	c.runCtx = ctx
	c.cancel = cancel
	c.mu.Unlock()

	if c.vad != nil {
		c.vad.Reset()
	}

	if err := c.rec.Start(); err != nil {
		log.Errorf("capture start error: %v", err)
		if c.settle(id) {
			c.sink.Error(feedback.ErrDeviceUnavailable, err.Error())
		}
		return
	}

	c.mu.Lock()
	if c.runID == id {
		c.state = StateRecording
	}
	c.mu.Unlock()

	log.Infof("run %d recording", id)
	c.sink.RecordingStarted()

	// Handshake with the API while the user is still talking.
	if w, ok := c.tr.(warmer); ok {
		w.Warm()
	}

	go c.meter(ctx, id)
}

// Release stops capture and hands the buffer to the slow stages. A release
// with no active recording is a no-op.
func (c *Controller) Release() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	id := c.runID
	cfg := c.runCfg
	c.state = StateTrimming
	c.mu.Unlock()

	buf := c.rec.Stop()
	c.sink.RecordingStopped()
	log.Infof("run %d captured %.2fs", id, buf.Duration().Seconds())

	ctx := c.runContext(id)
	if ctx == nil {
		return
	}
	go c.finish(ctx, id, buf, cfg)
}

// Cancel aborts the current run, whatever stage it is in.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	id := c.runID
	recording := c.state == StateRecording
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
	c.runID++ // invalidate the run id so late completions are dropped
	c.mu.Unlock()

	if recording {
		c.rec.Stop() // discard
		c.sink.RecordingStopped()
	}
	log.Infof("run %d cancelled", id)
}

// runContext returns the context of run id, or nil if it was superseded.
func (c *Controller) runContext(id uint64) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != id {
		return nil
	}
	return c.runCtx
}

// advance moves run id to state st; returns false if the run was superseded.
func (c *Controller) advance(id uint64, st State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != id {
		return false
	}
	c.state = st
	return true
}

// settle returns run id to idle. Reports whether the run still owned the
// machine; a false return means it was superseded and must stay silent.
func (c *Controller) settle(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != id {
		return false
	}
	c.state = StateIdle
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}

func (c *Controller) current(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID == id
}

// finish runs the slow half of a run: trim, encode, transcribe, rewrite,
// deliver. Every step after a blocking call re-checks the run id.
func (c *Controller) finish(ctx context.Context, id uint64, buf *audio.Buffer, cfg Config) {
	trimmed := audio.Trim(buf, cfg.TrimThreshold, cfg.MinSilence)
	if trimmed.Empty() || trimmed.Duration() < minRunDuration {
		log.Infof("run %d no speech", id)
		if c.settle(id) {
			c.sink.NoSpeechDetected()
		}
		return
	}

	encodeStart := time.Now()
	data, err := encoder.Encode(trimmed.Samples, cfg.Format)
	if err != nil {
		log.Errorf("encode error: %v", err)
		if c.settle(id) {
			c.sink.Error(feedback.ErrInternal, err.Error())
		}
		return
	}
	encodeMs := float64(time.Since(encodeStart).Milliseconds())

	if !c.advance(id, StateTranscribing) {
		return
	}
	c.sink.TranscribingStarted()

	res, err := c.tr.Transcribe(ctx, transcriber.Request{
		Audio:      data,
		Format:     cfg.Format,
		SampleRate: trimmed.SampleRate,
		Language:   cfg.Language,
	})
	if err != nil {
		kind := transcriber.KindOf(err)
		if kind == transcriber.KindCancelled || !c.current(id) {
			return
		}
		log.Errorf("transcription error: %v", err)
		if c.settle(id) {
			if kind == transcriber.KindAuth {
				c.sink.Error(feedback.ErrAuth, err.Error())
			} else {
				c.sink.Error(feedback.ErrNetwork, err.Error())
			}
		}
		return
	}
	if !c.current(id) {
		return
	}
	c.logMetrics(trimmed, data, encodeMs, cfg, res)

	text := strings.TrimSpace(res.Text)
	if text == "" {
		log.Infof("run %d empty transcript", id)
		if c.settle(id) {
			c.sink.NoSpeechDetected()
		}
		return
	}

	if cfg.Instruction != "" && c.rw != nil {
		if !c.advance(id, StatePostProcessing) {
			return
		}
		out, err := c.rw.Rewrite(ctx, cfg.Instruction, text)
		if err != nil {
			if errors.Is(err, context.Canceled) || !c.current(id) {
				return
			}
			// Rewrite is best effort: fall back to the raw transcript.
			log.Warnf("rewrite error: %v", err)
			c.sink.Warning("rewrite failed, using raw transcript")
		} else if out != "" {
			text = out
		}
	}

	if !c.advance(id, StateInjecting) {
		return
	}
	if err := c.inj.Deliver(text); err != nil {
		log.Errorf("delivery error: %v", err)
		if c.settle(id) {
			var pe *inject.PasteError
			if errors.As(err, &pe) {
				c.sink.Error(feedback.ErrInjection, "paste failed, text left on clipboard")
			} else {
				c.sink.Error(feedback.ErrInjection, err.Error())
			}
		}
		return
	}

	log.TranscriptionText(text)
	if c.settle(id) {
		c.sink.Done(text)
	}
}

// meter feeds the level display and watches for a held key with no speech.
func (c *Controller) meter(ctx context.Context, id uint64) {
	mon := newSilenceMonitor()
	start := time.Now()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			live := c.runID == id && c.state == StateRecording
			c.mu.Unlock()
			if !live {
				return
			}

			c.sink.Level(c.rec.Amplitude())
			c.sink.Tick(time.Since(start).Seconds())

			if c.vad == nil {
				continue
			}
			switch mon.Tick(c.vad.HasSpeechTick()) {
			case SilenceWarn, SilenceRepeat:
				log.Info("no_voice_warning")
				c.sink.Warning("no voice detected, still recording")
			}
		}
	}
}

func (c *Controller) logMetrics(buf *audio.Buffer, encoded []byte, encodeMs float64, cfg Config, res *transcriber.Result) {
	rawKB := float64(len(buf.Samples)*2) / 1024.0
	compKB := float64(len(encoded)) / 1024.0
	m := log.Metrics{
		AudioLengthS:     buf.Duration().Seconds(),
		RawSizeKB:        rawKB,
		CompressedSizeKB: compKB,
		EncodeTimeMs:     encodeMs,
	}
	if rawKB > 0 {
		m.CompressionPct = 100.0 * (1.0 - compKB/rawKB)
	}
	connReused := false
	if nm := res.Metrics; nm != nil {
		m.DNSTimeMs = float64(nm.DNS.Milliseconds())
		m.TLSTimeMs = float64(nm.TLS.Milliseconds())
		m.TTFBMs = float64(nm.TTFB.Milliseconds())
		m.TotalTimeMs = float64(nm.Total.Milliseconds())
		connReused = nm.ConnReused
	}
	log.TranscriptionMetrics(m, cfg.Format, c.tr.Name(), connReused)
	if res.RateLimit != "" && res.RateLimit != "?/?" {
		log.Info("rate_limit: " + res.RateLimit)
	}
}
