package audio

import (
	"encoding/binary"
	"errors"
	"testing"
)

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestRecorderStartStop(t *testing.T) {
	clip := tone(200, 0.5)
	rec := NewRecorder(NewFakeCapture(pcmBytes(clip)), testRate)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	buf := rec.Stop()

	if len(buf.Samples) != len(clip) {
		t.Fatalf("captured %d samples, want %d", len(buf.Samples), len(clip))
	}
	for i := range clip {
		if buf.Samples[i] != clip[i] {
			t.Fatalf("sample %d = %d, want %d", i, buf.Samples[i], clip[i])
		}
	}
	if buf.SampleRate != testRate {
		t.Errorf("SampleRate = %d, want %d", buf.SampleRate, testRate)
	}
}

func TestRecorderDoubleStart(t *testing.T) {
	rec := NewRecorder(NewFakeCapture(nil), testRate)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := rec.Start()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("second Start = %v, want ErrDeviceUnavailable", err)
	}
	rec.Stop()
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(NewFakeCapture(nil), testRate)
	buf := rec.Stop()
	if !buf.Empty() {
		t.Error("expected empty buffer")
	}
}

func TestRecorderAmplitude(t *testing.T) {
	rec := NewRecorder(NewFakeCapture(pcmBytes(tone(200, 0.5))), testRate)
	if rec.Amplitude() != 0 {
		t.Error("amplitude should be zero before recording")
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if rec.Amplitude() <= 0 {
		t.Error("amplitude should be positive while loud audio is captured")
	}
	rec.Stop()
	if rec.Amplitude() != 0 {
		t.Error("amplitude should reset to zero after Stop")
	}
}

func TestRecorderSessionsAreIndependent(t *testing.T) {
	clip := pcmBytes(tone(100, 0.5))
	rec := NewRecorder(NewFakeCapture(clip), testRate)

	rec.Start()
	first := rec.Stop()
	rec.Start()
	second := rec.Stop()

	if len(first.Samples) != len(second.Samples) {
		t.Fatalf("session lengths differ: %d vs %d", len(first.Samples), len(second.Samples))
	}
}

func TestRecorderTap(t *testing.T) {
	clip := pcmBytes(tone(100, 0.5))
	rec := NewRecorder(NewFakeCapture(clip), testRate)

	var tapped int
	rec.SetTap(func(pcm []byte) { tapped += len(pcm) })

	rec.Start()
	rec.Stop()

	if tapped != len(clip) {
		t.Errorf("tap saw %d bytes, want %d", tapped, len(clip))
	}
}
