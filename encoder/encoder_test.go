package encoder

import (
	"encoding/binary"
	"math"
	"testing"
)

func genTone(freq float64, durationMs int) []int16 {
	n := SampleRate * durationMs / 1000
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(12000 * math.Sin(2*math.Pi*freq*float64(i)/SampleRate))
	}
	return samples
}

func TestFlacEncoder(t *testing.T) {
	samples := genTone(440, 500)

	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := enc.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestWavEncoder(t *testing.T) {
	samples := genTone(440, 100)

	enc := NewWav()
	if err := enc.EncodeBlock(samples); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := enc.Bytes()
	if len(b) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("output size = %d, want %d", len(b), wavHeaderSize+len(samples)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(b[24:28]); got != SampleRate {
		t.Errorf("sample rate in header = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint32(b[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data size in header = %d, want %d", got, len(samples)*2)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode(genTone(440, 10), "ogg"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestEncodePartialBlock(t *testing.T) {
	samples := make([]int16, BlockSize+BlockSize/2)
	data, err := Encode(samples, "flac")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty flac output")
	}
}
