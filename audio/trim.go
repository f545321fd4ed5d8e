package audio

import (
	"math"
	"time"
)

// trimWindow is the granularity at which silence spans are measured.
const trimWindow = 10 * time.Millisecond

// Trim removes leading and trailing silence from a frozen buffer. A span is
// cut only if its amplitude stays below threshold (RMS, 0..1) for at least
// minSilence. A buffer that never rises above threshold trims to empty.
// The input is not modified; Trim is pure and idempotent.
func Trim(buf *Buffer, threshold float64, minSilence time.Duration) *Buffer {
	if buf.Empty() {
		return &Buffer{SampleRate: buf.SampleRate}
	}

	win := int(float64(buf.SampleRate) * trimWindow.Seconds())
	if win < 1 {
		win = 1
	}

	nWindows := (len(buf.Samples) + win - 1) / win
	loud := make([]bool, nWindows)
	anyLoud := false
	for w := range nWindows {
		start := w * win
		end := min(start+win, len(buf.Samples))
		if windowRMS(buf.Samples[start:end]) >= threshold {
			loud[w] = true
			anyLoud = true
		}
	}

	if !anyLoud {
		return &Buffer{SampleRate: buf.SampleRate}
	}

	minWindows := int(minSilence / trimWindow)

	lead := 0
	for lead < nWindows && !loud[lead] {
		lead++
	}
	trail := 0
	for trail < nWindows && !loud[nWindows-1-trail] {
		trail++
	}

	start, end := 0, len(buf.Samples)
	if lead >= minWindows {
		start = lead * win
	}
	if trail >= minWindows {
		end = (nWindows - trail) * win
		if end > len(buf.Samples) {
			end = len(buf.Samples)
		}
	}

	return &Buffer{Samples: buf.Samples[start:end], SampleRate: buf.SampleRate}
}

func windowRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		normalized := float64(s) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(samples)))
}
