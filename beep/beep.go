// Package beep plays short audible cues for recording edges and errors.
// Playback is fire-and-forget; a missing or broken output device silently
// disables sound.
package beep

import "math"

var disabled bool

func Disable() { disabled = true }

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

func generateTick(freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func PlayStart() {
	if !disabled {
		play(startSamples())
	}
}

func PlayEnd() {
	if !disabled {
		play(endSamples())
	}
}

func PlayError() {
	if !disabled {
		play(errorSamples())
	}
}
