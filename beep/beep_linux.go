//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	start, end, errTone []int16
	soundOnce           sync.Once
)

// PulseAudio drains too early on very short buffers, so each tick carries a
// 200ms tail of envelope silence.
func initSound() {
	start = stereo(generateTick(startFreq, 0.2, startVolume, startDecay))
	end = stereo(generateTick(endFreq, 0.2, endVolume, endDecay))
	errTone = stereo(generateTick(errorFreq, 0.2, errorVolume, errorDecay))
}

func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func startSamples() []int16 { soundOnce.Do(initSound); return start }
func endSamples() []int16   { soundOnce.Do(initSound); return end }
func errorSamples() []int16 { soundOnce.Do(initSound); return errTone }

func play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
