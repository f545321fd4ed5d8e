//go:build !linux

package beep

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

var (
	start, end, errTone []int16
	soundOnce           sync.Once
)

func initSound() {
	start = generateTick(startFreq, 0.03, startVolume, startDecay)
	end = generateTick(endFreq, 0.05, endVolume, endDecay)
	errTone = generateTick(errorFreq, 0.08, errorVolume, errorDecay)
}

func startSamples() []int16 { soundOnce.Do(initSound); return start }
func endSamples() []int16   { soundOnce.Do(initSound); return end }
func errorSamples() []int16 { soundOnce.Do(initSound); return errTone }

func play(samples []int16) {
	if len(samples) == 0 {
		return
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return
	}
	defer func() {
		ctx.Uninit()
		ctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = sampleRate

	pos := 0
	done := make(chan struct{})
	var once sync.Once

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			for i := 0; i < int(frameCount); i++ {
				var s int16
				if pos < len(samples) {
					s = samples[pos]
					pos++
				}
				binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
			}
			if pos >= len(samples) {
				once.Do(func() { close(done) })
			}
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return
	}
	defer dev.Uninit()

	if err := dev.Start(); err != nil {
		return
	}
	select {
	case <-done:
		// Let the device buffer flush before tearing down.
		time.Sleep(30 * time.Millisecond)
	case <-time.After(time.Second):
	}
	dev.Stop()
}
