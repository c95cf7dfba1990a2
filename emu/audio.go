package emu

import (
	"fmt"
	"unsafe"

	"github.com/arl/blip"
	"github.com/veandco/go-sdl2/sdl"

	"sufami/emu/log"
)

const (
	dspRate         = 32000
	audioBufferSize = 2048
	maxFrameSamples = 4096
)

// AudioOut resamples the DSP's 32 kHz stream to the host sample rate with a
// pair of band-limited buffers and queues it on an SDL audio device.
type AudioOut struct {
	dev sdl.AudioDeviceID

	left  *blip.Buffer
	right *blip.Buffer

	prevL, prevR int16
	outbuf       [maxFrameSamples * 2]int16
}

func NewAudioOut(cfg AudioConfig) (*AudioOut, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl audio init: %w", err)
	}

	want := sdl.AudioSpec{
		Freq:     int32(cfg.SampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 2,
		Samples:  audioBufferSize,
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, &want, &have, 0)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	ao := &AudioOut{
		dev:   dev,
		left:  blip.NewBuffer(maxFrameSamples),
		right: blip.NewBuffer(maxFrameSamples),
	}
	ao.left.SetRates(dspRate, float64(have.Freq))
	ao.right.SetRates(dspRate, float64(have.Freq))

	sdl.PauseAudioDevice(dev, false)
	log.ModEmu.InfoZ("audio device open").Int("rate", int(have.Freq)).End()
	return ao, nil
}

// Queue resamples one frame's worth of interleaved 32 kHz samples and hands
// them to SDL. An empty input queues silence implicitly (the device just
// drains).
func (ao *AudioOut) Queue(samples []int16) {
	n := len(samples) / 2
	if n == 0 {
		return
	}
	if n > maxFrameSamples {
		n = maxFrameSamples
	}

	for i := 0; i < n; i++ {
		l, r := samples[i*2], samples[i*2+1]
		if l != ao.prevL {
			ao.left.AddDelta(uint64(i), int32(l)-int32(ao.prevL))
			ao.prevL = l
		}
		if r != ao.prevR {
			ao.right.AddDelta(uint64(i), int32(r)-int32(ao.prevR))
			ao.prevR = r
		}
	}
	ao.left.EndFrame(n)
	ao.right.EndFrame(n)

	avail := ao.left.SamplesAvailable()
	if avail > maxFrameSamples {
		avail = maxFrameSamples
	}
	ao.left.ReadSamples(ao.outbuf[:], avail, true)
	ao.right.ReadSamples(ao.outbuf[1:], avail, true)

	out := ao.outbuf[: avail*2 : avail*2]
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(out)*2)
	if err := sdl.QueueAudio(ao.dev, buf); err != nil {
		log.ModEmu.WarnZ("audio queue failed").Error("err", err).End()
	}
}

func (ao *AudioOut) Close() {
	sdl.CloseAudioDevice(ao.dev)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
