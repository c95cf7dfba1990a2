package apu

import "math"

// DSP is the S-DSP: 8 BRR voices with Gaussian interpolation, ADSR/GAIN
// envelopes, pitch modulation, a shared noise generator and an echo unit
// with an 8-tap FIR, mixed into one stereo frame per 32 SPC-cycle tick.
type DSP struct {
	apu *APU

	Addr uint8 // $F2 address latch
	regs [128]uint8

	voices [8]voice

	noise     int16 // 15-bit LFSR output
	noiseCnt  int

	// echo state
	echoPos    int
	echoHist   [2][8]int16 // FIR rings, L/R
	echoHistPos int

	samples []int16
}

type voice struct {
	env envelope

	keyed bool

	brrAddr  uint16
	brrBuf   [16]int16
	brrIdx   int
	last1    int16
	last2    int16
	header   brrHeader

	pitchCnt uint32
	// 4-sample interpolation window, newest last
	window [4]int16

	outSample int16 // last output, for pitch modulation
}

func newDSP(a *APU) *DSP {
	return &DSP{apu: a}
}

func (d *DSP) Reset() {
	d.regs = [128]uint8{}
	d.regs[0x6C] = 0xE0 // FLG: reset, mute, echo off
	d.voices = [8]voice{}
	for i := range d.voices {
		d.voices[i].env.state = envRelease
	}
	d.noise = -0x4000
	d.noiseCnt = 0
	d.echoPos = 0
	d.echoHist = [2][8]int16{}
	d.samples = d.samples[:0]
}

/* register file */

func (d *DSP) Read(addr uint8) uint8 {
	return d.regs[addr&0x7F]
}

func (d *DSP) Write(addr uint8, val uint8) {
	addr &= 0x7F
	switch addr {
	case 0x4C: // KON
		for v := 0; v < 8; v++ {
			if val&(1<<v) != 0 {
				d.keyOn(v)
			}
		}
	case 0x5C: // KOF
		for v := 0; v < 8; v++ {
			if val&(1<<v) != 0 {
				d.voices[v].env.keyOff()
			}
		}
	case 0x7C: // ENDX: any write clears
		val = 0
	}
	d.regs[addr] = val
}

func (d *DSP) vreg(v int, off uint8) uint8 {
	return d.regs[uint8(v)<<4|off]
}

func (d *DSP) keyOn(v int) {
	vc := &d.voices[v]
	vc.keyed = true
	vc.env.keyOn()
	vc.brrAddr = d.sampleDirEntry(v, false)
	vc.brrIdx = 16 // force a block decode on the first sample
	vc.last1, vc.last2 = 0, 0
	vc.pitchCnt = 0
	vc.window = [4]int16{}
	d.regs[0x7C] &^= 1 << v
}

// sampleDirEntry reads the start (or loop) address of a voice's source from
// the sample directory.
func (d *DSP) sampleDirEntry(v int, loop bool) uint16 {
	dir := uint16(d.regs[0x5D]) << 8
	entry := dir + uint16(d.vreg(v, 4))*4
	if loop {
		entry += 2
	}
	lo := d.apu.RAM[entry]
	hi := d.apu.RAM[entry+1]
	return uint16(hi)<<8 | uint16(lo)
}

/* sample generation */

// RunSample produces one stereo frame. Called every 32 SPC cycles (32 kHz).
func (d *DSP) RunSample() {
	flg := d.regs[0x6C]
	d.runNoise(flg)

	var sumL, sumR int32
	var echoL, echoR int32
	pmon := d.regs[0x2D]
	non := d.regs[0x3D]
	eon := d.regs[0x4D]

	var prevOut int16
	for v := 0; v < 8; v++ {
		out := d.runVoice(v, pmon&(1<<v) != 0, non&(1<<v) != 0, prevOut)
		prevOut = out

		volL := int32(int8(d.vreg(v, 0)))
		volR := int32(int8(d.vreg(v, 1)))
		l := int32(out) * volL >> 7
		r := int32(out) * volR >> 7
		sumL += l
		sumR += r
		if eon&(1<<v) != 0 {
			echoL += l
			echoR += r
		}
	}

	outL := sumL * int32(int8(d.regs[0x0C])) >> 7
	outR := sumR * int32(int8(d.regs[0x1C])) >> 7

	el, er := d.runEcho(echoL, echoR)
	outL += el
	outR += er

	if flg&0x40 != 0 { // mute
		outL, outR = 0, 0
	}

	d.samples = append(d.samples, clamp16(outL), clamp16(outR))
}

// runVoice advances one voice by one output sample.
func (d *DSP) runVoice(v int, pmod, noise bool, prevOut int16) int16 {
	vc := &d.voices[v]
	if !vc.keyed && vc.env.level == 0 && vc.env.state == envRelease {
		vc.outSample = 0
		return 0
	}

	pitch := uint32(d.vreg(v, 2)) | uint32(d.vreg(v, 3)&0x3F)<<8
	step := pitch
	if pmod && v > 0 {
		factor := int32(prevOut)>>5 + 0x400
		step = uint32(int32(pitch) * factor >> 10)
		step &= 0x7FFF
	}

	vc.pitchCnt += step
	for vc.pitchCnt >= 0x1000 {
		vc.pitchCnt -= 0x1000
		d.advanceVoice(v, vc)
	}

	var sample int32
	if noise {
		sample = int32(d.noise)
	} else {
		sample = d.interpolate(vc)
	}

	level := vc.env.tick(d.vreg(v, 5), d.vreg(v, 6), d.vreg(v, 7))
	sample = sample * int32(level) >> 11

	vc.outSample = int16(sample)
	d.regs[uint8(v)<<4|8] = uint8(level >> 4)        // ENVX
	d.regs[uint8(v)<<4|9] = uint8(sample >> 8 & 0xFF) // OUTX
	return int16(sample)
}

// advanceVoice shifts the interpolation window by one source sample,
// decoding BRR blocks as they exhaust.
func (d *DSP) advanceVoice(v int, vc *voice) {
	if vc.brrIdx >= 16 {
		vc.brrIdx = 0
		vc.header = d.apu.decodeBRRBlock(vc.brrAddr, &vc.last1, &vc.last2, &vc.brrBuf)
		vc.brrAddr += 9
		if vc.header.end() {
			d.regs[0x7C] |= 1 << v
			if vc.header.loop() {
				vc.brrAddr = d.sampleDirEntry(v, true)
			} else {
				vc.env.keyOff()
				vc.env.level = 0
				vc.keyed = false
			}
		}
	}

	copy(vc.window[:3], vc.window[1:])
	vc.window[3] = vc.brrBuf[vc.brrIdx]
	vc.brrIdx++
}

// interpolate applies the 4-tap Gaussian filter at the current fractional
// pitch position.
func (d *DSP) interpolate(vc *voice) int32 {
	phase := int(vc.pitchCnt >> 4 & 0xFF)
	out := int32(gaussTaps[0][phase]) * int32(vc.window[0])
	out += int32(gaussTaps[1][phase]) * int32(vc.window[1])
	out += int32(gaussTaps[2][phase]) * int32(vc.window[2])
	out += int32(gaussTaps[3][phase]) * int32(vc.window[3])
	return out >> 11
}

/* noise */

func (d *DSP) runNoise(flg uint8) {
	period := ratePeriods[flg&0x1F]
	if period == 0 {
		return
	}
	d.noiseCnt++
	if d.noiseCnt < period {
		return
	}
	d.noiseCnt = 0
	n := uint16(d.noise) & 0x7FFF
	bit := (n ^ n>>1) & 1
	n = n>>1 | bit<<14
	d.noise = int16(n<<1) >> 1
}

/* echo */

func (d *DSP) runEcho(inL, inR int32) (int32, int32) {
	base := uint16(d.regs[0x6D]) << 8
	size := int(d.regs[0x7D]&0x0F) * 0x800
	if size == 0 {
		size = 4
	}

	addr := base + uint16(d.echoPos)

	// read into the FIR history
	histL := int16(uint16(d.apu.RAM[addr]) | uint16(d.apu.RAM[addr+1])<<8)
	histR := int16(uint16(d.apu.RAM[addr+2]) | uint16(d.apu.RAM[addr+3])<<8)
	d.echoHistPos = (d.echoHistPos + 1) & 7
	d.echoHist[0][d.echoHistPos] = histL
	d.echoHist[1][d.echoHistPos] = histR

	var firL, firR int32
	for t := 0; t < 8; t++ {
		coef := int32(int8(d.regs[uint8(t)<<4|0x0F]))
		firL += int32(d.echoHist[0][(d.echoHistPos+t+1)&7]) * coef >> 6
		firR += int32(d.echoHist[1][(d.echoHistPos+t+1)&7]) * coef >> 6
	}

	// write back input + feedback, unless write-protected
	if d.regs[0x6C]&0x20 == 0 {
		efb := int32(int8(d.regs[0x0D]))
		wl := clamp16(inL + firL*efb>>7)
		wr := clamp16(inR + firR*efb>>7)
		d.apu.RAM[addr] = uint8(wl)
		d.apu.RAM[addr+1] = uint8(uint16(wl) >> 8)
		d.apu.RAM[addr+2] = uint8(wr)
		d.apu.RAM[addr+3] = uint8(uint16(wr) >> 8)
	}

	d.echoPos += 4
	if d.echoPos >= size {
		d.echoPos = 0
	}

	outL := firL * int32(int8(d.regs[0x2C])) >> 7
	outR := firR * int32(int8(d.regs[0x3C])) >> 7
	return outL, outR
}

/* output */

func (d *DSP) drain() []int16 {
	out := d.samples
	d.samples = nil
	return out
}

func clamp16(v int32) int16 {
	if v > 0x7FFF {
		return 0x7FFF
	}
	if v < -0x8000 {
		return -0x8000
	}
	return int16(v)
}

/* Gaussian table
   The exact ROM coefficients are not bit-reproduced here; the taps are
   generated from a Gaussian kernel and normalized so each phase sums to
   2048 (unity DC gain at the 11-bit scale the hardware uses). */

var gaussTaps [4][256]int16

func init() {
	const sigma = 0.62
	kernel := func(d float64) float64 {
		return math.Exp(-d * d / (2 * sigma * sigma))
	}
	for i := 0; i < 256; i++ {
		ph := float64(i) / 256
		k := [4]float64{
			kernel(1 + ph),
			kernel(ph),
			kernel(1 - ph),
			kernel(2 - ph),
		}
		sum := k[0] + k[1] + k[2] + k[3]
		total := 0
		for t := 0; t < 4; t++ {
			gaussTaps[t][i] = int16(math.Round(2048 * k[t] / sum))
			total += int(gaussTaps[t][i])
		}
		// put the rounding error on tap 1 so each phase sums to exactly 2048
		gaussTaps[1][i] += int16(2048 - total)
	}
}
