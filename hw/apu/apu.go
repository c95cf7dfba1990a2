// Package apu emulates the SNES sound subsystem: the SPC700 audio CPU with
// its 64 KiB RAM, three timers and boot IPL, and the S-DSP 8-voice mixer
// producing the 32 kHz stereo stream.
//
// The APU is fully independent of the main CPU; the only link is the four
// mailbox ports at CPU $2140-$2143 / SPC $F4-$F7. A fixed clock ratio runs
// SPC cycles against the master-cycle timeline.
package apu

import "sufami/emu/log"

// Clock rates. The SPC nominal clock is slightly above 1.024 MHz on real
// units; the ratio must stay fixed or audio-synced games drift.
const (
	MasterClockHz = 21477272
	SPCClockHz    = 1024000

	// One DSP sample frame every 32 SPC cycles -> 32 kHz.
	cyclesPerSample = 32
)

// APU couples the SPC700 core, its RAM and the S-DSP.
type APU struct {
	SPC *SPC
	DSP *DSP

	RAM [0x10000]uint8

	// Mailboxes. cpuIn is what the SPC700 reads at $F4-$F7 (written by the
	// CPU); cpuOut is what the CPU reads at $2140-$2143.
	cpuIn  [4]uint8
	cpuOut [4]uint8

	iplEnabled bool

	timers [3]timer

	// master->SPC rate conversion remainder
	clockFrac int64
	// SPC cycles not yet consumed by the DSP sample clock
	sampleFrac int64
}

func New() *APU {
	a := &APU{}
	a.SPC = newSPC(a)
	a.DSP = newDSP(a)
	return a
}

func (a *APU) Reset() {
	clear(a.RAM[:])
	a.cpuIn = [4]uint8{}
	a.cpuOut = [4]uint8{}
	a.iplEnabled = true
	a.clockFrac = 0
	a.sampleFrac = 0

	a.timers[0].reset(128) // 8 kHz
	a.timers[1].reset(128)
	a.timers[2].reset(16) // 64 kHz

	a.SPC.Reset()
	a.DSP.Reset()

	log.ModAPU.DebugZ("apu reset").End()
}

// Run advances the APU by the given number of master cycles.
func (a *APU) Run(masterCycles int64) {
	a.clockFrac += masterCycles * SPCClockHz
	budget := a.clockFrac / MasterClockHz
	a.clockFrac -= budget * MasterClockHz

	for budget > 0 {
		spent := a.SPC.Step()
		budget -= spent
		a.tick(spent)
	}
}

// tick distributes elapsed SPC cycles to the timers and the DSP sample
// clock.
func (a *APU) tick(cycles int64) {
	for i := range a.timers {
		a.timers[i].run(cycles)
	}

	a.sampleFrac += cycles
	for a.sampleFrac >= cyclesPerSample {
		a.sampleFrac -= cyclesPerSample
		a.DSP.RunSample()
	}
}

// DrainSamples returns the stereo samples produced since the last call.
func (a *APU) DrainSamples() []int16 {
	return a.DSP.drain()
}

/* CPU-side ports ($2140-$2143) */

func (a *APU) ReadPort(n uint8) uint8 {
	return a.cpuOut[n&3]
}

func (a *APU) PeekPort(n uint8) uint8 {
	return a.cpuOut[n&3]
}

func (a *APU) WritePort(n uint8, val uint8) {
	a.cpuIn[n&3] = val
}

/* SPC-side memory bus */

// read8 is the SPC700's view of its address space: RAM with the $F0-$FF
// register file, and the IPL ROM overlay at $FFC0 while enabled.
func (a *APU) read8(addr uint16) uint8 {
	if addr&0xFFF0 == 0x00F0 {
		return a.readReg(addr)
	}
	if addr >= 0xFFC0 && a.iplEnabled {
		return iplROM[addr-0xFFC0]
	}
	return a.RAM[addr]
}

func (a *APU) write8(addr uint16, val uint8) {
	if addr&0xFFF0 == 0x00F0 {
		a.writeReg(addr, val)
		return
	}
	// Writes always land in RAM, even under the IPL overlay.
	a.RAM[addr] = val
}

func (a *APU) readReg(addr uint16) uint8 {
	switch addr {
	case 0xF2:
		return a.DSP.Addr
	case 0xF3:
		return a.DSP.Read(a.DSP.Addr)
	case 0xF4, 0xF5, 0xF6, 0xF7:
		return a.cpuIn[addr-0xF4]
	case 0xFD, 0xFE, 0xFF:
		return a.timers[addr-0xFD].readCounter()
	default:
		return a.RAM[addr]
	}
}

func (a *APU) writeReg(addr uint16, val uint8) {
	a.RAM[addr] = val
	switch addr {
	case 0xF1: // CONTROL
		for i := 0; i < 3; i++ {
			a.timers[i].setEnabled(val&(1<<i) != 0)
		}
		if val&0x10 != 0 {
			a.cpuIn[0], a.cpuIn[1] = 0, 0
		}
		if val&0x20 != 0 {
			a.cpuIn[2], a.cpuIn[3] = 0, 0
		}
		a.iplEnabled = val&0x80 != 0
	case 0xF2:
		a.DSP.Addr = val
	case 0xF3:
		a.DSP.Write(a.DSP.Addr, val)
	case 0xF4, 0xF5, 0xF6, 0xF7:
		a.cpuOut[addr-0xF4] = val
	case 0xFA, 0xFB, 0xFC:
		a.timers[addr-0xFA].setTarget(val)
	}
}
