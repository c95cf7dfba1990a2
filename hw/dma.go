package hw

import (
	"sufami/emu/log"
	"sufami/hw/hwio"
)

// Transfer patterns: sequence of B-bus register offsets written for one
// block, indexed by the mode bits of $43n0.
var dmaPatterns = [8][]uint8{
	0: {0},
	1: {0, 1},
	2: {0, 0},
	3: {0, 0, 1, 1},
	4: {0, 1, 2, 3},
	5: {0, 1, 0, 1},
	6: {0, 0},
	7: {0, 0, 1, 1},
}

// DMAChannel is one of the 8 channels, with its MMIO register file at
// $43n0-$43nA.
type DMAChannel struct {
	DMAP hwio.Reg8 `hwio:"offset=0x0"` // control
	BBAD hwio.Reg8 `hwio:"offset=0x1"` // B-bus address
	A1TL hwio.Reg8 `hwio:"offset=0x2"` // A-bus address
	A1TH hwio.Reg8 `hwio:"offset=0x3"`
	A1B  hwio.Reg8 `hwio:"offset=0x4"` // A-bus bank
	DASL hwio.Reg8 `hwio:"offset=0x5"` // size / indirect HDMA address
	DASH hwio.Reg8 `hwio:"offset=0x6"`
	DASB hwio.Reg8 `hwio:"offset=0x7"` // indirect HDMA bank
	A2AL hwio.Reg8 `hwio:"offset=0x8"` // HDMA table pointer
	A2AH hwio.Reg8 `hwio:"offset=0x9"`
	NLTR hwio.Reg8 `hwio:"offset=0xA"` // HDMA line counter

	// HDMA per-frame state.
	hdmaActive bool
	doTransfer bool
	repeat     bool
}

func (ch *DMAChannel) mode() uint8      { return ch.DMAP.Value & 7 }
func (ch *DMAChannel) indirect() bool   { return ch.DMAP.Value&0x40 != 0 }
func (ch *DMAChannel) bToA() bool       { return ch.DMAP.Value&0x80 != 0 }
func (ch *DMAChannel) fixed() bool      { return ch.DMAP.Value&0x08 != 0 }
func (ch *DMAChannel) decrement() bool  { return ch.DMAP.Value&0x10 != 0 }

func (ch *DMAChannel) aAddr() uint32 {
	return uint32(ch.A1B.Value)<<16 | uint32(ch.A1TH.Value)<<8 | uint32(ch.A1TL.Value)
}

func (ch *DMAChannel) setAOffset(off uint16) {
	ch.A1TL.Value = uint8(off)
	ch.A1TH.Value = uint8(off >> 8)
}

func (ch *DMAChannel) count() int {
	n := int(ch.DASH.Value)<<8 | int(ch.DASL.Value)
	if n == 0 {
		n = 0x10000
	}
	return n
}

func (ch *DMAChannel) setCount(n uint16) {
	ch.DASL.Value = uint8(n)
	ch.DASH.Value = uint8(n >> 8)
}

func (ch *DMAChannel) tableAddr() uint32 {
	return uint32(ch.A1B.Value)<<16 | uint32(ch.A2AH.Value)<<8 | uint32(ch.A2AL.Value)
}

func (ch *DMAChannel) setTableOffset(off uint16) {
	ch.A2AL.Value = uint8(off)
	ch.A2AH.Value = uint8(off >> 8)
}

func (ch *DMAChannel) indirectAddr() uint32 {
	return uint32(ch.DASB.Value)<<16 | uint32(ch.DASH.Value)<<8 | uint32(ch.DASL.Value)
}

// DMA is the general-purpose and H-blank DMA engine: 8 channels sharing the
// bus with the CPU. While a transfer runs the CPU is paused; the consumed
// master cycles are accounted as bus stall.
type DMA struct {
	Bus *Bus

	Channels [8]DMAChannel

	hdmaEnable uint8 // $420C, latched into per-channel active at frame start
}

func NewDMA(bus *Bus) *DMA {
	d := &DMA{Bus: bus}
	for i := range d.Channels {
		hwio.MustInitRegs(&d.Channels[i])
		bus.CPUIO.MapBank(uint16(0x4300+i*0x10), &d.Channels[i], 0)
	}
	bus.DMA = d
	return d
}

func (d *DMA) Reset() {
	d.hdmaEnable = 0
	for i := range d.Channels {
		ch := &d.Channels[i]
		ch.hdmaActive = false
		ch.doTransfer = false
		ch.repeat = false
	}
}

// RunGPDMA services the channels in the mask in ascending order. One byte
// costs 8 master cycles, plus 8 cycles of setup per activated channel.
func (d *DMA) RunGPDMA(mask uint8) {
	for n := 0; n < 8; n++ {
		if mask&(1<<n) == 0 {
			continue
		}
		ch := &d.Channels[n]
		if ch.hdmaActive {
			// The channel belongs to HDMA for this frame.
			log.ModDMA.WarnZ("GP-DMA requested on HDMA-active channel").
				Int("chan", n).
				End()
			continue
		}
		d.runChannel(n, ch)
	}
}

func (d *DMA) runChannel(n int, ch *DMAChannel) {
	pattern := dmaPatterns[ch.mode()]
	count := ch.count()

	log.ModDMA.DebugZ("GP-DMA transfer").
		Int("chan", n).
		Hex24("src", ch.aAddr()).
		Hex8("breg", ch.BBAD.Value).
		Int("count", count).
		Bool("btoa", ch.bToA()).
		End()

	d.Bus.AddStall(8) // per-channel setup

	pidx := 0
	off := uint16(ch.aAddr())
	bank := uint8(ch.aAddr() >> 16)
	for i := 0; i < count; i++ {
		breg := ch.BBAD.Value + pattern[pidx]
		pidx = (pidx + 1) % len(pattern)

		if ch.bToA() {
			val := d.Bus.ReadBusB(breg)
			d.Bus.Write(hwio.Addr24(bank, off), val)
		} else {
			val, _ := d.Bus.Read(hwio.Addr24(bank, off))
			d.Bus.WriteBusB(breg, val)
		}

		switch {
		case ch.fixed():
		case ch.decrement():
			off--
		default:
			off++
		}
		d.Bus.AddStall(8)
	}

	ch.setAOffset(off)
	ch.setCount(0)
}

/* HDMA */

func (d *DMA) SetHDMAEnable(mask uint8) {
	d.hdmaEnable = mask
}

// FrameStart latches the HDMA enable mask and initializes the table pointers
// of the active channels. A channel enabled mid-frame joins at the next frame
// start.
func (d *DMA) FrameStart() {
	for n := 0; n < 8; n++ {
		ch := &d.Channels[n]
		ch.hdmaActive = d.hdmaEnable&(1<<n) != 0
		ch.doTransfer = false
		ch.repeat = false
		if ch.hdmaActive {
			ch.setTableOffset(uint16(ch.aAddr()))
			ch.NLTR.Value = 0
		}
	}
}

// RunHDMA consumes one table entry line on every active channel. Called by
// the scheduler at the start of each visible scanline, before the PPU renders
// it.
func (d *DMA) RunHDMA() {
	for n := 0; n < 8; n++ {
		ch := &d.Channels[n]
		if !ch.hdmaActive {
			continue
		}

		if ch.NLTR.Value == 0 {
			if !d.hdmaReload(n, ch) {
				continue
			}
		}

		if ch.doTransfer {
			d.hdmaLine(ch)
		}

		ch.NLTR.Value--
		if ch.NLTR.Value&0x7F == 0 {
			ch.NLTR.Value = 0 // reload next line
		}
		ch.doTransfer = ch.repeat
	}
}

// hdmaReload fetches the next table entry. Returns false when the table is
// finished and the channel goes dormant for the rest of the frame.
func (d *DMA) hdmaReload(n int, ch *DMAChannel) bool {
	table := ch.tableAddr()
	instr, _ := d.Bus.Read(table)
	ch.setTableOffset(uint16(table) + 1)
	d.Bus.AddStall(8)

	if instr == 0 {
		ch.hdmaActive = false
		log.ModDMA.DebugZ("HDMA table done").Int("chan", n).End()
		return false
	}

	ch.repeat = instr&0x80 != 0
	lines := instr & 0x7F
	if lines == 0 {
		lines = 0x80 // $80: repeat for 128 lines
	}
	ch.NLTR.Value = lines

	if ch.indirect() {
		table := ch.tableAddr()
		lo, _ := d.Bus.Read(table)
		hi, _ := d.Bus.Read((table + 1) & 0xFFFFFF)
		ch.setTableOffset(uint16(table) + 2)
		ch.DASL.Value = lo
		ch.DASH.Value = hi
		d.Bus.AddStall(16)
	}

	ch.doTransfer = true
	return true
}

// hdmaLine writes one block to the channel's B-bus register set.
func (d *DMA) hdmaLine(ch *DMAChannel) {
	pattern := dmaPatterns[ch.mode()]

	for _, poff := range pattern {
		var val uint8
		if ch.indirect() {
			addr := ch.indirectAddr()
			val, _ = d.Bus.Read(addr)
			ch.DASL.Value++
			if ch.DASL.Value == 0 {
				ch.DASH.Value++
			}
		} else {
			addr := ch.tableAddr()
			val, _ = d.Bus.Read(addr)
			ch.setTableOffset(uint16(addr) + 1)
		}
		d.Bus.WriteBusB(ch.BBAD.Value+poff, val)
		d.Bus.AddStall(8)
	}
}
