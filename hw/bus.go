package hw

import (
	"sufami/emu/log"
	"sufami/hw/hwio"
	"sufami/sfc"
)

// Master-cycle cost of a bus access, per region.
const (
	fastAccess  = 6
	slowAccess  = 8
	xslowAccess = 12
)

// Bus is address bus A: it routes 24-bit addresses to WRAM, the cartridge,
// bus B ($21xx: PPU, APU ports, WRAM port) and the CPU MMIO space
// ($40xx-$43xx), and accounts the master-cycle cost of each access.
type Bus struct {
	Cart *sfc.Cartridge
	WRAM []byte // 128 KiB, flat at $7E-$7F, first 8K mirrored low

	// BusB routes the $21xx page. CPUIO routes $4000-$43FF.
	BusB  *hwio.Table
	CPUIO *hwio.Table

	CPU *CPU // set by the SNES aggregate
	PPU *PPU
	DMA *DMA

	// Interrupt status, surfaced through $4210/$4211.
	nmiFlag    bool
	nmiEnabled bool
	irqFlag    bool

	inVBlank bool
	inHBlank bool

	autoReadBusy func() bool // joypad auto-read in progress

	openBus uint8
	fastROM bool

	// Cycles consumed by DMA/HDMA while the CPU was paused. Drained by the
	// scheduler.
	stall int64

	// $2180-$2183: WRAM access port.
	WMDATA hwio.Reg8 `hwio:"bank=1,offset=0x0,rcb,wcb"`
	WMADDL hwio.Reg8 `hwio:"bank=1,offset=0x1,wcb"`
	WMADDM hwio.Reg8 `hwio:"bank=1,offset=0x2,wcb"`
	WMADDH hwio.Reg8 `hwio:"bank=1,offset=0x3,wcb"`
	wmAddr uint32

	// $4200-$420D: interrupt enable, math unit, timers, DMA trigger.
	NMITIMEN hwio.Reg8 `hwio:"bank=0,offset=0x00,wcb"`
	WRIO     hwio.Reg8 `hwio:"bank=0,offset=0x01"`
	WRMPYA   hwio.Reg8 `hwio:"bank=0,offset=0x02"`
	WRMPYB   hwio.Reg8 `hwio:"bank=0,offset=0x03,wcb"`
	WRDIVL   hwio.Reg8 `hwio:"bank=0,offset=0x04"`
	WRDIVH   hwio.Reg8 `hwio:"bank=0,offset=0x05"`
	WRDIVB   hwio.Reg8 `hwio:"bank=0,offset=0x06,wcb"`
	HTIMEL   hwio.Reg8 `hwio:"bank=0,offset=0x07,wcb"`
	HTIMEH   hwio.Reg8 `hwio:"bank=0,offset=0x08,wcb"`
	VTIMEL   hwio.Reg8 `hwio:"bank=0,offset=0x09,wcb"`
	VTIMEH   hwio.Reg8 `hwio:"bank=0,offset=0x0A,wcb"`
	MDMAEN   hwio.Reg8 `hwio:"bank=0,offset=0x0B,wcb"`
	HDMAEN   hwio.Reg8 `hwio:"bank=0,offset=0x0C,wcb"`
	MEMSEL   hwio.Reg8 `hwio:"bank=0,offset=0x0D,wcb"`

	// $4210-$4217: interrupt status, math results.
	RDNMI  hwio.Reg8 `hwio:"bank=0,offset=0x10,rcb,readonly"`
	TIMEUP hwio.Reg8 `hwio:"bank=0,offset=0x11,rcb,readonly"`
	HVBJOY hwio.Reg8 `hwio:"bank=0,offset=0x12,rcb,readonly"`
	RDIO   hwio.Reg8 `hwio:"bank=0,offset=0x13,readonly"`
	RDDIVL hwio.Reg8 `hwio:"bank=0,offset=0x14,readonly"`
	RDDIVH hwio.Reg8 `hwio:"bank=0,offset=0x15,readonly"`
	RDMPYL hwio.Reg8 `hwio:"bank=0,offset=0x16,readonly"`
	RDMPYH hwio.Reg8 `hwio:"bank=0,offset=0x17,readonly"`
}

func NewBus(cart *sfc.Cartridge) *Bus {
	b := &Bus{
		Cart:  cart,
		WRAM:  make([]byte, 0x20000),
		BusB:  hwio.NewTable("busB"),
		CPUIO: hwio.NewTable("cpuio"),
	}
	hwio.MustInitRegs(b)
	b.CPUIO.MapBank(0x4200, b, 0)
	b.BusB.MapBank(0x2180, b, 1)
	return b
}

func (b *Bus) Reset() {
	clear(b.WRAM)
	b.wmAddr = 0
	b.openBus = 0
	b.fastROM = false
	b.nmiFlag = false
	b.nmiEnabled = false
	b.irqFlag = false
	b.inVBlank = false
	b.inHBlank = false
	b.stall = 0
}

// speed returns the master-cycle cost of accessing the given address.
func (b *Bus) speed(bank uint8, off uint16) int {
	switch {
	case bank&0x7F <= 0x3F:
		switch {
		case off < 0x2000:
			return slowAccess // WRAM mirror
		case off < 0x4000:
			return fastAccess
		case off < 0x4200:
			return xslowAccess // joypad serial
		case off < 0x6000:
			return fastAccess
		default:
			if bank >= 0x80 && off >= 0x8000 && b.fastROM {
				return fastAccess
			}
			return slowAccess
		}
	case bank == 0x7E || bank == 0x7F:
		return slowAccess
	default:
		if bank >= 0xC0 && b.fastROM {
			return fastAccess
		}
		return slowAccess
	}
}

// Read returns the byte at the given bus address and its master-cycle cost.
// Unmapped regions yield the open-bus value.
func (b *Bus) Read(addr uint32) (uint8, int) {
	val := b.read(addr, false)
	b.openBus = val
	return val, b.speed(uint8(addr>>16), uint16(addr))
}

// Peek reads without side effects (tracing, vector preload).
func (b *Bus) Peek(addr uint32) uint8 {
	return b.read(addr, true)
}

func (b *Bus) read(addr uint32, peek bool) uint8 {
	bank := uint8(addr >> 16)
	off := uint16(addr)

	switch {
	case bank&0x7F <= 0x3F:
		switch {
		case off < 0x2000:
			return b.WRAM[off]
		case off >= 0x2100 && off < 0x2200:
			if b.BusB.Mapped(off) {
				return b.BusB.Read8(off, peek)
			}
			return b.unmappedRead(addr, peek)
		case off >= 0x4000 && off < 0x4400:
			if b.CPUIO.Mapped(off) {
				return b.CPUIO.Read8(off, peek)
			}
			return b.unmappedRead(addr, peek)
		case off >= 0x6000:
			if val, ok := b.Cart.Read(bank, off); ok {
				return val
			}
			return b.unmappedRead(addr, peek)
		default:
			return b.unmappedRead(addr, peek)
		}

	case bank == 0x7E || bank == 0x7F:
		return b.WRAM[addr-0x7E0000]

	default:
		if val, ok := b.Cart.Read(bank, off); ok {
			return val
		}
		return b.unmappedRead(addr, peek)
	}
}

// unmappedRead implements the documented policy for holes in the map: log,
// then return the open-bus value. Debug level, since games poke open bus
// routinely.
func (b *Bus) unmappedRead(addr uint32, peek bool) uint8 {
	if !peek {
		log.ModMem.DebugZ("unmapped bus read").
			Hex24("addr", addr).
			Hex8("openbus", b.openBus).
			End()
	}
	return b.openBus
}

// Write stores a byte at the given bus address and returns its master-cycle
// cost. Writes to unmapped or read-only regions are discarded.
func (b *Bus) Write(addr uint32, val uint8) int {
	bank := uint8(addr >> 16)
	off := uint16(addr)
	b.openBus = val

	switch {
	case bank&0x7F <= 0x3F:
		switch {
		case off < 0x2000:
			b.WRAM[off] = val
		case off >= 0x2100 && off < 0x2200:
			if b.BusB.Mapped(off) {
				b.BusB.Write8(off, val)
			} else {
				b.unmappedWrite(addr, val)
			}
		case off >= 0x4000 && off < 0x4400:
			if b.CPUIO.Mapped(off) {
				b.CPUIO.Write8(off, val)
			} else {
				b.unmappedWrite(addr, val)
			}
		case off >= 0x6000:
			b.Cart.Write(bank, off, val)
		default:
			b.unmappedWrite(addr, val)
		}

	case bank == 0x7E || bank == 0x7F:
		b.WRAM[addr-0x7E0000] = val

	default:
		b.Cart.Write(bank, off, val)
	}

	return b.speed(bank, off)
}

// unmappedWrite logs and discards, per the same policy as unmappedRead.
func (b *Bus) unmappedWrite(addr uint32, val uint8) {
	log.ModMem.DebugZ("unmapped bus write").
		Hex24("addr", addr).
		Hex8("val", val).
		End()
}

// WriteBusB performs a B-bus write as seen from the DMA engine: only the
// $21xx page is reachable.
func (b *Bus) WriteBusB(reg uint8, val uint8) {
	b.BusB.Write8(0x2100|uint16(reg), val)
}

func (b *Bus) ReadBusB(reg uint8) uint8 {
	return b.BusB.Read8(0x2100|uint16(reg), false)
}

// OpenBus returns the last value seen on the data bus.
func (b *Bus) OpenBus() uint8 { return b.openBus }

/* DMA stall accounting */

func (b *Bus) AddStall(n int64) { b.stall += n }

// TakeStall drains the cycles consumed by DMA while the CPU was paused.
func (b *Bus) TakeStall() int64 {
	n := b.stall
	b.stall = 0
	return n
}

/* interrupt plumbing, driven by the PPU through the scheduler */

// VBlankStart latches the NMI flag (and asserts the CPU NMI line when
// enabled through $4200).
func (b *Bus) VBlankStart() {
	b.inVBlank = true
	b.nmiFlag = true
	if b.nmiEnabled && b.CPU != nil {
		b.CPU.SetNMI(true)
	}
}

func (b *Bus) VBlankEnd() {
	b.inVBlank = false
	b.nmiFlag = false
	if b.CPU != nil {
		b.CPU.SetNMI(false)
	}
}

func (b *Bus) SetHBlank(on bool) { b.inHBlank = on }

// TriggerIRQ is called by the PPU H/V timer.
func (b *Bus) TriggerIRQ() {
	b.irqFlag = true
	if b.CPU != nil {
		b.CPU.SetIRQ(true)
	}
}

func (b *Bus) SetAutoReadBusy(f func() bool) { b.autoReadBusy = f }

/* register callbacks */

// $4200: interrupt enable and joypad auto-read.
func (b *Bus) WriteNMITIMEN(old, val uint8) {
	wasEnabled := b.nmiEnabled
	b.nmiEnabled = val&0x80 != 0

	// Enabling NMI while the V-blank flag is already up triggers the
	// interrupt immediately.
	if !wasEnabled && b.nmiEnabled && b.nmiFlag && b.CPU != nil {
		b.CPU.SetNMI(false)
		b.CPU.SetNMI(true)
	}
	if !b.nmiEnabled && b.CPU != nil {
		b.CPU.SetNMI(false)
	}

	if b.PPU != nil {
		b.PPU.SetIRQEnable(val >> 4 & 3)
	}
}

// $4203: writing the second operand starts the 8x8 multiply.
func (b *Bus) WriteWRMPYB(old, val uint8) {
	res := uint16(b.WRMPYA.Value) * uint16(val)
	b.RDMPYL.Value = uint8(res)
	b.RDMPYH.Value = uint8(res >> 8)
}

// $4206: writing the divisor starts the 16/8 divide.
func (b *Bus) WriteWRDIVB(old, val uint8) {
	dividend := uint16(b.WRDIVL.Value) | uint16(b.WRDIVH.Value)<<8
	if val == 0 {
		// Hardware result for division by zero.
		b.RDDIVL.Value = 0xFF
		b.RDDIVH.Value = 0xFF
		b.RDMPYL.Value = 0x0C
		b.RDMPYH.Value = 0x00
		return
	}
	quot := dividend / uint16(val)
	rem := dividend % uint16(val)
	b.RDDIVL.Value = uint8(quot)
	b.RDDIVH.Value = uint8(quot >> 8)
	b.RDMPYL.Value = uint8(rem)
	b.RDMPYH.Value = uint8(rem >> 8)
}

func (b *Bus) WriteHTIMEL(old, val uint8) { b.ppuTimer() }
func (b *Bus) WriteHTIMEH(old, val uint8) { b.ppuTimer() }
func (b *Bus) WriteVTIMEL(old, val uint8) { b.ppuTimer() }
func (b *Bus) WriteVTIMEH(old, val uint8) { b.ppuTimer() }

func (b *Bus) ppuTimer() {
	if b.PPU == nil {
		return
	}
	h := uint16(b.HTIMEL.Value) | uint16(b.HTIMEH.Value&1)<<8
	v := uint16(b.VTIMEL.Value) | uint16(b.VTIMEH.Value&1)<<8
	b.PPU.SetTimerTarget(h, v)
}

// $420B: start general-purpose DMA on the channels in the mask. The CPU is
// paused for the whole transfer.
func (b *Bus) WriteMDMAEN(old, val uint8) {
	if b.DMA == nil {
		return
	}
	b.DMA.RunGPDMA(val)
	b.MDMAEN.Value = 0 // cleared when the transfer completes
}

// $420C: HDMA channel enable, latched at frame start.
func (b *Bus) WriteHDMAEN(old, val uint8) {
	if b.DMA != nil {
		b.DMA.SetHDMAEnable(val)
	}
}

// $420D: FastROM enable.
func (b *Bus) WriteMEMSEL(old, val uint8) {
	fast := val&1 != 0
	if fast && !b.Cart.FastROM() {
		log.ModMem.WarnZ("FastROM enabled on a slow cart").End()
	}
	b.fastROM = fast
}

// $4210: NMI flag, cleared on read.
func (b *Bus) ReadRDNMI(val uint8) uint8 {
	res := uint8(0x02) // CPU version bits
	if b.nmiFlag {
		res |= 0x80
	}
	b.nmiFlag = false
	return res | b.openBus&0x70
}

// $4211: HV timer IRQ flag, cleared on read.
func (b *Bus) ReadTIMEUP(val uint8) uint8 {
	res := uint8(0)
	if b.irqFlag {
		res = 0x80
	}
	b.irqFlag = false
	if b.CPU != nil {
		b.CPU.SetIRQ(false)
	}
	return res | b.openBus&0x7F
}

// $4212: V/H-blank and joypad auto-read status.
func (b *Bus) ReadHVBJOY(val uint8) uint8 {
	res := uint8(0)
	if b.inVBlank {
		res |= 0x80
	}
	if b.inHBlank {
		res |= 0x40
	}
	if b.autoReadBusy != nil && b.autoReadBusy() {
		res |= 0x01
	}
	return res | b.openBus&0x3E
}

/* WRAM access port ($2180-$2183) */

func (b *Bus) ReadWMDATA(val uint8) uint8 {
	data := b.WRAM[b.wmAddr]
	b.wmAddr = (b.wmAddr + 1) & 0x1FFFF
	return data
}

func (b *Bus) WriteWMDATA(old, val uint8) {
	b.WRAM[b.wmAddr] = val
	b.wmAddr = (b.wmAddr + 1) & 0x1FFFF
}

func (b *Bus) WriteWMADDL(old, val uint8) {
	b.wmAddr = b.wmAddr&0x1FF00 | uint32(val)
}

func (b *Bus) WriteWMADDM(old, val uint8) {
	b.wmAddr = b.wmAddr&0x100FF | uint32(val)<<8
}

func (b *Bus) WriteWMADDH(old, val uint8) {
	b.wmAddr = b.wmAddr&0x0FFFF | uint32(val&1)<<16
}
