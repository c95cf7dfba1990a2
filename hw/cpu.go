package hw

import (
	"io"

	"sufami/emu/log"
)

// Interrupt vector locations. Each contains a 16-bit address in bank $00.
const (
	COPVector   = uint16(0xFFE4)
	BRKVector   = uint16(0xFFE6)
	AbortVector = uint16(0xFFE8)
	NMIVector   = uint16(0xFFEA)
	IRQVector   = uint16(0xFFEE)

	COPVectorEmu   = uint16(0xFFF4)
	AbortVectorEmu = uint16(0xFFF8)
	NMIVectorEmu   = uint16(0xFFFA)
	ResetVector    = uint16(0xFFFC)
	BRKVectorEmu   = uint16(0xFFFE)
	IRQVectorEmu   = uint16(0xFFFE)
)

// One "internal" CPU cycle, in master cycles. Internal cycles always cost 6
// master cycles, whatever $420D says.
const internalCycle = 6

// CPU is the 65C816 main processor, stepped one instruction at a time.
type CPU struct {
	Bus *Bus

	A uint16 // accumulator (B:A when M=1)
	X uint16
	Y uint16
	S uint16 // stack pointer
	D uint16 // direct page base

	DB uint8 // data bank
	PB uint8 // program bank
	PC uint16

	P P
	E bool // hidden emulation flag

	// Total master cycles consumed.
	Cycles int64

	// interrupt handling
	nmiLine    bool // level coming from the PPU
	nmiPending bool // edge latched, waiting for an instruction boundary
	irqLine    bool

	waiting bool // WAI
	stopped bool // STP

	// Non-nil when execution tracing is enabled.
	tracer *tracer
}

func NewCPU(bus *Bus) *CPU {
	return &CPU{Bus: bus}
}

// Reset puts the CPU in its power-up state and fetches the reset vector.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.S = 0x01FF
	c.D = 0
	c.DB = 0
	c.PB = 0
	c.E = true
	c.P = Mem8 | IndexX | IntDis
	c.nmiLine = false
	c.nmiPending = false
	c.irqLine = false
	c.waiting = false
	c.stopped = false

	// Direct bus read, no side effects or cycle charge.
	lo := c.Bus.Peek(uint32(ResetVector))
	hi := c.Bus.Peek(uint32(ResetVector) + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)

	log.ModCPU.DebugZ("reset").Hex16("PC", c.PC).End()
}

// SetNMI drives the NMI line. The interrupt is edge-triggered: it is latched
// on a low-to-high transition and delivered at the next instruction boundary.
func (c *CPU) SetNMI(level bool) {
	if level && !c.nmiLine {
		c.nmiPending = true
	}
	c.nmiLine = level
}

// SetIRQ drives the level-sensitive IRQ line (HV timer).
func (c *CPU) SetIRQ(level bool) {
	c.irqLine = level
}

func (c *CPU) Halted() bool  { return c.stopped }
func (c *CPU) Waiting() bool { return c.waiting }

// Step executes one instruction (or delivers a pending interrupt) and returns
// the number of master cycles consumed.
func (c *CPU) Step() int64 {
	start := c.Cycles

	if c.stopped {
		// STP: dead until reset. Burn time so the caller still advances.
		c.Cycles += internalCycle
		return c.Cycles - start
	}

	if c.nmiPending {
		c.nmiPending = false
		c.waiting = false
		c.interrupt(NMIVector, NMIVectorEmu)
		return c.Cycles - start
	}
	if c.irqLine && !c.P.intDisable() {
		c.waiting = false
		c.interrupt(IRQVector, IRQVectorEmu)
		return c.Cycles - start
	}

	if c.waiting {
		// Suspended: report a chunk of idle time so the PPU/APU catch up and
		// eventually assert the interrupt that wakes us.
		c.Cycles += internalCycle
		return c.Cycles - start
	}

	if c.tracer != nil {
		c.tracer.write(c)
	}

	opcode := c.fetch8()
	ops[opcode](c)

	return c.Cycles - start
}

// interrupt pushes the return state and vectors through native/emu vector.
func (c *CPU) interrupt(vec, vecEmu uint16) {
	c.internal(2)
	if !c.E {
		c.push8(c.PB)
		c.push16(c.PC)
		c.push8(uint8(c.P))
		c.PC = c.read16bank0(vec)
	} else {
		c.push16(c.PC)
		c.push8(uint8(c.P) &^ IndexX) // B flag clear for hardware interrupts
		c.PC = c.read16bank0(vecEmu)
	}
	c.PB = 0
	c.P.setIntDisable(true)
	c.P.setDecimal(false)
}

/* bus accesses: every access charges its master-cycle cost */

func (c *CPU) read8(addr uint32) uint8 {
	val, n := c.Bus.Read(addr)
	c.Cycles += int64(n)
	return val
}

func (c *CPU) write8(addr uint32, val uint8) {
	n := c.Bus.Write(addr, val)
	c.Cycles += int64(n)
}

// read16 reads a 16-bit value with the data-access increment rule: the
// address increments through the full 24-bit space (bank crossing allowed).
func (c *CPU) read16(addr uint32) uint16 {
	lo := c.read8(addr)
	hi := c.read8((addr + 1) & 0xFFFFFF)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) write16(addr uint32, val uint16) {
	c.write8(addr, uint8(val))
	c.write8((addr+1)&0xFFFFFF, uint8(val>>8))
}

// read16bank0 reads a 16-bit value wrapping within bank 0 (vectors, direct
// page pointers).
func (c *CPU) read16bank0(addr uint16) uint16 {
	lo := c.read8(uint32(addr))
	hi := c.read8(uint32(addr + 1))
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) internal(n int) {
	c.Cycles += int64(n) * internalCycle
}

/* instruction stream */

func (c *CPU) fetch8() uint8 {
	val := c.read8(addr24(c.PB, c.PC))
	c.PC++
	return val
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) fetch24() uint32 {
	lo := c.fetch8()
	mid := c.fetch8()
	hi := c.fetch8()
	return uint32(hi)<<16 | uint32(mid)<<8 | uint32(lo)
}

/* register width helpers */

// m8 reports whether memory/accumulator operations are 8-bit wide.
func (c *CPU) m8() bool { return c.E || c.P.mem8() }

// x8 reports whether index registers are 8-bit wide.
func (c *CPU) x8() bool { return c.E || c.P.idx8() }

// xval returns X honoring the index width.
func (c *CPU) xval() uint16 {
	if c.x8() {
		return c.X & 0xFF
	}
	return c.X
}

func (c *CPU) yval() uint16 {
	if c.x8() {
		return c.Y & 0xFF
	}
	return c.Y
}

// setA assigns the accumulator honoring M: in 8-bit mode the B (high) byte is
// preserved.
func (c *CPU) setA(val uint16) {
	if c.m8() {
		c.A = c.A&0xFF00 | val&0xFF
	} else {
		c.A = val
	}
}

func (c *CPU) aval() uint16 {
	if c.m8() {
		return c.A & 0xFF
	}
	return c.A
}

func (c *CPU) setX(val uint16) {
	if c.x8() {
		c.X = val & 0xFF
	} else {
		c.X = val
	}
}

func (c *CPU) setY(val uint16) {
	if c.x8() {
		c.Y = val & 0xFF
	} else {
		c.Y = val
	}
}

// setS keeps the stack pointer in page 1 in emulation mode.
func (c *CPU) setS(val uint16) {
	if c.E {
		c.S = 0x0100 | val&0xFF
	} else {
		c.S = val
	}
}

/* stack */

func (c *CPU) push8(val uint8) {
	c.write8(uint32(c.S), val)
	c.setS(c.S - 1)
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.setS(c.S + 1)
	return c.read8(uint32(c.S))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* addressing modes
   Every mode returns a 24-bit effective address. Data accesses through it use
   the 24-bit increment rule; pointer fetches wrap per mode. */

func addr24(bank uint8, offset uint16) uint32 {
	return uint32(bank)<<16 | uint32(offset)
}

// dpAddr computes D+off with the extra internal cycle charged when the direct
// page is not page-aligned.
func (c *CPU) dpAddr(off uint16) uint32 {
	if c.D&0xFF != 0 {
		c.internal(1)
	}
	return uint32(c.D + off)
}

func (c *CPU) amDP() uint32  { return c.dpAddr(uint16(c.fetch8())) }

func (c *CPU) amDPX() uint32 {
	c.internal(1)
	return c.dpAddr(uint16(c.fetch8()) + c.xval())
}

func (c *CPU) amDPY() uint32 {
	c.internal(1)
	return c.dpAddr(uint16(c.fetch8()) + c.yval())
}

func (c *CPU) amAbs() uint32 { return addr24(c.DB, c.fetch16()) }

// amAbsIdx charges the indexing internal cycle when a page boundary is
// crossed, when the index registers are 16-bit, or when the access will write
// (the hardware always performs the extra read in those cases).
func (c *CPU) amAbsIdx(idx uint16, write bool) uint32 {
	base := c.fetch16()
	ea := (uint32(c.DB)<<16 + uint32(base) + uint32(idx)) & 0xFFFFFF
	if write || !c.x8() || base&0xFF00 != uint16(ea)&0xFF00 {
		c.internal(1)
	}
	return ea
}

func (c *CPU) amAbsX(write bool) uint32 { return c.amAbsIdx(c.xval(), write) }
func (c *CPU) amAbsY(write bool) uint32 { return c.amAbsIdx(c.yval(), write) }

func (c *CPU) amLong() uint32 { return c.fetch24() }

func (c *CPU) amLongX() uint32 {
	return (c.fetch24() + uint32(c.xval())) & 0xFFFFFF
}

// (dp) — 16-bit pointer in bank 0, data in DB bank.
func (c *CPU) amDPInd() uint32 {
	ptr := c.amDP()
	return addr24(c.DB, c.read16bank0(uint16(ptr)))
}

// [dp] — 24-bit pointer in bank 0.
func (c *CPU) amDPIndLong() uint32 {
	ptr := uint16(c.amDP())
	lo := c.read8(uint32(ptr))
	mid := c.read8(uint32(ptr + 1))
	hi := c.read8(uint32(ptr + 2))
	return uint32(hi)<<16 | uint32(mid)<<8 | uint32(lo)
}

// (dp,X)
func (c *CPU) amDPIndX() uint32 {
	c.internal(1)
	ptr := c.dpAddr(uint16(c.fetch8()) + c.xval())
	return addr24(c.DB, c.read16bank0(uint16(ptr)))
}

// (dp),Y
func (c *CPU) amDPIndY(write bool) uint32 {
	ptr := c.amDP()
	base := c.read16bank0(uint16(ptr))
	ea := (uint32(c.DB)<<16 + uint32(base) + uint32(c.yval())) & 0xFFFFFF
	if write || !c.x8() || base&0xFF00 != uint16(ea)&0xFF00 {
		c.internal(1)
	}
	return ea
}

// [dp],Y
func (c *CPU) amDPIndLongY() uint32 {
	return (c.amDPIndLong() + uint32(c.yval())) & 0xFFFFFF
}

// sr,S
func (c *CPU) amSR() uint32 {
	c.internal(1)
	return uint32(c.S + uint16(c.fetch8()))
}

// (sr,S),Y
func (c *CPU) amSRIndY() uint32 {
	ptr := uint16(c.amSR())
	base := c.read16bank0(ptr)
	c.internal(1)
	return (uint32(c.DB)<<16 + uint32(base) + uint32(c.yval())) & 0xFFFFFF
}

/* operand access honoring the M width */

func (c *CPU) readM(ea uint32) uint16 {
	if c.m8() {
		return uint16(c.read8(ea))
	}
	return c.read16(ea)
}

func (c *CPU) writeM(ea uint32, val uint16) {
	if c.m8() {
		c.write8(ea, uint8(val))
	} else {
		c.write16(ea, val)
	}
}

func (c *CPU) readX(ea uint32) uint16 {
	if c.x8() {
		return uint16(c.read8(ea))
	}
	return c.read16(ea)
}

func (c *CPU) writeX(ea uint32, val uint16) {
	if c.x8() {
		c.write8(ea, uint8(val))
	} else {
		c.write16(ea, val)
	}
}

func (c *CPU) immM() uint16 {
	if c.m8() {
		return uint16(c.fetch8())
	}
	return c.fetch16()
}

func (c *CPU) immX() uint16 {
	if c.x8() {
		return uint16(c.fetch8())
	}
	return c.fetch16()
}

/* tracing */

func (c *CPU) SetTraceOutput(w io.Writer) {
	c.tracer = &tracer{w: w}
}
