package hw

import (
	"sufami/emu/log"
	"sufami/hw/hwio"
)

const (
	// One scanline, in master cycles, and frame heights per TV standard.
	CyclesPerScanline = 1364
	NumScanlinesNTSC  = 262
	NumScanlinesPAL   = 312

	// H-blank begins at dot 274.
	hblankStart = 274 * 4

	FrameWidth     = 256
	FrameHeight    = 224
	FrameHeightOSC = 239 // overscan
)

// PPU is the picture processor: it owns VRAM, OAM and CGRAM, tracks the
// H/V beam position on the master-cycle timeline, raises the V-blank and
// timer interrupts, and renders one scanline at a time into the framebuffer.
type PPU struct {
	Bus *Bus

	// Beam position. HPos is in master cycles within the scanline (the dot
	// counter is HPos/4).
	HPos     int
	Scanline int
	Frame    uint64

	NumScanlines int // 262 NTSC, 312 PAL

	// Scanline-boundary hooks, wired by the SNES aggregate.
	OnScanline    func(line int) // H=0, before the line renders
	OnVBlankStart func()
	OnVBlankEnd   func()

	// Video memories.
	vram    [0x8000]uint16 // 64 KiB, word addressed
	cgram   [256]uint16
	oam     [512]uint8
	oamHigh [32]uint8

	framebuf    []uint8 // RGBA, FrameWidth x visibleHeight()
	frameDone   bool
	brightness  uint8
	forcedBlank bool

	// interrupt timer config ($4200 bits 4-5, $4207-$420A)
	irqMode uint8 // 0: none, 1: H, 2: V, 3: H+V
	htime   uint16
	vtime   uint16
	irqDone bool // already fired on this line

	// $2100-$21FF register file (bank 1 maps to bus B).
	INIDISP hwio.Reg8 `hwio:"bank=1,offset=0x00,wcb,writeonly"`
	OBSEL   hwio.Reg8 `hwio:"bank=1,offset=0x01,writeonly"`
	OAMADDL hwio.Reg8 `hwio:"bank=1,offset=0x02,wcb,writeonly"`
	OAMADDH hwio.Reg8 `hwio:"bank=1,offset=0x03,wcb,writeonly"`
	OAMDATA hwio.Reg8 `hwio:"bank=1,offset=0x04,wcb,writeonly"`
	BGMODE  hwio.Reg8 `hwio:"bank=1,offset=0x05,writeonly"`
	MOSAIC  hwio.Reg8 `hwio:"bank=1,offset=0x06,writeonly"`
	BG1SC   hwio.Reg8 `hwio:"bank=1,offset=0x07,writeonly"`
	BG2SC   hwio.Reg8 `hwio:"bank=1,offset=0x08,writeonly"`
	BG3SC   hwio.Reg8 `hwio:"bank=1,offset=0x09,writeonly"`
	BG4SC   hwio.Reg8 `hwio:"bank=1,offset=0x0A,writeonly"`
	BG12NBA hwio.Reg8 `hwio:"bank=1,offset=0x0B,writeonly"`
	BG34NBA hwio.Reg8 `hwio:"bank=1,offset=0x0C,writeonly"`

	BG1HOFS hwio.Reg8 `hwio:"bank=1,offset=0x0D,wcb,writeonly"`
	BG1VOFS hwio.Reg8 `hwio:"bank=1,offset=0x0E,wcb,writeonly"`
	BG2HOFS hwio.Reg8 `hwio:"bank=1,offset=0x0F,wcb,writeonly"`
	BG2VOFS hwio.Reg8 `hwio:"bank=1,offset=0x10,wcb,writeonly"`
	BG3HOFS hwio.Reg8 `hwio:"bank=1,offset=0x11,wcb,writeonly"`
	BG3VOFS hwio.Reg8 `hwio:"bank=1,offset=0x12,wcb,writeonly"`
	BG4HOFS hwio.Reg8 `hwio:"bank=1,offset=0x13,wcb,writeonly"`
	BG4VOFS hwio.Reg8 `hwio:"bank=1,offset=0x14,wcb,writeonly"`

	VMAIN   hwio.Reg8 `hwio:"bank=1,offset=0x15,writeonly"`
	VMADDL  hwio.Reg8 `hwio:"bank=1,offset=0x16,wcb,writeonly"`
	VMADDH  hwio.Reg8 `hwio:"bank=1,offset=0x17,wcb,writeonly"`
	VMDATAL hwio.Reg8 `hwio:"bank=1,offset=0x18,wcb,writeonly"`
	VMDATAH hwio.Reg8 `hwio:"bank=1,offset=0x19,wcb,writeonly"`

	M7SEL hwio.Reg8 `hwio:"bank=1,offset=0x1A,writeonly"`
	M7A   hwio.Reg8 `hwio:"bank=1,offset=0x1B,wcb,writeonly"`
	M7B   hwio.Reg8 `hwio:"bank=1,offset=0x1C,wcb,writeonly"`
	M7C   hwio.Reg8 `hwio:"bank=1,offset=0x1D,wcb,writeonly"`
	M7D   hwio.Reg8 `hwio:"bank=1,offset=0x1E,wcb,writeonly"`
	M7X   hwio.Reg8 `hwio:"bank=1,offset=0x1F,wcb,writeonly"`
	M7Y   hwio.Reg8 `hwio:"bank=1,offset=0x20,wcb,writeonly"`

	CGADD  hwio.Reg8 `hwio:"bank=1,offset=0x21,wcb,writeonly"`
	CGDATA hwio.Reg8 `hwio:"bank=1,offset=0x22,wcb,writeonly"`

	W12SEL  hwio.Reg8 `hwio:"bank=1,offset=0x23,writeonly"`
	W34SEL  hwio.Reg8 `hwio:"bank=1,offset=0x24,writeonly"`
	WOBJSEL hwio.Reg8 `hwio:"bank=1,offset=0x25,writeonly"`
	WH0     hwio.Reg8 `hwio:"bank=1,offset=0x26,writeonly"`
	WH1     hwio.Reg8 `hwio:"bank=1,offset=0x27,writeonly"`
	WH2     hwio.Reg8 `hwio:"bank=1,offset=0x28,writeonly"`
	WH3     hwio.Reg8 `hwio:"bank=1,offset=0x29,writeonly"`
	WBGLOG  hwio.Reg8 `hwio:"bank=1,offset=0x2A,writeonly"`
	WOBJLOG hwio.Reg8 `hwio:"bank=1,offset=0x2B,writeonly"`
	TM      hwio.Reg8 `hwio:"bank=1,offset=0x2C,writeonly"`
	TS      hwio.Reg8 `hwio:"bank=1,offset=0x2D,writeonly"`
	TMW     hwio.Reg8 `hwio:"bank=1,offset=0x2E,writeonly"`
	TSW     hwio.Reg8 `hwio:"bank=1,offset=0x2F,writeonly"`
	CGWSEL  hwio.Reg8 `hwio:"bank=1,offset=0x30,writeonly"`
	CGADSUB hwio.Reg8 `hwio:"bank=1,offset=0x31,writeonly"`
	COLDATA hwio.Reg8 `hwio:"bank=1,offset=0x32,wcb,writeonly"`
	SETINI  hwio.Reg8 `hwio:"bank=1,offset=0x33,writeonly"`

	MPYL        hwio.Reg8 `hwio:"bank=1,offset=0x34,rcb,readonly"`
	MPYM        hwio.Reg8 `hwio:"bank=1,offset=0x35,rcb,readonly"`
	MPYH        hwio.Reg8 `hwio:"bank=1,offset=0x36,rcb,readonly"`
	SLHV        hwio.Reg8 `hwio:"bank=1,offset=0x37,rcb,readonly"`
	OAMDATAREAD hwio.Reg8 `hwio:"bank=1,offset=0x38,rcb,readonly"`
	VMDATALREAD hwio.Reg8 `hwio:"bank=1,offset=0x39,rcb,readonly"`
	VMDATAHREAD hwio.Reg8 `hwio:"bank=1,offset=0x3A,rcb,readonly"`
	CGDATAREAD  hwio.Reg8 `hwio:"bank=1,offset=0x3B,rcb,readonly"`
	OPHCT       hwio.Reg8 `hwio:"bank=1,offset=0x3C,rcb,readonly"`
	OPVCT       hwio.Reg8 `hwio:"bank=1,offset=0x3D,rcb,readonly"`
	STAT77      hwio.Reg8 `hwio:"bank=1,offset=0x3E,rcb,readonly"`
	STAT78      hwio.Reg8 `hwio:"bank=1,offset=0x3F,rcb,readonly"`

	// VRAM/OAM/CGRAM port state.
	vramAddr     uint16
	vramPrefetch uint16
	oamAddr      uint16 // 10-bit byte address into the 544-byte table
	oamLatch     uint8
	cgAddr       uint16 // byte address (word address x2)
	cgLatch      uint8
	cgSecond     bool

	// write-twice latches
	scrollPrev uint8 // shared by the BGnxOFS registers
	m7Prev     uint8

	// scroll values (10-bit), mode 7 registers (16-bit 2's complement)
	bgHOFS [4]uint16
	bgVOFS [4]uint16
	m7     [4]int16 // A, B, C, D
	m7CX   int16    // 13-bit signed center
	m7CY   int16
	m7HOFS int16
	m7VOFS int16

	// fixed color for color math, 5 bits per channel
	fixedR, fixedG, fixedB uint8

	// sprite range/time over flags, latched until the next frame
	rangeOver bool
	timeOver  bool

	// H/V counter latch
	latchedH   uint16
	latchedV   uint16
	hvLatched  bool
	ophctHigh  bool
	opvctHigh  bool
}

func NewPPU(bus *Bus) *PPU {
	p := &PPU{
		Bus:          bus,
		NumScanlines: NumScanlinesNTSC,
	}
	hwio.MustInitRegs(p)
	bus.BusB.MapBank(0x2100, p, 1)
	bus.PPU = p
	p.framebuf = make([]uint8, FrameWidth*FrameHeightOSC*4)
	return p
}

func (p *PPU) Reset() {
	p.HPos = 0
	p.Scanline = 0
	p.frameDone = false
	p.forcedBlank = true
	p.brightness = 0
	p.INIDISP.Value = 0x80
	p.vramAddr = 0
	p.oamAddr = 0
	p.cgAddr = 0
	p.cgSecond = false
	p.irqMode = 0
	p.irqDone = false
	p.rangeOver = false
	p.timeOver = false
	clear(p.vram[:])
	clear(p.cgram[:])
	clear(p.oam[:])
	clear(p.oamHigh[:])
	clear(p.framebuf)
}

// visibleHeight returns 224 or 239 depending on the overscan bit.
func (p *PPU) visibleHeight() int {
	if p.SETINI.Value&0x04 != 0 {
		return FrameHeightOSC
	}
	return FrameHeight
}

// vblankLine is the scanline at which V-blank (and NMI) starts.
func (p *PPU) vblankLine() int {
	return p.visibleHeight() + 1
}

// FrameDone reports and clears the end-of-frame flag.
func (p *PPU) FrameDone() bool {
	done := p.frameDone
	p.frameDone = false
	return done
}

// Framebuffer returns the current frame as RGBA bytes, top-left origin.
func (p *PPU) Framebuffer() []uint8 {
	return p.framebuf[:FrameWidth*p.visibleHeight()*4]
}

// Run advances the beam by the given number of master cycles, firing
// scanline hooks, interrupts and rendering as thresholds are crossed.
func (p *PPU) Run(cycles int64) {
	for cycles > 0 {
		step := min(cycles, int64(p.nextEvent()-p.HPos))
		p.HPos += int(step)
		cycles -= step

		p.checkHTimer()

		if p.HPos >= hblankStart {
			p.Bus.SetHBlank(true)
		}
		if p.HPos >= CyclesPerScanline {
			p.HPos -= CyclesPerScanline
			p.advanceLine()
		}
	}
}

// nextEvent returns the next HPos threshold that needs attention.
func (p *PPU) nextEvent() int {
	next := CyclesPerScanline
	if p.HPos < hblankStart {
		next = hblankStart
	}
	if p.irqMode&1 != 0 && !p.irqDone {
		if target := int(p.htime) * 4; p.HPos < target && target < next {
			next = target
		}
	}
	return next
}

// checkHTimer fires the H-IRQ when the dot counter passes the target.
func (p *PPU) checkHTimer() {
	if p.irqDone || p.irqMode == 0 {
		return
	}
	switch p.irqMode {
	case 1: // H every line
		if p.HPos >= int(p.htime)*4 {
			p.irqDone = true
			p.Bus.TriggerIRQ()
		}
	case 2: // V only, fires at H=0, handled in advanceLine
	case 3: // H+V
		if p.Scanline == int(p.vtime) && p.HPos >= int(p.htime)*4 {
			p.irqDone = true
			p.Bus.TriggerIRQ()
		}
	}
}

func (p *PPU) advanceLine() {
	p.Scanline++
	p.irqDone = false
	p.Bus.SetHBlank(false)

	if p.Scanline >= p.NumScanlines {
		p.Scanline = 0
		p.Frame++
	}

	line := p.Scanline
	switch {
	case line == 0:
		p.Bus.VBlankEnd()
		p.rangeOver = false
		p.timeOver = false
		if !p.forcedBlank {
			// OAM address reload at the end of V-blank.
			p.oamAddr = uint16(p.OAMADDL.Value)<<1 | uint16(p.OAMADDH.Value&1)<<9
		}
	case line == p.vblankLine():
		p.frameDone = true
		p.Bus.VBlankStart()
		if p.OnVBlankStart != nil {
			p.OnVBlankStart()
		}
	}

	if p.OnScanline != nil {
		p.OnScanline(line)
	}

	// V-IRQ fires at H=0 of the target line.
	if p.irqMode == 2 && line == int(p.vtime) {
		p.Bus.TriggerIRQ()
	}

	if line >= 1 && line <= p.visibleHeight() {
		p.renderLine(line - 1)
	}
}

// SetIRQEnable configures the HV timer from $4200 bits 4-5.
func (p *PPU) SetIRQEnable(mode uint8) {
	p.irqMode = mode & 3
}

func (p *PPU) SetTimerTarget(h, v uint16) {
	p.htime = h
	p.vtime = v
}

// LatchHV latches the current beam position (read of $2137 or pin trigger).
func (p *PPU) LatchHV() {
	p.latchedH = uint16(p.HPos / 4)
	p.latchedV = uint16(p.Scanline)
	p.hvLatched = true
}

func (p *PPU) logState() {
	log.ModPPU.DebugZ("beam").
		Int("line", p.Scanline).
		Int("dot", p.HPos/4).
		Uint64("frame", p.Frame).
		End()
}
