package hw

import "sufami/hw/hwio"

// PadState is the 16-bit standard controller mask, as latched by the
// hardware serial shift order (B first).
type PadState uint16

const (
	PadB PadState = 1 << (15 - iota)
	PadY
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight
	PadA
	PadX
	PadL
	PadR
	// low 4 bits always 0 on a standard pad
)

// Joypads implements the two controller ports: manual serial reads through
// $4016/$4017 and the automatic V-blank read into $4218-$421F. The host
// provides the pad states once per frame; pads 3/4 (multitap) read as idle.
type Joypads struct {
	Bus *Bus

	pads    [4]PadState
	shift   [4]uint16
	strobe  bool
	busy    bool

	JOYSER0 hwio.Reg8 `hwio:"offset=0x16,rcb,wcb"`
	JOYSER1 hwio.Reg8 `hwio:"offset=0x17,rcb"`

	JOY1L hwio.Reg8 `hwio:"bank=1,offset=0x18,readonly"`
	JOY1H hwio.Reg8 `hwio:"bank=1,offset=0x19,readonly"`
	JOY2L hwio.Reg8 `hwio:"bank=1,offset=0x1A,readonly"`
	JOY2H hwio.Reg8 `hwio:"bank=1,offset=0x1B,readonly"`
	JOY3L hwio.Reg8 `hwio:"bank=1,offset=0x1C,readonly"`
	JOY3H hwio.Reg8 `hwio:"bank=1,offset=0x1D,readonly"`
	JOY4L hwio.Reg8 `hwio:"bank=1,offset=0x1E,readonly"`
	JOY4H hwio.Reg8 `hwio:"bank=1,offset=0x1F,readonly"`
}

func NewJoypads(bus *Bus) *Joypads {
	j := &Joypads{Bus: bus}
	hwio.MustInitRegs(j)
	bus.CPUIO.MapBank(0x4000, j, 0)
	bus.CPUIO.MapBank(0x4200, j, 1)
	bus.SetAutoReadBusy(func() bool { return j.busy })
	return j
}

func (j *Joypads) Reset() {
	j.pads = [4]PadState{}
	j.shift = [4]uint16{}
	j.strobe = false
	j.busy = false
}

// SetPads installs the host-provided controller states for this frame.
func (j *Joypads) SetPads(pads [4]PadState) {
	j.pads = pads
}

// AutoRead latches all pads into $4218-$421F. Run by the scheduler at
// V-blank when $4200 bit 0 is set.
func (j *Joypads) AutoRead() {
	if j.Bus.NMITIMEN.Value&1 == 0 {
		return
	}
	j.busy = true
	j.latch()
	regs := []*hwio.Reg8{
		&j.JOY1L, &j.JOY1H, &j.JOY2L, &j.JOY2H,
		&j.JOY3L, &j.JOY3H, &j.JOY4L, &j.JOY4H,
	}
	for i := 0; i < 4; i++ {
		regs[i*2].Value = uint8(j.shift[i])
		regs[i*2+1].Value = uint8(j.shift[i] >> 8)
	}
	// The serial registers are left fully shifted out.
	for i := range j.shift {
		j.shift[i] = 0xFFFF
	}
	j.busy = false
}

func (j *Joypads) latch() {
	for i := range j.pads {
		j.shift[i] = uint16(j.pads[i])
	}
}

// $4016 write: strobe. While high, the shift registers continuously reload.
func (j *Joypads) WriteJOYSER0(old, val uint8) {
	strobe := val&1 != 0
	if strobe {
		j.latch()
	}
	j.strobe = strobe
}

// $4016 read: port 1 serial bit.
func (j *Joypads) ReadJOYSER0(val uint8) uint8 {
	return j.shiftBit(0)
}

// $4017 read: port 2 serial bit. Bits 2-4 read back as 1 on hardware.
func (j *Joypads) ReadJOYSER1(val uint8) uint8 {
	return j.shiftBit(1) | 0x1C
}

func (j *Joypads) shiftBit(port int) uint8 {
	if j.strobe {
		j.latch()
		return uint8(j.shift[port] >> 15)
	}
	bit := uint8(j.shift[port] >> 15)
	j.shift[port] = j.shift[port]<<1 | 1
	return bit
}
