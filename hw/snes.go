package hw

import (
	"sufami/emu/log"
	"sufami/hw/apu"
	"sufami/hw/hwio"
	"sufami/sfc"
)

// Frame is what one RunFrame call hands back to the host: the finished
// picture and the audio samples produced during the frame.
type Frame struct {
	Video  []uint8 // RGBA, Width x Height, top-left origin
	Width  int
	Height int

	// Stereo interleaved 16-bit samples at 32 kHz.
	Samples []int16
}

// SNES aggregates the whole console: the shared bus, the four processors and
// the controller ports, driven on a single master-cycle timeline. The CPU is
// the primary driver; after every instruction the PPU and APU are advanced
// by the cycles it consumed.
type SNES struct {
	Cart *sfc.Cartridge
	Bus  *Bus
	CPU  *CPU
	PPU  *PPU
	DMA  *DMA
	APU  *apu.APU
	Pads *Joypads

	// Total master cycles since power-up.
	Cycles uint64
}

// NewSNES builds and wires a console around the given cartridge.
func NewSNES(cart *sfc.Cartridge) *SNES {
	bus := NewBus(cart)
	s := &SNES{
		Cart: cart,
		Bus:  bus,
		CPU:  NewCPU(bus),
		PPU:  NewPPU(bus),
		DMA:  NewDMA(bus),
		APU:  apu.New(),
		Pads: NewJoypads(bus),
	}
	bus.CPU = s.CPU

	if cart.TV() == sfc.PAL {
		s.PPU.NumScanlines = NumScanlinesPAL
	}

	// APU communication ports at $2140-$217F, mirrored every 4 bytes.
	bus.BusB.MapDevice(0x2140, &hwio.Device{
		Name: "apuports",
		Size: 0x40,
		ReadCb: func(addr uint16) uint8 {
			return s.APU.ReadPort(uint8(addr & 3))
		},
		PeekCb: func(addr uint16) uint8 {
			return s.APU.PeekPort(uint8(addr & 3))
		},
		WriteCb: func(addr uint16, val uint8) {
			s.APU.WritePort(uint8(addr&3), val)
		},
	})

	s.PPU.OnScanline = s.scanlineStart
	s.PPU.OnVBlankStart = s.Pads.AutoRead

	s.Reset()
	return s
}

// Reset brings the whole console back to power-on state. SRAM is preserved.
func (s *SNES) Reset() {
	s.Bus.Reset()
	s.PPU.Reset()
	s.DMA.Reset()
	s.Pads.Reset()
	s.APU.Reset()
	s.CPU.Reset()

	log.ModEmu.InfoZ("console reset").
		String("title", s.Cart.Title()).
		Stringer("mapping", s.Cart.Mapping()).
		End()
}

// SRAM exposes the battery-backed RAM for persistence.
func (s *SNES) SRAM() []byte {
	return s.Cart.SRAM
}

func (s *SNES) scanlineStart(line int) {
	switch {
	case line == 0:
		s.DMA.FrameStart()
	case line >= 1 && line <= s.PPU.visibleHeight():
		// HDMA writes land at H=0, before the line renders.
		s.DMA.RunHDMA()
	}
}

// RunFrame advances the console until the next V-blank start and returns the
// finished frame. The inputs are latched for the joypad auto-read that runs
// during this frame's V-blank.
func (s *SNES) RunFrame(pads [4]PadState) Frame {
	s.Pads.SetPads(pads)

	for !s.PPU.FrameDone() {
		s.step()
	}

	return Frame{
		Video:   s.PPU.Framebuffer(),
		Width:   FrameWidth,
		Height:  s.PPU.visibleHeight(),
		Samples: s.APU.DrainSamples(),
	}
}

// step runs one CPU instruction and catches the rest of the machine up.
func (s *SNES) step() {
	dc := s.CPU.Step()
	dc += s.Bus.TakeStall()

	s.PPU.Run(dc)
	// DMA run inside the CPU step may have crossed scanlines; drain any
	// stall it produced while the PPU caught up.
	if stall := s.Bus.TakeStall(); stall > 0 {
		dc += stall
		s.PPU.Run(stall)
	}
	s.APU.Run(dc)

	s.Cycles += uint64(dc)
}

// StepInstruction advances by exactly one CPU instruction (debugger surface).
func (s *SNES) StepInstruction() {
	s.step()
}
