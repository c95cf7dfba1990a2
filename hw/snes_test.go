package hw

import "testing"

func TestRunFrameAdvancesOneFrame(t *testing.T) {
	s := testSNES(t)

	var pads [4]PadState
	s.RunFrame(pads)
	f := s.PPU.Frame

	frame := s.RunFrame(pads)
	if s.PPU.Frame != f+1 {
		t.Errorf("frame counter %d -> %d, want +1", f, s.PPU.Frame)
	}
	if frame.Width != 256 || frame.Height != 224 {
		t.Errorf("frame size %dx%d, want 256x224", frame.Width, frame.Height)
	}
	if len(frame.Video) != 256*224*4 {
		t.Errorf("video buffer %d bytes", len(frame.Video))
	}
	// ~533 stereo frames of audio per video frame.
	if len(frame.Samples) < 1000 || len(frame.Samples) > 1200 {
		t.Errorf("%d audio samples, want ~1066", len(frame.Samples))
	}
}

// Enabling NMI through $4200 while the V-blank flag is already up triggers
// the interrupt at the next instruction boundary, and $4210 reads $80 once.
func TestNMIEnableWhilePending(t *testing.T) {
	s := testSNES(t)

	// Park the CPU on NOPs.
	loadCode(s, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA)

	// Bring the PPU to V-blank start.
	s.Bus.VBlankStart()
	if s.CPU.nmiPending {
		t.Fatal("NMI should not be pending while disabled")
	}

	// $4200 = $81: NMI + autoread enable, with the flag already up.
	s.Bus.Write(0x004200, 0x81)
	if !s.CPU.nmiPending {
		t.Fatal("NMI should latch immediately")
	}

	s.CPU.Step() // vectors through $FFFA
	// The emulation NMI vector in the test ROM is 0 -> PC=0.
	wantReg16(t, "PC", s.CPU.PC, 0x0000)

	got, _ := s.Bus.Read(0x004210)
	if got&0x80 == 0 {
		t.Error("$4210 should report the NMI flag")
	}
	got, _ = s.Bus.Read(0x004210)
	if got&0x80 != 0 {
		t.Error("$4210 read should have cleared the flag")
	}
}

// From a fresh reset the SPC boot IPL must publish $AA on CPU port $2140
// within 150k master cycles.
func TestAPUHandshakeThroughPorts(t *testing.T) {
	s := testSNES(t)

	start := s.Cycles
	for s.Cycles-start < 150000 {
		s.step()
		if v, _ := s.Bus.Read(0x002140); v == 0xAA {
			if v2, _ := s.Bus.Read(0x002141); v2 == 0xBB {
				return
			}
		}
	}
	t.Fatal("no APU handshake within 150k master cycles")
}

func TestJoypadAutoRead(t *testing.T) {
	s := testSNES(t)

	var pads [4]PadState
	pads[0] = PadA | PadStart
	s.Pads.SetPads(pads)
	s.Bus.Write(0x004200, 0x01) // autoread enable

	s.Pads.AutoRead()

	lo, _ := s.Bus.Read(0x004218)
	hi, _ := s.Bus.Read(0x004219)
	got := PadState(uint16(hi)<<8 | uint16(lo))
	if got != PadA|PadStart {
		t.Errorf("JOY1 = %04X, want %04X", uint16(got), uint16(PadA|PadStart))
	}
}

func TestJoypadSerialRead(t *testing.T) {
	s := testSNES(t)

	var pads [4]PadState
	pads[0] = PadB // bit 15, first out
	s.Pads.SetPads(pads)

	s.Bus.Write(0x004016, 1) // strobe on
	s.Bus.Write(0x004016, 0) // strobe off, start shifting

	b0, _ := s.Bus.Read(0x004016)
	if b0&1 != 1 {
		t.Errorf("first serial bit = %d, want 1 (B pressed)", b0&1)
	}
	b1, _ := s.Bus.Read(0x004016)
	if b1&1 != 0 {
		t.Errorf("second serial bit = %d, want 0", b1&1)
	}
}

func TestResetPreservesSRAM(t *testing.T) {
	s := testSNES(t)

	s.Bus.Write(0x700000, 0x77)
	s.Reset()
	if got, _ := s.Bus.Read(0x700000); got != 0x77 {
		t.Errorf("sram after reset = %02X, want 77", got)
	}
	// WRAM is cleared.
	if s.Bus.WRAM[0] != 0 {
		t.Error("wram should be cleared on reset")
	}
}

func TestHVTimerIRQ(t *testing.T) {
	s := testSNES(t)

	// V-IRQ at line 100.
	s.Bus.Write(0x004209, 100)
	s.Bus.Write(0x00420A, 0)
	s.Bus.Write(0x004200, 0x20) // V-IRQ enable
	s.CPU.P.setIntDisable(false)

	s.PPU.Run(CyclesPerScanline * 101)

	if !s.Bus.irqFlag {
		t.Fatal("IRQ flag should be set after line 100")
	}
	got, _ := s.Bus.Read(0x004211)
	if got&0x80 == 0 {
		t.Error("$4211 should report the timer IRQ")
	}
	got, _ = s.Bus.Read(0x004211)
	if got&0x80 != 0 {
		t.Error("$4211 read should clear the flag")
	}
}
