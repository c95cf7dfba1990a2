package apu

import "testing"

func TestSPCOpcodesImplemented(t *testing.T) {
	for opcode, op := range spcOps {
		if op == nil {
			t.Errorf("opcode %02x not implemented", opcode)
		}
	}
	for opcode, n := range spcCycles {
		if n == 0 {
			t.Errorf("opcode %02x has no cycle count", opcode)
		}
	}
}

// From power-on, the boot IPL must publish the $AA/$BB handshake on the
// ports within the bound games rely on.
func TestIPLHandshake(t *testing.T) {
	a := New()
	a.Reset()

	for cycles := int64(0); cycles < 150000; cycles += 1000 {
		a.Run(1000)
		if a.ReadPort(0) == 0xAA && a.ReadPort(1) == 0xBB {
			return
		}
	}
	t.Fatalf("no handshake: port0=%02X port1=%02X PC=%04X",
		a.ReadPort(0), a.ReadPort(1), a.SPC.PC)
}

// A CPU port write must be visible to SPC code, and the echoed value must
// come back to the CPU side, within a bounded number of cycles.
func TestPortRoundTrip(t *testing.T) {
	a := New()
	a.Reset()

	// MOV A, $F4 ; MOV $F4, A ; BRA -6 (back to $0200)
	prog := []uint8{0xE4, 0xF4, 0xC4, 0xF4, 0x2F, 0xFA}
	copy(a.RAM[0x0200:], prog)
	a.SPC.PC = 0x0200
	a.iplEnabled = false

	a.WritePort(0, 0x5A)

	// 64 SPC cycles is plenty for one loop iteration.
	spcCycles := int64(0)
	for spcCycles < 64 {
		spcCycles += a.SPC.Step()
	}
	if got := a.ReadPort(0); got != 0x5A {
		t.Errorf("port0 = %02X, want 5A", got)
	}
}

func TestTimerDividersAndClear(t *testing.T) {
	a := New()
	a.Reset()

	// T2 divides by 16. Target 4: counter bumps every 64 SPC cycles.
	a.write8(0xFC, 4)
	a.write8(0xF1, 0x84) // enable T2, keep IPL

	a.tick(64 * 3)
	if got := a.read8(0xFF); got != 3 {
		t.Errorf("T2 counter = %d, want 3", got)
	}
	// Reading cleared it.
	if got := a.read8(0xFF); got != 0 {
		t.Errorf("T2 counter after read = %d, want 0", got)
	}

	// T0 divides by 128; target 0 counts as 256.
	a.write8(0xFA, 0)
	a.write8(0xF1, 0x81)
	a.tick(128 * 256)
	if got := a.read8(0xFD); got != 1 {
		t.Errorf("T0 counter = %d, want 1", got)
	}
}

func TestPortClearBits(t *testing.T) {
	a := New()
	a.Reset()

	a.WritePort(0, 0x11)
	a.WritePort(1, 0x22)
	a.WritePort(2, 0x33)
	a.WritePort(3, 0x44)

	a.write8(0xF1, 0x90) // clear ports 0/1, IPL on
	if a.read8(0xF4) != 0 || a.read8(0xF5) != 0 {
		t.Error("ports 0/1 not cleared")
	}
	if a.read8(0xF6) != 0x33 || a.read8(0xF7) != 0x44 {
		t.Error("ports 2/3 should be untouched")
	}
}

func TestBRRDecodeFilters(t *testing.T) {
	// filter 0: sample = (nibble << shift) >> 1
	h := brrHeader(0xC0) // shift 12, filter 0
	if got := decodeBRRSample(h, 0x1, 0, 0); got != 1<<12>>1 {
		t.Errorf("filter0 +1 = %d", got)
	}
	if got := decodeBRRSample(h, 0xF, 0, 0); got != -(1<<12)>>1 {
		t.Errorf("filter0 -1 = %d", got)
	}

	// filter 1 adds last1 - last1/16
	h = brrHeader(0x04) // shift 0, filter 1
	if got := decodeBRRSample(h, 0, 1000, 0); got != 1000-1000>>4 {
		t.Errorf("filter1 = %d", got)
	}

	// decoding a block advances the predictor history
	a := New()
	a.Reset()
	a.RAM[0x300] = 0xB0 // shift 11, filter 0, no loop/end
	a.RAM[0x301] = 0x70 // nibbles +7, 0
	var l1, l2 int16
	var out [16]int16
	hdr := a.decodeBRRBlock(0x300, &l1, &l2, &out)
	if hdr.end() {
		t.Error("block should not be marked end")
	}
	if out[0] != 7<<11>>1 {
		t.Errorf("out[0] = %d, want %d", out[0], 7<<11>>1)
	}
	if l1 != out[15] {
		t.Errorf("history not tracking: l1=%d out[15]=%d", l1, out[15])
	}
}

func TestGaussianTaps(t *testing.T) {
	for i := 0; i < 256; i++ {
		sum := 0
		for tap := 0; tap < 4; tap++ {
			sum += int(gaussTaps[tap][i])
		}
		if sum != 2048 {
			t.Fatalf("phase %d: taps sum to %d, want 2048", i, sum)
		}
	}
	// At phase 0 the window is centered on sample 1.
	if gaussTaps[1][0] < gaussTaps[0][0] || gaussTaps[1][0] < gaussTaps[3][0] {
		t.Error("phase 0 should weigh the centered sample most")
	}
}

func TestDSPRegisterFile(t *testing.T) {
	a := New()
	a.Reset()

	a.write8(0xF2, 0x0C) // MVOLL
	a.write8(0xF3, 0x7F)
	if got := a.DSP.Read(0x0C); got != 0x7F {
		t.Errorf("MVOLL = %02X", got)
	}
	if got := a.read8(0xF3); got != 0x7F {
		t.Errorf("DSPDATA readback = %02X", got)
	}

	// ENDX: any write clears all bits.
	a.DSP.regs[0x7C] = 0xFF
	a.write8(0xF2, 0x7C)
	a.write8(0xF3, 0x12)
	if got := a.DSP.Read(0x7C); got != 0 {
		t.Errorf("ENDX after write = %02X, want 0", got)
	}
}

func TestDSPSilenceStream(t *testing.T) {
	a := New()
	a.Reset()

	// One frame's worth of master cycles at 32kHz -> ~533 samples/frame.
	a.Run(357366) // 1364 * 262
	samples := a.DrainSamples()
	if len(samples) < 1000 || len(samples) > 1200 {
		t.Fatalf("got %d samples, want ~1066 (533 stereo frames)", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d = %d, want silence", i, s)
		}
	}
}
