package hw

import "testing"

func TestAllOpcodesImplemented(t *testing.T) {
	for opcode, op := range ops {
		if op == nil {
			t.Errorf("opcode %02x not implemented", opcode)
		}
	}
}

func TestResetState(t *testing.T) {
	s := testSNES(t)

	wantReg16(t, "PC", s.CPU.PC, 0x8000)
	if s.CPU.PB != 0 {
		t.Errorf("PB = %02X, want 00", s.CPU.PB)
	}
	if s.CPU.DB != 0 {
		t.Errorf("DB = %02X, want 00", s.CPU.DB)
	}
	wantReg16(t, "S", s.CPU.S, 0x01FF)
	wantReg16(t, "D", s.CPU.D, 0x0000)
	wantFlag(t, "E", s.CPU.E, true)
	wantFlag(t, "M", s.CPU.P.mem8(), true)
	wantFlag(t, "X", s.CPU.P.idx8(), true)
	wantFlag(t, "I", s.CPU.P.intDisable(), true)
}

// CLC; XCE enters native mode with C=1. SEP #$30 then re-forces M=X=1.
func TestXCE(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0x18, 0xFB, 0xE2, 0x30) // CLC; XCE; SEP #$30

	s.CPU.Step()
	s.CPU.Step()
	wantFlag(t, "E", s.CPU.E, false)
	wantFlag(t, "C", s.CPU.P.carry(), true)

	s.CPU.Step()
	wantFlag(t, "M", s.CPU.P.mem8(), true)
	wantFlag(t, "X", s.CPU.P.idx8(), true)
}

// Post-execution invariant: E=1 implies M=1, X=1 and the stack stays in
// page 1.
func TestEmulationModeInvariants(t *testing.T) {
	s := testSNES(t)
	// REP #$30 must not clear M/X while E=1; TXS keeps S in page 1.
	loadCode(s, 0xC2, 0x30, 0xA2, 0x00, 0x9A) // REP #$30; LDX #$00; TXS

	for i := 0; i < 3; i++ {
		s.CPU.Step()
	}
	wantFlag(t, "M", s.CPU.P.mem8(), true)
	wantFlag(t, "X", s.CPU.P.idx8(), true)
	if s.CPU.S&0xFF00 != 0x0100 {
		t.Errorf("S = $%04X, high byte must be $01", s.CPU.S)
	}
}

func TestStackWrapEmulation(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0x48) // PHA
	s.CPU.S = 0x0100
	s.CPU.A = 0x42

	s.CPU.Step()
	wantReg16(t, "S", s.CPU.S, 0x01FF)
	if s.Bus.WRAM[0x0100] != 0x42 {
		t.Errorf("pushed byte = %02X, want 42", s.Bus.WRAM[0x0100])
	}
}

func TestADCBinary(t *testing.T) {
	tests := []struct {
		a, m    uint8
		cin     bool
		want    uint8
		c, v, n bool
	}{
		{0x01, 0x01, false, 0x02, false, false, false},
		{0x7F, 0x01, false, 0x80, false, true, true},
		{0xFF, 0x01, false, 0x00, true, false, false},
		{0x80, 0x80, false, 0x00, true, true, false},
		{0x3F, 0x40, true, 0x80, false, true, true},
	}

	for _, tt := range tests {
		s := testSNES(t)
		loadCode(s, 0x69, tt.m) // ADC #imm
		s.CPU.A = uint16(tt.a)
		s.CPU.P.setCarry(tt.cin)
		s.CPU.Step()

		if got := uint8(s.CPU.A); got != tt.want {
			t.Errorf("ADC %02X+%02X: A = %02X, want %02X", tt.a, tt.m, got, tt.want)
		}
		wantFlag(t, "C", s.CPU.P.carry(), tt.c)
		wantFlag(t, "V", s.CPU.P.overflow(), tt.v)
		wantFlag(t, "N", s.CPU.P.negative(), tt.n)
	}
}

func TestADCDecimal(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0x69, 0x01) // ADC #$01
	s.CPU.A = 0x09
	s.CPU.P.setDecimal(true)
	s.CPU.P.setCarry(false)

	s.CPU.Step()
	if got := uint8(s.CPU.A); got != 0x10 {
		t.Errorf("BCD 09+01: A = %02X, want 10", got)
	}
	wantFlag(t, "C", s.CPU.P.carry(), false)
	wantFlag(t, "Z", s.CPU.P.zero(), false)
	wantFlag(t, "N", s.CPU.P.negative(), false)
}

func TestSBCDecimal(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0xE9, 0x05) // SBC #$05
	s.CPU.A = 0x10
	s.CPU.P.setDecimal(true)
	s.CPU.P.setCarry(true) // no borrow

	s.CPU.Step()
	if got := uint8(s.CPU.A); got != 0x05 {
		t.Errorf("BCD 10-05: A = %02X, want 05", got)
	}
	wantFlag(t, "C", s.CPU.P.carry(), true)
}

func TestWide16BitOps(t *testing.T) {
	s := testSNES(t)
	// CLC; XCE; REP #$30; LDA #$1234; STA $0010
	loadCode(s, 0x18, 0xFB, 0xC2, 0x30, 0xA9, 0x34, 0x12, 0x85, 0x10)

	for i := 0; i < 5; i++ {
		s.CPU.Step()
	}
	wantReg16(t, "A", s.CPU.A, 0x1234)
	if s.Bus.WRAM[0x10] != 0x34 || s.Bus.WRAM[0x11] != 0x12 {
		t.Errorf("16-bit store = %02X %02X", s.Bus.WRAM[0x10], s.Bus.WRAM[0x11])
	}
}

// When X=1, the high bytes of X and Y are forced to zero.
func TestIndexWidthSwitch(t *testing.T) {
	s := testSNES(t)
	// CLC; XCE; REP #$10; LDX #$1234; SEP #$10
	loadCode(s, 0x18, 0xFB, 0xC2, 0x10, 0xA2, 0x34, 0x12, 0xE2, 0x10)

	for i := 0; i < 4; i++ {
		s.CPU.Step()
	}
	wantReg16(t, "X", s.CPU.X, 0x1234)
	s.CPU.Step()
	wantReg16(t, "X", s.CPU.X, 0x0034)
}

// In 8-bit accumulator mode, the B (high) byte survives.
func TestBPreservedIn8Bit(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0xA9, 0x55) // LDA #$55 with M=1
	s.CPU.A = 0x1200
	s.CPU.Step()
	wantReg16(t, "A", s.CPU.A, 0x1255)
}

func TestMVNBlockMove(t *testing.T) {
	s := testSNES(t)
	// MVN from $7E:0100 to $7E:0200, 3 bytes.
	loadCode(s, 0x54, 0x7E, 0x7E) // MVN dstbank=7E srcbank=7E
	copy(s.Bus.WRAM[0x100:], []byte{0xDE, 0xAD, 0xBE})
	s.CPU.A = 2 // count-1
	s.CPU.X = 0x0100
	s.CPU.Y = 0x0200
	s.CPU.E = false
	s.CPU.P.clearFlags(IndexX | Mem8)

	// one byte per step
	s.CPU.Step()
	if s.Bus.WRAM[0x200] != 0xDE {
		t.Fatalf("first byte not moved")
	}
	s.CPU.Step()
	s.CPU.Step()

	if got := s.Bus.WRAM[0x200:0x203]; got[0] != 0xDE || got[1] != 0xAD || got[2] != 0xBE {
		t.Errorf("moved bytes = % X", got)
	}
	wantReg16(t, "A", s.CPU.A, 0xFFFF)
	wantReg16(t, "X", s.CPU.X, 0x0103)
	wantReg16(t, "Y", s.CPU.Y, 0x0203)
	if s.CPU.DB != 0x7E {
		t.Errorf("DB = %02X, want 7E", s.CPU.DB)
	}
}

func TestWAIWakesOnNMI(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0xCB, 0xEA) // WAI; NOP
	// NMI vector (emulation): $FFFA -> ROM $7FFA
	s.CPU.Step()
	if !s.CPU.Waiting() {
		t.Fatal("CPU should be waiting")
	}

	// While waiting, steps just burn time.
	pc := s.CPU.PC
	s.CPU.Step()
	wantReg16(t, "PC", s.CPU.PC, pc)

	s.CPU.SetNMI(true)
	s.CPU.Step() // delivers the interrupt
	if s.CPU.Waiting() {
		t.Error("CPU should have woken up")
	}
}

func TestSTPHalts(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0xDB, 0xEA) // STP; NOP

	s.CPU.Step()
	if !s.CPU.Halted() {
		t.Fatal("CPU should be halted")
	}
	pc := s.CPU.PC
	s.CPU.Step()
	wantReg16(t, "PC", s.CPU.PC, pc)
}

// IRQ delivery pushes the return state, sets I and vectors.
func TestIRQDelivery(t *testing.T) {
	s := testSNES(t)
	loadCode(s, 0xEA, 0xEA) // NOP; NOP
	s.CPU.P.setIntDisable(false)

	// The CPU stays in emulation mode: the IRQ vector $FFFE reads ROM
	// $7FFE, which the test ROM leaves at 0.
	s.CPU.SetIRQ(true)
	s.CPU.Step() // delivers IRQ, vector target comes from the test ROM (0)

	wantFlag(t, "I", s.CPU.P.intDisable(), true)
	// Return address was pushed.
	if s.CPU.S >= 0x01FF {
		t.Error("nothing was pushed on the stack")
	}
}
