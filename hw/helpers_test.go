package hw

import (
	"testing"

	"sufami/sfc"
)

// testROM builds a minimal LoROM image: valid header, reset vector pointing
// at $00:8000, and an STP at the entry point so a free-running CPU parks
// itself.
func testROM(tb testing.TB) []byte {
	tb.Helper()

	buf := make([]byte, 0x20000)
	hdr := buf[0x7FB0:]

	title := "SUFAMI TEST          "
	copy(hdr[0x10:], title[:21])
	hdr[0x25] = 0x20 // LoROM, slow
	hdr[0x26] = 0x02 // ROM+RAM+battery
	hdr[0x27] = 0x08
	hdr[0x28] = 0x03 // 8 KiB SRAM
	hdr[0x29] = 0x01 // North America -> NTSC

	// entry: STP
	buf[0x0000] = 0xDB
	// reset vector $FFFC maps to ROM offset $7FFC
	buf[0x7FFC] = 0x00
	buf[0x7FFD] = 0x80

	// consistent checksum pair (the 4 bytes contribute a constant 0x1FE)
	hdr[0x2C] = 0xFF
	hdr[0x2D] = 0xFF
	var sum uint16
	for _, b := range buf {
		sum += uint16(b)
	}
	hdr[0x2C] = uint8(^sum)
	hdr[0x2D] = uint8(^sum >> 8)
	hdr[0x2E] = uint8(sum)
	hdr[0x2F] = uint8(sum >> 8)
	return buf
}

func testSNES(tb testing.TB) *SNES {
	tb.Helper()

	cart, err := sfc.Load(testROM(tb))
	if err != nil {
		tb.Fatalf("loading test rom: %v", err)
	}
	return NewSNES(cart)
}

// loadCode copies opcodes into WRAM at $0000 (mirrored in bank 0) and points
// the CPU there.
func loadCode(s *SNES, code ...uint8) {
	copy(s.Bus.WRAM, code)
	s.CPU.PB = 0
	s.CPU.PC = 0
}

func wantReg16(tb testing.TB, name string, got, want uint16) {
	tb.Helper()
	if got != want {
		tb.Errorf("%s = $%04X, want $%04X", name, got, want)
	}
}

func wantFlag(tb testing.TB, name string, got, want bool) {
	tb.Helper()
	if got != want {
		tb.Errorf("flag %s = %t, want %t", name, got, want)
	}
}
