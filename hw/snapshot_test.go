package hw

import (
	"testing"

	"sufami/hw/snapshot"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := testSNES(t)

	s.Bus.WRAM[0x123] = 0xAB
	s.PPU.vram[0x456] = 0x1234
	s.PPU.cgram[7] = 0x7FFF
	s.APU.RAM[0x789] = 0xCD
	s.CPU.A = 0xBEEF
	s.CPU.PC = 0x9000

	st := s.Snapshot()
	data := st.Encode()

	decoded, err := snapshot.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	// Apply onto a fresh console.
	s2 := testSNES(t)
	s2.Restore(decoded)

	if s2.Bus.WRAM[0x123] != 0xAB {
		t.Error("wram not restored")
	}
	if s2.PPU.vram[0x456] != 0x1234 {
		t.Error("vram not restored")
	}
	if s2.PPU.cgram[7] != 0x7FFF {
		t.Error("cgram not restored")
	}
	if s2.APU.RAM[0x789] != 0xCD {
		t.Error("apu ram not restored")
	}
	wantReg16(t, "A", s2.CPU.A, 0xBEEF)
	wantReg16(t, "PC", s2.CPU.PC, 0x9000)

	// A second snapshot of the restored console matches.
	if diff := cmp.Diff(st, s2.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch after restore (-want +got):\n%s", diff)
	}
}
