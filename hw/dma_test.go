package hw

import "testing"

// Spec'd cost: one byte per 8 master cycles plus 8 cycles of setup per
// channel, and $420B reads back 0 when the transfer is done.
func TestGPDMAToVRAM(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	// 256 bytes of $AA at $7E:0000.
	for i := 0; i < 256; i++ {
		b.WRAM[i] = 0xAA
	}

	// VRAM target: word address 0, increment after low byte.
	b.Write(0x002115, 0x00)
	b.Write(0x002116, 0x00)
	b.Write(0x002117, 0x00)

	// Channel 0: pattern 0, A->B, increment, source $7E:0000, dest $2118,
	// 256 bytes.
	b.Write(0x004300, 0x00)
	b.Write(0x004301, 0x18)
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x004305, 0x00)
	b.Write(0x004306, 0x01)

	b.TakeStall() // discard anything pending
	b.Write(0x00420B, 0x01)

	if got := b.TakeStall(); got != 256*8+8 {
		t.Errorf("dma stall = %d cycles, want %d", got, 256*8+8)
	}
	if got, _ := b.Read(0x00420B); got != 0 {
		t.Errorf("$420B = %02X, want 0", got)
	}

	for i := 0; i < 256; i++ {
		if got := uint8(s.PPU.vram[i]); got != 0xAA {
			t.Fatalf("vram[%d] low = %02X, want AA", i, got)
		}
	}

	// Size register decremented to zero.
	dasl, _ := b.Read(0x004305)
	dash, _ := b.Read(0x004306)
	if dasl != 0 || dash != 0 {
		t.Errorf("size after dma = %02X%02X, want 0", dash, dasl)
	}
}

// Pattern 1 alternates between B-bus address and address+1.
func TestGPDMAPattern1(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	b.WRAM[0] = 0x34
	b.WRAM[1] = 0x12

	// VRAM address $0100, increment after high byte, via pattern 1 to
	// $2118/$2119.
	b.Write(0x002115, 0x80)
	b.Write(0x002116, 0x00)
	b.Write(0x002117, 0x01)

	b.Write(0x004300, 0x01)
	b.Write(0x004301, 0x18)
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x00)
	b.Write(0x004304, 0x7E)
	b.Write(0x004305, 0x02)
	b.Write(0x004306, 0x00)

	b.Write(0x00420B, 0x01)

	if got := s.PPU.vram[0x100]; got != 0x1234 {
		t.Errorf("vram[100] = %04X, want 1234", got)
	}
}

// B->A direction reads PPU state into memory.
func TestGPDMAReadBack(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	s.PPU.vram[0x40] = 0x5678
	// VRAM read address $40; loading VMADD primes the prefetch.
	b.Write(0x002115, 0x80)
	b.Write(0x002116, 0x40)
	b.Write(0x002117, 0x00)

	// Channel 2: pattern 1 from $2139, B->A, to $7E:0300.
	b.Write(0x004320, 0x81)
	b.Write(0x004321, 0x39)
	b.Write(0x004322, 0x00)
	b.Write(0x004323, 0x03)
	b.Write(0x004324, 0x7E)
	b.Write(0x004325, 0x02)
	b.Write(0x004326, 0x00)

	b.Write(0x00420B, 0x04)

	if b.WRAM[0x300] != 0x78 || b.WRAM[0x301] != 0x56 {
		t.Errorf("read back % X, want 78 56", b.WRAM[0x300:0x302])
	}
}

func TestHDMADirect(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	// Table at $7E:0500: 2 lines writing $E0 to $2121 (CGADD), then one
	// line writing $05, then end.
	copy(b.WRAM[0x500:], []byte{
		0x02, 0xE0, // 2 lines, value E0 (transferred once, held)
		0x01, 0x05, // 1 line, value 05
		0x00, // end
	})

	b.Write(0x004300, 0x00) // mode 0, direct
	b.Write(0x004301, 0x21) // $2121
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x05)
	b.Write(0x004304, 0x7E)
	b.Write(0x00420C, 0x01)

	s.DMA.FrameStart()

	s.DMA.RunHDMA() // line 1: new entry, transfer E0
	if s.PPU.cgAddr != 0xE0 {
		t.Fatalf("line 1: cgaddr = %02X, want E0", s.PPU.cgAddr)
	}

	s.PPU.cgAddr = 0
	s.DMA.RunHDMA() // line 2: same entry, non-repeat: no transfer
	if s.PPU.cgAddr != 0 {
		t.Fatalf("line 2: unexpected transfer")
	}

	s.DMA.RunHDMA() // line 3: next entry, transfer 05
	if s.PPU.cgAddr != 0x05 {
		t.Fatalf("line 3: cgaddr = %02X, want 05", s.PPU.cgAddr)
	}

	s.DMA.RunHDMA() // line 4: table end
	if s.DMA.Channels[0].hdmaActive {
		t.Error("channel should be dormant after the $00 entry")
	}
}

func TestHDMARepeat(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	// Repeat entry: 3 lines, each consuming its own data byte.
	copy(b.WRAM[0x600:], []byte{
		0x83, 0x10, 0x20, 0x30, // repeat, 3 lines
		0x00,
	})

	b.Write(0x004300, 0x00)
	b.Write(0x004301, 0x21)
	b.Write(0x004302, 0x00)
	b.Write(0x004303, 0x06)
	b.Write(0x004304, 0x7E)
	b.Write(0x00420C, 0x01)

	s.DMA.FrameStart()

	want := []uint16{0x10, 0x20, 0x30}
	for i, w := range want {
		s.DMA.RunHDMA()
		if s.PPU.cgAddr != w {
			t.Errorf("line %d: cgaddr = %02X, want %02X", i+1, s.PPU.cgAddr, w)
		}
	}
}

func TestHDMAIndirect(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	// Table: 1 line, pointer to $7E:0700 where the data byte lives.
	copy(b.WRAM[0x650:], []byte{0x01, 0x00, 0x07, 0x00})
	b.WRAM[0x700] = 0x77

	b.Write(0x004300, 0x40) // mode 0, indirect
	b.Write(0x004301, 0x21)
	b.Write(0x004302, 0x50)
	b.Write(0x004303, 0x06)
	b.Write(0x004304, 0x7E)
	b.Write(0x004307, 0x7E) // indirect bank
	b.Write(0x00420C, 0x01)

	s.DMA.FrameStart()
	s.DMA.RunHDMA()

	if s.PPU.cgAddr != 0x77 {
		t.Errorf("cgaddr = %02X, want 77", s.PPU.cgAddr)
	}
}

// A GP-DMA request on a channel that is HDMA-active this frame is refused.
func TestDMAConflictWithHDMA(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	b.WRAM[0x500] = 0x00 // empty hdma table
	b.Write(0x004300, 0x00)
	b.Write(0x004301, 0x21)
	b.Write(0x004303, 0x05)
	b.Write(0x004304, 0x7E)
	b.Write(0x00420C, 0x01)
	s.DMA.FrameStart()

	b.Write(0x004305, 0x10) // would transfer 16 bytes
	b.TakeStall()
	b.Write(0x00420B, 0x01)
	if got := b.TakeStall(); got != 0 {
		t.Errorf("conflicting dma consumed %d cycles, want 0", got)
	}
}
