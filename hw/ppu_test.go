package hw

import "testing"

func wb(t testing.TB, b *Bus, addr uint32, val uint8) {
	t.Helper()
	b.Write(addr, val)
}

func TestVRAMPortRoundTrip(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	// Write 4 bytes with increment-after-high, read them back in order.
	wb(t, b, 0x002115, 0x80)
	wb(t, b, 0x002116, 0x10)
	wb(t, b, 0x002117, 0x00)
	data := []uint8{0xDE, 0xAD, 0xBE, 0xEF}
	for i := 0; i < len(data); i += 2 {
		wb(t, b, 0x002118, data[i])
		wb(t, b, 0x002119, data[i+1])
	}

	wb(t, b, 0x002116, 0x10)
	wb(t, b, 0x002117, 0x00)
	for i := 0; i < len(data); i += 2 {
		lo, _ := b.Read(0x002139)
		hi, _ := b.Read(0x00213A)
		if lo != data[i] || hi != data[i+1] {
			t.Errorf("word %d = %02X %02X, want %02X %02X", i/2, lo, hi, data[i], data[i+1])
		}
	}
}

func TestCGRAMPortRoundTrip(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	wb(t, b, 0x002121, 4)
	wb(t, b, 0x002122, 0x34)
	wb(t, b, 0x002122, 0x12)

	wb(t, b, 0x002121, 4)
	lo, _ := b.Read(0x00213B)
	hi, _ := b.Read(0x00213B)
	if lo != 0x34 || hi != 0x12 {
		t.Errorf("cgram readback = %02X %02X", lo, hi)
	}
	if s.PPU.cgram[4] != 0x1234 {
		t.Errorf("cgram[4] = %04X", s.PPU.cgram[4])
	}
}

func TestOAMPortRoundTrip(t *testing.T) {
	s := testSNES(t)
	b := s.Bus

	wb(t, b, 0x002102, 0x00)
	wb(t, b, 0x002103, 0x00)
	for _, v := range []uint8{0x11, 0x22, 0x33, 0x44} {
		wb(t, b, 0x002104, v)
	}

	wb(t, b, 0x002102, 0x00)
	wb(t, b, 0x002103, 0x00)
	for i, want := range []uint8{0x11, 0x22, 0x33, 0x44} {
		got, _ := b.Read(0x002138)
		if got != want {
			t.Errorf("oam[%d] = %02X, want %02X", i, got, want)
		}
	}

	// High table.
	wb(t, b, 0x002102, 0x00)
	wb(t, b, 0x002103, 0x01)
	wb(t, b, 0x002104, 0xA5)
	if s.PPU.oamHigh[0] != 0xA5 {
		t.Errorf("oam high[0] = %02X", s.PPU.oamHigh[0])
	}
}

// Render a single mode-0 BG1 tile and check the pixel path: tilemap ->
// character -> palette -> framebuffer.
func TestBGPixelRender(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.brightness = 15
	p.BGMODE.Value = 0
	p.TM.Value = 0x01 // BG1 on main screen
	p.BG1SC.Value = 0x04 // tilemap at word $0400, 32x32
	p.BG12NBA.Value = 0x01         // BG1 chars at word $1000

	// Character 1: row 0 = color 1 on all 8 pixels (plane 0 = $FF).
	p.vram[0x1000+8] = 0x00FF
	// Tilemap entry (0,0): char 1, palette 2.
	p.vram[0x400] = 0x0001 | 2<<10

	// Mode 0 BG1 palette 2, color 1 -> cgram[2*4+1] (bg offset 0).
	p.cgram[9] = 0x7C00 // blue

	p.renderLine(0)

	px := p.framebuf[0:4]
	if px[2] != 0xFF || px[0] != 0 || px[1] != 0 {
		t.Errorf("pixel = %v, want pure blue", px[:3])
	}

	// Pixel below the character row is backdrop (cgram[0] = black).
	p.renderLine(1)
	px = p.framebuf[FrameWidth*4 : FrameWidth*4+4]
	if px[0] != 0 || px[1] != 0 || px[2] != 0 {
		t.Errorf("backdrop pixel = %v, want black", px[:3])
	}
}

func TestBGScrollApplies(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.brightness = 15
	p.BGMODE.Value = 0
	p.TM.Value = 0x01
	p.BG1SC.Value = 0x04 // tilemap at word $0400, 32x32
	p.BG12NBA.Value = 0x01

	// With VOFS=8 the second tile row shows on line 0.
	p.bgVOFS[0] = 8
	p.vram[0x400+32] = 0x0001 // tile (0,1): char 1
	p.vram[0x1000+8] = 0x00FF // char 1 row 0, color 1
	p.cgram[1] = 0x001F       // red

	p.renderLine(0)
	if p.framebuf[0] != 0xFF {
		t.Errorf("scrolled pixel = %v, want red", p.framebuf[0:3])
	}
}

func TestBrightnessScaling(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.brightness = 7 // (7+1)/16 = half
	p.cgram[0] = 0x7FFF

	p.renderLine(0)
	// channel 31 -> 15 -> expanded 0x7B
	if got := p.framebuf[0]; got != 15<<3|15>>2 {
		t.Errorf("half brightness = %02X, want %02X", got, 15<<3|15>>2)
	}

	p.forcedBlank = true
	p.renderLine(0)
	if p.framebuf[0] != 0 {
		t.Error("forced blank should render black")
	}
}

func TestSpriteRender(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.brightness = 15
	p.BGMODE.Value = 0
	p.TM.Value = 0x10 // OBJ only
	p.OBSEL.Value = 0 // 8x8 sprites, tiles at word 0

	// Sprite 0: top-left, char 2, palette 0, priority 0.
	p.oam[0] = 10 // X
	p.oam[1] = 0  // Y: first shown on line 1 (row 0)
	p.oam[2] = 2  // char
	p.oam[3] = 0

	// Char 2 row 0: color 1 everywhere.
	p.vram[2*16] = 0x00FF
	p.cgram[129] = 0x03E0 // green

	p.renderLine(0)

	at := func(x int) []uint8 { return p.framebuf[x*4 : x*4+4] }
	if got := at(10); got[1] != 0xFF {
		t.Errorf("sprite pixel at x=10 = %v, want green", got[:3])
	}
	if got := at(9); got[1] != 0 {
		t.Errorf("pixel left of sprite = %v, want backdrop", got[:3])
	}
	if got := at(18); got[1] != 0 {
		t.Errorf("pixel right of sprite = %v, want backdrop", got[:3])
	}
}

func TestSpriteLimits(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.OBSEL.Value = 0
	// 40 sprites on line 1.
	for i := 0; i < 40; i++ {
		p.oam[i*4+0] = uint8(i * 4)
		p.oam[i*4+1] = 0
		p.oam[i*4+2] = 0
		p.oam[i*4+3] = 0
	}

	var lb lineBuffers
	for x := range lb.objPrio {
		lb.objPrio[x] = -1
	}
	p.renderSprites(0, &lb)

	if !p.rangeOver {
		t.Error("range-over flag should be set with 40 sprites on a line")
	}

	st, _ := s.Bus.Read(0x00213E)
	if st&0x40 == 0 {
		t.Error("STAT77 bit 6 should report range over")
	}
}

func TestWindowCombine(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	// BG1: W1 [10,20], W2 [15,30], OR.
	p.W12SEL.Value = 0x0A // both windows enabled, no invert
	p.WH0.Value = 10
	p.WH1.Value = 20
	p.WH2.Value = 15
	p.WH3.Value = 30
	p.WBGLOG.Value = 0 // OR

	var lb lineBuffers
	p.calcWindows(&lb)

	for _, tt := range []struct {
		x    int
		want bool
	}{{5, false}, {10, true}, {25, true}, {30, true}, {31, false}} {
		if got := lb.window[layerBG1][tt.x]; got != tt.want {
			t.Errorf("OR window at %d = %t, want %t", tt.x, got, tt.want)
		}
	}

	// AND combine.
	p.WBGLOG.Value = 1
	lb = lineBuffers{}
	p.calcWindows(&lb)
	for _, tt := range []struct {
		x    int
		want bool
	}{{12, false}, {15, true}, {20, true}, {21, false}} {
		if got := lb.window[layerBG1][tt.x]; got != tt.want {
			t.Errorf("AND window at %d = %t, want %t", tt.x, got, tt.want)
		}
	}
}

func TestColorMathAddHalf(t *testing.T) {
	if got := colorMath(0x7FFF, 0x7FFF, false, 1); got != 0x7FFF {
		t.Errorf("half add white = %04X", got)
	}
	// 10 + 20 = 30 per channel
	a := uint16(10) | 10<<5 | 10<<10
	b := uint16(20) | 20<<5 | 20<<10
	if got := colorMath(a, b, false, 0); got != uint16(30)|30<<5|30<<10 {
		t.Errorf("add = %04X", got)
	}
	// saturation
	a = uint16(20) | 20<<5 | 20<<10
	if got := colorMath(a, b, false, 0); got != 0x7FFF&(31|31<<5|31<<10) {
		t.Errorf("saturated add = %04X", got)
	}
	// subtract clamps at zero
	if got := colorMath(b, a, true, 0); got != 0 {
		t.Errorf("clamped sub = %04X", got)
	}
}

// Identity matrix mode 7: the playfield maps 1:1 to the screen.
func TestMode7Identity(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	p.forcedBlank = false
	p.brightness = 15
	p.BGMODE.Value = 7
	p.TM.Value = 0x01

	p.m7[0] = 0x0100 // A = 1.0
	p.m7[1] = 0
	p.m7[2] = 0
	p.m7[3] = 0x0100 // D = 1.0

	// Tile 0 of the playfield: tilemap byte 0 selects char 1.
	p.vram[0] = 0x0001 // low byte: tile number 1
	// Char 1, pixel (0,0): color index 9 lives in the high byte.
	p.vram[64] = 9 << 8
	p.cgram[9] = 0x7C00

	p.renderLine(0)
	if p.framebuf[2] != 0xFF {
		t.Errorf("mode7 pixel = %v, want blue", p.framebuf[0:3])
	}
}

func TestFramePacing(t *testing.T) {
	s := testSNES(t)
	p := s.PPU

	line, frame := p.Scanline, p.Frame
	p.Run(CyclesPerScanline * int64(p.NumScanlines))
	if p.Scanline != line || p.Frame != frame+1 {
		t.Errorf("after one frame of cycles: line %d->%d frame %d->%d",
			line, p.Scanline, frame, p.Frame)
	}
}

func TestHVLatch(t *testing.T) {
	s := testSNES(t)
	p := s.PPU
	b := s.Bus

	p.Run(CyclesPerScanline*10 + 80) // line 10, dot 20

	b.Read(0x002137) // SLHV
	lo, _ := b.Read(0x00213C)
	hi, _ := b.Read(0x00213C)
	if got := uint16(hi&1)<<8 | uint16(lo); got != 20 {
		t.Errorf("latched H = %d, want 20", got)
	}
	lo, _ = b.Read(0x00213D)
	hi, _ = b.Read(0x00213D)
	if got := uint16(hi&1)<<8 | uint16(lo); got != 10 {
		t.Errorf("latched V = %d, want 10", got)
	}
}
