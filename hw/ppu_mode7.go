package hw

// Mode 7: a single 128x128-tile background sampled through an affine
// transform. The matrix is 8.8 fixed point; scroll and center are 13-bit
// signed. EXTBG (SETINI bit 6) exposes the high bit of each pixel as a
// second background's per-pixel priority.

func (p *PPU) renderMode7Line(r int, lb *lineBuffers) {
	a := int32(p.m7[0])
	b := int32(p.m7[1])
	c := int32(p.m7[2])
	d := int32(p.m7[3])

	cx := int32(p.m7CX)
	cy := int32(p.m7CY)
	hofs := int32(p.m7HOFS)
	vofs := int32(p.m7VOFS)

	sel := p.M7SEL.Value
	hflip := sel&0x01 != 0
	vflip := sel&0x02 != 0
	extbg := p.SETINI.Value&0x40 != 0

	sy := int32(r)
	if vflip {
		sy = 255 - sy
	}

	ty := clip10(vofs - cy + sy)

	for x := 0; x < FrameWidth; x++ {
		sx := int32(x)
		if hflip {
			sx = 255 - sx
		}
		tx := clip10(hofs - cx + sx)

		vx := (a*tx+b*ty)>>8 + cx
		vy := (c*tx+d*ty)>>8 + cy

		idx, ok := p.mode7Pixel(vx, vy, sel)
		if !ok || idx == 0 {
			continue
		}

		// BG1 sees the full 8-bit pixel.
		full := p.cgram[idx] & 0x7FFF
		if p.CGWSEL.Value&0x01 != 0 {
			full = directColor555(idx, 0)
		}
		lb.bgColor[layerBG1][x] = full
		lb.bgSolid[layerBG1][x] = true
		lb.bgPrio[layerBG1][x] = 0

		// EXTBG: the high bit becomes BG2's per-pixel priority, the low 7
		// bits its color.
		if extbg && idx&0x7F != 0 {
			lb.bgColor[layerBG2][x] = p.cgram[idx&0x7F] & 0x7FFF
			lb.bgSolid[layerBG2][x] = true
			lb.bgPrio[layerBG2][x] = uint8(idx >> 7)
		}
	}
}

// clip10 restricts a screen-space coordinate to the hardware's 11-bit signed
// range.
func clip10(v int32) int32 {
	v &= 0x1FFF
	if v&0x1000 != 0 {
		v -= 0x2000
	}
	if v >= 0 {
		return v & 0x3FF
	}
	return -(-v & 0x3FF)
}

// mode7Pixel samples the 1024x1024 playfield at (vx, vy). Out-of-bounds
// behavior follows M7SEL bits 6-7: wrap, transparent, or character 0 fill.
func (p *PPU) mode7Pixel(vx, vy int32, sel uint8) (uint8, bool) {
	out := vx < 0 || vx > 1023 || vy < 0 || vy > 1023

	switch sel >> 6 {
	case 2: // transparent outside
		if out {
			return 0, false
		}
	case 3: // character 0 outside
		if out {
			px := uint8(vx) & 7
			py := uint8(vy) & 7
			return uint8(p.vram[int(py)*8+int(px)] >> 8), true
		}
	default: // wrap
		vx &= 1023
		vy &= 1023
	}

	tile := int(p.vram[(vy>>3)*128+(vx>>3)] & 0xFF)
	return uint8(p.vram[tile*64+int(vy&7)*8+int(vx&7)] >> 8), true
}
