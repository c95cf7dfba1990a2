package hw

// Background tile rendering for modes 0-6: tilemap walk, planar character
// decode, per-background palettes, mosaic, and offset-per-tile.

// bitsPerPixel returns the color depth of a background in the given mode, or
// 0 when the background doesn't exist in that mode.
func bitsPerPixel(bg int, mode uint8) int {
	table := [8][4]int{
		0: {2, 2, 2, 2},
		1: {4, 4, 2, 0},
		2: {4, 4, 0, 0},
		3: {8, 4, 0, 0},
		4: {8, 2, 0, 0},
		5: {4, 2, 0, 0},
		6: {4, 0, 0, 0},
		7: {8, 0, 0, 0},
	}
	return table[mode][bg]
}

func hasOffsetPerTile(mode uint8) bool {
	return mode == 2 || mode == 4 || mode == 6
}

func (p *PPU) bgSC(bg int) uint8 {
	switch bg {
	case 0:
		return p.BG1SC.Value
	case 1:
		return p.BG2SC.Value
	case 2:
		return p.BG3SC.Value
	default:
		return p.BG4SC.Value
	}
}

// chrBase returns the character data base (VRAM word address) of the
// background.
func (p *PPU) chrBase(bg int) uint16 {
	switch bg {
	case 0:
		return uint16(p.BG12NBA.Value&0x0F) << 12
	case 1:
		return uint16(p.BG12NBA.Value>>4) << 12
	case 2:
		return uint16(p.BG34NBA.Value&0x0F) << 12
	default:
		return uint16(p.BG34NBA.Value>>4) << 12
	}
}

// tile16 reports whether the background uses 16x16 tiles. Modes 5 and 6
// always use 16-pixel-wide tiles.
func (p *PPU) tile16(bg int, mode uint8) bool {
	if mode == 5 || mode == 6 {
		return true
	}
	return p.BGMODE.Value&(0x10<<bg) != 0
}

// tilemapEntry fetches the 16-bit tilemap word for tile coordinates (tx, ty),
// honoring the screen-size arrangement from BGnSC.
func (p *PPU) tilemapEntry(bg int, tx, ty int) uint16 {
	sc := p.bgSC(bg)
	base := uint16(sc>>2) << 10
	size := sc & 3

	tx &= 63
	ty &= 63

	addr := base + uint16(ty&31)<<5 + uint16(tx&31)
	switch size {
	case 1: // 64x32
		if tx >= 32 {
			addr += 0x400
		}
	case 2: // 32x64
		if ty >= 32 {
			addr += 0x400
		}
	case 3: // 64x64
		if tx >= 32 {
			addr += 0x400
		}
		if ty >= 32 {
			addr += 0x800
		}
	}
	return p.vram[addr&0x7FFF]
}

// chrPixel decodes one pixel from planar character data. Row and col are
// within the 8x8 character; returns the color index (0 = transparent).
func (p *PPU) chrPixel(chrBase uint16, char int, row, col int, bpp int) uint8 {
	words := bpp * 4 // 8 rows x bpp bits / 16-bit words
	addr := int(chrBase) + char*words + row

	var idx uint8
	bit := uint(7 - col)
	for plane := 0; plane < bpp; plane += 2 {
		w := p.vram[(addr+plane*4)&0x7FFF]
		idx |= uint8(w>>bit&1) << plane
		idx |= uint8(w>>(8+bit)&1) << (plane + 1)
	}
	return idx
}

// paletteBase returns the CGRAM base index for a background tile's palette.
func paletteBase(bg int, mode uint8, bpp int, pal uint8) int {
	switch {
	case bpp == 8:
		return 0 // palette bits ignored (or direct color)
	case mode == 0:
		return bg*32 + int(pal)*4
	case bpp == 2:
		return int(pal) * 4
	default:
		return int(pal) * 16
	}
}

// optEntries fetches the offset-per-tile words for a screen column from the
// BG3 tilemap. Column 0 always uses the normal scroll.
func (p *PPU) optEntries(col int) (hent, vent uint16, ok bool) {
	if col == 0 {
		return 0, 0, false
	}
	h3 := int(p.bgHOFS[2])
	v3 := int(p.bgVOFS[2])

	tx := (col - 1) + h3>>3
	hent = p.tilemapEntry(2, tx, v3>>3)
	vent = p.tilemapEntry(2, tx, (v3+8)>>3)
	return hent, vent, true
}

// renderBGLine renders one background line into the line buffers.
func (p *PPU) renderBGLine(bg int, mode uint8, r int, lb *lineBuffers) {
	bpp := bitsPerPixel(bg, mode)
	if bpp == 0 {
		return
	}

	chrBase := p.chrBase(bg)
	hofs := int(p.bgHOFS[bg])
	vofs := int(p.bgVOFS[bg])
	tsize := 8
	if p.tile16(bg, mode) {
		tsize = 16
	}

	mosaic := 1
	if p.MOSAIC.Value&(1<<bg) != 0 {
		mosaic = int(p.MOSAIC.Value>>4) + 1
	}

	directColor := bpp == 8 && p.CGWSEL.Value&0x01 != 0

	for x := 0; x < FrameWidth; x++ {
		sx, sy := x, r
		if mosaic > 1 {
			sx -= sx % mosaic
			sy -= sy % mosaic
		}

		hscroll, vscroll := hofs, vofs
		if hasOffsetPerTile(mode) && bg < 2 {
			if hent, vent, ok := p.optEntries(sx >> 3); ok {
				applyBit := uint16(0x2000) << bg
				if mode == 4 {
					// One entry; bit 15 picks the direction it overrides.
					if hent&applyBit != 0 {
						if hent&0x8000 != 0 {
							vscroll = int(hent & 0x3FF)
						} else {
							hscroll = int(hent&0x3F8) | hofs&7
						}
					}
				} else {
					if hent&applyBit != 0 {
						hscroll = int(hent&0x3F8) | hofs&7
					}
					if vent&applyBit != 0 {
						vscroll = int(vent & 0x3FF)
					}
				}
			}
		}

		px := sx + hscroll
		py := sy + vscroll

		tx, ty := px/tsize, py/tsize
		if tsize == 16 {
			// A 16x16 tilemap entry covers 2x2 characters.
			tx, ty = px>>4, py>>4
		}

		entry := p.tilemapEntry(bg, tx, ty)
		char := int(entry & 0x3FF)
		pal := uint8(entry >> 10 & 7)
		prio := uint8(entry >> 13 & 1)
		hflip := entry&0x4000 != 0
		vflip := entry&0x8000 != 0

		row := py % tsize
		col := px % tsize
		if hflip {
			col = tsize - 1 - col
		}
		if vflip {
			row = tsize - 1 - row
		}
		if tsize == 16 {
			// Select the character quadrant.
			char += col / 8
			char += row / 8 * 16
			col %= 8
			row %= 8
		}

		idx := p.chrPixel(chrBase, char&0x3FF, row, col, bpp)
		if idx == 0 {
			continue
		}

		var color uint16
		if directColor {
			color = directColor555(idx, pal)
		} else {
			color = p.cgram[paletteBase(bg, mode, bpp, pal)+int(idx)] & 0x7FFF
		}

		lb.bgColor[bg][x] = color
		lb.bgSolid[bg][x] = true
		lb.bgPrio[bg][x] = prio
	}
}

// directColor555 converts an 8-bit color index straight to BGR555 using the
// direct-color wiring (palette bits extend the low end of each channel).
func directColor555(idx, pal uint8) uint16 {
	r := uint16(idx&0x07)<<2 | uint16(pal&1)<<1
	g := uint16(idx>>3&0x07)<<2 | uint16(pal>>1&1)<<1
	b := uint16(idx>>6&0x03)<<3 | uint16(pal>>2&1)<<2
	return b<<10 | g<<5 | r
}
