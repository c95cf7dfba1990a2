package hw

// Scanline composition: per-layer line buffers are filled by the BG and
// sprite renderers, then composed front-to-back per mode priority, windowed,
// color-mathed and brightness-scaled into the RGBA framebuffer.

const (
	layerBG1 = iota
	layerBG2
	layerBG3
	layerBG4
	layerOBJ
	layerBack
	numLayers
)

// zEntry is one slot of a mode's front-to-back priority order.
type zEntry struct {
	layer int
	prio  uint8
}

// Front-to-back layer orders per mode. Mode 1 with the BG3 priority bit set
// uses mode1BG3 instead.
var (
	mode0Z = []zEntry{
		{layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1}, {layerOBJ, 2},
		{layerBG1, 0}, {layerBG2, 0}, {layerOBJ, 1}, {layerBG3, 1},
		{layerBG4, 1}, {layerOBJ, 0}, {layerBG3, 0}, {layerBG4, 0},
	}
	mode1Z = []zEntry{
		{layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1}, {layerOBJ, 2},
		{layerBG1, 0}, {layerBG2, 0}, {layerOBJ, 1}, {layerBG3, 1},
		{layerOBJ, 0}, {layerBG3, 0},
	}
	mode1BG3Z = []zEntry{
		{layerBG3, 1}, {layerOBJ, 3}, {layerBG1, 1}, {layerBG2, 1},
		{layerOBJ, 2}, {layerBG1, 0}, {layerBG2, 0}, {layerOBJ, 1},
		{layerOBJ, 0}, {layerBG3, 0},
	}
	mode2to5Z = []zEntry{
		{layerOBJ, 3}, {layerBG1, 1}, {layerOBJ, 2}, {layerBG2, 1},
		{layerOBJ, 1}, {layerBG1, 0}, {layerOBJ, 0}, {layerBG2, 0},
	}
	mode6Z = []zEntry{
		{layerOBJ, 3}, {layerBG1, 1}, {layerOBJ, 2}, {layerOBJ, 1},
		{layerBG1, 0}, {layerOBJ, 0},
	}
	mode7Z = []zEntry{
		{layerOBJ, 3}, {layerOBJ, 2}, {layerOBJ, 1}, {layerBG1, 0},
		{layerOBJ, 0},
	}
	mode7ExtZ = []zEntry{
		{layerOBJ, 3}, {layerOBJ, 2}, {layerBG2, 1}, {layerOBJ, 1},
		{layerBG1, 0}, {layerOBJ, 0}, {layerBG2, 0},
	}
)

func (p *PPU) zOrder(mode uint8) []zEntry {
	switch mode {
	case 0:
		return mode0Z
	case 1:
		if p.BGMODE.Value&0x08 != 0 {
			return mode1BG3Z
		}
		return mode1Z
	case 2, 3, 4, 5:
		return mode2to5Z
	case 6:
		return mode6Z
	default:
		if p.SETINI.Value&0x40 != 0 {
			return mode7ExtZ
		}
		return mode7Z
	}
}

// Per-line working buffers.
type lineBuffers struct {
	bgColor [4][FrameWidth]uint16 // resolved BGR555
	bgSolid [4][FrameWidth]bool
	bgPrio  [4][FrameWidth]uint8

	objColor [FrameWidth]uint16
	objPrio  [FrameWidth]int8 // -1: transparent
	objMath  [FrameWidth]bool // palettes 4-7 participate in color math

	window [numLayers + 1][FrameWidth]bool // per-layer window area; last is the color window
}

const layerColorWindow = numLayers

func (p *PPU) renderLine(r int) {
	row := p.framebuf[r*FrameWidth*4 : (r+1)*FrameWidth*4]

	if p.forcedBlank {
		for i := range row {
			row[i] = 0
		}
		// alpha stays opaque
		for x := 0; x < FrameWidth; x++ {
			row[x*4+3] = 0xFF
		}
		return
	}

	mode := p.BGMODE.Value & 7
	var lb lineBuffers
	for x := range lb.objPrio {
		lb.objPrio[x] = -1
	}

	p.calcWindows(&lb)
	p.renderSprites(r, &lb)
	switch mode {
	case 7:
		p.renderMode7Line(r, &lb)
	default:
		for bg := 0; bg < 4; bg++ {
			if p.bgEnabledInMode(bg, mode) {
				p.renderBGLine(bg, mode, r, &lb)
			}
		}
	}

	zorder := p.zOrder(mode)
	halfShift := uint(0)
	if p.CGADSUB.Value&0x40 != 0 {
		halfShift = 1
	}
	subtract := p.CGADSUB.Value&0x80 != 0
	useSub := p.CGWSEL.Value&0x02 != 0

	for x := 0; x < FrameWidth; x++ {
		mainColor, mainLayer, mainMath := p.screenPixel(&lb, zorder, x, p.TM.Value, p.TMW.Value)

		inColorWin := lb.window[layerColorWindow][x]
		if clipToBlack(p.CGWSEL.Value>>6&3, inColorWin) {
			mainColor = 0
		}

		if p.mathEnabled(mainLayer, mainMath) && mathAllowed(p.CGWSEL.Value>>4&3, inColorWin) {
			operand := uint16(p.fixedB)<<10 | uint16(p.fixedG)<<5 | uint16(p.fixedR)
			half := halfShift
			if useSub {
				subColor, subLayer, _ := p.screenPixel(&lb, zorder, x, p.TS.Value, p.TSW.Value)
				if subLayer == layerBack {
					// Transparent sub screen: fall back to the fixed color,
					// without halving.
					half = 0
				} else {
					operand = subColor
				}
			}
			mainColor = colorMath(mainColor, operand, subtract, half)
		}

		p.putPixel(row[x*4:], mainColor)
	}
}

// screenPixel walks the z-order and returns the frontmost opaque pixel among
// the layers enabled in the TM/TS mask, honoring window masking (TMW/TSW).
func (p *PPU) screenPixel(lb *lineBuffers, zorder []zEntry, x int, enable, winMask uint8) (uint16, int, bool) {
	for _, z := range zorder {
		if enable&(1<<z.layer) == 0 {
			continue
		}
		if winMask&(1<<z.layer) != 0 && lb.window[z.layer][x] {
			continue
		}
		if z.layer == layerOBJ {
			if lb.objPrio[x] == int8(z.prio) {
				return lb.objColor[x], layerOBJ, lb.objMath[x]
			}
			continue
		}
		bg := z.layer
		if lb.bgSolid[bg][x] && lb.bgPrio[bg][x] == z.prio {
			return lb.bgColor[bg][x], bg, true
		}
	}
	return p.cgram[0] & 0x7FFF, layerBack, true
}

func (p *PPU) bgEnabledInMode(bg int, mode uint8) bool {
	switch mode {
	case 0:
		return true
	case 1:
		return bg < 3
	default:
		return bg < 2
	}
}

// mathEnabled reports whether color math applies to a main-screen pixel from
// the given layer. Sprite palettes 0-3 never participate.
func (p *PPU) mathEnabled(layer int, objMath bool) bool {
	if p.CGADSUB.Value&(1<<layer) == 0 {
		return false
	}
	if layer == layerOBJ && !objMath {
		return false
	}
	return true
}

// clipToBlack: CGWSEL bits 6-7. 0: never, 1: outside the color window,
// 2: inside, 3: always.
func clipToBlack(sel uint8, inWin bool) bool {
	switch sel {
	case 1:
		return !inWin
	case 2:
		return inWin
	case 3:
		return true
	}
	return false
}

// mathAllowed: CGWSEL bits 4-5. 0: always, 1: inside the color window,
// 2: outside, 3: never.
func mathAllowed(sel uint8, inWin bool) bool {
	switch sel {
	case 1:
		return inWin
	case 2:
		return !inWin
	case 3:
		return false
	}
	return true
}

// colorMath adds or subtracts two BGR555 colors channel-wise, with optional
// halving, saturating each 5-bit channel.
func colorMath(main, operand uint16, subtract bool, half uint) uint16 {
	var out uint16
	for shift := uint(0); shift <= 10; shift += 5 {
		a := int(main >> shift & 0x1F)
		b := int(operand >> shift & 0x1F)
		var c int
		if subtract {
			c = (a - b) >> half
			if c < 0 {
				c = 0
			}
		} else {
			c = (a + b) >> half
			if c > 31 {
				c = 31
			}
		}
		out |= uint16(c) << shift
	}
	return out
}

// putPixel expands BGR555 to RGBA with the master brightness applied.
func (p *PPU) putPixel(dst []uint8, c uint16) {
	r := uint32(c & 0x1F)
	g := uint32(c >> 5 & 0x1F)
	b := uint32(c >> 10 & 0x1F)

	bright := uint32(p.brightness) + 1
	r = r * bright / 16
	g = g * bright / 16
	b = b * bright / 16

	dst[0] = uint8(r<<3 | r>>2)
	dst[1] = uint8(g<<3 | g>>2)
	dst[2] = uint8(b<<3 | b>>2)
	dst[3] = 0xFF
}

/* windows */

// calcWindows fills the per-layer window membership for this line. Layer
// areas combine the two windows with the per-layer logic op; a layer with
// neither window enabled has an empty area.
func (p *PPU) calcWindows(lb *lineBuffers) {
	type wincfg struct {
		w1en, w1inv bool
		w2en, w2inv bool
		op          uint8
	}

	cfg := func(sel uint8, logic uint8) wincfg {
		return wincfg{
			w1inv: sel&1 != 0,
			w1en:  sel&2 != 0,
			w2inv: sel&4 != 0,
			w2en:  sel&8 != 0,
			op:    logic & 3,
		}
	}

	layers := [numLayers + 1]wincfg{
		layerBG1:         cfg(p.W12SEL.Value, p.WBGLOG.Value),
		layerBG2:         cfg(p.W12SEL.Value>>4, p.WBGLOG.Value>>2),
		layerBG3:         cfg(p.W34SEL.Value, p.WBGLOG.Value>>4),
		layerBG4:         cfg(p.W34SEL.Value>>4, p.WBGLOG.Value>>6),
		layerOBJ:         cfg(p.WOBJSEL.Value, p.WOBJLOG.Value),
		layerColorWindow: cfg(p.WOBJSEL.Value>>4, p.WOBJLOG.Value>>2),
	}

	w1l, w1r := int(p.WH0.Value), int(p.WH1.Value)
	w2l, w2r := int(p.WH2.Value), int(p.WH3.Value)

	for l, c := range layers {
		if !c.w1en && !c.w2en {
			continue // empty area, buffer already false
		}
		for x := 0; x < FrameWidth; x++ {
			in1 := (x >= w1l && x <= w1r) != c.w1inv
			in2 := (x >= w2l && x <= w2r) != c.w2inv
			var in bool
			switch {
			case c.w1en && !c.w2en:
				in = in1
			case !c.w1en && c.w2en:
				in = in2
			default:
				switch c.op {
				case 0: // OR
					in = in1 || in2
				case 1: // AND
					in = in1 && in2
				case 2: // XOR
					in = in1 != in2
				default: // XNOR
					in = in1 == in2
				}
			}
			lb.window[l][x] = in
		}
	}
}
