package apu

// spcCycles holds the base cycle count of each opcode. Taken branches add 2
// in the branch helpers.
var spcCycles = [256]uint8{
	//  0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 6, 8, // 0
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 6, 5, 2, 2, 4, 6, // 1
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 5, 4, 5, 4, 5, 4, // 2
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 6, 5, 2, 2, 3, 8, // 3
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 6, 6, // 4
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 4, 5, 2, 2, 4, 3, // 5
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 4, 5, 5, // 6
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 3, 6, // 7
	2, 8, 4, 5, 3, 4, 3, 6, 2, 6, 5, 4, 5, 2, 4, 5, // 8
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 12, 5, // 9
	3, 8, 4, 5, 3, 4, 3, 6, 2, 6, 4, 4, 5, 2, 4, 4, // A
	2, 8, 4, 5, 4, 5, 5, 6, 5, 5, 5, 5, 2, 2, 3, 4, // B
	3, 8, 4, 5, 4, 5, 4, 7, 2, 5, 6, 4, 5, 2, 4, 9, // C
	2, 8, 4, 5, 5, 6, 6, 7, 4, 5, 5, 5, 2, 2, 6, 3, // D
	2, 8, 4, 5, 3, 4, 3, 6, 2, 4, 5, 3, 4, 3, 4, 3, // E
	2, 8, 4, 5, 4, 5, 5, 6, 3, 4, 5, 4, 2, 2, 4, 3, // F
}

var spcOps [256]func(*SPC)

func init() {
	/* column 1: TCALL n, vectors at $FFDE down */
	for n := 0; n < 16; n++ {
		vec := uint16(0xFFDE - 2*n)
		spcOps[n<<4|0x1] = func(s *SPC) {
			s.push16(s.PC)
			s.PC = s.read16(vec)
		}
	}

	/* columns 2/3: SET1/CLR1 d.n, BBS/BBC d.n */
	for n := 0; n < 8; n++ {
		bit := uint8(1) << n
		spcOps[n<<5|0x02] = func(s *SPC) { // SET1
			s.rmw(s.amDP(), func(v uint8) uint8 { return v | bit })
		}
		spcOps[n<<5|0x12] = func(s *SPC) { // CLR1
			s.rmw(s.amDP(), func(v uint8) uint8 { return v &^ bit })
		}
		spcOps[n<<5|0x03] = func(s *SPC) { // BBS
			v := s.read8(s.amDP())
			s.branch(v&bit != 0)
		}
		spcOps[n<<5|0x13] = func(s *SPC) { // BBC
			v := s.read8(s.amDP())
			s.branch(v&bit == 0)
		}
	}

	/* A-operand ALU families at columns 4-8 */
	alu := func(base uint8, f func(s *SPC, b uint8)) {
		spcOps[base+0x04] = func(s *SPC) { f(s, s.read8(s.amDP())) }
		spcOps[base+0x05] = func(s *SPC) { f(s, s.read8(s.amAbs())) }
		spcOps[base+0x06] = func(s *SPC) { f(s, s.read8(s.amIndX())) }
		spcOps[base+0x07] = func(s *SPC) { f(s, s.read8(s.amDPXInd())) }
		spcOps[base+0x08] = func(s *SPC) { f(s, s.fetch8()) }
		spcOps[base+0x14] = func(s *SPC) { f(s, s.read8(s.amDPX())) }
		spcOps[base+0x15] = func(s *SPC) { f(s, s.read8(s.amAbsX())) }
		spcOps[base+0x16] = func(s *SPC) { f(s, s.read8(s.amAbsY())) }
		spcOps[base+0x17] = func(s *SPC) { f(s, s.read8(s.amDPIndY())) }
	}
	// dst,src memory forms at columns 9, 18, 19
	// store=false for CMP, which only sets flags: writing back through the
	// $F0-$FF register file would have side effects.
	aluMem := func(base uint8, store bool, f func(s *SPC, a, b uint8) uint8) {
		rmw := func(s *SPC, dst uint16, src uint8) {
			res := f(s, s.read8(dst), src)
			if store {
				s.write8(dst, res)
			}
		}
		spcOps[base+0x09] = func(s *SPC) { // dd, ds
			src := s.read8(s.amDP())
			rmw(s, s.amDP(), src)
		}
		spcOps[base+0x18] = func(s *SPC) { // d, #i
			imm := s.fetch8()
			rmw(s, s.amDP(), imm)
		}
		spcOps[base+0x19] = func(s *SPC) { // (X), (Y)
			src := s.read8(s.dp(s.Y))
			rmw(s, s.amIndX(), src)
		}
	}

	alu(0x00, func(s *SPC, b uint8) { s.A = s.setNZ(s.A | b) })
	aluMem(0x00, true, func(s *SPC, a, b uint8) uint8 { return s.setNZ(a | b) })
	alu(0x20, func(s *SPC, b uint8) { s.A = s.setNZ(s.A & b) })
	aluMem(0x20, true, func(s *SPC, a, b uint8) uint8 { return s.setNZ(a & b) })
	alu(0x40, func(s *SPC, b uint8) { s.A = s.setNZ(s.A ^ b) })
	aluMem(0x40, true, func(s *SPC, a, b uint8) uint8 { return s.setNZ(a ^ b) })
	alu(0x60, func(s *SPC, b uint8) { s.cmp(s.A, b) })
	aluMem(0x60, false, func(s *SPC, a, b uint8) uint8 { s.cmp(a, b); return a })
	alu(0x80, func(s *SPC, b uint8) { s.A = s.adc(s.A, b) })
	aluMem(0x80, true, func(s *SPC, a, b uint8) uint8 { return s.adc(a, b) })
	alu(0xA0, func(s *SPC, b uint8) { s.A = s.sbc(s.A, b) })
	aluMem(0xA0, true, func(s *SPC, a, b uint8) uint8 { return s.sbc(a, b) })

	/* MOV A, <mem> loads (row E/F) */
	spcOps[0xE4] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amDP())) }
	spcOps[0xE5] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amAbs())) }
	spcOps[0xE6] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amIndX())) }
	spcOps[0xE7] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amDPXInd())) }
	spcOps[0xE8] = func(s *SPC) { s.A = s.setNZ(s.fetch8()) }
	spcOps[0xF4] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amDPX())) }
	spcOps[0xF5] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amAbsX())) }
	spcOps[0xF6] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amAbsY())) }
	spcOps[0xF7] = func(s *SPC) { s.A = s.setNZ(s.read8(s.amDPIndY())) }
	spcOps[0xBF] = func(s *SPC) { // MOV A, (X)+
		s.A = s.setNZ(s.read8(s.amIndX()))
		s.X++
	}

	/* MOV <mem>, A stores (row C/D) */
	spcOps[0xC4] = func(s *SPC) { s.write8(s.amDP(), s.A) }
	spcOps[0xC5] = func(s *SPC) { s.write8(s.amAbs(), s.A) }
	spcOps[0xC6] = func(s *SPC) { s.write8(s.amIndX(), s.A) }
	spcOps[0xC7] = func(s *SPC) { s.write8(s.amDPXInd(), s.A) }
	spcOps[0xD4] = func(s *SPC) { s.write8(s.amDPX(), s.A) }
	spcOps[0xD5] = func(s *SPC) { s.write8(s.amAbsX(), s.A) }
	spcOps[0xD6] = func(s *SPC) { s.write8(s.amAbsY(), s.A) }
	spcOps[0xD7] = func(s *SPC) { s.write8(s.amDPIndY(), s.A) }
	spcOps[0xAF] = func(s *SPC) { // MOV (X)+, A
		s.write8(s.amIndX(), s.A)
		s.X++
	}

	/* X/Y loads, stores, immediates */
	spcOps[0xCD] = func(s *SPC) { s.X = s.setNZ(s.fetch8()) }
	spcOps[0xF8] = func(s *SPC) { s.X = s.setNZ(s.read8(s.amDP())) }
	spcOps[0xF9] = func(s *SPC) { s.X = s.setNZ(s.read8(s.amDPY())) }
	spcOps[0xE9] = func(s *SPC) { s.X = s.setNZ(s.read8(s.amAbs())) }
	spcOps[0x8D] = func(s *SPC) { s.Y = s.setNZ(s.fetch8()) }
	spcOps[0xEB] = func(s *SPC) { s.Y = s.setNZ(s.read8(s.amDP())) }
	spcOps[0xFB] = func(s *SPC) { s.Y = s.setNZ(s.read8(s.amDPX())) }
	spcOps[0xEC] = func(s *SPC) { s.Y = s.setNZ(s.read8(s.amAbs())) }

	spcOps[0xD8] = func(s *SPC) { s.write8(s.amDP(), s.X) }
	spcOps[0xD9] = func(s *SPC) { s.write8(s.amDPY(), s.X) }
	spcOps[0xC9] = func(s *SPC) { s.write8(s.amAbs(), s.X) }
	spcOps[0xCB] = func(s *SPC) { s.write8(s.amDP(), s.Y) }
	spcOps[0xDB] = func(s *SPC) { s.write8(s.amDPX(), s.Y) }
	spcOps[0xCC] = func(s *SPC) { s.write8(s.amAbs(), s.Y) }

	/* register moves */
	spcOps[0x7D] = func(s *SPC) { s.A = s.setNZ(s.X) }
	spcOps[0xDD] = func(s *SPC) { s.A = s.setNZ(s.Y) }
	spcOps[0x5D] = func(s *SPC) { s.X = s.setNZ(s.A) }
	spcOps[0xFD] = func(s *SPC) { s.Y = s.setNZ(s.A) }
	spcOps[0x9D] = func(s *SPC) { s.X = s.setNZ(s.SP) }
	spcOps[0xBD] = func(s *SPC) { s.SP = s.X }

	/* memory-to-memory moves */
	spcOps[0x8F] = func(s *SPC) { // MOV d, #i
		imm := s.fetch8()
		s.write8(s.amDP(), imm)
	}
	spcOps[0xFA] = func(s *SPC) { // MOV dd, ds
		src := s.read8(s.amDP())
		s.write8(s.amDP(), src)
	}

	/* X/Y compares */
	spcOps[0xC8] = func(s *SPC) { s.cmp(s.X, s.fetch8()) }
	spcOps[0x3E] = func(s *SPC) { s.cmp(s.X, s.read8(s.amDP())) }
	spcOps[0x1E] = func(s *SPC) { s.cmp(s.X, s.read8(s.amAbs())) }
	spcOps[0xAD] = func(s *SPC) { s.cmp(s.Y, s.fetch8()) }
	spcOps[0x7E] = func(s *SPC) { s.cmp(s.Y, s.read8(s.amDP())) }
	spcOps[0x5E] = func(s *SPC) { s.cmp(s.Y, s.read8(s.amAbs())) }

	/* shifts/rotates */
	spcOps[0x1C] = func(s *SPC) { s.A = s.asl(s.A) }
	spcOps[0x0B] = func(s *SPC) { s.rmw(s.amDP(), s.asl) }
	spcOps[0x1B] = func(s *SPC) { s.rmw(s.amDPX(), s.asl) }
	spcOps[0x0C] = func(s *SPC) { s.rmw(s.amAbs(), s.asl) }
	spcOps[0x5C] = func(s *SPC) { s.A = s.lsr(s.A) }
	spcOps[0x4B] = func(s *SPC) { s.rmw(s.amDP(), s.lsr) }
	spcOps[0x5B] = func(s *SPC) { s.rmw(s.amDPX(), s.lsr) }
	spcOps[0x4C] = func(s *SPC) { s.rmw(s.amAbs(), s.lsr) }
	spcOps[0x3C] = func(s *SPC) { s.A = s.rol(s.A) }
	spcOps[0x2B] = func(s *SPC) { s.rmw(s.amDP(), s.rol) }
	spcOps[0x3B] = func(s *SPC) { s.rmw(s.amDPX(), s.rol) }
	spcOps[0x2C] = func(s *SPC) { s.rmw(s.amAbs(), s.rol) }
	spcOps[0x7C] = func(s *SPC) { s.A = s.ror(s.A) }
	spcOps[0x6B] = func(s *SPC) { s.rmw(s.amDP(), s.ror) }
	spcOps[0x7B] = func(s *SPC) { s.rmw(s.amDPX(), s.ror) }
	spcOps[0x6C] = func(s *SPC) { s.rmw(s.amAbs(), s.ror) }

	/* inc/dec */
	inc := func(s *SPC) func(uint8) uint8 { return func(v uint8) uint8 { return s.setNZ(v + 1) } }
	dec := func(s *SPC) func(uint8) uint8 { return func(v uint8) uint8 { return s.setNZ(v - 1) } }
	spcOps[0xBC] = func(s *SPC) { s.A = s.setNZ(s.A + 1) }
	spcOps[0xAB] = func(s *SPC) { s.rmw(s.amDP(), inc(s)) }
	spcOps[0xBB] = func(s *SPC) { s.rmw(s.amDPX(), inc(s)) }
	spcOps[0xAC] = func(s *SPC) { s.rmw(s.amAbs(), inc(s)) }
	spcOps[0x9C] = func(s *SPC) { s.A = s.setNZ(s.A - 1) }
	spcOps[0x8B] = func(s *SPC) { s.rmw(s.amDP(), dec(s)) }
	spcOps[0x9B] = func(s *SPC) { s.rmw(s.amDPX(), dec(s)) }
	spcOps[0x8C] = func(s *SPC) { s.rmw(s.amAbs(), dec(s)) }
	spcOps[0x3D] = func(s *SPC) { s.X = s.setNZ(s.X + 1) }
	spcOps[0x1D] = func(s *SPC) { s.X = s.setNZ(s.X - 1) }
	spcOps[0xFC] = func(s *SPC) { s.Y = s.setNZ(s.Y + 1) }
	spcOps[0xDC] = func(s *SPC) { s.Y = s.setNZ(s.Y - 1) }

	/* 16-bit YA ops */
	spcOps[0xBA] = func(s *SPC) { // MOVW YA, d
		addr := s.amDP()
		s.setYA(s.setNZ16(s.read16(addr)))
	}
	spcOps[0xDA] = func(s *SPC) { // MOVW d, YA
		addr := s.amDP()
		s.write8(addr, s.A)
		s.write8(addr+1, s.Y)
	}
	spcOps[0x3A] = func(s *SPC) { // INCW d
		addr := s.amDP()
		v := s.setNZ16(s.read16(addr) + 1)
		s.write8(addr, uint8(v))
		s.write8(addr+1, uint8(v>>8))
	}
	spcOps[0x1A] = func(s *SPC) { // DECW d
		addr := s.amDP()
		v := s.setNZ16(s.read16(addr) - 1)
		s.write8(addr, uint8(v))
		s.write8(addr+1, uint8(v>>8))
	}
	spcOps[0x7A] = func(s *SPC) { s.setYA(s.addw(s.ya(), s.read16(s.amDP()))) }
	spcOps[0x9A] = func(s *SPC) { s.setYA(s.subw(s.ya(), s.read16(s.amDP()))) }
	spcOps[0x5A] = func(s *SPC) { // CMPW YA, d
		w := s.read16(s.amDP())
		r := int32(s.ya()) - int32(w)
		s.setFlag(flagC, r >= 0)
		s.setNZ16(uint16(r))
	}

	/* MUL / DIV */
	spcOps[0xCF] = func(s *SPC) { // MUL YA
		r := uint16(s.Y) * uint16(s.A)
		s.setYA(r)
		s.setNZ(s.Y)
	}
	spcOps[0x9E] = func(s *SPC) { // DIV YA, X
		ya := s.ya()
		x := uint16(s.X)
		s.setFlag(flagH, s.X&0x0F <= s.Y&0x0F)
		s.setFlag(flagV, s.Y >= s.X)
		if uint16(s.Y) < x<<1 {
			s.A = uint8(ya / x)
			s.Y = uint8(ya % x)
		} else {
			s.A = uint8(255 - (ya-x<<9)/(256-x))
			s.Y = uint8(x + (ya-x<<9)%(256-x))
		}
		s.setNZ(s.A)
	}

	/* decimal adjust, nibble swap */
	spcOps[0xDF] = func(s *SPC) { s.daa() }
	spcOps[0xBE] = func(s *SPC) { s.das() }
	spcOps[0x9F] = func(s *SPC) { s.A = s.setNZ(s.A>>4 | s.A<<4) }

	/* branches */
	spcOps[0x2F] = func(s *SPC) { s.branch(true) }
	spcOps[0xF0] = func(s *SPC) { s.branch(s.flag(flagZ)) }
	spcOps[0xD0] = func(s *SPC) { s.branch(!s.flag(flagZ)) }
	spcOps[0xB0] = func(s *SPC) { s.branch(s.flag(flagC)) }
	spcOps[0x90] = func(s *SPC) { s.branch(!s.flag(flagC)) }
	spcOps[0x70] = func(s *SPC) { s.branch(s.flag(flagV)) }
	spcOps[0x50] = func(s *SPC) { s.branch(!s.flag(flagV)) }
	spcOps[0x30] = func(s *SPC) { s.branch(s.flag(flagN)) }
	spcOps[0x10] = func(s *SPC) { s.branch(!s.flag(flagN)) }

	spcOps[0x2E] = func(s *SPC) { // CBNE d, r
		v := s.read8(s.amDP())
		s.branch(s.A != v)
	}
	spcOps[0xDE] = func(s *SPC) { // CBNE d+X, r
		v := s.read8(s.amDPX())
		s.branch(s.A != v)
	}
	spcOps[0x6E] = func(s *SPC) { // DBNZ d, r
		addr := s.amDP()
		v := s.read8(addr) - 1
		s.write8(addr, v)
		s.branch(v != 0)
	}
	spcOps[0xFE] = func(s *SPC) { // DBNZ Y, r
		s.Y--
		s.branch(s.Y != 0)
	}

	/* jumps and calls */
	spcOps[0x5F] = func(s *SPC) { s.PC = s.fetch16() }
	spcOps[0x1F] = func(s *SPC) { // JMP [!a+X]
		ptr := s.fetch16() + uint16(s.X)
		s.PC = s.read16(ptr)
	}
	spcOps[0x3F] = func(s *SPC) { // CALL !a
		addr := s.fetch16()
		s.push16(s.PC)
		s.PC = addr
	}
	spcOps[0x4F] = func(s *SPC) { // PCALL u
		u := s.fetch8()
		s.push16(s.PC)
		s.PC = 0xFF00 | uint16(u)
	}
	spcOps[0x6F] = func(s *SPC) { s.PC = s.pull16() }
	spcOps[0x7F] = func(s *SPC) { // RETI
		s.PSW = s.pull8()
		s.PC = s.pull16()
	}
	spcOps[0x0F] = func(s *SPC) { // BRK
		s.push16(s.PC)
		s.push8(s.PSW)
		s.setFlag(flagB, true)
		s.setFlag(flagI, false)
		s.PC = s.read16(0xFFDE)
	}

	/* stack */
	spcOps[0x2D] = func(s *SPC) { s.push8(s.A) }
	spcOps[0x4D] = func(s *SPC) { s.push8(s.X) }
	spcOps[0x6D] = func(s *SPC) { s.push8(s.Y) }
	spcOps[0x0D] = func(s *SPC) { s.push8(s.PSW) }
	spcOps[0xAE] = func(s *SPC) { s.A = s.pull8() }
	spcOps[0xCE] = func(s *SPC) { s.X = s.pull8() }
	spcOps[0xEE] = func(s *SPC) { s.Y = s.pull8() }
	spcOps[0x8E] = func(s *SPC) { s.PSW = s.pull8() }

	/* PSW ops */
	spcOps[0x60] = func(s *SPC) { s.setFlag(flagC, false) }
	spcOps[0x80] = func(s *SPC) { s.setFlag(flagC, true) }
	spcOps[0xED] = func(s *SPC) { s.setFlag(flagC, !s.flag(flagC)) }
	spcOps[0xE0] = func(s *SPC) { s.PSW &^= flagV | flagH }
	spcOps[0x20] = func(s *SPC) { s.setFlag(flagP, false) }
	spcOps[0x40] = func(s *SPC) { s.setFlag(flagP, true) }
	spcOps[0xA0] = func(s *SPC) { s.setFlag(flagI, true) }
	spcOps[0xC0] = func(s *SPC) { s.setFlag(flagI, false) }

	/* absolute bit operations */
	spcOps[0x0A] = func(s *SPC) { // OR1 C, m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.flag(flagC) || s.read8(addr)>>bit&1 != 0)
	}
	spcOps[0x2A] = func(s *SPC) { // OR1 C, /m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.flag(flagC) || s.read8(addr)>>bit&1 == 0)
	}
	spcOps[0x4A] = func(s *SPC) { // AND1 C, m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.flag(flagC) && s.read8(addr)>>bit&1 != 0)
	}
	spcOps[0x6A] = func(s *SPC) { // AND1 C, /m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.flag(flagC) && s.read8(addr)>>bit&1 == 0)
	}
	spcOps[0x8A] = func(s *SPC) { // EOR1 C, m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.flag(flagC) != (s.read8(addr)>>bit&1 != 0))
	}
	spcOps[0xAA] = func(s *SPC) { // MOV1 C, m.b
		addr, bit := s.fetchMemBit()
		s.setFlag(flagC, s.read8(addr)>>bit&1 != 0)
	}
	spcOps[0xCA] = func(s *SPC) { // MOV1 m.b, C
		addr, bit := s.fetchMemBit()
		v := s.read8(addr)
		if s.flag(flagC) {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
		s.write8(addr, v)
	}
	spcOps[0xEA] = func(s *SPC) { // NOT1 m.b
		addr, bit := s.fetchMemBit()
		s.write8(addr, s.read8(addr)^1<<bit)
	}
	spcOps[0x0E] = func(s *SPC) { // TSET1 !a
		addr := s.amAbs()
		v := s.read8(addr)
		s.setNZ(s.A - v)
		s.write8(addr, v|s.A)
	}
	spcOps[0x4E] = func(s *SPC) { // TCLR1 !a
		addr := s.amAbs()
		v := s.read8(addr)
		s.setNZ(s.A - v)
		s.write8(addr, v&^s.A)
	}

	/* misc */
	spcOps[0x00] = func(s *SPC) {}
	spcOps[0xEF] = func(s *SPC) { s.sleep() }
	spcOps[0xFF] = func(s *SPC) { s.stop() }
}
