package hw

import "sufami/emu/log"

// ops maps each of the 256 opcodes to its implementation. All 256 entries are
// defined on a 65C816: a nil entry here is a table bug, caught by tests.
var ops [256]func(*CPU)

func init() {
	/* ORA */
	ops[0x01] = func(c *CPU) { c.ora(c.readM(c.amDPIndX())) }
	ops[0x03] = func(c *CPU) { c.ora(c.readM(c.amSR())) }
	ops[0x05] = func(c *CPU) { c.ora(c.readM(c.amDP())) }
	ops[0x07] = func(c *CPU) { c.ora(c.readM(c.amDPIndLong())) }
	ops[0x09] = func(c *CPU) { c.ora(c.immM()) }
	ops[0x0D] = func(c *CPU) { c.ora(c.readM(c.amAbs())) }
	ops[0x0F] = func(c *CPU) { c.ora(c.readM(c.amLong())) }
	ops[0x11] = func(c *CPU) { c.ora(c.readM(c.amDPIndY(false))) }
	ops[0x12] = func(c *CPU) { c.ora(c.readM(c.amDPInd())) }
	ops[0x13] = func(c *CPU) { c.ora(c.readM(c.amSRIndY())) }
	ops[0x15] = func(c *CPU) { c.ora(c.readM(c.amDPX())) }
	ops[0x17] = func(c *CPU) { c.ora(c.readM(c.amDPIndLongY())) }
	ops[0x19] = func(c *CPU) { c.ora(c.readM(c.amAbsY(false))) }
	ops[0x1D] = func(c *CPU) { c.ora(c.readM(c.amAbsX(false))) }
	ops[0x1F] = func(c *CPU) { c.ora(c.readM(c.amLongX())) }

	/* AND */
	ops[0x21] = func(c *CPU) { c.and(c.readM(c.amDPIndX())) }
	ops[0x23] = func(c *CPU) { c.and(c.readM(c.amSR())) }
	ops[0x25] = func(c *CPU) { c.and(c.readM(c.amDP())) }
	ops[0x27] = func(c *CPU) { c.and(c.readM(c.amDPIndLong())) }
	ops[0x29] = func(c *CPU) { c.and(c.immM()) }
	ops[0x2D] = func(c *CPU) { c.and(c.readM(c.amAbs())) }
	ops[0x2F] = func(c *CPU) { c.and(c.readM(c.amLong())) }
	ops[0x31] = func(c *CPU) { c.and(c.readM(c.amDPIndY(false))) }
	ops[0x32] = func(c *CPU) { c.and(c.readM(c.amDPInd())) }
	ops[0x33] = func(c *CPU) { c.and(c.readM(c.amSRIndY())) }
	ops[0x35] = func(c *CPU) { c.and(c.readM(c.amDPX())) }
	ops[0x37] = func(c *CPU) { c.and(c.readM(c.amDPIndLongY())) }
	ops[0x39] = func(c *CPU) { c.and(c.readM(c.amAbsY(false))) }
	ops[0x3D] = func(c *CPU) { c.and(c.readM(c.amAbsX(false))) }
	ops[0x3F] = func(c *CPU) { c.and(c.readM(c.amLongX())) }

	/* EOR */
	ops[0x41] = func(c *CPU) { c.eor(c.readM(c.amDPIndX())) }
	ops[0x43] = func(c *CPU) { c.eor(c.readM(c.amSR())) }
	ops[0x45] = func(c *CPU) { c.eor(c.readM(c.amDP())) }
	ops[0x47] = func(c *CPU) { c.eor(c.readM(c.amDPIndLong())) }
	ops[0x49] = func(c *CPU) { c.eor(c.immM()) }
	ops[0x4D] = func(c *CPU) { c.eor(c.readM(c.amAbs())) }
	ops[0x4F] = func(c *CPU) { c.eor(c.readM(c.amLong())) }
	ops[0x51] = func(c *CPU) { c.eor(c.readM(c.amDPIndY(false))) }
	ops[0x52] = func(c *CPU) { c.eor(c.readM(c.amDPInd())) }
	ops[0x53] = func(c *CPU) { c.eor(c.readM(c.amSRIndY())) }
	ops[0x55] = func(c *CPU) { c.eor(c.readM(c.amDPX())) }
	ops[0x57] = func(c *CPU) { c.eor(c.readM(c.amDPIndLongY())) }
	ops[0x59] = func(c *CPU) { c.eor(c.readM(c.amAbsY(false))) }
	ops[0x5D] = func(c *CPU) { c.eor(c.readM(c.amAbsX(false))) }
	ops[0x5F] = func(c *CPU) { c.eor(c.readM(c.amLongX())) }

	/* ADC */
	ops[0x61] = func(c *CPU) { c.adc(c.readM(c.amDPIndX())) }
	ops[0x63] = func(c *CPU) { c.adc(c.readM(c.amSR())) }
	ops[0x65] = func(c *CPU) { c.adc(c.readM(c.amDP())) }
	ops[0x67] = func(c *CPU) { c.adc(c.readM(c.amDPIndLong())) }
	ops[0x69] = func(c *CPU) { c.adc(c.immM()) }
	ops[0x6D] = func(c *CPU) { c.adc(c.readM(c.amAbs())) }
	ops[0x6F] = func(c *CPU) { c.adc(c.readM(c.amLong())) }
	ops[0x71] = func(c *CPU) { c.adc(c.readM(c.amDPIndY(false))) }
	ops[0x72] = func(c *CPU) { c.adc(c.readM(c.amDPInd())) }
	ops[0x73] = func(c *CPU) { c.adc(c.readM(c.amSRIndY())) }
	ops[0x75] = func(c *CPU) { c.adc(c.readM(c.amDPX())) }
	ops[0x77] = func(c *CPU) { c.adc(c.readM(c.amDPIndLongY())) }
	ops[0x79] = func(c *CPU) { c.adc(c.readM(c.amAbsY(false))) }
	ops[0x7D] = func(c *CPU) { c.adc(c.readM(c.amAbsX(false))) }
	ops[0x7F] = func(c *CPU) { c.adc(c.readM(c.amLongX())) }

	/* STA */
	ops[0x81] = func(c *CPU) { c.writeM(c.amDPIndX(), c.aval()) }
	ops[0x83] = func(c *CPU) { c.writeM(c.amSR(), c.aval()) }
	ops[0x85] = func(c *CPU) { c.writeM(c.amDP(), c.aval()) }
	ops[0x87] = func(c *CPU) { c.writeM(c.amDPIndLong(), c.aval()) }
	ops[0x8D] = func(c *CPU) { c.writeM(c.amAbs(), c.aval()) }
	ops[0x8F] = func(c *CPU) { c.writeM(c.amLong(), c.aval()) }
	ops[0x91] = func(c *CPU) { c.writeM(c.amDPIndY(true), c.aval()) }
	ops[0x92] = func(c *CPU) { c.writeM(c.amDPInd(), c.aval()) }
	ops[0x93] = func(c *CPU) { c.writeM(c.amSRIndY(), c.aval()) }
	ops[0x95] = func(c *CPU) { c.writeM(c.amDPX(), c.aval()) }
	ops[0x97] = func(c *CPU) { c.writeM(c.amDPIndLongY(), c.aval()) }
	ops[0x99] = func(c *CPU) { c.writeM(c.amAbsY(true), c.aval()) }
	ops[0x9D] = func(c *CPU) { c.writeM(c.amAbsX(true), c.aval()) }
	ops[0x9F] = func(c *CPU) { c.writeM(c.amLongX(), c.aval()) }

	/* LDA */
	ops[0xA1] = func(c *CPU) { c.lda(c.readM(c.amDPIndX())) }
	ops[0xA3] = func(c *CPU) { c.lda(c.readM(c.amSR())) }
	ops[0xA5] = func(c *CPU) { c.lda(c.readM(c.amDP())) }
	ops[0xA7] = func(c *CPU) { c.lda(c.readM(c.amDPIndLong())) }
	ops[0xA9] = func(c *CPU) { c.lda(c.immM()) }
	ops[0xAD] = func(c *CPU) { c.lda(c.readM(c.amAbs())) }
	ops[0xAF] = func(c *CPU) { c.lda(c.readM(c.amLong())) }
	ops[0xB1] = func(c *CPU) { c.lda(c.readM(c.amDPIndY(false))) }
	ops[0xB2] = func(c *CPU) { c.lda(c.readM(c.amDPInd())) }
	ops[0xB3] = func(c *CPU) { c.lda(c.readM(c.amSRIndY())) }
	ops[0xB5] = func(c *CPU) { c.lda(c.readM(c.amDPX())) }
	ops[0xB7] = func(c *CPU) { c.lda(c.readM(c.amDPIndLongY())) }
	ops[0xB9] = func(c *CPU) { c.lda(c.readM(c.amAbsY(false))) }
	ops[0xBD] = func(c *CPU) { c.lda(c.readM(c.amAbsX(false))) }
	ops[0xBF] = func(c *CPU) { c.lda(c.readM(c.amLongX())) }

	/* CMP */
	ops[0xC1] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPIndX()), c.m8()) }
	ops[0xC3] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amSR()), c.m8()) }
	ops[0xC5] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDP()), c.m8()) }
	ops[0xC7] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPIndLong()), c.m8()) }
	ops[0xC9] = func(c *CPU) { c.cmp(c.aval(), c.immM(), c.m8()) }
	ops[0xCD] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amAbs()), c.m8()) }
	ops[0xCF] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amLong()), c.m8()) }
	ops[0xD1] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPIndY(false)), c.m8()) }
	ops[0xD2] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPInd()), c.m8()) }
	ops[0xD3] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amSRIndY()), c.m8()) }
	ops[0xD5] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPX()), c.m8()) }
	ops[0xD7] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amDPIndLongY()), c.m8()) }
	ops[0xD9] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amAbsY(false)), c.m8()) }
	ops[0xDD] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amAbsX(false)), c.m8()) }
	ops[0xDF] = func(c *CPU) { c.cmp(c.aval(), c.readM(c.amLongX()), c.m8()) }

	/* SBC */
	ops[0xE1] = func(c *CPU) { c.sbc(c.readM(c.amDPIndX())) }
	ops[0xE3] = func(c *CPU) { c.sbc(c.readM(c.amSR())) }
	ops[0xE5] = func(c *CPU) { c.sbc(c.readM(c.amDP())) }
	ops[0xE7] = func(c *CPU) { c.sbc(c.readM(c.amDPIndLong())) }
	ops[0xE9] = func(c *CPU) { c.sbc(c.immM()) }
	ops[0xED] = func(c *CPU) { c.sbc(c.readM(c.amAbs())) }
	ops[0xEF] = func(c *CPU) { c.sbc(c.readM(c.amLong())) }
	ops[0xF1] = func(c *CPU) { c.sbc(c.readM(c.amDPIndY(false))) }
	ops[0xF2] = func(c *CPU) { c.sbc(c.readM(c.amDPInd())) }
	ops[0xF3] = func(c *CPU) { c.sbc(c.readM(c.amSRIndY())) }
	ops[0xF5] = func(c *CPU) { c.sbc(c.readM(c.amDPX())) }
	ops[0xF7] = func(c *CPU) { c.sbc(c.readM(c.amDPIndLongY())) }
	ops[0xF9] = func(c *CPU) { c.sbc(c.readM(c.amAbsY(false))) }
	ops[0xFD] = func(c *CPU) { c.sbc(c.readM(c.amAbsX(false))) }
	ops[0xFF] = func(c *CPU) { c.sbc(c.readM(c.amLongX())) }

	/* index loads/stores */
	ops[0xA2] = func(c *CPU) { c.ldx(c.immX()) }
	ops[0xA6] = func(c *CPU) { c.ldx(c.readX(c.amDP())) }
	ops[0xAE] = func(c *CPU) { c.ldx(c.readX(c.amAbs())) }
	ops[0xB6] = func(c *CPU) { c.ldx(c.readX(c.amDPY())) }
	ops[0xBE] = func(c *CPU) { c.ldx(c.readX(c.amAbsY(false))) }

	ops[0xA0] = func(c *CPU) { c.ldy(c.immX()) }
	ops[0xA4] = func(c *CPU) { c.ldy(c.readX(c.amDP())) }
	ops[0xAC] = func(c *CPU) { c.ldy(c.readX(c.amAbs())) }
	ops[0xB4] = func(c *CPU) { c.ldy(c.readX(c.amDPX())) }
	ops[0xBC] = func(c *CPU) { c.ldy(c.readX(c.amAbsX(false))) }

	ops[0x86] = func(c *CPU) { c.writeX(c.amDP(), c.xval()) }
	ops[0x8E] = func(c *CPU) { c.writeX(c.amAbs(), c.xval()) }
	ops[0x96] = func(c *CPU) { c.writeX(c.amDPY(), c.xval()) }

	ops[0x84] = func(c *CPU) { c.writeX(c.amDP(), c.yval()) }
	ops[0x8C] = func(c *CPU) { c.writeX(c.amAbs(), c.yval()) }
	ops[0x94] = func(c *CPU) { c.writeX(c.amDPX(), c.yval()) }

	ops[0x64] = func(c *CPU) { c.writeM(c.amDP(), 0) }
	ops[0x74] = func(c *CPU) { c.writeM(c.amDPX(), 0) }
	ops[0x9C] = func(c *CPU) { c.writeM(c.amAbs(), 0) }
	ops[0x9E] = func(c *CPU) { c.writeM(c.amAbsX(true), 0) }

	/* compares on X/Y */
	ops[0xE0] = func(c *CPU) { c.cmp(c.xval(), c.immX(), c.x8()) }
	ops[0xE4] = func(c *CPU) { c.cmp(c.xval(), c.readX(c.amDP()), c.x8()) }
	ops[0xEC] = func(c *CPU) { c.cmp(c.xval(), c.readX(c.amAbs()), c.x8()) }
	ops[0xC0] = func(c *CPU) { c.cmp(c.yval(), c.immX(), c.x8()) }
	ops[0xC4] = func(c *CPU) { c.cmp(c.yval(), c.readX(c.amDP()), c.x8()) }
	ops[0xCC] = func(c *CPU) { c.cmp(c.yval(), c.readX(c.amAbs()), c.x8()) }

	/* BIT / TSB / TRB */
	ops[0x24] = func(c *CPU) { c.bit(c.readM(c.amDP())) }
	ops[0x2C] = func(c *CPU) { c.bit(c.readM(c.amAbs())) }
	ops[0x34] = func(c *CPU) { c.bit(c.readM(c.amDPX())) }
	ops[0x3C] = func(c *CPU) { c.bit(c.readM(c.amAbsX(false))) }
	ops[0x89] = func(c *CPU) { // immediate form only sets Z
		m := c.immM()
		c.P.setZero(c.aval()&m == 0)
	}
	ops[0x04] = func(c *CPU) { c.tsb(c.amDP()) }
	ops[0x0C] = func(c *CPU) { c.tsb(c.amAbs()) }
	ops[0x14] = func(c *CPU) { c.trb(c.amDP()) }
	ops[0x1C] = func(c *CPU) { c.trb(c.amAbs()) }

	/* shifts/rotates */
	ops[0x0A] = func(c *CPU) { c.internal(1); c.setA(c.asl(c.aval())) }
	ops[0x06] = func(c *CPU) { c.rmw(c.amDP(), c.asl) }
	ops[0x0E] = func(c *CPU) { c.rmw(c.amAbs(), c.asl) }
	ops[0x16] = func(c *CPU) { c.rmw(c.amDPX(), c.asl) }
	ops[0x1E] = func(c *CPU) { c.rmw(c.amAbsX(true), c.asl) }

	ops[0x2A] = func(c *CPU) { c.internal(1); c.setA(c.rol(c.aval())) }
	ops[0x26] = func(c *CPU) { c.rmw(c.amDP(), c.rol) }
	ops[0x2E] = func(c *CPU) { c.rmw(c.amAbs(), c.rol) }
	ops[0x36] = func(c *CPU) { c.rmw(c.amDPX(), c.rol) }
	ops[0x3E] = func(c *CPU) { c.rmw(c.amAbsX(true), c.rol) }

	ops[0x4A] = func(c *CPU) { c.internal(1); c.setA(c.lsr(c.aval())) }
	ops[0x46] = func(c *CPU) { c.rmw(c.amDP(), c.lsr) }
	ops[0x4E] = func(c *CPU) { c.rmw(c.amAbs(), c.lsr) }
	ops[0x56] = func(c *CPU) { c.rmw(c.amDPX(), c.lsr) }
	ops[0x5E] = func(c *CPU) { c.rmw(c.amAbsX(true), c.lsr) }

	ops[0x6A] = func(c *CPU) { c.internal(1); c.setA(c.ror(c.aval())) }
	ops[0x66] = func(c *CPU) { c.rmw(c.amDP(), c.ror) }
	ops[0x6E] = func(c *CPU) { c.rmw(c.amAbs(), c.ror) }
	ops[0x76] = func(c *CPU) { c.rmw(c.amDPX(), c.ror) }
	ops[0x7E] = func(c *CPU) { c.rmw(c.amAbsX(true), c.ror) }

	/* inc/dec */
	ops[0x1A] = func(c *CPU) { c.internal(1); c.setA(c.aval() + 1); c.P.setNZ(c.aval(), c.m8()) }
	ops[0x3A] = func(c *CPU) { c.internal(1); c.setA(c.aval() - 1); c.P.setNZ(c.aval(), c.m8()) }
	ops[0xE6] = func(c *CPU) { c.rmw(c.amDP(), c.inc) }
	ops[0xEE] = func(c *CPU) { c.rmw(c.amAbs(), c.inc) }
	ops[0xF6] = func(c *CPU) { c.rmw(c.amDPX(), c.inc) }
	ops[0xFE] = func(c *CPU) { c.rmw(c.amAbsX(true), c.inc) }
	ops[0xC6] = func(c *CPU) { c.rmw(c.amDP(), c.dec) }
	ops[0xCE] = func(c *CPU) { c.rmw(c.amAbs(), c.dec) }
	ops[0xD6] = func(c *CPU) { c.rmw(c.amDPX(), c.dec) }
	ops[0xDE] = func(c *CPU) { c.rmw(c.amAbsX(true), c.dec) }

	ops[0xE8] = func(c *CPU) { c.internal(1); c.setX(c.xval() + 1); c.P.setNZ(c.xval(), c.x8()) }
	ops[0xC8] = func(c *CPU) { c.internal(1); c.setY(c.yval() + 1); c.P.setNZ(c.yval(), c.x8()) }
	ops[0xCA] = func(c *CPU) { c.internal(1); c.setX(c.xval() - 1); c.P.setNZ(c.xval(), c.x8()) }
	ops[0x88] = func(c *CPU) { c.internal(1); c.setY(c.yval() - 1); c.P.setNZ(c.yval(), c.x8()) }

	/* branches */
	ops[0x10] = func(c *CPU) { c.branch(!c.P.negative()) }
	ops[0x30] = func(c *CPU) { c.branch(c.P.negative()) }
	ops[0x50] = func(c *CPU) { c.branch(!c.P.overflow()) }
	ops[0x70] = func(c *CPU) { c.branch(c.P.overflow()) }
	ops[0x90] = func(c *CPU) { c.branch(!c.P.carry()) }
	ops[0xB0] = func(c *CPU) { c.branch(c.P.carry()) }
	ops[0xD0] = func(c *CPU) { c.branch(!c.P.zero()) }
	ops[0xF0] = func(c *CPU) { c.branch(c.P.zero()) }
	ops[0x80] = func(c *CPU) { c.branch(true) }
	ops[0x82] = func(c *CPU) { // BRL
		rel := int16(c.fetch16())
		c.internal(1)
		c.PC += uint16(rel)
	}

	/* jumps/calls */
	ops[0x4C] = func(c *CPU) { c.PC = c.fetch16() }
	ops[0x5C] = func(c *CPU) { // JML long
		ea := c.fetch24()
		c.PC = uint16(ea)
		c.PB = uint8(ea >> 16)
	}
	ops[0x6C] = func(c *CPU) { // JMP (abs)
		ptr := c.fetch16()
		c.PC = c.read16bank0(ptr)
	}
	ops[0x7C] = func(c *CPU) { // JMP (abs,X)
		ptr := c.fetch16() + c.xval()
		c.internal(1)
		c.PC = c.read16(addr24(c.PB, ptr))
	}
	ops[0xDC] = func(c *CPU) { // JML [abs]
		ptr := c.fetch16()
		lo := c.read8(uint32(ptr))
		mid := c.read8(uint32(ptr + 1))
		hi := c.read8(uint32(ptr + 2))
		c.PC = uint16(mid)<<8 | uint16(lo)
		c.PB = hi
	}
	ops[0x20] = func(c *CPU) { // JSR abs
		addr := c.fetch16()
		c.internal(1)
		c.push16(c.PC - 1)
		c.PC = addr
	}
	ops[0xFC] = func(c *CPU) { // JSR (abs,X)
		ptr := c.fetch16() + c.xval()
		c.push16(c.PC - 1)
		c.internal(1)
		c.PC = c.read16(addr24(c.PB, ptr))
	}
	ops[0x22] = func(c *CPU) { // JSL long
		ea := c.fetch24()
		c.push8(c.PB)
		c.internal(1)
		c.push16(c.PC - 1)
		c.PC = uint16(ea)
		c.PB = uint8(ea >> 16)
	}
	ops[0x60] = func(c *CPU) { // RTS
		c.internal(2)
		c.PC = c.pull16() + 1
		c.internal(1)
	}
	ops[0x6B] = func(c *CPU) { // RTL
		c.internal(2)
		c.PC = c.pull16() + 1
		c.PB = c.pull8()
	}
	ops[0x40] = func(c *CPU) { // RTI
		c.internal(2)
		c.P = P(c.pull8())
		c.PC = c.pull16()
		if !c.E {
			c.PB = c.pull8()
		} else {
			c.P.setFlags(Mem8 | IndexX)
		}
		if c.x8() {
			c.X &= 0xFF
			c.Y &= 0xFF
		}
	}

	/* software interrupts */
	ops[0x00] = func(c *CPU) { c.swi(BRKVector, BRKVectorEmu) }
	ops[0x02] = func(c *CPU) { c.swi(COPVector, COPVectorEmu) }

	/* flags */
	ops[0x18] = func(c *CPU) { c.internal(1); c.P.setCarry(false) }
	ops[0x38] = func(c *CPU) { c.internal(1); c.P.setCarry(true) }
	ops[0x58] = func(c *CPU) { c.internal(1); c.P.setIntDisable(false) }
	ops[0x78] = func(c *CPU) { c.internal(1); c.P.setIntDisable(true) }
	ops[0xB8] = func(c *CPU) { c.internal(1); c.P.setOverflow(false) }
	ops[0xD8] = func(c *CPU) { c.internal(1); c.P.setDecimal(false) }
	ops[0xF8] = func(c *CPU) { c.internal(1); c.P.setDecimal(true) }

	ops[0xC2] = func(c *CPU) { // REP
		mask := c.fetch8()
		c.internal(1)
		c.P.clearFlags(mask)
		if c.E {
			c.P.setFlags(Mem8 | IndexX)
		}
	}
	ops[0xE2] = func(c *CPU) { // SEP
		mask := c.fetch8()
		c.internal(1)
		c.P.setFlags(mask)
		if c.P.idx8() {
			c.X &= 0xFF
			c.Y &= 0xFF
		}
	}

	ops[0xFB] = func(c *CPU) { // XCE
		c.internal(1)
		carry := c.P.carry()
		c.P.setCarry(c.E)
		c.E = carry
		if c.E {
			c.P.setFlags(Mem8 | IndexX)
			c.X &= 0xFF
			c.Y &= 0xFF
			c.S = 0x0100 | c.S&0xFF
		}
	}
	ops[0xEB] = func(c *CPU) { // XBA
		c.internal(2)
		c.A = c.A>>8 | c.A<<8
		c.P.setNZ8(uint8(c.A))
	}

	/* transfers */
	ops[0xAA] = func(c *CPU) { c.internal(1); c.setX(c.A); c.P.setNZ(c.xval(), c.x8()) }
	ops[0xA8] = func(c *CPU) { c.internal(1); c.setY(c.A); c.P.setNZ(c.yval(), c.x8()) }
	ops[0x8A] = func(c *CPU) { c.internal(1); c.setA(c.xval()); c.P.setNZ(c.aval(), c.m8()) }
	ops[0x98] = func(c *CPU) { c.internal(1); c.setA(c.yval()); c.P.setNZ(c.aval(), c.m8()) }
	ops[0xBA] = func(c *CPU) { c.internal(1); c.setX(c.S); c.P.setNZ(c.xval(), c.x8()) }
	ops[0x9A] = func(c *CPU) { c.internal(1); c.setS(c.xval()) }
	ops[0x9B] = func(c *CPU) { c.internal(1); c.setY(c.xval()); c.P.setNZ(c.yval(), c.x8()) }
	ops[0xBB] = func(c *CPU) { c.internal(1); c.setX(c.yval()); c.P.setNZ(c.xval(), c.x8()) }
	ops[0x5B] = func(c *CPU) { c.internal(1); c.D = c.A; c.P.setNZ16(c.D) }
	ops[0x7B] = func(c *CPU) { c.internal(1); c.A = c.D; c.P.setNZ16(c.A) }
	ops[0x1B] = func(c *CPU) { c.internal(1); c.setS(c.A) }
	ops[0x3B] = func(c *CPU) { c.internal(1); c.A = c.S; c.P.setNZ16(c.A) }

	/* stack */
	ops[0x48] = func(c *CPU) { // PHA
		c.internal(1)
		if c.m8() {
			c.push8(uint8(c.A))
		} else {
			c.push16(c.A)
		}
	}
	ops[0x68] = func(c *CPU) { // PLA
		c.internal(2)
		if c.m8() {
			c.setA(uint16(c.pull8()))
		} else {
			c.A = c.pull16()
		}
		c.P.setNZ(c.aval(), c.m8())
	}
	ops[0xDA] = func(c *CPU) { // PHX
		c.internal(1)
		if c.x8() {
			c.push8(uint8(c.X))
		} else {
			c.push16(c.X)
		}
	}
	ops[0xFA] = func(c *CPU) { // PLX
		c.internal(2)
		if c.x8() {
			c.setX(uint16(c.pull8()))
		} else {
			c.X = c.pull16()
		}
		c.P.setNZ(c.xval(), c.x8())
	}
	ops[0x5A] = func(c *CPU) { // PHY
		c.internal(1)
		if c.x8() {
			c.push8(uint8(c.Y))
		} else {
			c.push16(c.Y)
		}
	}
	ops[0x7A] = func(c *CPU) { // PLY
		c.internal(2)
		if c.x8() {
			c.setY(uint16(c.pull8()))
		} else {
			c.Y = c.pull16()
		}
		c.P.setNZ(c.yval(), c.x8())
	}
	ops[0x08] = func(c *CPU) { c.internal(1); c.push8(uint8(c.P)) }
	ops[0x28] = func(c *CPU) { // PLP
		c.internal(2)
		c.P = P(c.pull8())
		if c.E {
			c.P.setFlags(Mem8 | IndexX)
		}
		if c.x8() {
			c.X &= 0xFF
			c.Y &= 0xFF
		}
	}
	ops[0x8B] = func(c *CPU) { c.internal(1); c.push8(c.DB) }
	ops[0xAB] = func(c *CPU) { // PLB
		c.internal(2)
		c.DB = c.pull8()
		c.P.setNZ8(c.DB)
	}
	ops[0x0B] = func(c *CPU) { c.internal(1); c.push16(c.D) }
	ops[0x2B] = func(c *CPU) { // PLD
		c.internal(2)
		c.D = c.pull16()
		c.P.setNZ16(c.D)
	}
	ops[0x4B] = func(c *CPU) { c.internal(1); c.push8(c.PB) }

	ops[0xF4] = func(c *CPU) { // PEA
		val := c.fetch16()
		c.push16(val)
	}
	ops[0xD4] = func(c *CPU) { // PEI
		ptr := c.amDP()
		c.push16(c.read16bank0(uint16(ptr)))
	}
	ops[0x62] = func(c *CPU) { // PER
		rel := int16(c.fetch16())
		c.internal(1)
		c.push16(c.PC + uint16(rel))
	}

	/* block moves: one byte per step, so interrupts can interleave */
	ops[0x54] = func(c *CPU) { c.blockMove(1) }  // MVN
	ops[0x44] = func(c *CPU) { c.blockMove(-1) } // MVP

	/* misc */
	ops[0xEA] = func(c *CPU) { c.internal(1) } // NOP
	ops[0x42] = func(c *CPU) { c.fetch8() }    // WDM: 2-byte NOP
	ops[0xCB] = func(c *CPU) { // WAI
		c.internal(2)
		c.waiting = true
	}
	ops[0xDB] = func(c *CPU) { // STP
		c.internal(2)
		c.stopped = true
		log.ModCPU.ErrorZ("STP encountered, CPU halted").
			Hex8("PB", c.PB).
			Hex16("PC", c.PC).
			End()
	}
}

/* arithmetic/logic bodies */

func (c *CPU) ora(m uint16) {
	c.setA(c.aval() | m)
	c.P.setNZ(c.aval(), c.m8())
}

func (c *CPU) and(m uint16) {
	c.setA(c.aval() & m)
	c.P.setNZ(c.aval(), c.m8())
}

func (c *CPU) eor(m uint16) {
	c.setA(c.aval() ^ m)
	c.P.setNZ(c.aval(), c.m8())
}

func (c *CPU) lda(m uint16) {
	c.setA(m)
	c.P.setNZ(c.aval(), c.m8())
}

func (c *CPU) ldx(m uint16) {
	c.setX(m)
	c.P.setNZ(c.xval(), c.x8())
}

func (c *CPU) ldy(m uint16) {
	c.setY(m)
	c.P.setNZ(c.yval(), c.x8())
}

func (c *CPU) adc(m uint16) {
	if c.P.decimal() {
		c.adcDecimal(m)
		return
	}

	a := c.aval()
	carry := uint32(0)
	if c.P.carry() {
		carry = 1
	}
	r := uint32(a) + uint32(m) + carry

	if c.m8() {
		c.P.setCarry(r > 0xFF)
		c.P.setOverflow((^(a^m)&(a^uint16(r)))&0x80 != 0)
		c.setA(uint16(r))
		c.P.setNZ8(uint8(r))
	} else {
		c.P.setCarry(r > 0xFFFF)
		c.P.setOverflow((^(a^m)&(a^uint16(r)))&0x8000 != 0)
		c.setA(uint16(r))
		c.P.setNZ16(uint16(r))
	}
}

// adcDecimal performs nibble-by-nibble BCD addition. V, N and Z are all
// derived from the corrected BCD result, as on the 65C816 (unlike the NMOS
// 6502).
func (c *CPU) adcDecimal(m uint16) {
	a := c.aval()
	nibbles := 2
	signBit := uint16(0x80)
	if !c.m8() {
		nibbles = 4
		signBit = 0x8000
	}

	carry := 0
	if c.P.carry() {
		carry = 1
	}
	var result uint16
	for i := 0; i < nibbles; i++ {
		shift := uint(4 * i)
		n := int(a>>shift&0xF) + int(m>>shift&0xF) + carry
		if n > 9 {
			n += 6
		}
		carry = 0
		if n > 0xF {
			carry = 1
		}
		result |= uint16(n&0xF) << shift
	}

	c.P.setCarry(carry != 0)
	c.P.setOverflow((^(a^m)&(a^result))&signBit != 0)
	c.setA(result)
	c.P.setNZ(result, c.m8())
}

func (c *CPU) sbc(m uint16) {
	if c.P.decimal() {
		c.sbcDecimal(m)
		return
	}

	// Binary subtraction is addition of the complement.
	if c.m8() {
		c.adc(^m & 0xFF)
	} else {
		c.adc(^m)
	}
}

func (c *CPU) sbcDecimal(m uint16) {
	a := c.aval()
	nibbles := 2
	signBit := uint16(0x80)
	d := ^m & 0xFF
	if !c.m8() {
		nibbles = 4
		signBit = 0x8000
		d = ^m
	}

	carry := 0
	if c.P.carry() {
		carry = 1
	}
	var result uint16
	for i := 0; i < nibbles; i++ {
		shift := uint(4 * i)
		n := int(a>>shift&0xF) + int(d>>shift&0xF) + carry
		if n <= 0xF {
			n -= 6
		}
		carry = 0
		if n > 0xF {
			carry = 1
		}
		result |= uint16(n&0xF) << shift
	}

	c.P.setCarry(carry != 0)
	c.P.setOverflow((^(a^d)&(a^result))&signBit != 0)
	c.setA(result)
	c.P.setNZ(result, c.m8())
}

func (c *CPU) cmp(reg, m uint16, byte bool) {
	r := reg - m
	if byte {
		c.P.setCarry(uint8(reg) >= uint8(m))
		c.P.setNZ8(uint8(r))
	} else {
		c.P.setCarry(reg >= m)
		c.P.setNZ16(r)
	}
}

func (c *CPU) bit(m uint16) {
	c.P.setZero(c.aval()&m == 0)
	if c.m8() {
		c.P.setNegative(m&0x80 != 0)
		c.P.setOverflow(m&0x40 != 0)
	} else {
		c.P.setNegative(m&0x8000 != 0)
		c.P.setOverflow(m&0x4000 != 0)
	}
}

func (c *CPU) tsb(ea uint32) {
	m := c.readM(ea)
	c.internal(1)
	c.P.setZero(c.aval()&m == 0)
	c.writeM(ea, m|c.aval())
}

func (c *CPU) trb(ea uint32) {
	m := c.readM(ea)
	c.internal(1)
	c.P.setZero(c.aval()&m == 0)
	c.writeM(ea, m&^c.aval())
}

/* read-modify-write helper */

func (c *CPU) rmw(ea uint32, f func(uint16) uint16) {
	m := c.readM(ea)
	c.internal(1)
	c.writeM(ea, f(m))
}

func (c *CPU) asl(m uint16) uint16 {
	if c.m8() {
		c.P.setCarry(m&0x80 != 0)
		m = m << 1 & 0xFF
	} else {
		c.P.setCarry(m&0x8000 != 0)
		m <<= 1
	}
	c.P.setNZ(m, c.m8())
	return m
}

func (c *CPU) lsr(m uint16) uint16 {
	c.P.setCarry(m&1 != 0)
	m >>= 1
	c.P.setNZ(m, c.m8())
	return m
}

func (c *CPU) rol(m uint16) uint16 {
	carryIn := uint16(0)
	if c.P.carry() {
		carryIn = 1
	}
	if c.m8() {
		c.P.setCarry(m&0x80 != 0)
		m = (m<<1 | carryIn) & 0xFF
	} else {
		c.P.setCarry(m&0x8000 != 0)
		m = m<<1 | carryIn
	}
	c.P.setNZ(m, c.m8())
	return m
}

func (c *CPU) ror(m uint16) uint16 {
	carryIn := uint16(0)
	if c.P.carry() {
		if c.m8() {
			carryIn = 0x80
		} else {
			carryIn = 0x8000
		}
	}
	c.P.setCarry(m&1 != 0)
	m = m>>1 | carryIn
	c.P.setNZ(m, c.m8())
	return m
}

func (c *CPU) inc(m uint16) uint16 {
	if c.m8() {
		m = (m + 1) & 0xFF
	} else {
		m++
	}
	c.P.setNZ(m, c.m8())
	return m
}

func (c *CPU) dec(m uint16) uint16 {
	if c.m8() {
		m = (m - 1) & 0xFF
	} else {
		m--
	}
	c.P.setNZ(m, c.m8())
	return m
}

/* control flow bodies */

func (c *CPU) branch(cond bool) {
	rel := int8(c.fetch8())
	if !cond {
		return
	}
	c.internal(1)
	dst := c.PC + uint16(int16(rel))
	if c.E && dst&0xFF00 != c.PC&0xFF00 {
		c.internal(1)
	}
	c.PC = dst
}

// swi delivers a software interrupt (BRK/COP). The byte after the opcode is
// a signature and is skipped.
func (c *CPU) swi(vec, vecEmu uint16) {
	c.fetch8()
	if !c.E {
		c.push8(c.PB)
		c.push16(c.PC)
		c.push8(uint8(c.P))
		c.PC = c.read16bank0(vec)
	} else {
		c.push16(c.PC)
		c.push8(uint8(c.P) | IndexX) // B flag set for software traps
		c.PC = c.read16bank0(vecEmu)
	}
	c.PB = 0
	c.P.setIntDisable(true)
	c.P.setDecimal(false)
}

// blockMove executes one step of MVN (+1) or MVP (-1). The instruction
// re-executes until the 16-bit count in A underflows, so interrupts can be
// taken between steps.
func (c *CPU) blockMove(dir int16) {
	dstBank := c.fetch8()
	srcBank := c.fetch8()
	c.DB = dstBank

	val := c.read8(addr24(srcBank, c.X))
	c.write8(addr24(dstBank, c.Y), val)
	c.internal(2)

	c.setX(c.X + uint16(dir))
	c.setY(c.Y + uint16(dir))
	c.A--
	if c.A != 0xFFFF {
		c.PC -= 3 // re-execute
	}
}
