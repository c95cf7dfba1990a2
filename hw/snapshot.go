package hw

import "sufami/hw/snapshot"

// Snapshot captures the console state for save states. The PPU register
// file is captured as the raw $2100-$2133 write values; replaying them on
// restore rebuilds the derived state.
func (s *SNES) Snapshot() *snapshot.State {
	st := &snapshot.State{
		Version: snapshot.Version,
		Cycles:  s.Cycles,
		CPU: snapshot.CPU{
			A: s.CPU.A, X: s.CPU.X, Y: s.CPU.Y,
			S: s.CPU.S, D: s.CPU.D, PC: s.CPU.PC,
			DB: s.CPU.DB, PB: s.CPU.PB,
			P: uint8(s.CPU.P), E: s.CPU.E,
			Cycles: s.CPU.Cycles,
		},
		WRAM: append([]byte(nil), s.Bus.WRAM...),
		SRAM: append([]byte(nil), s.Cart.SRAM...),
	}

	st.PPU.VRAM = wordsToBytes(s.PPU.vram[:])
	st.PPU.CGRAM = wordsToBytes(s.PPU.cgram[:])
	st.PPU.OAM = append([]byte(nil), s.PPU.oam[:]...)
	st.PPU.OAMHigh = append([]byte(nil), s.PPU.oamHigh[:]...)
	st.PPU.Regs = s.ppuRegValues()

	st.APU.RAM = append([]byte(nil), s.APU.RAM[:]...)
	st.APU.DSPRegs = make([]byte, 128)
	for i := range st.APU.DSPRegs {
		st.APU.DSPRegs[i] = s.APU.DSP.Read(uint8(i))
	}
	st.APU.SPC = snapshot.SPC{
		A: s.APU.SPC.A, X: s.APU.SPC.X, Y: s.APU.SPC.Y,
		SP: s.APU.SPC.SP, PC: s.APU.SPC.PC, PSW: s.APU.SPC.PSW,
	}
	return st
}

// Restore applies a snapshot taken with Snapshot.
func (s *SNES) Restore(st *snapshot.State) {
	s.Cycles = st.Cycles

	s.CPU.A, s.CPU.X, s.CPU.Y = st.CPU.A, st.CPU.X, st.CPU.Y
	s.CPU.S, s.CPU.D, s.CPU.PC = st.CPU.S, st.CPU.D, st.CPU.PC
	s.CPU.DB, s.CPU.PB = st.CPU.DB, st.CPU.PB
	s.CPU.P = P(st.CPU.P)
	s.CPU.E = st.CPU.E
	s.CPU.Cycles = st.CPU.Cycles

	copy(s.Bus.WRAM, st.WRAM)
	copy(s.Cart.SRAM, st.SRAM)

	bytesToWords(st.PPU.VRAM, s.PPU.vram[:])
	bytesToWords(st.PPU.CGRAM, s.PPU.cgram[:])
	copy(s.PPU.oam[:], st.PPU.OAM)
	copy(s.PPU.oamHigh[:], st.PPU.OAMHigh)
	s.replayPPURegs(st.PPU.Regs)

	copy(s.APU.RAM[:], st.APU.RAM)
	for i, v := range st.APU.DSPRegs {
		s.APU.DSP.Write(uint8(i), v)
	}
	s.APU.SPC.A, s.APU.SPC.X, s.APU.SPC.Y = st.APU.SPC.A, st.APU.SPC.X, st.APU.SPC.Y
	s.APU.SPC.SP, s.APU.SPC.PC, s.APU.SPC.PSW = st.APU.SPC.SP, st.APU.SPC.PC, st.APU.SPC.PSW
}

func wordsToBytes(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = uint8(w)
		out[i*2+1] = uint8(w >> 8)
	}
	return out
}

func bytesToWords(data []byte, words []uint16) {
	for i := range words {
		if i*2+1 >= len(data) {
			return
		}
		words[i] = uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}
}

// ppuRegValues collects the last written values of $2100-$2133.
func (s *SNES) ppuRegValues() []byte {
	regs := make([]byte, 0x34)
	for i := range regs {
		regs[i] = s.Bus.BusB.Peek8(0x2100 + uint16(i))
	}
	// Write-only registers peek as their stored value, which is exactly what
	// replay wants.
	return regs
}

// replayPPURegs rewrites $2100-$2133 so derived PPU state (scroll latches,
// mode, windows) is rebuilt. Registers are written from $2133 down to $2100;
// the data ports are skipped.
func (s *SNES) replayPPURegs(regs []byte) {
	if len(regs) < 0x34 {
		return
	}
	for i := 0x33; i >= 0; i-- {
		switch i {
		case 0x04, 0x18, 0x19, 0x22:
			// Data ports: the memories behind them are restored wholesale,
			// replaying the last pushed byte would clobber them.
			continue
		}
		s.Bus.BusB.Write8(0x2100+uint16(i), regs[i])
	}
}
