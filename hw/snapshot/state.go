// Package snapshot holds the serializable console state for save states.
// States are encoded as JSON via go-faster/jx, with memory blobs in base64.
package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

const Version = 1

type CPU struct {
	A, X, Y, S, D uint16
	PC            uint16
	DB, PB        uint8
	P             uint8
	E             bool
	Cycles        int64
}

type PPU struct {
	VRAM    []byte // 64 KiB as little-endian words
	CGRAM   []byte // 512 bytes, little-endian words
	OAM     []byte
	OAMHigh []byte
	Regs    []byte // $2100-$2133 write values
}

type APU struct {
	RAM     []byte
	DSPRegs []byte
	SPC     SPC
}

type SPC struct {
	A, X, Y, SP uint8
	PC          uint16
	PSW         uint8
}

type State struct {
	Version int
	Cycles  uint64

	CPU  CPU
	PPU  PPU
	APU  APU
	WRAM []byte
	SRAM []byte
}

// Encode serializes the state to JSON bytes.
func (st *State) Encode() []byte {
	var e jx.Encoder
	e.ObjStart()

	field := func(name string) { e.FieldStart(name) }

	field("version")
	e.Int(st.Version)
	field("cycles")
	e.UInt64(st.Cycles)

	field("cpu")
	e.ObjStart()
	for _, r := range []struct {
		name string
		v    uint16
	}{{"a", st.CPU.A}, {"x", st.CPU.X}, {"y", st.CPU.Y}, {"s", st.CPU.S}, {"d", st.CPU.D}, {"pc", st.CPU.PC}} {
		field(r.name)
		e.UInt16(r.v)
	}
	field("db")
	e.UInt8(st.CPU.DB)
	field("pb")
	e.UInt8(st.CPU.PB)
	field("p")
	e.UInt8(st.CPU.P)
	field("e")
	e.Bool(st.CPU.E)
	field("cyc")
	e.Int64(st.CPU.Cycles)
	e.ObjEnd()

	field("ppu")
	e.ObjStart()
	field("vram")
	e.Base64(st.PPU.VRAM)
	field("cgram")
	e.Base64(st.PPU.CGRAM)
	field("oam")
	e.Base64(st.PPU.OAM)
	field("oamhigh")
	e.Base64(st.PPU.OAMHigh)
	field("regs")
	e.Base64(st.PPU.Regs)
	e.ObjEnd()

	field("apu")
	e.ObjStart()
	field("ram")
	e.Base64(st.APU.RAM)
	field("dsp")
	e.Base64(st.APU.DSPRegs)
	field("a")
	e.UInt8(st.APU.SPC.A)
	field("x")
	e.UInt8(st.APU.SPC.X)
	field("y")
	e.UInt8(st.APU.SPC.Y)
	field("sp")
	e.UInt8(st.APU.SPC.SP)
	field("pc")
	e.UInt16(st.APU.SPC.PC)
	field("psw")
	e.UInt8(st.APU.SPC.PSW)
	e.ObjEnd()

	field("wram")
	e.Base64(st.WRAM)
	field("sram")
	e.Base64(st.SRAM)

	e.ObjEnd()
	return e.Bytes()
}

// Decode parses a state produced by Encode.
func Decode(data []byte) (*State, error) {
	st := &State{}
	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			st.Version, err = d.Int()
		case "cycles":
			st.Cycles, err = d.UInt64()
		case "cpu":
			return d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "a":
					st.CPU.A, err = d.UInt16()
				case "x":
					st.CPU.X, err = d.UInt16()
				case "y":
					st.CPU.Y, err = d.UInt16()
				case "s":
					st.CPU.S, err = d.UInt16()
				case "d":
					st.CPU.D, err = d.UInt16()
				case "pc":
					st.CPU.PC, err = d.UInt16()
				case "db":
					st.CPU.DB, err = d.UInt8()
				case "pb":
					st.CPU.PB, err = d.UInt8()
				case "p":
					st.CPU.P, err = d.UInt8()
				case "e":
					st.CPU.E, err = d.Bool()
				case "cyc":
					st.CPU.Cycles, err = d.Int64()
				default:
					return d.Skip()
				}
				return err
			})
		case "ppu":
			return d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "vram":
					st.PPU.VRAM, err = d.Base64()
				case "cgram":
					st.PPU.CGRAM, err = d.Base64()
				case "oam":
					st.PPU.OAM, err = d.Base64()
				case "oamhigh":
					st.PPU.OAMHigh, err = d.Base64()
				case "regs":
					st.PPU.Regs, err = d.Base64()
				default:
					return d.Skip()
				}
				return err
			})
		case "apu":
			return d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "ram":
					st.APU.RAM, err = d.Base64()
				case "dsp":
					st.APU.DSPRegs, err = d.Base64()
				case "a":
					st.APU.SPC.A, err = d.UInt8()
				case "x":
					st.APU.SPC.X, err = d.UInt8()
				case "y":
					st.APU.SPC.Y, err = d.UInt8()
				case "sp":
					st.APU.SPC.SP, err = d.UInt8()
				case "pc":
					st.APU.SPC.PC, err = d.UInt16()
				case "psw":
					st.APU.SPC.PSW, err = d.UInt8()
				default:
					return d.Skip()
				}
				return err
			})
		case "wram":
			st.WRAM, err = d.Base64()
		case "sram":
			st.SRAM, err = d.Base64()
		default:
			return d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if st.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", st.Version)
	}
	return st, nil
}
