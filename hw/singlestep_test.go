package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"

	"sufami/tests"
)

// Single-step 65816 vectors (SingleStepTests): per-opcode JSON files with an
// initial machine state, one instruction, and the expected final state.
//
// The harness is opt-in: the vectors are downloaded on first use and the
// whole set takes a while. Only vectors whose memory cells are WRAM-resident
// run; the rest would need a writable cartridge image and are counted as
// skipped.

type ssState struct {
	pc, s, p     uint16
	a, x, y, dp  uint16
	dbr, pbr     uint8
	e            bool
	ram          [][2]uint32 // addr, value
}

type ssVector struct {
	name    string
	initial ssState
	final   ssState
}

func TestSingleStepVectors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long test")
	}
	if os.Getenv("SUFAMI_SINGLESTEP") == "" {
		t.Skip("set SUFAMI_SINGLESTEP=1 to fetch and run the 65816 single-step vectors")
	}

	dir := tests.SingleStepTestsPath(t)

	for opcode := range 256 {
		opstr := fmt.Sprintf("%02x", opcode)
		t.Run(opstr, func(t *testing.T) {
			buf, err := os.ReadFile(filepath.Join(dir, opstr+".json"))
			if err != nil {
				t.Fatal(err)
			}
			vectors, err := parseSSVectors(buf)
			if err != nil {
				t.Fatal(err)
			}

			ran, skipped := 0, 0
			for _, v := range vectors {
				if !wramResident(v) {
					skipped++
					continue
				}
				ran++
				runSSVector(t, v)
				if t.Failed() {
					t.Fatalf("vector %q failed", v.name)
				}
			}
			t.Logf("%d vectors run, %d skipped (non-WRAM memory)", ran, skipped)
		})
	}
}

// wramResident reports whether every memory cell of the vector lands in
// work RAM (flat banks $7E-$7F or the low 8K mirrors).
func wramResident(v ssVector) bool {
	inWRAM := func(addr uint32) bool {
		bank := uint8(addr >> 16)
		if bank == 0x7E || bank == 0x7F {
			return true
		}
		return bank&0x7F <= 0x3F && uint16(addr) < 0x2000
	}
	for _, cell := range v.initial.ram {
		if !inWRAM(cell[0]) {
			return false
		}
	}
	for _, cell := range v.final.ram {
		if !inWRAM(cell[0]) {
			return false
		}
	}
	// The instruction stream itself is part of ram[], but the program
	// counter must point at it too.
	return inWRAM(uint32(v.initial.pbr)<<16 | uint32(v.initial.pc))
}

func wramIndex(addr uint32) uint32 {
	if bank := uint8(addr >> 16); bank == 0x7E || bank == 0x7F {
		return addr - 0x7E0000
	}
	return addr & 0x1FFF
}

func runSSVector(t *testing.T, v ssVector) {
	t.Helper()

	s := testSNES(t)
	c := s.CPU

	c.A, c.X, c.Y = v.initial.a, v.initial.x, v.initial.y
	c.S, c.D, c.PC = v.initial.s, v.initial.dp, v.initial.pc
	c.DB, c.PB = v.initial.dbr, v.initial.pbr
	c.P = P(v.initial.p)
	c.E = v.initial.e
	for _, cell := range v.initial.ram {
		s.Bus.WRAM[wramIndex(cell[0])] = uint8(cell[1])
	}

	c.Step()

	check := func(name string, got, want uint32) {
		t.Helper()
		if got != want {
			t.Errorf("%s: %s = $%X, want $%X", v.name, name, got, want)
		}
	}
	check("A", uint32(c.A), uint32(v.final.a))
	check("X", uint32(c.X), uint32(v.final.x))
	check("Y", uint32(c.Y), uint32(v.final.y))
	check("S", uint32(c.S), uint32(v.final.s))
	check("D", uint32(c.D), uint32(v.final.dp))
	check("PC", uint32(c.PC), uint32(v.final.pc))
	check("DBR", uint32(c.DB), uint32(v.final.dbr))
	check("PBR", uint32(c.PB), uint32(v.final.pbr))
	check("P", uint32(c.P), uint32(v.final.p))
	if c.E != v.final.e {
		t.Errorf("%s: E = %t, want %t", v.name, c.E, v.final.e)
	}
	for _, cell := range v.final.ram {
		if got := s.Bus.WRAM[wramIndex(cell[0])]; got != uint8(cell[1]) {
			t.Errorf("%s: [%06X] = $%02X, want $%02X", v.name, cell[0], got, cell[1])
		}
	}
}

/* vector decoding */

func parseSSVectors(buf []byte) ([]ssVector, error) {
	var vectors []ssVector
	d := jx.DecodeBytes(buf)

	err := d.Arr(func(d *jx.Decoder) error {
		var v ssVector
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				v.name, err = d.Str()
			case "initial":
				v.initial, err = parseSSState(d)
			case "final":
				v.final, err = parseSSState(d)
			default:
				return d.Skip() // cycles
			}
			return err
		})
		vectors = append(vectors, v)
		return err
	})
	return vectors, err
}

func parseSSState(d *jx.Decoder) (ssState, error) {
	var st ssState
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "pc":
			st.pc, err = d.UInt16()
		case "s":
			st.s, err = d.UInt16()
		case "p":
			st.p, err = d.UInt16()
		case "a":
			st.a, err = d.UInt16()
		case "x":
			st.x, err = d.UInt16()
		case "y":
			st.y, err = d.UInt16()
		case "d":
			st.dp, err = d.UInt16()
		case "dbr":
			var n uint8
			n, err = d.UInt8()
			st.dbr = n
		case "pbr":
			var n uint8
			n, err = d.UInt8()
			st.pbr = n
		case "e":
			var n uint8
			n, err = d.UInt8()
			st.e = n != 0
		case "ram":
			return d.Arr(func(d *jx.Decoder) error {
				var cell [2]uint32
				i := 0
				err := d.Arr(func(d *jx.Decoder) error {
					n, err := d.UInt32()
					if i < 2 {
						cell[i] = n
					}
					i++
					return err
				})
				st.ram = append(st.ram, cell)
				return err
			})
		default:
			return d.Skip()
		}
		return err
	})
	return st, err
}
