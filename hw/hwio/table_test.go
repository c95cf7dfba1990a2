package hwio_test

import (
	"testing"

	"sufami/hw/hwio"
)

type testTable struct {
	t testing.TB
	*hwio.Table
	RAM  hwio.Mem  `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`
	Reg1 hwio.Reg8 `hwio:"bank=1,offset=0x1,rwmask=0xF0,rcb,reset=0x99"`
	Reg2 hwio.Reg8 `hwio:"bank=1,offset=0x2,writeonly,wcb"`

	written []uint8
}

// $2001
func (tbl *testTable) ReadREG1(val uint8) uint8 {
	tbl.Reg1.Value++
	return tbl.Reg1.Value
}

// $2002
func (tbl *testTable) WriteREG2(old, val uint8) {
	tbl.written = append(tbl.written, val)
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb, Table: hwio.NewTable("bus")}
	hwio.MustInitRegs(tbl)
	tbl.Table.MapBank(0x0000, tbl, 0)
	tbl.Table.MapBank(0x2000, tbl, 1)
	return tbl
}

func (tbl *testTable) wantRead8(addr uint16, want uint8) {
	tbl.t.Helper()
	if got := tbl.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMapMem(t *testing.T) {
	tbl := newTestTable(t)

	// Mem, mirrored over its vsize.
	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantRead8(0x1800, 0x12)

	// Reg1: read callback increments.
	tbl.wantRead8(0x2001, 0x9A)
	tbl.wantRead8(0x2001, 0x9B)
	tbl.Write8(0x2001, 0xFF)
	tbl.wantRead8(0x2001, 0xA0)
}

func TestTableWriteCb(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x2002, 0x55)
	tbl.Write8(0x2002, 0xAA)
	if len(tbl.written) != 2 || tbl.written[0] != 0x55 || tbl.written[1] != 0xAA {
		t.Errorf("write callback log = %#v", tbl.written)
	}

	// Write-only: bus reads return 0.
	tbl.wantRead8(0x2002, 0)
}

func TestTableMapped(t *testing.T) {
	tbl := newTestTable(t)

	if !tbl.Mapped(0x2001) {
		t.Error("2001 should be mapped")
	}
	if tbl.Mapped(0x2003) {
		t.Error("2003 should not be mapped")
	}
}

func TestTableUnmapBank(t *testing.T) {
	tbl := newTestTable(t)

	tbl.UnmapBank(0x2000, tbl, 1)
	if tbl.Mapped(0x2001) {
		t.Error("2001 should be unmapped")
	}
	if !tbl.Mapped(0x100) {
		t.Error("bank 0 should be untouched")
	}
}
