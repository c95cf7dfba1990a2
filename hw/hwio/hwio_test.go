package hwio

import "testing"

func TestReg8(t *testing.T) {
	r := Reg8{Value: 0x11, RoMask: 0xF0}

	if got := r.Read8(0, false); got != 0x11 {
		t.Errorf("invalid read: %x", got)
	}
	if got := r.Read8(9999, false); got != 0x11 {
		t.Errorf("invalid read with offset: %x", got)
	}

	r.Write8(0, 0x77)
	if r.Value != 0x17 {
		t.Errorf("writemask not respected: %x", r.Value)
	}
	r.Write8(9999, 0x88)
	if r.Value != 0x18 {
		t.Errorf("writemask with offset not respected: %x", r.Value)
	}
}

func TestReg8Flags(t *testing.T) {
	ro := Reg8{Value: 0x42, Flags: ReadOnlyFlag}
	ro.Write8(0, 0xFF)
	if ro.Value != 0x42 {
		t.Errorf("readonly reg modified: %x", ro.Value)
	}

	wo := Reg8{Value: 0x42, Flags: WriteOnlyFlag}
	if got := wo.Read8(0, false); got != 0 {
		t.Errorf("writeonly reg read: %x", got)
	}
	if got := wo.Peek8(0); got != 0x42 {
		t.Errorf("writeonly reg peek: %x", got)
	}
}

func TestRadixTree(t *testing.T) {
	var tree radixTree

	r1 := &Reg8{Name: "r1"}
	r2 := &Reg8{Name: "r2"}

	if err := tree.InsertRange(0x2100, 0x21FF, r1); err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertRange(0x4300, 0x430A, r2); err != nil {
		t.Fatal(err)
	}
	if err := tree.InsertRange(0x2150, 0x2150, r2); err == nil {
		t.Fatal("overlapping insert should fail")
	}

	if got := tree.Search(0x2100); got != r1 {
		t.Errorf("Search(2100) = %v", got)
	}
	if got := tree.Search(0x21FF); got != r1 {
		t.Errorf("Search(21FF) = %v", got)
	}
	if got := tree.Search(0x2200); got != nil {
		t.Errorf("Search(2200) = %v, want nil", got)
	}
	if got := tree.Search(0x4305); got != r2 {
		t.Errorf("Search(4305) = %v", got)
	}

	tree.RemoveRange(0x2100, 0x21FF)
	if got := tree.Search(0x2180); got != nil {
		t.Errorf("Search after remove = %v, want nil", got)
	}
}
