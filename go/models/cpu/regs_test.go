package cpu

import (
	"testing"
)

func TestRegs(t *testing.T) {
	r := NewRegs(AllRegs())
	for _, enum := range AllRegs() {
		if err := r.RegWrite(enum, uint32(enum)*3); err != nil {
			t.Fatal(err)
		}
	}
	for _, enum := range AllRegs() {
		val, err := r.RegRead(enum)
		if err != nil {
			t.Fatal(err)
		}
		if val != uint32(enum)*3 {
			t.Errorf("%s = %#x, want %#x", RegNames[enum], val, enum*3)
		}
	}
	if _, err := r.RegRead(999); err == nil {
		t.Error("read of unknown register succeeded")
	}
	if err := r.RegWrite(999, 1); err == nil {
		t.Error("write of unknown register succeeded")
	}
}

func TestRegsSnapshot(t *testing.T) {
	r := NewRegs(AllRegs())
	r.MustWrite(REG_EAX, 7)
	snap := r.Snapshot()
	r.MustWrite(REG_EAX, 8)
	if snap[REG_EAX] != 7 {
		t.Fatal("snapshot aliased the live register file")
	}
	if len(snap) != len(RegNames) {
		t.Fatalf("snapshot has %d registers, want %d", len(snap), len(RegNames))
	}
}
