package vm

import (
	"testing"
)

func regionsEq(a Regions, b Regions) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegionFind(t *testing.T) {
	mem := Regions{
		&Region{Addr: 0x1000, Size: 0x1000},
		&Region{Addr: 0x2000, Size: 0x1000},
		&Region{Addr: 0x4000, Size: 0x2000},
		&Region{Addr: 0x6000, Size: 0x2000},
	}
	if mem.Find(0x1000) != mem[0] ||
		mem.Find(0x1001) != mem[0] ||
		mem.Find(0x1fff) != mem[0] ||
		mem.Find(0x7fff) != mem[3] {
		t.Error("Find() failed")
	}
	if mem.Find(0x3000) != nil ||
		mem.Find(0x1) != nil ||
		mem.Find(0x10000) != nil {
		t.Error("Find() negative failed")
	}
	if !regionsEq(mem.FindRange(0x0, 0x10000), mem) ||
		!regionsEq(mem.FindRange(0x0, 0x1000), nil) ||
		!regionsEq(mem.FindRange(0x1000, 0x1000), mem[:1]) ||
		!regionsEq(mem.FindRange(0x1000, 0x2000), mem[:2]) ||
		!regionsEq(mem.FindRange(0x2000, 0x2000), mem[1:2]) ||
		!regionsEq(mem.FindRange(0x2000, 0x4000), mem[1:3]) ||
		!regionsEq(mem.FindRange(0x2000, 0x10000), mem[1:]) {
		t.Error("FindRange() failed")
	}
}

func TestRegionSplit(t *testing.T) {
	r := &Region{Addr: 0x1000, Size: 0x3000, Data: pattern(0x3000)}
	left, right := r.Split(0x2000, 0x1000)
	if left == nil || left.Addr != 0x1000 || left.Size != 0x1000 {
		t.Fatalf("bad left %v", left)
	}
	if right == nil || right.Addr != 0x3000 || right.Size != 0x1000 {
		t.Fatalf("bad right %v", right)
	}
	if r.Addr != 0x2000 || r.Size != 0x1000 || len(r.Data) != 0x1000 {
		t.Fatalf("bad middle %v (%d bytes)", r, len(r.Data))
	}
	if r.Data[0] != pattern(0x3000)[0x1000] {
		t.Error("middle data misaligned")
	}
}
