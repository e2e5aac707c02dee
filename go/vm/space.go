package vm

import (
	"fmt"
	"sort"
)

// Fault is returned for accesses to unmapped memory.
type Fault struct {
	Addr  uint32
	Size  int
	Write bool
}

func (f *Fault) Error() string {
	reason := "unmapped read"
	if f.Write {
		reason = "unmapped write"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, f.Addr, f.Size)
}

// Space is a single flat address space built from sorted regions.
type Space struct {
	mem Regions
}

// RangeValid reports whether every byte of [addr, addr+size) is mapped.
func (s *Space) RangeValid(addr, size uint32) bool {
	first := s.mem.bsearch(addr)
	if first == -1 {
		return size == 0
	}
	cur := uint64(addr)
	end := cur + uint64(size)
	for _, r := range s.mem[first:] {
		if cur >= end {
			break
		}
		if uint64(r.Addr) != cur && !r.Contains(uint32(cur)) {
			break
		}
		cur = r.end()
	}
	return cur >= end
}

// Mapped counts the mapped bytes inside [addr, addr+size).
func (s *Space) Mapped(addr, size uint32) uint64 {
	var n uint64
	for _, r := range s.mem {
		if _, osize, ok := r.Intersect(addr, size); ok {
			n += uint64(osize)
		}
	}
	return n
}

// Map maps [addr, addr+size). If zero is false, bytes already mapped in the
// range are carried into the new region; everything else reads as zero.
func (s *Space) Map(addr, size uint32, desc string, zero bool) *Region {
	data := make([]byte, size)
	if !zero {
		for _, r := range s.mem.FindRange(addr, size) {
			start, n, _ := r.Intersect(addr, size)
			copy(data[start-addr:], r.Data[start-r.Addr:start-r.Addr+n])
		}
	}
	s.Unmap(addr, size)
	region := &Region{Addr: addr, Size: size, Data: data, Desc: desc}
	s.mem = append(s.mem, region)
	sort.Sort(s.mem)
	return region
}

func (s *Space) Unmap(addr, size uint32) {
	tmp := make(Regions, 0, len(s.mem))
	for _, r := range s.mem {
		if oaddr, osize, ok := r.Intersect(addr, size); ok {
			left, right := r.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, r)
		}
	}
	s.mem = tmp
}

func (s *Space) Read(addr uint32, p []byte) error {
	if !s.RangeValid(addr, uint32(len(p))) {
		return &Fault{Addr: addr, Size: len(p)}
	}
	if i := s.mem.bsearch(addr); i >= 0 {
		for _, r := range s.mem[i:] {
			if len(p) == 0 || !r.Contains(addr) {
				break
			}
			n := copy(p, r.Data[addr-r.Addr:])
			addr, p = addr+uint32(n), p[n:]
		}
	}
	return nil
}

func (s *Space) Write(addr uint32, p []byte) error {
	if !s.RangeValid(addr, uint32(len(p))) {
		return &Fault{Addr: addr, Size: len(p), Write: true}
	}
	if i := s.mem.bsearch(addr); i >= 0 {
		for _, r := range s.mem[i:] {
			if len(p) == 0 || !r.Contains(addr) {
				break
			}
			n := copy(r.Data[addr-r.Addr:], p)
			addr, p = addr+uint32(n), p[n:]
		}
	}
	return nil
}

// MemReadInto and MemWrite let a Space back kernel stacks.
func (s *Space) MemReadInto(p []byte, addr uint32) error {
	return s.Read(addr, p)
}

func (s *Space) MemWrite(addr uint32, p []byte) error {
	return s.Write(addr, p)
}

func (s *Space) MemRead(addr, size uint32) ([]byte, error) {
	p := make([]byte, size)
	if err := s.Read(addr, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Regions returns a snapshot of the mapping list.
func (s *Space) Regions() Regions {
	return append(Regions(nil), s.mem...)
}

// Size is the total number of mapped bytes.
func (s *Space) Size() uint64 {
	var n uint64
	for _, r := range s.mem {
		n += uint64(r.Size)
	}
	return n
}

// Clone deep copies the space.
func (s *Space) Clone() *Space {
	c := &Space{mem: make(Regions, len(s.mem))}
	for i, r := range s.mem {
		c.mem[i] = r.clone()
	}
	return c
}
