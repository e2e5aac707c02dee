package vm

import (
	"bytes"
	"fmt"
	"strings"
)

// Region is a contiguous mapped range and its backing bytes.
type Region struct {
	Addr uint32
	Size uint32
	Data []byte
	Desc string
}

func (r *Region) String() string {
	desc := fmt.Sprintf("0x%x-0x%x", r.Addr, uint64(r.Addr)+uint64(r.Size))
	if r.Desc != "" {
		desc += fmt.Sprintf(" [%s]", r.Desc)
	}
	return desc
}

func (r *Region) end() uint64 {
	return uint64(r.Addr) + uint64(r.Size)
}

func (r *Region) Contains(addr uint32) bool {
	return addr >= r.Addr && uint64(addr) < r.end()
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (r *Region) Intersect(addr, size uint32) (uint32, uint32, bool) {
	start := uint64(r.Addr)
	end := r.end()
	e2 := uint64(addr) + uint64(size)
	if end > e2 {
		end = e2
	}
	if start < uint64(addr) {
		start = uint64(addr)
	}
	if end <= start {
		return 0, 0, false
	}
	return uint32(start), uint32(end - start), true
}

func (r *Region) Overlaps(addr, size uint32) bool {
	_, _, ok := r.Intersect(addr, size)
	return ok
}

func (r *Region) slice(addr, size uint32) *Region {
	o := addr - r.Addr
	return &Region{Addr: addr, Size: size, Data: r.Data[o : o+size], Desc: r.Desc}
}

/*
laddr                      rsize
|      lsize       raddr   |
[------|---region--|-------]
[-left-][---mid---][-right-]
        |         |
        addr      size
*/
// Split trims r to [addr, addr+size) and returns what was cut off either side.
// If the new range extends past r, r is zero padded to cover it.
func (r *Region) Split(addr, size uint32) (left, right *Region) {
	nend := uint64(addr) + uint64(size)
	if nend < r.end() {
		ra := uint32(nend)
		right = r.slice(ra, uint32(r.end()-nend))
		r.Data = r.Data[:ra-r.Addr]
	}
	if addr > r.Addr {
		ls := addr - r.Addr
		left = r.slice(r.Addr, ls)
		r.Data = r.Data[ls:]
	}
	if addr < r.Addr {
		extra := bytes.Repeat([]byte{0}, int(r.Addr-addr))
		r.Data = append(extra, r.Data...)
	}
	if oend := r.end(); nend > oend {
		extra := bytes.Repeat([]byte{0}, int(nend-oend))
		r.Data = append(r.Data, extra...)
	}
	r.Addr, r.Size = addr, size
	return left, right
}

func (r *Region) clone() *Region {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)
	return &Region{Addr: r.Addr, Size: r.Size, Data: data, Desc: r.Desc}
}

// Regions is kept sorted by address.
type Regions []*Region

func (p Regions) Len() int           { return len(p) }
func (p Regions) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Regions) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Regions) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// binary search to find index of the region containing addr, if any, else -1
func (p Regions) bsearch(addr uint32) int {
	l := 0
	r := len(p) - 1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr >= e.Addr {
			if e.Contains(addr) {
				return mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1
}

func (p Regions) Find(addr uint32) *Region {
	if i := p.bsearch(addr); i >= 0 {
		return p[i]
	}
	return nil
}

// FindRange returns every region overlapping [addr, addr+size).
func (p Regions) FindRange(addr, size uint32) Regions {
	var ret Regions
	for _, r := range p {
		if r.Overlaps(addr, size) {
			ret = append(ret, r)
		}
	}
	return ret
}
