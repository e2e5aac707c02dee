package vm

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

// Stacks carves kernel stacks out of the kernel stack window of a Space.
type Stacks struct {
	mem   *Space
	next  uint32
	free  []uint32
	inUse int
	// Limit caps live stacks. Zero means the whole window.
	Limit int
}

var _ models.StackAllocator = &Stacks{}

func NewStacks(mem *Space) *Stacks {
	return &Stacks{mem: mem, next: arch.KernelStackBase}
}

func (s *Stacks) InUse() int { return s.inUse }

func (s *Stacks) AllocStack() (*arch.KernelStack, error) {
	if s.Limit > 0 && s.inUse >= s.Limit {
		return nil, errors.Wrapf(ErrOutOfMemory, "%d kernel stacks in use", s.inUse)
	}
	var base uint32
	if n := len(s.free); n > 0 {
		base = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if s.next+arch.KernelStackSize > arch.KernelStackEnd {
			return nil, errors.Wrap(ErrOutOfMemory, "kernel stack window exhausted")
		}
		base = s.next
		s.next += arch.KernelStackSize
	}
	s.mem.Map(base, arch.KernelStackSize, "kstack", true)
	s.inUse++
	return &arch.KernelStack{Base: base, Size: arch.KernelStackSize, Mem: s.mem}, nil
}

func (s *Stacks) FreeStack(ks *arch.KernelStack) {
	s.mem.Unmap(ks.Base, ks.Size)
	s.free = append(s.free, ks.Base)
	s.inUse--
}
