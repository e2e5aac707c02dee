package models

import (
	"fmt"

	"github.com/lunixbochs/kernelcorn/go/arch"
)

// PageDir is an opaque address space handle. The zero value is never a
// valid handle.
type PageDir uint32

func (p PageDir) String() string {
	return fmt.Sprintf("pd(%#x)", uint32(p))
}

// MemoryManager is the address space provider the kernel core drives.
// Every operation names its target handle explicitly; none of them
// consult the active address space.
type MemoryManager interface {
	// Create returns a new address space sharing the kernel mappings and
	// holding no user pages.
	Create() (PageDir, error)
	// AllocRegion maps zero-filled user pages covering [start, start+length).
	// Pages already mapped in the range keep their contents.
	AllocRegion(pd PageDir, start, length uint32) error
	// LoadBytes copies src into already mapped user memory at start.
	LoadBytes(pd PageDir, start uint32, src []byte) error
	// Duplicate copies every user page of src into dst.
	Duplicate(dst, src PageDir) error
	// Destroy releases pd and its user pages. pd must not be active.
	Destroy(pd PageDir)
	// Activate makes pd the hardware address space.
	Activate(pd PageDir)
	// ReadString reads a NUL terminated string of at most max bytes.
	ReadString(pd PageDir, addr uint32, max int) (string, error)
}

// StackAllocator hands out fixed size kernel stacks.
type StackAllocator interface {
	AllocStack() (*arch.KernelStack, error)
	FreeStack(ks *arch.KernelStack)
}
