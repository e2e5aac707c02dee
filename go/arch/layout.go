// Package arch describes the i386 machine state the kernel core manipulates:
// trap frames, callee-saved switch contexts, segment selectors, and the fixed
// virtual memory layout shared by every task.
package arch

const (
	PageSize = 0x1000

	// user stack lives in the last page below StackAddr
	StackAddr = 1 << 22
	StackSize = 4096
	// initial user stack pointer sits StackPad bytes below StackAddr
	StackPad = 16

	// HeapLimit is the default ceiling for a task's program break.
	HeapLimit = StackAddr - StackSize

	KernelStackSize = 4096

	// everything at or above KernelBase is shared kernel mapping
	KernelBase = 0xc0000000
	// kernel stacks are carved out of this window
	KernelStackBase = 0xc0400000
	KernelStackEnd  = 0xc0800000
)

// Fixed kernel text addresses the switch and trap paths resume at.
const (
	TrapEntryAddr    = 0xc0100000
	TrampolineAddr   = 0xc0100040
	SwitchReturnAddr = 0xc0100080
	IdleLoopAddr     = 0xc01000c0
)

// Global descriptor table slots.
const (
	SegNull  = 0
	SegKCode = 1
	SegKData = 2
	SegUCode = 3
	SegUData = 4

	DPLKernel = 0
	DPLUser   = 3
)

const (
	EFlagsReserved = 0x2
	EFlagsIF       = 0x200
)

func Selector(seg, dpl uint32) uint32 {
	return seg<<3 | dpl
}

// PageAlign rounds addr down and addr+size up to page boundaries.
func PageAlign(addr, size uint32) (uint32, uint32) {
	end := (uint64(addr) + uint64(size) + PageSize - 1) &^ (PageSize - 1)
	addr &^= PageSize - 1
	return addr, uint32(end - uint64(addr))
}
