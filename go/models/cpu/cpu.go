package cpu

// This interface abstracts the privileged CPU primitives the kernel core
// needs. A real port implements it in assembly, cpu/sim implements it over
// simulated kernel memory.
type Cpu interface {
	// register IO
	RegRead(reg int) (uint32, error)
	RegWrite(reg int, val uint32) error

	// interrupt flag
	Cli()
	Sti()
	InterruptsEnabled() bool

	// SetKernelStack installs the stack top used by the next trap from user mode.
	SetKernelStack(top uint32)

	// Trap enters privileged mode for vector, pushing a trap frame on the
	// installed kernel stack. It returns the frame address.
	Trap(vector, errCode uint32) (uint32, error)
	// TrapReturn pops the trap frame at the stack pointer back into the registers.
	TrapReturn() error

	// Switch saves the callee-saved registers below the stack pointer,
	// stores the resulting stack pointer in *old, and resumes the context at new.
	Switch(old *uint32, new uint32) error
	// LoadContext resumes the context at sp without saving anything.
	LoadContext(sp uint32) error
}
