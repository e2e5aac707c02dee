package cpu

// i386 register enums
const (
	REG_EAX = iota + 1
	REG_EBX
	REG_ECX
	REG_EDX
	REG_ESI
	REG_EDI
	REG_EBP
	REG_ESP
	REG_EIP
	REG_EFLAGS
	REG_CS
	REG_SS
	REG_DS
	REG_ES
	REG_FS
	REG_GS
)

var RegNames = map[int]string{
	REG_EAX: "eax", REG_EBX: "ebx", REG_ECX: "ecx", REG_EDX: "edx",
	REG_ESI: "esi", REG_EDI: "edi", REG_EBP: "ebp", REG_ESP: "esp",
	REG_EIP: "eip", REG_EFLAGS: "eflags", REG_CS: "cs", REG_SS: "ss",
	REG_DS: "ds", REG_ES: "es", REG_FS: "fs", REG_GS: "gs",
}

func AllRegs() []int {
	regs := make([]int, 0, len(RegNames))
	for i := REG_EAX; i <= REG_GS; i++ {
		regs = append(regs, i)
	}
	return regs
}

// syscall argument registers, in order
var SyscallArgRegs = []int{REG_EBX, REG_ECX, REG_EDX, REG_ESI, REG_EDI, REG_EBP}

// interrupt vectors
const (
	// vectors below VEC_IRQ_BASE are CPU exceptions
	VEC_DIVIDE      = 0x00
	VEC_GPF         = 0x0d
	VEC_PAGE_FAULT  = 0x0e
	VEC_IRQ_BASE    = 0x20
	VEC_TIMER       = VEC_IRQ_BASE
	VEC_SYSCALL     = 0x80
	EXCEPTION_COUNT = VEC_IRQ_BASE
)
