package common

import (
	"github.com/lunixbochs/ghostrace/ghost/sys/num"

	"github.com/lunixbochs/kernelcorn/go/arch"
)

// FrameArgs collects syscall arguments in i386 Linux register order.
func FrameArgs(f *arch.TrapFrame) []uint64 {
	return []uint64{
		uint64(f.EBX), uint64(f.ECX), uint64(f.EDX),
		uint64(f.ESI), uint64(f.EDI), uint64(f.EBP),
	}
}

// handler names that differ from the Linux syscall they implement
var aliases = map[string]string{
	"execve": "exec",
	"brk":    "sbrk",
}

// Name maps an i386 syscall number to a handler name.
func Name(no uint32) (string, bool) {
	name, ok := num.Linux_x86[int(no)]
	if !ok {
		return "", false
	}
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	return name, true
}

// Number is the reverse of Name.
func Number(name string) (uint32, bool) {
	for linux, alias := range aliases {
		if alias == name {
			name = linux
			break
		}
	}
	for no, n := range num.Linux_x86 {
		if n == name {
			return uint32(no), true
		}
	}
	return 0, false
}
