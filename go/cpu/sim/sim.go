// Package sim is a host-side i386 CPU model. It executes no instructions;
// it only implements the privileged transitions the kernel core relies on
// (trap entry and return, interrupt masking, and context switching) by
// moving register state to and from kernel stacks.
package sim

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models/cpu"
)

var (
	kernelCS = arch.Selector(arch.SegKCode, arch.DPLKernel)
	kernelDS = arch.Selector(arch.SegKData, arch.DPLKernel)
)

type Cpu struct {
	*cpu.Regs
	Mem arch.Memory

	esp0 uint32
	// Switches counts completed context switches.
	Switches int
}

var _ cpu.Cpu = &Cpu{}

func New(mem arch.Memory) *Cpu {
	c := &Cpu{
		Regs: cpu.NewRegs(cpu.AllRegs()),
		Mem:  mem,
	}
	c.MustWrite(cpu.REG_EFLAGS, arch.EFlagsReserved)
	c.MustWrite(cpu.REG_CS, kernelCS)
	c.MustWrite(cpu.REG_SS, kernelDS)
	return c
}

func (c *Cpu) Cli() {
	c.MustWrite(cpu.REG_EFLAGS, c.MustRead(cpu.REG_EFLAGS)&^arch.EFlagsIF)
}

func (c *Cpu) Sti() {
	c.MustWrite(cpu.REG_EFLAGS, c.MustRead(cpu.REG_EFLAGS)|arch.EFlagsIF)
}

func (c *Cpu) InterruptsEnabled() bool {
	return c.MustRead(cpu.REG_EFLAGS)&arch.EFlagsIF != 0
}

func (c *Cpu) SetKernelStack(top uint32) {
	c.esp0 = top
}

func (c *Cpu) KernelStack() uint32 {
	return c.esp0
}

// UserMode reports whether the CPU is currently running at ring 3.
func (c *Cpu) UserMode() bool {
	return c.MustRead(cpu.REG_CS)&3 == arch.DPLUser
}

// Frame snapshots the register file as a trap frame.
func (c *Cpu) Frame() *arch.TrapFrame {
	r := c.MustRead
	return &arch.TrapFrame{
		GS: r(cpu.REG_GS), FS: r(cpu.REG_FS), ES: r(cpu.REG_ES), DS: r(cpu.REG_DS),
		EDI: r(cpu.REG_EDI), ESI: r(cpu.REG_ESI), EBP: r(cpu.REG_EBP), ESP: r(cpu.REG_ESP),
		EBX: r(cpu.REG_EBX), EDX: r(cpu.REG_EDX), ECX: r(cpu.REG_ECX), EAX: r(cpu.REG_EAX),
		EIP: r(cpu.REG_EIP), CS: r(cpu.REG_CS), EFlags: r(cpu.REG_EFLAGS),
		UserESP: r(cpu.REG_ESP), SS: r(cpu.REG_SS),
	}
}

func (c *Cpu) Trap(vector, errCode uint32) (uint32, error) {
	f := c.Frame()
	f.IntNo, f.ErrCode = vector, errCode
	sp := c.MustRead(cpu.REG_ESP)
	if f.UserMode() {
		if c.esp0 == 0 {
			return 0, errors.New("trap from user mode with no kernel stack installed")
		}
		sp = c.esp0
	}
	addr := sp - arch.FrameSize
	if err := arch.WriteFrame(c.Mem, addr, f); err != nil {
		return 0, errors.Wrapf(err, "trap %#x", vector)
	}
	for _, seg := range []int{cpu.REG_DS, cpu.REG_ES, cpu.REG_FS, cpu.REG_GS, cpu.REG_SS} {
		c.MustWrite(seg, kernelDS)
	}
	c.MustWrite(cpu.REG_CS, kernelCS)
	c.MustWrite(cpu.REG_ESP, addr)
	c.MustWrite(cpu.REG_EIP, arch.TrapEntryAddr)
	c.Cli()
	return addr, nil
}

func (c *Cpu) TrapReturn() error {
	sp := c.MustRead(cpu.REG_ESP)
	f, err := arch.ReadFrame(c.Mem, sp)
	if err != nil {
		return errors.Wrap(err, "trap return")
	}
	w := c.MustWrite
	w(cpu.REG_GS, f.GS)
	w(cpu.REG_FS, f.FS)
	w(cpu.REG_ES, f.ES)
	w(cpu.REG_DS, f.DS)
	w(cpu.REG_EDI, f.EDI)
	w(cpu.REG_ESI, f.ESI)
	w(cpu.REG_EBP, f.EBP)
	w(cpu.REG_EBX, f.EBX)
	w(cpu.REG_EDX, f.EDX)
	w(cpu.REG_ECX, f.ECX)
	w(cpu.REG_EAX, f.EAX)
	w(cpu.REG_EIP, f.EIP)
	w(cpu.REG_CS, f.CS)
	w(cpu.REG_EFLAGS, f.EFlags)
	w(cpu.REG_SS, f.SS)
	if f.UserMode() {
		w(cpu.REG_ESP, f.UserESP)
	} else {
		w(cpu.REG_ESP, sp+arch.FrameSize)
	}
	return nil
}

func (c *Cpu) Switch(old *uint32, new uint32) error {
	ctx := &arch.Context{
		EDI: c.MustRead(cpu.REG_EDI),
		ESI: c.MustRead(cpu.REG_ESI),
		EBX: c.MustRead(cpu.REG_EBX),
		EBP: c.MustRead(cpu.REG_EBP),
		EIP: arch.SwitchReturnAddr,
	}
	sp := c.MustRead(cpu.REG_ESP) - arch.ContextSize
	if err := arch.WriteContext(c.Mem, sp, ctx); err != nil {
		return errors.Wrap(err, "saving context")
	}
	*old = sp
	if err := c.LoadContext(new); err != nil {
		return err
	}
	c.Switches++
	return nil
}

func (c *Cpu) LoadContext(sp uint32) error {
	ctx, err := arch.ReadContext(c.Mem, sp)
	if err != nil {
		return errors.Wrap(err, "loading context")
	}
	c.MustWrite(cpu.REG_EDI, ctx.EDI)
	c.MustWrite(cpu.REG_ESI, ctx.ESI)
	c.MustWrite(cpu.REG_EBX, ctx.EBX)
	c.MustWrite(cpu.REG_EBP, ctx.EBP)
	c.MustWrite(cpu.REG_EIP, ctx.EIP)
	c.MustWrite(cpu.REG_ESP, sp+arch.ContextSize)
	return nil
}
