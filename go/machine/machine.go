// Package machine assembles the kernel with simulated hardware: a CPU that
// models traps and context switches, a page-granular memory manager, and
// kernel stacks carved out of shared kernel memory.
package machine

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/cpu/sim"
	"github.com/lunixbochs/kernelcorn/go/kernel"
	"github.com/lunixbochs/kernelcorn/go/models"
	"github.com/lunixbochs/kernelcorn/go/models/cpu"
	"github.com/lunixbochs/kernelcorn/go/vm"
)

type Machine struct {
	Config *models.Config
	Log    logrus.FieldLogger
	Cpu    *sim.Cpu
	MM     *vm.Manager
	Stacks *vm.Stacks
	Kernel *kernel.Kernel

	halted error
}

func New(cfg *models.Config, images models.ImageSource, log logrus.FieldLogger) *Machine {
	if cfg == nil {
		cfg = &models.Config{}
	}
	cfg.Defaults()
	if log == nil {
		log = models.NewLogger(cfg)
	}
	kmem := &vm.Space{}
	mm := vm.NewManager(kmem)
	stacks := vm.NewStacks(kmem)
	stacks.Limit = cfg.MaxTasks
	c := sim.New(kmem)
	return &Machine{
		Config: cfg,
		Log:    log,
		Cpu:    c,
		MM:     mm,
		Stacks: stacks,
		Kernel: kernel.New(cfg, c, mm, stacks, images, log),
	}
}

// Boot starts the kernel and drops into the init task.
func (m *Machine) Boot() error {
	if err := m.Kernel.Boot(m.Config.Init); err != nil {
		m.halted = err
		return err
	}
	return m.trapReturn()
}

func (m *Machine) Halted() error { return m.halted }

func (m *Machine) Current() *kernel.Task { return m.Kernel.Current() }

func (m *Machine) ready() error {
	if m.halted != nil {
		return errors.Wrap(ErrHalted, m.halted.Error())
	}
	if !m.Kernel.Sched.Started() {
		return errors.New("machine not booted")
	}
	return nil
}

func (m *Machine) trapReturn() error {
	if err := m.Cpu.TrapReturn(); err != nil {
		m.halted = err
		return err
	}
	return nil
}

// Syscall issues system call no from the running user task and returns
// the return register of whichever task resumes afterwards.
func (m *Machine) Syscall(no uint32, args ...uint32) (uint32, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	if !m.Cpu.UserMode() {
		return 0, errors.Errorf("task %v is not in user mode", m.Current())
	}
	if len(args) > len(cpu.SyscallArgRegs) {
		return 0, errors.Errorf("too many syscall arguments: %d", len(args))
	}
	m.Cpu.MustWrite(cpu.REG_EAX, no)
	for i, arg := range args {
		m.Cpu.MustWrite(cpu.SyscallArgRegs[i], arg)
	}
	if _, err := m.Cpu.Trap(cpu.VEC_SYSCALL, 0); err != nil {
		m.halted = err
		return 0, err
	}
	if err := m.Kernel.HandleSyscall(); err != nil {
		m.halted = err
		return 0, err
	}
	if err := m.trapReturn(); err != nil {
		return 0, err
	}
	return m.Ret(), nil
}

// Ret reads the return register of the running task.
func (m *Machine) Ret() uint32 {
	return m.Cpu.MustRead(cpu.REG_EAX)
}

// Tick delivers one timer interrupt. It is dropped while interrupts are masked.
func (m *Machine) Tick() error {
	if err := m.ready(); err != nil {
		return err
	}
	if !m.Cpu.InterruptsEnabled() {
		return nil
	}
	if _, err := m.Cpu.Trap(cpu.VEC_TIMER, 0); err != nil {
		m.halted = err
		return err
	}
	if err := m.Kernel.Timer(); err != nil {
		m.halted = err
		return err
	}
	return m.trapReturn()
}

// Idle runs one pass of the idle loop if the idle task holds the CPU.
func (m *Machine) Idle() error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.Current() != m.Kernel.IdleTask() {
		return nil
	}
	if _, err := m.Cpu.Trap(cpu.VEC_TIMER, 0); err != nil {
		m.halted = err
		return err
	}
	if err := m.Kernel.IdlePass(); err != nil {
		m.halted = err
		return err
	}
	return m.trapReturn()
}

// Fault raises interrupt vector on the running task. CPU exceptions halt
// the machine; other vectors are acknowledged and ignored.
func (m *Machine) Fault(vector uint32) error {
	if err := m.ready(); err != nil {
		return err
	}
	if _, err := m.Cpu.Trap(vector, 0); err != nil {
		m.halted = err
		return err
	}
	if vector < cpu.EXCEPTION_COUNT {
		m.halted = m.Kernel.Exception(vector)
		return m.halted
	}
	m.Log.Warnf("spurious interrupt %#x", vector)
	return m.trapReturn()
}

// UserString stores s at the bottom of the running task's user stack and
// returns its address, for passing to a syscall.
func (m *Machine) UserString(s string) (uint32, error) {
	addr := uint32(arch.StackAddr - arch.StackSize)
	if len(s)+1 > arch.StackSize-arch.StackPad {
		return 0, errors.Errorf("string too long: %d bytes", len(s))
	}
	err := m.MM.WriteUser(m.Current().PD, addr, append([]byte(s), 0))
	return addr, err
}

// InitExit reports the init task's exit code once it has exited.
func (m *Machine) InitExit() error {
	if t := m.Kernel.InitTask(); t != nil && t.State == kernel.Exited {
		return models.ExitStatus(t.ExitCode)
	}
	return nil
}

var ErrHalted = kernel.ErrHalted
