// Package kernel is the process management and scheduling core: the task
// registry, the round-robin scheduler, and the process system calls.
package kernel

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/kernel/common"
	"github.com/lunixbochs/kernelcorn/go/ktrace"
	"github.com/lunixbochs/kernelcorn/go/models"
	"github.com/lunixbochs/kernelcorn/go/models/cpu"
)

type Kernel struct {
	Config   *models.Config
	Log      logrus.FieldLogger
	Cpu      cpu.Cpu
	MM       models.MemoryManager
	Images   models.ImageSource
	Registry *Registry
	Sched    *Scheduler
	// Trace receives lifecycle events when set.
	Trace *ktrace.Writer

	sys        *Syscalls
	init, idle *Task
}

func New(cfg *models.Config, c cpu.Cpu, mm models.MemoryManager, stacks models.StackAllocator, images models.ImageSource, log logrus.FieldLogger) *Kernel {
	if cfg == nil {
		cfg = &models.Config{}
	}
	cfg.Defaults()
	if log == nil {
		log = models.NewLogger(cfg)
	}
	k := &Kernel{
		Config:   cfg,
		Log:      log,
		Cpu:      c,
		MM:       mm,
		Images:   images,
		Registry: NewRegistry(mm, stacks),
		Sched:    NewScheduler(c, mm),
	}
	k.Sched.after = k.afterSwitch
	k.sys = &Syscalls{k: k}
	k.sys.ReadString = func(addr uint32, max int) (string, error) {
		return k.MM.ReadString(k.Sched.Current().PD, addr, max)
	}
	common.Init(k.sys)
	return k
}

func (k *Kernel) Current() *Task { return k.Sched.Current() }

// InitTask is the first task booted, nil before Boot.
func (k *Kernel) InitTask() *Task { return k.init }

func (k *Kernel) IdleTask() *Task { return k.idle }

func (k *Kernel) taskLog(t *Task) logrus.FieldLogger {
	return k.Log.WithField("task", t.String())
}

func (k *Kernel) emit(kind ktrace.Kind, t *Task, arg int) {
	if k.Config.TraceSched {
		k.taskLog(t).WithField("arg", arg).Infof("sched: %s", kind)
	}
	if k.Trace == nil {
		return
	}
	if err := k.Trace.Emit(ktrace.Event{Kind: kind, Task: int32(t.ID), Arg: int32(arg)}); err != nil {
		k.Log.WithError(err).Warn("trace disabled")
		k.Trace = nil
	}
}

// afterSwitch runs in the context of the task that was just switched to.
func (k *Kernel) afterSwitch(g *IRQGuard, prev, next *Task) {
	k.emit(ktrace.KindSwitch, prev, next.ID)
	if next.retPending {
		next.retPending = false
		if err := next.SetReturn(next.retval); err != nil {
			k.taskLog(next).WithError(err).Error("delivering return value")
		}
	}
	k.reap(g)
}

// complete delivers a syscall result to the task that made the call.
// Frames are only written by their owner, so a caller that was switched
// away receives the value when it next runs.
func (k *Kernel) complete(caller *Task, ret uint32) error {
	switch {
	case caller.State == Exited:
		return nil
	case caller.deferRet:
		caller.deferRet = false
		return nil
	case caller == k.Sched.Current():
		return caller.SetReturn(ret)
	default:
		caller.retval = ret
		caller.retPending = true
		return nil
	}
}

// HandleSyscall dispatches the system call in the current task's trap frame.
func (k *Kernel) HandleSyscall() error {
	g := k.Sched.Lock()
	defer g.Unlock()
	caller := k.Sched.Current()
	f, err := caller.Frame()
	if err != nil {
		return errors.Wrapf(err, "task %v", caller)
	}
	no := f.EAX
	var sys *common.Syscall
	if name, ok := common.Name(no); ok {
		sys = common.Lookup(k.sys, name)
	}
	if sys == nil {
		k.taskLog(caller).Warnf("unknown syscall %d", no)
		return k.complete(caller, errno)
	}
	args := common.FrameArgs(f)
	if k.Config.Verbose {
		k.taskLog(caller).Debug(sys.Trace(args))
	}
	if k.Trace != nil {
		k.emit(ktrace.KindSyscall, caller, int(no))
	}
	k.sys.g = g
	ret, err := sys.Call(args)
	k.sys.g = nil
	if err != nil {
		k.taskLog(caller).WithError(err).Warnf("%s failed", sys.Name)
		ret = errno
	}
	return k.complete(caller, ret)
}

// Timer handles a timer interrupt by preempting the current task.
func (k *Kernel) Timer() error {
	g := k.Sched.Lock()
	defer g.Unlock()
	return k.Sched.Yield(g)
}

// Exception handles a CPU exception. Nothing is installed to handle one,
// so every exception halts the machine.
func (k *Kernel) Exception(vector uint32) error {
	t := k.Sched.Current()
	var eip uint32
	if f, err := t.Frame(); err == nil {
		eip = f.EIP
	}
	k.taskLog(t).Errorf("unhandled exception %#x at eip %#x", vector, eip)
	return errors.Wrapf(ErrHalted, "exception %#x in task %v at %#x", vector, t, eip)
}

// IdlePass is one iteration of the idle loop: reclaim exited tasks, then
// hand the CPU to anything runnable.
func (k *Kernel) IdlePass() error {
	g := k.Sched.Lock()
	defer g.Unlock()
	k.reap(g)
	if k.Sched.Current() == k.idle {
		return k.Sched.Schedule(g)
	}
	return nil
}

// Check verifies the scheduler invariants.
func (k *Kernel) Check() error {
	return k.Sched.Check(k.Registry.Tasks())
}

func userFrame(entry, sp uint32) arch.TrapFrame {
	ds := arch.Selector(arch.SegUData, arch.DPLUser)
	return arch.TrapFrame{
		GS: ds, FS: ds, ES: ds, DS: ds, SS: ds,
		CS:      arch.Selector(arch.SegUCode, arch.DPLUser),
		EIP:     entry,
		UserESP: sp,
		EFlags:  arch.EFlagsIF | arch.EFlagsReserved,
	}
}

func kernelFrame(eip uint32) arch.TrapFrame {
	ds := arch.Selector(arch.SegKData, arch.DPLKernel)
	return arch.TrapFrame{
		GS: ds, FS: ds, ES: ds, DS: ds, SS: ds,
		CS:     arch.Selector(arch.SegKCode, arch.DPLKernel),
		EIP:    eip,
		EFlags: arch.EFlagsIF | arch.EFlagsReserved,
	}
}
