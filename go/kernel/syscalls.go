package kernel

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/kernel/common"
	"github.com/lunixbochs/kernelcorn/go/ktrace"
	"github.com/lunixbochs/kernelcorn/go/loader"
)

// errno is -1 in the return register.
const errno = ^uint32(0)

// Syscalls is the dispatch target. Each exported method is one system call
// made by the current task.
type Syscalls struct {
	common.KernelBase
	k *Kernel
	g *IRQGuard
}

func (s *Syscalls) fail(op string, err error) {
	s.k.taskLog(s.k.Current()).WithError(err).Warnf("%s failed", op)
}

func (s *Syscalls) Fork() int {
	child, err := s.k.fork(s.g, s.k.Current())
	if err != nil {
		s.fail("fork", err)
		return -1
	}
	return child.ID
}

func (s *Syscalls) Exec(name string) int {
	if err := s.k.exec(s.g, s.k.Current(), name); err != nil {
		s.fail("exec", err)
		return -1
	}
	return 0
}

func (s *Syscalls) Exit(code int) int {
	s.k.exit(s.g, s.k.Current(), code)
	return 0
}

func (s *Syscalls) Waitpid(pid common.Pid) int {
	id, err := s.k.waitpid(s.g, s.k.Current(), int(pid))
	if err != nil {
		s.fail("waitpid", err)
		return -1
	}
	return id
}

func (s *Syscalls) Sbrk(delta common.Delta) uint32 {
	old, err := s.k.sbrk(s.k.Current(), int32(delta))
	if err != nil {
		s.fail("sbrk", err)
		return errno
	}
	return old
}

func (s *Syscalls) Getpid() int {
	return s.k.Current().ID
}

func (s *Syscalls) Getppid() int {
	return s.k.Current().ppid()
}

func (s *Syscalls) SchedYield() int {
	if err := s.k.Sched.Yield(s.g); err != nil {
		s.fail("sched_yield", err)
		return -1
	}
	return 0
}

// fork creates a copy of parent that returns 0 from the call.
func (k *Kernel) fork(g *IRQGuard, parent *Task) (*Task, error) {
	k.Sched.check(g)
	child, err := k.Registry.Create()
	if err != nil {
		return nil, errors.Wrapf(ErrResourceExhausted, "fork: %v", err)
	}
	if err := k.MM.Duplicate(child.PD, parent.PD); err != nil {
		k.Registry.Destroy(child)
		return nil, errors.Wrapf(ErrResourceExhausted, "fork: duplicating address space: %v", err)
	}
	f, err := parent.Frame()
	if err == nil {
		f.EAX = 0
		err = child.SetFrame(f)
	}
	if err != nil {
		k.Registry.Destroy(child)
		return nil, errors.Wrap(err, "fork: copying trap frame")
	}
	child.Name = parent.Name
	child.Brk, child.HeapBase = parent.Brk, parent.HeapBase
	child.Parent = parent
	child.State = Ready
	k.emit(ktrace.KindFork, parent, child.ID)
	return child, nil
}

// exec replaces t's program. The new image is loaded into a fresh address
// space, so any failure leaves t untouched.
func (k *Kernel) exec(g *IRQGuard, t *Task, name string) error {
	k.Sched.check(g)
	image, err := k.Images.Find(name)
	if err != nil {
		return errors.Wrapf(err, "exec %q", name)
	}
	pd, err := k.MM.Create()
	if err != nil {
		return errors.Wrapf(ErrOutOfMemory, "exec %q: %v", name, err)
	}
	layout, err := loader.Load(k.MM, pd, image)
	if err != nil {
		k.MM.Destroy(pd)
		return errors.Wrapf(err, "exec %q", name)
	}
	f, err := t.Frame()
	if err != nil {
		k.MM.Destroy(pd)
		return err
	}
	f.EIP = layout.Entry
	f.UserESP = layout.StackPointer
	if err := t.SetFrame(f); err != nil {
		k.MM.Destroy(pd)
		return err
	}
	old := t.PD
	k.Sched.SetAddressSpace(g, t, pd)
	k.MM.Destroy(old)
	t.Name = name
	t.Brk, t.HeapBase = layout.Break, layout.Break
	k.emit(ktrace.KindExec, t, 0)
	return nil
}

// exit marks t exited, tells its parent, and switches away for good.
func (k *Kernel) exit(g *IRQGuard, t *Task, code int) {
	t.State = Exited
	t.ExitCode = code
	k.emit(ktrace.KindExit, t, code)
	k.taskLog(t).Debugf("exit %d", code)
	if p := t.Parent; p != nil && p.State != Exited {
		if p.State == Sleeping && p.waitq == &p.childExit && childMatches(p.waiting, t.ID) {
			p.retval = uint32(t.ID)
			p.retPending = true
			k.Sched.Wake(g, &p.childExit)
			k.emit(ktrace.KindWake, p, t.ID)
		} else {
			p.exited = append(p.exited, exitRecord{ID: t.ID, Code: code})
		}
	}
	if err := k.Sched.Schedule(g); err != nil {
		k.taskLog(t).WithError(err).Error("exit reschedule")
	}
}

// waitpid returns the id of an exited child matching pid, sleeping until
// one exits if necessary. pid <= 0 matches any child.
func (k *Kernel) waitpid(g *IRQGuard, t *Task, pid int) (int, error) {
	k.Sched.check(g)
	for i, rec := range t.exited {
		if childMatches(pid, rec.ID) {
			t.exited = append(t.exited[:i], t.exited[i+1:]...)
			return rec.ID, nil
		}
	}
	live := false
	for _, c := range k.Registry.Children(t) {
		if c.State != Exited && childMatches(pid, c.ID) {
			live = true
			break
		}
	}
	if !live {
		return 0, errors.Wrapf(ErrNoChild, "waitpid(%d)", pid)
	}
	t.childExit.Key = WaitKey{WaitChildExit, t.ID}
	t.waiting = pid
	t.deferRet = true
	k.Sched.Sleep(g, t, &t.childExit)
	k.emit(ktrace.KindSleep, t, pid)
	if err := k.Sched.Schedule(g); err != nil {
		t.deferRet = false
		return 0, err
	}
	return 0, nil
}

// sbrk moves t's break by delta and returns the old break.
func (k *Kernel) sbrk(t *Task, delta int32) (uint32, error) {
	old := t.Brk
	if delta == 0 {
		return old, nil
	}
	brk := int64(old) + int64(delta)
	if brk > int64(k.Config.HeapLimit) || brk < int64(t.HeapBase) {
		return old, errors.Wrapf(ErrLimitExceeded, "break %#x%+d", old, delta)
	}
	if delta > 0 {
		if err := k.MM.AllocRegion(t.PD, old, uint32(delta)); err != nil {
			return old, errors.Wrapf(ErrOutOfMemory, "sbrk: %v", err)
		}
		// pages kept across an earlier shrink still hold old data
		if err := k.MM.LoadBytes(t.PD, old, make([]byte, delta)); err != nil {
			return old, errors.Wrapf(ErrOutOfMemory, "sbrk: %v", err)
		}
	}
	t.Brk = uint32(brk)
	return old, nil
}
