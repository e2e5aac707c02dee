package kernel

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/ktrace"
	"github.com/lunixbochs/kernelcorn/go/loader"
)

// Boot builds the init task from the named image and the idle task, then
// starts the scheduler on init. Any failure is fatal.
func (k *Kernel) Boot(initName string) error {
	if k.Sched.Started() {
		return errors.Wrap(ErrBootFailure, "already booted")
	}
	image, err := k.Images.Find(initName)
	if err != nil {
		return errors.Wrapf(ErrBootFailure, "init image %q: %v", initName, err)
	}
	t, err := k.Registry.Create()
	if err != nil {
		return errors.Wrapf(ErrBootFailure, "init task: %v", err)
	}
	layout, err := loader.Load(k.MM, t.PD, image)
	if err != nil {
		return errors.Wrapf(ErrBootFailure, "loading %q: %v", initName, err)
	}
	f := userFrame(layout.Entry, layout.StackPointer)
	if err := t.SetFrame(&f); err != nil {
		return errors.Wrapf(ErrBootFailure, "init frame: %v", err)
	}
	t.Name = initName
	t.Brk, t.HeapBase = layout.Break, layout.Break
	t.State = Ready
	k.emit(ktrace.KindCreate, t, 0)

	idle, err := k.Registry.Create()
	if err != nil {
		return errors.Wrapf(ErrBootFailure, "idle task: %v", err)
	}
	f = kernelFrame(arch.IdleLoopAddr)
	if err := idle.SetFrame(&f); err != nil {
		return errors.Wrapf(ErrBootFailure, "idle frame: %v", err)
	}
	idle.Name = "idle"
	idle.State = Ready
	k.emit(ktrace.KindCreate, idle, 0)

	k.init, k.idle = t, idle
	g := k.Sched.Lock()
	defer g.Unlock()
	if err := k.Sched.Init(g, t, idle); err != nil {
		return errors.Wrapf(ErrBootFailure, "%v", err)
	}
	k.taskLog(t).WithFields(logrus.Fields{
		"entry": layout.Entry,
		"brk":   layout.Break,
	}).Info("booted")
	return nil
}
