package kernel

import (
	"github.com/lunixbochs/kernelcorn/go/ktrace"
)

// reap destroys every exited task except the current one, which may still
// be standing on its own stack and address space.
func (k *Kernel) reap(g *IRQGuard) int {
	k.Sched.check(g)
	cur := k.Sched.Current()
	var dead []*Task
	k.Registry.list.Each(func(t *Task) bool {
		if t.State == Exited && t != cur {
			dead = append(dead, t)
		}
		return true
	})
	for _, t := range dead {
		k.emit(ktrace.KindReap, t, t.ExitCode)
		k.taskLog(t).Debugf("reclaimed, exit code %d", t.ExitCode)
		k.Registry.Destroy(t)
	}
	return len(dead)
}
