package kernel

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/models"
	"github.com/lunixbochs/kernelcorn/go/models/cpu"
)

// IRQGuard is proof that interrupts are masked. Every scheduler method
// that mutates the current task or the active address space requires one.
type IRQGuard struct {
	s     *Scheduler
	saved bool
	held  bool
}

// Unlock restores the interrupt flag saved by Lock.
func (g *IRQGuard) Unlock() {
	if !g.held {
		panic("kernel: unlock of released irq guard")
	}
	g.held = false
	if g.saved {
		g.s.cpu.Sti()
	}
}

// Scheduler is the single-core round-robin scheduler. It owns the current
// task and the mirror of the active address space.
type Scheduler struct {
	cpu cpu.Cpu
	mm  models.MemoryManager

	current *Task
	idle    *Task
	active  models.PageDir
	started bool

	// after runs on the incoming task right after each completed switch.
	after func(g *IRQGuard, prev, next *Task)
}

func NewScheduler(c cpu.Cpu, mm models.MemoryManager) *Scheduler {
	return &Scheduler{cpu: c, mm: mm}
}

// Lock masks interrupts and returns the guard that proves it.
func (s *Scheduler) Lock() *IRQGuard {
	saved := s.cpu.InterruptsEnabled()
	s.cpu.Cli()
	return &IRQGuard{s: s, saved: saved, held: true}
}

func (s *Scheduler) check(g *IRQGuard) {
	if g == nil || !g.held || g.s != s {
		panic("kernel: scheduler used without holding its irq guard")
	}
	if s.cpu.InterruptsEnabled() {
		panic("kernel: interrupts enabled under irq guard")
	}
}

func (s *Scheduler) Current() *Task { return s.current }

func (s *Scheduler) Idle() *Task { return s.idle }

// Active is the address space the scheduler last installed.
func (s *Scheduler) Active() models.PageDir { return s.active }

func (s *Scheduler) Started() bool { return s.started }

// Init makes first the running task and loads its context. It may only be
// called once.
func (s *Scheduler) Init(g *IRQGuard, first, idle *Task) error {
	s.check(g)
	if s.started {
		panic("kernel: scheduler initialized twice")
	}
	if first == nil || idle == nil {
		return errors.New("scheduler needs a first task and an idle task")
	}
	s.started = true
	s.idle = idle
	s.current = first
	first.State = Running
	if idle.State != Running {
		idle.State = Ready
	}
	s.install(first)
	return errors.Wrap(s.cpu.LoadContext(first.SP), "loading first task")
}

func (s *Scheduler) install(t *Task) {
	s.cpu.SetKernelStack(t.Stack.Top())
	s.mm.Activate(t.PD)
	s.active = t.PD
}

// pick scans the ring from the task after current for a Ready task. Idle
// is only chosen when nothing else can run.
func (s *Scheduler) pick() *Task {
	cur := s.current
	for t := cur.next; t != cur; t = t.next {
		if t != s.idle && t.State == Ready {
			return t
		}
	}
	if cur != s.idle && (cur.State == Ready || cur.State == Running) {
		return cur
	}
	return s.idle
}

// Schedule picks the next task and switches to it.
func (s *Scheduler) Schedule(g *IRQGuard) error {
	s.check(g)
	prev := s.current
	next := s.pick()
	if next == prev {
		prev.State = Running
		return nil
	}
	if prev.State == Running {
		prev.State = Ready
	}
	next.State = Running
	s.install(next)
	s.current = next
	if err := s.cpu.Switch(&prev.SP, next.SP); err != nil {
		return errors.Wrapf(err, "switch %v -> %v", prev, next)
	}
	if s.after != nil {
		s.after(g, prev, next)
	}
	return nil
}

// Yield gives up the CPU if the current task is running.
func (s *Scheduler) Yield(g *IRQGuard) error {
	s.check(g)
	if s.current.State != Running {
		return nil
	}
	s.current.State = Ready
	return s.Schedule(g)
}

// Sleep parks t on q. The caller must Schedule afterwards if t is current.
func (s *Scheduler) Sleep(g *IRQGuard, t *Task, q *WaitQueue) {
	s.check(g)
	if t == s.idle {
		panic("kernel: idle task cannot sleep")
	}
	if t.waitq != nil {
		t.waitq.remove(t)
	}
	t.State = Sleeping
	t.waitq = q
	q.waiters = append(q.waiters, t)
}

// Wake readies every task sleeping on q and returns how many woke.
func (s *Scheduler) Wake(g *IRQGuard, q *WaitQueue) int {
	s.check(g)
	n := 0
	for _, t := range q.waiters {
		if t.State == Sleeping && t.waitq == q {
			t.State = Ready
			t.waitq = nil
			n++
		}
	}
	q.waiters = nil
	return n
}

// WakeTask readies t if it is sleeping. Waking any other task is a no-op.
func (s *Scheduler) WakeTask(g *IRQGuard, t *Task) bool {
	s.check(g)
	if t.State != Sleeping {
		return false
	}
	if t.waitq != nil {
		t.waitq.remove(t)
		t.waitq = nil
	}
	t.State = Ready
	return true
}

// SetAddressSpace hands t a new address space, activating it if t is running.
func (s *Scheduler) SetAddressSpace(g *IRQGuard, t *Task, pd models.PageDir) {
	s.check(g)
	t.PD = pd
	if t == s.current {
		s.mm.Activate(pd)
		s.active = pd
	}
}

// Check verifies that exactly one task is running, that it is current,
// and that the active address space mirrors it.
func (s *Scheduler) Check(tasks []*Task) error {
	running := 0
	for _, t := range tasks {
		if t.State == Running {
			running++
			if t != s.current {
				return fmt.Errorf("task %v is running but %v is current", t, s.current)
			}
		}
	}
	if running != 1 {
		return fmt.Errorf("%d running tasks", running)
	}
	if s.active != s.current.PD {
		return fmt.Errorf("active %v does not match current %v", s.active, s.current.PD)
	}
	if s.idle.State == Exited || s.idle.State == Sleeping {
		return fmt.Errorf("idle task is %v", s.idle.State)
	}
	return nil
}
