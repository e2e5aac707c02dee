package kernel

import (
	"fmt"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

type TaskState int

const (
	// Embryo is a task that has been allocated but never made runnable.
	Embryo TaskState = iota
	Running
	Ready
	Sleeping
	Exited
)

var stateNames = []string{"embryo", "running", "ready", "sleeping", "exited"}

func (s TaskState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// exitRecord remembers a child that exited before its parent waited for it.
type exitRecord struct {
	ID   int
	Code int
}

type Task struct {
	ID    int
	Name  string
	State TaskState

	Stack *arch.KernelStack
	// SP is the saved kernel stack pointer; it addresses the saved context
	// whenever the task is not running.
	SP uint32
	PD models.PageDir

	Brk      uint32
	HeapBase uint32

	Parent   *Task
	ExitCode int

	next, prev *Task

	waitq     *WaitQueue
	childExit WaitQueue
	waiting   int
	exited    []exitRecord

	// return value delivered when the task next runs
	retval     uint32
	retPending bool
	// set while a syscall's return value is delivered by someone else
	deferRet bool
}

func (t *Task) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%d(%s)", t.ID, t.Name)
	}
	return fmt.Sprintf("%d", t.ID)
}

// Frame reads the task's trap frame off its kernel stack.
func (t *Task) Frame() (*arch.TrapFrame, error) {
	return t.Stack.Frame()
}

func (t *Task) SetFrame(f *arch.TrapFrame) error {
	return t.Stack.SetFrame(f)
}

// SetReturn stores val in the frame's return register.
func (t *Task) SetReturn(val uint32) error {
	f, err := t.Frame()
	if err != nil {
		return err
	}
	f.EAX = val
	return t.SetFrame(f)
}

func (t *Task) ppid() int {
	if t.Parent == nil {
		return 0
	}
	return t.Parent.ID
}

// childMatches reports whether child satisfies waitpid(pid).
func childMatches(pid, child int) bool {
	return pid <= 0 || pid == child
}
