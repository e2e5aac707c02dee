package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models/mock"
	"github.com/lunixbochs/kernelcorn/go/vm"
)

func newRegistry() (*Registry, *vm.Manager, *mock.MM, *mock.Stacks) {
	kmem := &vm.Space{}
	m := vm.NewManager(kmem)
	mm := mock.NewMM(m)
	stacks := &mock.Stacks{StackAllocator: vm.NewStacks(kmem)}
	return NewRegistry(mm, stacks), m, mm, stacks
}

func ids(tasks []*Task) []int {
	var ret []int
	for _, t := range tasks {
		ret = append(ret, t.ID)
	}
	return ret
}

func TestRegistryCreate(t *testing.T) {
	r, m, _, _ := newRegistry()
	var tasks []*Task
	for i := 0; i < 3; i++ {
		task, err := r.Create()
		if err != nil {
			t.Fatal(err)
		}
		tasks = append(tasks, task)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids(r.Tasks())); diff != "" {
		t.Fatal(diff)
	}
	task := tasks[1]
	if task.State != Embryo || m.Dir(task.PD) == nil {
		t.Fatalf("task %v state %v", task, task.State)
	}
	if m.Dir(task.PD).User.Size() != 0 {
		t.Fatal("fresh task has user pages")
	}
	// the first switch to the task resumes through the trampoline
	ctx, err := arch.ReadContext(task.Stack.Mem, task.SP)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.EIP != arch.TrampolineAddr || task.SP != task.Stack.FrameAddr()-arch.ContextSize {
		t.Fatalf("context %+v at %#x", ctx, task.SP)
	}
	if r.Lookup(2) != task || r.Lookup(9) != nil {
		t.Fatal("lookup")
	}
}

func TestRegistryDestroy(t *testing.T) {
	r, m, mm, stacks := newRegistry()
	var tasks []*Task
	for i := 0; i < 4; i++ {
		task, _ := r.Create()
		tasks = append(tasks, task)
	}
	parent, victim := tasks[0], tasks[1]
	tasks[2].Parent = victim
	tasks[3].Parent = victim
	pd := victim.PD
	r.Destroy(victim)

	if r.Len() != 3 || r.Lookup(victim.ID) != nil {
		t.Fatalf("%d tasks left", r.Len())
	}
	if diff := cmp.Diff([]int{1, 3, 4}, ids(r.Tasks())); diff != "" {
		t.Fatal(diff)
	}
	if m.Dir(pd) != nil || mm.Destroyed[0] != pd || stacks.Freed != 1 {
		t.Fatal("resources not released")
	}
	if tasks[2].Parent != nil || tasks[3].Parent != nil {
		t.Fatal("children not orphaned")
	}
	if len(r.Children(parent)) != 0 {
		t.Fatal("unexpected children")
	}
	// ring stays closed
	if parent.next != tasks[2] || tasks[3].next != parent || parent.prev != tasks[3] {
		t.Fatal("ring broken")
	}
}

func TestRegistryRollback(t *testing.T) {
	r, m, mm, stacks := newRegistry()
	if _, err := r.Create(); err != nil {
		t.Fatal(err)
	}

	mm.Fail["create"] = 1
	if _, err := r.Create(); errors.Cause(err) != ErrOutOfMemory {
		t.Fatalf("got %v", err)
	}
	if stacks.Freed != 1 {
		t.Fatal("stack leaked")
	}

	stacks.Fail = 1
	if _, err := r.Create(); errors.Cause(err) != ErrOutOfMemory {
		t.Fatalf("got %v", err)
	}
	if r.Len() != 1 || m.Len() != 1 {
		t.Fatalf("%d tasks, %d dirs", r.Len(), m.Len())
	}
	task, err := r.Create()
	if err != nil || task.ID != 2 {
		t.Fatalf("create after failures: %v %v", task, err)
	}
}

func TestChildren(t *testing.T) {
	r, _, _, _ := newRegistry()
	parent, _ := r.Create()
	for i := 0; i < 3; i++ {
		child, _ := r.Create()
		child.Parent = parent
	}
	other, _ := r.Create()
	other.Parent = r.Lookup(2)
	if diff := cmp.Diff([]int{2, 3, 4}, ids(r.Children(parent))); diff != "" {
		t.Fatal(diff)
	}
}

func TestListAppendLinked(t *testing.T) {
	var l taskList
	task := &Task{ID: 1}
	l.Append(task)
	defer func() {
		if recover() == nil {
			t.Fatal("double append did not panic")
		}
	}()
	l.Append(task)
}

func TestListRemoveLast(t *testing.T) {
	var l taskList
	task := &Task{ID: 1}
	l.Append(task)
	l.Remove(task)
	if l.Len() != 0 || l.head != nil || task.next != nil {
		t.Fatal("list not empty")
	}
	n := 0
	l.Each(func(*Task) bool { n++; return true })
	if n != 0 {
		t.Fatal("walked an empty list")
	}
}

func TestTaskState(t *testing.T) {
	if Sleeping.String() != "sleeping" || TaskState(42).String() != "state(42)" {
		t.Fatal(Sleeping.String(), TaskState(42).String())
	}
	if childMatches(3, 4) || !childMatches(0, 4) || !childMatches(-1, 4) || !childMatches(4, 4) {
		t.Fatal("childMatches")
	}
}
