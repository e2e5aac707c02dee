package kernel

import (
	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

// Registry owns every live task: their kernel stacks, address spaces and
// place in the scheduling ring.
type Registry struct {
	mm     models.MemoryManager
	stacks models.StackAllocator

	list   taskList
	byID   *btree.BTreeG[*Task]
	lastID int
}

func taskLess(a, b *Task) bool { return a.ID < b.ID }

func NewRegistry(mm models.MemoryManager, stacks models.StackAllocator) *Registry {
	return &Registry{
		mm:     mm,
		stacks: stacks,
		byID:   btree.NewG(8, taskLess),
	}
}

// Create allocates a task with a fresh address space and an activation
// record that resumes through the trap return path. The task is linked at
// the tail of the ring in the Embryo state.
func (r *Registry) Create() (*Task, error) {
	ks, err := r.stacks.AllocStack()
	if err != nil {
		return nil, errors.Wrapf(ErrOutOfMemory, "kernel stack: %v", err)
	}
	pd, err := r.mm.Create()
	if err != nil {
		r.stacks.FreeStack(ks)
		return nil, errors.Wrapf(ErrOutOfMemory, "address space: %v", err)
	}
	sp, err := arch.NewActivation().Place(ks)
	if err != nil {
		r.mm.Destroy(pd)
		r.stacks.FreeStack(ks)
		return nil, errors.Wrapf(ErrOutOfMemory, "activation record: %v", err)
	}
	r.lastID++
	t := &Task{ID: r.lastID, Stack: ks, SP: sp, PD: pd}
	r.list.Append(t)
	r.byID.ReplaceOrInsert(t)
	return t, nil
}

// Destroy unlinks t and releases its address space and kernel stack. The
// caller guarantees t is neither running nor the active address space.
// Children of t are orphaned.
func (r *Registry) Destroy(t *Task) {
	r.list.Remove(t)
	r.byID.Delete(t)
	r.mm.Destroy(t.PD)
	r.stacks.FreeStack(t.Stack)
	for _, c := range r.Children(t) {
		c.Parent = nil
	}
	t.Stack, t.PD = nil, 0
}

func (r *Registry) Lookup(id int) *Task {
	t, _ := r.byID.Get(&Task{ID: id})
	return t
}

func (r *Registry) Len() int {
	return r.list.Len()
}

// Tasks lists tasks in ring order from the head.
func (r *Registry) Tasks() []*Task {
	ret := make([]*Task, 0, r.list.Len())
	r.list.Each(func(t *Task) bool {
		ret = append(ret, t)
		return true
	})
	return ret
}

// Children lists parent's children by id.
func (r *Registry) Children(parent *Task) []*Task {
	var ret []*Task
	r.byID.Ascend(func(t *Task) bool {
		if t.Parent == parent {
			ret = append(ret, t)
		}
		return true
	})
	return ret
}
