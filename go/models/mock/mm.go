// Package mock wraps the kernel's memory providers with failure injection.
package mock

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

var ErrInjected = errors.New("injected failure")

// MM passes through to a real MemoryManager. Setting Fail[op] to n makes
// the nth following call of op fail (1 is the very next call).
type MM struct {
	models.MemoryManager
	Fail map[string]int

	Destroyed []models.PageDir
}

func NewMM(mm models.MemoryManager) *MM {
	return &MM{MemoryManager: mm, Fail: make(map[string]int)}
}

func (m *MM) fail(op string) error {
	n, ok := m.Fail[op]
	if !ok {
		return nil
	}
	if n <= 1 {
		delete(m.Fail, op)
		return errors.Wrap(ErrInjected, op)
	}
	m.Fail[op] = n - 1
	return nil
}

func (m *MM) Create() (models.PageDir, error) {
	if err := m.fail("create"); err != nil {
		return 0, err
	}
	return m.MemoryManager.Create()
}

func (m *MM) AllocRegion(pd models.PageDir, start, length uint32) error {
	if err := m.fail("alloc"); err != nil {
		return err
	}
	return m.MemoryManager.AllocRegion(pd, start, length)
}

func (m *MM) LoadBytes(pd models.PageDir, start uint32, src []byte) error {
	if err := m.fail("load"); err != nil {
		return err
	}
	return m.MemoryManager.LoadBytes(pd, start, src)
}

func (m *MM) Duplicate(dst, src models.PageDir) error {
	if err := m.fail("duplicate"); err != nil {
		return err
	}
	return m.MemoryManager.Duplicate(dst, src)
}

func (m *MM) Destroy(pd models.PageDir) {
	m.Destroyed = append(m.Destroyed, pd)
	m.MemoryManager.Destroy(pd)
}

// Stacks is the StackAllocator counterpart of MM.
type Stacks struct {
	models.StackAllocator
	Fail int

	Freed int
}

func (s *Stacks) AllocStack() (*arch.KernelStack, error) {
	if s.Fail > 0 {
		s.Fail--
		if s.Fail == 0 {
			return nil, errors.Wrap(ErrInjected, "alloc stack")
		}
	}
	return s.StackAllocator.AllocStack()
}

func (s *Stacks) FreeStack(ks *arch.KernelStack) {
	s.Freed++
	s.StackAllocator.FreeStack(ks)
}
