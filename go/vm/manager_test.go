package vm

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

func mustCreate(t *testing.T, m *Manager) models.PageDir {
	t.Helper()
	pd, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	return pd
}

func TestManagerCreate(t *testing.T) {
	m := NewManager(nil)
	a, b := mustCreate(t, m), mustCreate(t, m)
	if a == 0 || b == 0 || a == b {
		t.Fatalf("bad handles %v %v", a, b)
	}
	if m.Dir(a).Kernel != m.Dir(b).Kernel {
		t.Error("directories do not share the kernel space")
	}
	if m.Dir(a).User.Size() != 0 {
		t.Error("fresh directory has user pages")
	}
}

func TestManagerAllocRegion(t *testing.T) {
	m := NewManager(nil)
	pd := mustCreate(t, m)
	if err := m.AllocRegion(pd, 0x8048010, 0x20); err != nil {
		t.Fatal(err)
	}
	if m.Pages() != 1 {
		t.Fatalf("Pages() = %d, want 1", m.Pages())
	}
	if err := m.LoadBytes(pd, 0x8048010, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	// overlapping alloc keeps existing bytes and only charges new pages
	if err := m.AllocRegion(pd, 0x8048000, 0x2000); err != nil {
		t.Fatal(err)
	}
	if m.Pages() != 2 {
		t.Fatalf("Pages() = %d, want 2", m.Pages())
	}
	p := make([]byte, 4)
	if err := m.ReadUser(pd, 0x8048010, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p, []byte("abc\x00")) {
		t.Errorf("got % x after realloc", p)
	}
	if err := m.AllocRegion(pd, arch.KernelBase-0x1000, 0x2000); err == nil {
		t.Error("allocated a user region over the kernel")
	}
}

func TestManagerLoadUnmapped(t *testing.T) {
	m := NewManager(nil)
	pd := mustCreate(t, m)
	err := m.LoadBytes(pd, 0x1000, []byte{1})
	if _, ok := errors.Cause(err).(*Fault); !ok {
		t.Fatalf("got %v, want a fault", err)
	}
}

func TestManagerDuplicate(t *testing.T) {
	m := NewManager(nil)
	src, dst := mustCreate(t, m), mustCreate(t, m)
	m.AllocRegion(src, 0x1000, 0x1000)
	m.LoadBytes(src, 0x1000, []byte{1, 2, 3})
	if err := m.Duplicate(dst, src); err != nil {
		t.Fatal(err)
	}
	m.LoadBytes(src, 0x1000, []byte{9})
	p := make([]byte, 3)
	if err := m.ReadUser(dst, 0x1000, p); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Errorf("duplicate shares pages with source: % x", p)
	}
	if m.Pages() != 2 {
		t.Errorf("Pages() = %d, want 2", m.Pages())
	}
}

func TestManagerLimits(t *testing.T) {
	m := NewManager(nil)
	m.Limits = Limits{Dirs: 2, Pages: 3}
	a, b := mustCreate(t, m), mustCreate(t, m)
	if _, err := m.Create(); errors.Cause(err) != ErrOutOfMemory {
		t.Errorf("third Create() = %v, want out of memory", err)
	}
	if err := m.AllocRegion(a, 0, 0x2000); err != nil {
		t.Fatal(err)
	}
	if err := m.Duplicate(b, a); errors.Cause(err) != ErrOutOfMemory {
		t.Errorf("Duplicate() = %v, want out of memory", err)
	}
	if err := m.AllocRegion(b, 0, 0x1000); err != nil {
		t.Fatal(err)
	}
	m.Destroy(a)
	if m.Pages() != 1 {
		t.Errorf("Pages() = %d after destroy, want 1", m.Pages())
	}
	if _, err := m.Create(); err != nil {
		t.Errorf("Create() after destroy: %v", err)
	}
}

func TestManagerReadString(t *testing.T) {
	m := NewManager(nil)
	pd := mustCreate(t, m)
	m.AllocRegion(pd, 0x1000, 0x1000)
	m.LoadBytes(pd, 0x1ffa, []byte("hello\x00"))
	s, err := m.ReadString(pd, 0x1ffa, 64)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Errorf("got %q", s)
	}
	if _, err := m.ReadString(pd, 0x1ffa, 3); err == nil {
		t.Error("overlong string read succeeded")
	}
	m.LoadBytes(pd, 0x1ffe, []byte("xy"))
	if _, err := m.ReadString(pd, 0x1ffe, 64); err == nil {
		t.Error("unterminated string read past the mapping")
	}
	m.Kernel().Map(arch.KernelBase, arch.PageSize, "", false)
	m.Kernel().Write(arch.KernelBase, []byte("init\x00"))
	if _, err := m.ReadString(pd, arch.KernelBase, 64); errors.Cause(err) != ErrBadAddress {
		t.Errorf("kernel string read: %v", err)
	}
	m.AllocRegion(pd, arch.KernelBase-arch.PageSize, arch.PageSize)
	m.LoadBytes(pd, arch.KernelBase-2, []byte("ab"))
	if _, err := m.ReadString(pd, arch.KernelBase-2, 64); errors.Cause(err) != ErrBadAddress {
		t.Errorf("string crossing into kernel: %v", err)
	}
}

func TestManagerActive(t *testing.T) {
	m := NewManager(nil)
	a, b := mustCreate(t, m), mustCreate(t, m)
	m.Activate(a)
	if m.Active() != a {
		t.Fatal("Activate did not take")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Error("destroying the active directory did not panic")
			}
		}()
		m.Destroy(a)
	}()
	m.Activate(b)
	m.Destroy(a)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("activating a destroyed directory did not panic")
			}
		}()
		m.Activate(a)
	}()
}

func TestStacks(t *testing.T) {
	kmem := &Space{}
	s := NewStacks(kmem)
	s.Limit = 2
	a, err := s.AllocStack()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.AllocStack()
	if err != nil {
		t.Fatal(err)
	}
	if a.Base == b.Base || a.Contains(b.Base) {
		t.Fatalf("stacks overlap: %#x %#x", a.Base, b.Base)
	}
	if _, err := s.AllocStack(); errors.Cause(err) != ErrOutOfMemory {
		t.Fatalf("AllocStack() over limit = %v", err)
	}
	if !kmem.RangeValid(a.Base, a.Size) {
		t.Fatal("stack not mapped in kernel memory")
	}
	kmem.Write(a.Base, []byte{0xff})
	s.FreeStack(a)
	if kmem.RangeValid(a.Base, 1) {
		t.Fatal("freed stack still mapped")
	}
	c, err := s.AllocStack()
	if err != nil {
		t.Fatal(err)
	}
	if c.Base != a.Base {
		t.Errorf("freed stack not reused: %#x != %#x", c.Base, a.Base)
	}
	p := make([]byte, 1)
	kmem.Read(c.Base, p)
	if p[0] != 0 {
		t.Error("reused stack not zeroed")
	}
	if s.InUse() != 2 {
		t.Errorf("InUse() = %d, want 2", s.InUse())
	}
}
