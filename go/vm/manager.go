package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

var (
	ErrOutOfMemory = errors.New("out of memory")
	ErrBadAddress  = errors.New("bad user address")
)

const firstDir models.PageDir = 0x100000

// Dir is one address space: private user mappings plus the shared kernel space.
type Dir struct {
	Handle models.PageDir
	User   *Space
	Kernel *Space
}

// Limits bound the simulated physical memory. Zero means unlimited.
type Limits struct {
	Dirs  int
	Pages int
}

// Manager is a simulated address space provider.
type Manager struct {
	Limits Limits

	kernel *Space
	dirs   map[models.PageDir]*Dir
	next   models.PageDir
	active models.PageDir
	pages  int
}

var _ models.MemoryManager = &Manager{}

func NewManager(kernel *Space) *Manager {
	if kernel == nil {
		kernel = &Space{}
	}
	return &Manager{
		kernel: kernel,
		dirs:   make(map[models.PageDir]*Dir),
		next:   firstDir,
	}
}

func (m *Manager) Kernel() *Space { return m.kernel }

// Dir returns the directory behind pd, or nil.
func (m *Manager) Dir(pd models.PageDir) *Dir {
	return m.dirs[pd]
}

func (m *Manager) mustDir(op string, pd models.PageDir) *Dir {
	d, ok := m.dirs[pd]
	if !ok {
		panic(fmt.Sprintf("vm: %s of unknown %v", op, pd))
	}
	return d
}

func (m *Manager) Active() models.PageDir { return m.active }

func (m *Manager) Len() int { return len(m.dirs) }

// Pages is the number of user pages mapped across all directories.
func (m *Manager) Pages() int { return m.pages }

func (m *Manager) Create() (models.PageDir, error) {
	if m.Limits.Dirs > 0 && len(m.dirs) >= m.Limits.Dirs {
		return 0, errors.Wrap(ErrOutOfMemory, "no free page directory")
	}
	pd := m.next
	m.next += arch.PageSize
	m.dirs[pd] = &Dir{Handle: pd, User: &Space{}, Kernel: m.kernel}
	return pd, nil
}

func (m *Manager) charge(n int) error {
	if m.Limits.Pages > 0 && m.pages+n > m.Limits.Pages {
		return errors.Wrapf(ErrOutOfMemory, "need %d pages, %d of %d in use", n, m.pages, m.Limits.Pages)
	}
	m.pages += n
	return nil
}

func (m *Manager) AllocRegion(pd models.PageDir, start, length uint32) error {
	d, ok := m.dirs[pd]
	if !ok {
		return errors.Errorf("alloc in unknown %v", pd)
	}
	if length == 0 {
		return nil
	}
	addr, size := arch.PageAlign(start, length)
	if uint64(addr)+uint64(size) > arch.KernelBase {
		return errors.Errorf("user region %#x-%#x overlaps kernel", addr, uint64(addr)+uint64(size))
	}
	fresh := int((uint64(size) - d.User.Mapped(addr, size)) / arch.PageSize)
	if err := m.charge(fresh); err != nil {
		return err
	}
	d.User.Map(addr, size, "", false)
	return nil
}

func (m *Manager) LoadBytes(pd models.PageDir, start uint32, src []byte) error {
	d, ok := m.dirs[pd]
	if !ok {
		return errors.Errorf("load into unknown %v", pd)
	}
	return errors.WithStack(d.User.Write(start, src))
}

func (m *Manager) Duplicate(dst, src models.PageDir) error {
	ds, ok := m.dirs[dst]
	if !ok {
		return errors.Errorf("duplicate into unknown %v", dst)
	}
	ss, ok := m.dirs[src]
	if !ok {
		return errors.Errorf("duplicate from unknown %v", src)
	}
	n := int(ss.User.Size()/arch.PageSize) - int(ds.User.Size()/arch.PageSize)
	if n > 0 {
		if err := m.charge(n); err != nil {
			return err
		}
	} else {
		m.pages += n
	}
	ds.User = ss.User.Clone()
	return nil
}

func (m *Manager) Destroy(pd models.PageDir) {
	d := m.mustDir("destroy", pd)
	if pd == m.active {
		panic(fmt.Sprintf("vm: destroy of active %v", pd))
	}
	m.pages -= int(d.User.Size() / arch.PageSize)
	delete(m.dirs, pd)
}

func (m *Manager) Activate(pd models.PageDir) {
	m.mustDir("activate", pd)
	m.active = pd
}

// ReadString copies a NUL terminated string in from user memory of pd.
// The kernel half of the address space is never readable through it.
func (m *Manager) ReadString(pd models.PageDir, addr uint32, max int) (string, error) {
	d, ok := m.dirs[pd]
	if !ok {
		return "", errors.Errorf("read from unknown %v", pd)
	}
	var out []byte
	var b [1]byte
	for i := 0; i < max; i++ {
		a := uint64(addr) + uint64(i)
		if a >= arch.KernelBase {
			return "", errors.Wrapf(ErrBadAddress, "string at %#x", addr)
		}
		if err := d.User.Read(uint32(a), b[:]); err != nil {
			return "", errors.WithStack(err)
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
	return "", errors.Errorf("string at %#x longer than %d bytes", addr, max)
}

// ReadUser and WriteUser access user memory of an arbitrary directory.
func (m *Manager) ReadUser(pd models.PageDir, addr uint32, p []byte) error {
	d, ok := m.dirs[pd]
	if !ok {
		return errors.Errorf("read from unknown %v", pd)
	}
	return errors.WithStack(d.User.Read(addr, p))
}

func (m *Manager) WriteUser(pd models.PageDir, addr uint32, p []byte) error {
	return m.LoadBytes(pd, addr, p)
}
