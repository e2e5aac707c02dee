package common

import (
	"testing"

	"github.com/pkg/errors"
)

type testKernel struct {
	KernelBase
	exitCode int
	delta    Delta
	path     string
}

func (k *testKernel) Exit(code int) int {
	k.exitCode = code
	return 44
}

func (k *testKernel) Sbrk(delta Delta) uint32 {
	k.delta = delta
	return 0x1000
}

func (k *testKernel) Exec(path string) int {
	k.path = path
	return 0
}

func (k *testKernel) SchedYield() int { return 0 }

func newTestKernel() *testKernel {
	k := &testKernel{}
	k.ReadString = func(addr uint32, max int) (string, error) {
		if addr == 0x1000 {
			return "/bin/sh", nil
		}
		return "", errors.Errorf("bad address %#x", addr)
	}
	Init(k)
	return k
}

func TestKernel(t *testing.T) {
	k := newTestKernel()
	ret, err := Lookup(k, "exit").Call([]uint64{43})
	if err != nil {
		t.Fatal(err)
	}
	if k.exitCode != 43 {
		t.Fatal("Syscall failed.")
	}
	if ret != 44 {
		t.Fatal("Syscall return failed.")
	}
}

func TestKernelNames(t *testing.T) {
	k := newTestKernel()
	for _, name := range []string{"exit", "sbrk", "exec", "sched_yield"} {
		if Lookup(k, name) == nil {
			t.Errorf("%s not registered", name)
		}
	}
	for _, name := range []string{"syscall_base", "read_string"} {
		if Lookup(k, name) != nil {
			t.Errorf("%s should not be a syscall", name)
		}
	}
}

func TestSignedArgs(t *testing.T) {
	k := newTestKernel()
	Lookup(k, "sbrk").Call([]uint64{0xfffff000})
	if k.delta != -0x1000 {
		t.Errorf("delta = %d, want -4096", k.delta)
	}
	ret, _ := Lookup(k, "exit").Call([]uint64{0xffffffff})
	if k.exitCode != -1 || ret != 44 {
		t.Errorf("exit code = %d", k.exitCode)
	}
}

func TestStringArg(t *testing.T) {
	k := newTestKernel()
	if _, err := Lookup(k, "exec").Call([]uint64{0x1000}); err != nil {
		t.Fatal(err)
	}
	if k.path != "/bin/sh" {
		t.Errorf("path = %q", k.path)
	}
	if _, err := Lookup(k, "exec").Call([]uint64{0x2000}); err == nil {
		t.Error("bad string pointer converted")
	}
	if _, err := Lookup(k, "exec").Call(nil); err == nil {
		t.Error("missing argument accepted")
	}
}

func TestTrace(t *testing.T) {
	k := newTestKernel()
	if s := Lookup(k, "exec").Trace([]uint64{0x1000, 0, 0}); s != `exec("/bin/sh")` {
		t.Errorf("got %s", s)
	}
	if s := Lookup(k, "sbrk").Trace([]uint64{0xfffffff0}); s != "sbrk(-16)" {
		t.Errorf("got %s", s)
	}
}

func TestSyscallNumbers(t *testing.T) {
	tests := map[uint32]string{
		1: "exit", 2: "fork", 7: "waitpid", 11: "exec",
		20: "getpid", 45: "sbrk", 64: "getppid", 158: "sched_yield",
	}
	for no, want := range tests {
		if name, ok := Name(no); !ok || name != want {
			t.Errorf("Name(%d) = %q, want %q", no, name, want)
		}
		if n, ok := Number(want); !ok || n != no {
			t.Errorf("Number(%q) = %d, want %d", want, n, no)
		}
	}
	if _, ok := Name(0xffff); ok {
		t.Error("unknown syscall number resolved")
	}
}

func TestCamelCase(t *testing.T) {
	if s := camelToSnakeCase("SchedYield"); s != "sched_yield" {
		t.Errorf("got %s", s)
	}
	if s := camelToSnakeCase("Exit"); s != "exit" {
		t.Errorf("got %s", s)
	}
}
