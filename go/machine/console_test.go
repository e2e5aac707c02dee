package machine

import (
	"strings"
	"testing"
)

func TestConsole(t *testing.T) {
	m, _ := boot(t)
	c := &Console{M: m}
	run := func(line string) string {
		t.Helper()
		out, err := c.Exec(line)
		if err != nil {
			t.Fatalf("%s: %v", line, err)
		}
		return out
	}
	if out := run("getpid"); out != "= 1" {
		t.Errorf("getpid: %q", out)
	}
	if out := run("fork"); out != "= 3" {
		t.Errorf("fork: %q", out)
	}
	if out := run("tick"); !strings.Contains(out, "running 3") {
		t.Errorf("tick: %q", out)
	}
	if out := run("ps"); !strings.Contains(out, "*3") || !strings.Contains(out, "init") {
		t.Errorf("ps:\n%s", out)
	}
	if out := run("exit 4"); !strings.Contains(out, "-> 1(init)") {
		t.Errorf("exit: %q", out)
	}
	if out := run("wait"); out != "= 3" {
		t.Errorf("wait: %q", out)
	}
	if out := run("exec prog"); out != "= 0" {
		t.Errorf("exec: %q", out)
	}
	if out := run("check"); out != "ok" {
		t.Errorf("check: %q", out)
	}
	if out := run("regs"); !strings.Contains(out, "eip") {
		t.Errorf("regs: %q", out)
	}
	if out := run("# comment"); out != "" {
		t.Errorf("comment: %q", out)
	}
	if out := run("help"); !strings.Contains(out, "sbrk delta") {
		t.Errorf("help:\n%s", out)
	}
}

func TestConsoleErrors(t *testing.T) {
	m, _ := boot(t)
	c := &Console{M: m}
	for _, line := range []string{"bogus", "exit", "sbrk x", "fault", "exec", "syscall"} {
		if _, err := c.Exec(line); err == nil {
			t.Errorf("%q succeeded", line)
		}
	}
	if _, err := c.Exec("fault 14"); err == nil {
		t.Error("page fault did not halt")
	}
	if _, err := c.Exec("tick"); err == nil {
		t.Error("tick after halt succeeded")
	}
}
