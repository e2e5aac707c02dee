package machine

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/kernel/common"
	"github.com/lunixbochs/kernelcorn/go/models"
)

// Console drives a machine with one line commands, for the monitor and
// for boot scripts.
type Console struct {
	M     *Machine
	Color bool

	diff models.FrameDiff
}

type command struct {
	args string
	help string
	fn   func(c *Console, args []string) (string, error)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"", "list commands", (*Console).help},
		"ps":      {"", "list tasks", (*Console).ps},
		"regs":    {"", "show the running task's trap frame", (*Console).regs},
		"check":   {"", "verify scheduler invariants", (*Console).check},
		"tick":    {"[n]", "deliver n timer interrupts", (*Console).tick},
		"idle":    {"", "run one idle loop pass", (*Console).idle},
		"fault":   {"vector", "raise an interrupt vector", (*Console).fault},
		"fork":    {"", "fork()", sysCmd("fork", 0)},
		"exit":    {"code", "exit(code)", sysCmd("exit", 1)},
		"wait":    {"[pid]", "waitpid(pid)", sysCmd("waitpid", -1)},
		"sbrk":    {"delta", "sbrk(delta)", sysCmd("sbrk", 1)},
		"getpid":  {"", "getpid()", sysCmd("getpid", 0)},
		"getppid": {"", "getppid()", sysCmd("getppid", 0)},
		"yield":   {"", "sched_yield()", sysCmd("sched_yield", 0)},
		"exec":    {"name", "exec(name)", (*Console).exec},
		"syscall": {"no [args...]", "raw system call", (*Console).syscall},
	}
}

func parseInt(s string) (uint32, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, errors.Errorf("bad number %q", s)
	}
	return uint32(n), nil
}

func (c *Console) call(no uint32, args ...uint32) (string, error) {
	caller := c.M.Current()
	if _, err := c.M.Syscall(no, args...); err != nil {
		return "", err
	}
	now := c.M.Current()
	if now == caller {
		return fmt.Sprintf("= %d", int32(c.M.Ret())), nil
	}
	return fmt.Sprintf("task %v -> %v, eax=%d", caller, now, int32(c.M.Ret())), nil
}

// sysCmd wraps a named syscall taking up to nargs numeric arguments.
// Negative nargs means optional.
func sysCmd(name string, nargs int) func(c *Console, args []string) (string, error) {
	return func(c *Console, args []string) (string, error) {
		no, ok := common.Number(name)
		if !ok {
			return "", errors.Errorf("unknown syscall %s", name)
		}
		if nargs >= 0 && len(args) != nargs {
			return "", errors.Errorf("%s takes %d arguments", name, nargs)
		}
		vals := make([]uint32, len(args))
		for i, arg := range args {
			v, err := parseInt(arg)
			if err != nil {
				return "", err
			}
			vals[i] = v
		}
		return c.call(no, vals...)
	}
}

// Exec runs one command line.
func (c *Console) Exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	cmd, ok := commands[fields[0]]
	if !ok {
		return "", errors.Errorf("unknown command %q (try help)", fields[0])
	}
	return cmd.fn(c, fields[1:])
}

// Names lists commands, for completion.
func (c *Console) Names() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Console) help(args []string) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for _, name := range c.Names() {
		cmd := commands[name]
		fmt.Fprintf(w, "%s %s\t%s\n", name, cmd.args, cmd.help)
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (c *Console) ps(args []string) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPPID\tSTATE\tNAME\tBRK\tPD")
	cur := c.M.Current()
	for _, t := range c.M.Kernel.Registry.Tasks() {
		mark := " "
		if t == cur {
			mark = "*"
		}
		ppid := 0
		if t.Parent != nil {
			ppid = t.Parent.ID
		}
		fmt.Fprintf(w, "%s%d\t%d\t%s\t%s\t%#x\t%v\n", mark, t.ID, ppid, t.State, t.Name, t.Brk, t.PD)
	}
	w.Flush()
	return strings.TrimRight(buf.String(), "\n"), nil
}

func (c *Console) regs(args []string) (string, error) {
	f, err := c.M.Current().Frame()
	if err != nil {
		return "", err
	}
	return c.diff.Changes(f).String(c.Color), nil
}

func (c *Console) check(args []string) (string, error) {
	if err := c.M.Kernel.Check(); err != nil {
		return "", err
	}
	return "ok", nil
}

func (c *Console) tick(args []string) (string, error) {
	n := uint32(1)
	if len(args) > 0 {
		var err error
		if n, err = parseInt(args[0]); err != nil {
			return "", err
		}
	}
	for i := uint32(0); i < n; i++ {
		if err := c.M.Tick(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("running %v", c.M.Current()), nil
}

func (c *Console) idle(args []string) (string, error) {
	if err := c.M.Idle(); err != nil {
		return "", err
	}
	return fmt.Sprintf("running %v", c.M.Current()), nil
}

func (c *Console) fault(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("fault takes a vector")
	}
	vec, err := parseInt(args[0])
	if err != nil {
		return "", err
	}
	return "", c.M.Fault(vec)
}

func (c *Console) exec(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("exec takes an image name")
	}
	addr, err := c.M.UserString(args[0])
	if err != nil {
		return "", err
	}
	no, _ := common.Number("exec")
	return c.call(no, addr)
}

func (c *Console) syscall(args []string) (string, error) {
	if len(args) < 1 {
		return "", errors.New("syscall takes a number")
	}
	vals := make([]uint32, len(args))
	for i, arg := range args {
		v, err := parseInt(arg)
		if err != nil {
			return "", err
		}
		vals[i] = v
	}
	return c.call(vals[0], vals[1:]...)
}
