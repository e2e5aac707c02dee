// Package ui is the interactive monitor: a readline prompt over a
// machine console.
package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"

	"github.com/lunixbochs/kernelcorn/go/machine"
)

const initScript = "init.kc"

type Repl struct {
	console *machine.Console
	rl      *readline.Instance
}

type nullCloser struct{ io.Writer }

func (n *nullCloser) Close() error { return nil }

func completer(c *machine.Console) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range c.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func NewRepl(c *machine.Console) (*Repl, error) {
	// get history path
	configDirs := configdir.New("kernelcorn", "monitor")
	cacheDir := configDirs.QueryCacheFolder()
	historyPath := ""
	if err := cacheDir.MkdirAll(); err == nil {
		historyPath = filepath.Join(cacheDir.Path, "history")
	}
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "\n",
		HistoryFile:     historyPath,
		AutoComplete:    completer(c),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Repl{console: c, rl: rl}, nil
}

// Stderr is a writer that keeps the prompt intact, for the kernel log.
func (r *Repl) Stderr() io.WriteCloser {
	return &nullCloser{r.rl.Stderr()}
}

func (r *Repl) setPrompt() {
	m := r.console.M
	if m.Halted() != nil {
		r.rl.SetPrompt("halted> ")
		return
	}
	r.rl.SetPrompt(fmt.Sprintf("[%v]> ", m.Current()))
}

func (r *Repl) exec(line string) {
	out, err := r.console.Exec(line)
	if err != nil {
		fmt.Fprintf(r.rl.Stderr(), "error: %v\n", err)
	} else if out != "" {
		fmt.Fprintln(r.rl.Stdout(), out)
	}
}

// LoadInit runs init.kc from the user's config folders.
func (r *Repl) LoadInit() {
	configDirs := configdir.New("kernelcorn", "monitor")
	for _, config := range configDirs.QueryFolders(configdir.All) {
		data, err := config.ReadFile(initScript)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			r.exec(line)
		}
	}
}

// Run reads commands until EOF or until init exits.
func (r *Repl) Run() error {
	defer r.Close()
	r.setPrompt()
	for r.console.M.InitExit() == nil {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			return errors.WithStack(err)
		}
		r.exec(line)
		r.setPrompt()
	}
	return nil
}

func (r *Repl) Close() {
	r.rl.Close()
}
