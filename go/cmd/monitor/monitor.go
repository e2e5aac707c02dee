package monitor

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/kernelcorn/go/cmd"
	"github.com/lunixbochs/kernelcorn/go/machine"
	"github.com/lunixbochs/kernelcorn/go/ui"
)

func Main(args []string) {
	c := cmd.NewKernelCmd()
	noinit := c.Flags.Bool("noinit", false, "skip init.kc from the config folder")
	var repl *ui.Repl
	c.SetupMachine = func() error {
		var err error
		console := &machine.Console{M: c.Machine, Color: c.Config.Color}
		if repl, err = ui.NewRepl(console); err != nil {
			return err
		}
		// hijack kernel output so the prompt is redrawn
		if c.Config.Output == os.Stderr {
			if log, ok := c.Machine.Log.(*logrus.Logger); ok {
				log.SetOutput(repl.Stderr())
			}
		}
		return nil
	}
	c.RunMachine = func() error {
		if !*noinit {
			repl.LoadInit()
		}
		return repl.Run()
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("monitor", "boot the kernel under an interactive console", Main) }
