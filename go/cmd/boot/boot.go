package boot

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/cmd"
	"github.com/lunixbochs/kernelcorn/go/machine"
)

// RunScript feeds each line of r to the console, echoing commands and
// their output to w. It stops at the first failing command.
func RunScript(c *machine.Console, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		out, err := c.Exec(line)
		if err != nil {
			return errors.Wrapf(err, "line %d: %s", lineno, line)
		}
		if out != "" {
			fmt.Fprintf(w, "> %s\n%s\n", line, out)
		}
		if c.M.InitExit() != nil {
			break
		}
	}
	return errors.WithStack(scanner.Err())
}

func Main(args []string) {
	c := cmd.NewKernelCmd()
	c.Usage = "[script]"
	ps := c.Flags.Bool("ps", false, "print the task table when done")
	c.RunMachine = func() error {
		console := &machine.Console{M: c.Machine, Color: c.Config.Color}
		var in io.Reader = os.Stdin
		if c.Flags.NArg() > 0 {
			f, err := os.Open(c.Flags.Arg(0))
			if err != nil {
				return errors.WithStack(err)
			}
			defer f.Close()
			in = f
		}
		err := RunScript(console, in, os.Stdout)
		if *ps {
			out, _ := console.Exec("ps")
			fmt.Println(out)
		}
		return err
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("boot", "boot the kernel and run a console script", Main) }
