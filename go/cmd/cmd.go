package cmd

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/ktrace"
	"github.com/lunixbochs/kernelcorn/go/machine"
	"github.com/lunixbochs/kernelcorn/go/models"
	"github.com/lunixbochs/kernelcorn/go/ramfs"
)

// KernelCmd is the shared front end of commands that boot a machine.
type KernelCmd struct {
	Config *models.Config

	SetupFlags   func() error
	SetupMachine func() error
	RunMachine   func() error
	Teardown     func()

	// Usage is appended to the usage line, e.g. "[script]".
	Usage string

	Machine *machine.Machine
	Flags   *flag.FlagSet
}

func NewKernelCmd() *KernelCmd {
	return &KernelCmd{Flags: flag.NewFlagSet("cli", flag.ExitOnError)}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func PrintError(err error) {
	// print an error, and a stacktrace if available
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	if err, ok := err.(stackTracer); ok {
		// parse full path and method name for each stack frame
		var frames [][]string
		for _, f := range err.StackTrace() {
			fullpath := ""
			fileline := fmt.Sprintf("%s:%d", f, f)
			method := fmt.Sprintf("%n", f)

			frame := fmt.Sprintf("%+s", f)
			tmp := strings.SplitN(frame, "\n", 3)
			if len(tmp) == 2 {
				pathsplit := strings.Split(tmp[0], "/")
				method = pathsplit[len(pathsplit)-1]
				fullpath = strings.TrimSpace(tmp[1])
			}
			frames = append(frames, []string{fullpath, fileline, method})
			if method == "main.main" {
				break
			}
		}
		widths := make([]int, 2)
		for _, f := range frames {
			for i := 0; i < 2; i++ {
				if len(f[i]) > widths[i] {
					widths[i] = len(f[i])
				}
			}
		}
		for _, f := range frames {
			for i := 0; i < 2; i++ {
				if widths[i] > 0 {
					pad := strings.Repeat(" ", widths[i]-len(f[i]))
					fmt.Fprintf(os.Stderr, "%s%s | ", f[i], pad)
				}
			}
			fmt.Fprintf(os.Stderr, "%s()\n", f[2])
		}
	}
}

// Run parses argv, boots a machine and hands it to RunMachine. It returns
// the process exit code.
func (c *KernelCmd) Run(argv []string) int {
	fs := c.Flags
	configFile := fs.String("config", "", "load settings from a TOML file")
	ramfsDir := fs.String("ramfs", "ramfs", "directory holding program images")
	initName := fs.String("init", "init", "image to boot as the first task")
	verbose := fs.Bool("v", false, "verbose output (traces every syscall)")
	color := fs.Bool("color", false, "colorize output")
	outfile := fs.String("o", "", "redirect kernel log to file (default stderr)")
	tracefile := fs.String("to", "", "binary scheduler trace output file")
	sched := fs.Bool("sched", false, "log every scheduler event")
	maxTasks := fs.Int("max-tasks", 0, "limit on live tasks (0 is the kernel stack window)")
	heapLimit := fs.Uint("heap-limit", 0, "highest program break sbrk may set")

	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to <file>")
	memprofile := fs.String("memprofile", "", "write mem profile to <file>")

	fs.Usage = func() {
		usage := "Usage: %s [options]"
		if c.Usage != "" {
			usage += " " + c.Usage
		}
		usage += "\n\nOptions:\n"
		fmt.Fprintf(os.Stderr, usage, argv[0])
		var flags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })
		models.PrintFlags(os.Stderr, flags)
		fmt.Fprintf(os.Stderr, "\nExample:\n  %s -ramfs bins -init init -sched\n", argv[0])
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			panic(err)
		}
	}
	fs.Parse(argv[1:])

	config, err := models.LoadConfig(*configFile)
	if err != nil {
		PrintError(err)
		return 1
	}
	// flags given on the command line override the config file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ramfs":
			config.RamfsDir = *ramfsDir
		case "init":
			config.Init = *initName
		case "v":
			config.Verbose = *verbose
		case "color":
			config.Color = *color
		case "to":
			config.TraceFile = *tracefile
		case "sched":
			config.TraceSched = *sched
		case "max-tasks":
			config.MaxTasks = *maxTasks
		case "heap-limit":
			config.HeapLimit = uint32(*heapLimit)
		}
	})
	if config.RamfsDir == "" {
		config.RamfsDir = *ramfsDir
	}
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			PrintError(errors.WithStack(err))
			return 1
		}
		config.Output = out
	}
	c.Config = config

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(f)
	}
	m := machine.New(config, &ramfs.Dir{Root: config.RamfsDir}, nil)
	c.Machine = m
	teardown := func() {
		if m.Kernel.Trace != nil {
			if err := m.Kernel.Trace.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "closing trace: %v\n", err)
			}
		}
		if *cpuprofile != "" {
			pprof.StopCPUProfile()
		}
		if *memprofile != "" {
			f, err := os.Create(*memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not write heap profile: %s\n", err)
			} else {
				pprof.WriteHeapProfile(f)
				f.Close()
			}
		}
		if c.Teardown != nil {
			c.Teardown()
		}
	}
	defer teardown()

	if config.TraceFile != "" {
		f, err := os.Create(config.TraceFile)
		if err != nil {
			PrintError(errors.WithStack(err))
			return 1
		}
		w, err := ktrace.NewWriter(f)
		if err != nil {
			PrintError(err)
			return 1
		}
		m.Kernel.Trace = w
	}
	if c.SetupMachine != nil {
		if err := c.SetupMachine(); err != nil {
			PrintError(err)
			return 1
		}
	}
	if err := m.Boot(); err != nil {
		PrintError(err)
		return 1
	}
	if c.RunMachine != nil {
		err = c.RunMachine()
	}
	if err == nil {
		err = m.InitExit()
	}
	if err != nil {
		if e, ok := err.(models.ExitStatus); ok {
			return int(e)
		}
		PrintError(err)
		return 1
	}
	return 0
}
