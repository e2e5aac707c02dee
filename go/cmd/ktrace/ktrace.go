package ktrace

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/cmd"
	"github.com/lunixbochs/kernelcorn/go/ktrace"
)

func PrintJson(r *ktrace.Reader, w io.Writer) error {
	out, err := json.Marshal(&r.Header)
	if err != nil {
		return errors.Wrap(err, "error printing header")
	}
	fmt.Fprintf(w, "%s\n", out)
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace event")
		}
		out, _ := json.Marshal(e)
		fmt.Fprintf(w, "%s\n", out)
	}
	return nil
}

// PrintPretty writes one event per line, plus per-task switch counts.
func PrintPretty(r *ktrace.Reader, w io.Writer) error {
	ran := make(map[int32]int)
	var ids []int32
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace event")
		}
		fmt.Fprintln(w, e)
		if e.Kind == ktrace.KindSwitch {
			if _, ok := ran[e.Arg]; !ok {
				ids = append(ids, e.Arg)
			}
			ran[e.Arg]++
		}
	}
	if len(ids) > 0 {
		fmt.Fprintln(w, "\nswitches in:")
		for _, id := range ids {
			fmt.Fprintf(w, "  task %d: %d\n", id, ran[id])
		}
	}
	return nil
}

func Main(args []string) {
	fs := flag.NewFlagSet("args", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "output trace as line-delimited JSON objects")
	fs.Usage = func() {
		fmt.Printf("Usage: %s [options] <tracefile>\n", args[0])
		fs.PrintDefaults()
	}
	fs.Parse(args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		cmd.PrintError(errors.WithStack(err))
		os.Exit(1)
	}
	r, err := ktrace.NewReader(f)
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
	defer r.Close()
	if *jsonFlag {
		err = PrintJson(r, os.Stdout)
	} else {
		err = PrintPretty(r, os.Stdout)
	}
	if err != nil {
		cmd.PrintError(err)
		os.Exit(1)
	}
}

func init() { cmd.Register("ktrace", "dump a scheduler trace file", Main) }
