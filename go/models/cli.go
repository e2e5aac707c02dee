package models

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// PrintFlags writes flag help to w, wrapping descriptions at 80 columns.
func PrintFlags(w io.Writer, flags []*flag.Flag) {
	wname, wdef := 0, 0
	for _, f := range flags {
		if len(f.Name) > wname {
			wname = len(f.Name)
		}
		if len(f.DefValue) > wdef {
			wdef = len(f.DefValue)
		}
	}
	wdesc := 80 - wname - wdef - 7
	if wdesc < 20 {
		wdesc = 20
	}

	namefmt := fmt.Sprintf("%%-%ds", wname)
	deffmt := fmt.Sprintf("%%-%ds ", wdef+2)
	lpad := strings.Repeat(" ", wname+wdef+7)
	for _, f := range flags {
		fmt.Fprintf(w, "  -"+namefmt, f.Name)
		if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
			fmt.Fprintf(w, " "+deffmt, "("+f.DefValue+")")
		} else {
			fmt.Fprintf(w, " "+deffmt, "  ")
		}
		usage := f.Usage
		for first := true; usage != ""; first = false {
			if !first {
				fmt.Fprint(w, lpad)
			}
			line := usage
			if len(line) > wdesc {
				// break at the last space that fits
				if s := strings.LastIndexByte(usage[:wdesc], ' '); s > 0 {
					line = usage[:s]
				} else {
					line = usage[:wdesc]
				}
			}
			fmt.Fprintln(w, line)
			usage = strings.TrimPrefix(usage[len(line):], " ")
		}
		if f.Usage == "" {
			fmt.Fprintln(w)
		}
	}
}
