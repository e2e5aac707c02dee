package models

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestPrintFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("ramfs", "ramfs", "directory holding program images")
	fs.Bool("v", false, strings.Repeat("word ", 30))
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })

	var buf bytes.Buffer
	PrintFlags(&buf, flags)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], "  -ramfs (ramfs)") {
		t.Errorf("first line %q", lines[0])
	}
	if len(lines) < 3 {
		t.Fatalf("long usage not wrapped:\n%s", buf.String())
	}
	for _, line := range lines {
		if len(line) > 80 {
			t.Errorf("line too long: %q", line)
		}
	}
}
