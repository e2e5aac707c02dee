package ktrace

import (
	"bytes"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/lunixbochs/kernelcorn/go/ktrace"
)

type closeBuffer struct {
	bytes.Buffer
}

func (c *closeBuffer) Close() error { return nil }

func reader(t *testing.T, events ...ktrace.Event) *ktrace.Reader {
	var buf closeBuffer
	w, err := ktrace.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range events {
		if err := w.Emit(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := ktrace.NewReader(ioutil.NopCloser(&buf))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

var events = []ktrace.Event{
	{Kind: ktrace.KindFork, Task: 1, Arg: 3},
	{Kind: ktrace.KindSwitch, Task: 1, Arg: 3},
	{Kind: ktrace.KindSwitch, Task: 3, Arg: 1},
	{Kind: ktrace.KindSwitch, Task: 1, Arg: 3},
}

func TestPrintPretty(t *testing.T) {
	var out bytes.Buffer
	if err := PrintPretty(reader(t, events...), &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "fork") {
		t.Errorf("first line %q", lines[0])
	}
	if !strings.Contains(out.String(), "task 3: 2") || !strings.Contains(out.String(), "task 1: 1") {
		t.Errorf("switch counts missing:\n%s", out.String())
	}
}

func TestPrintJson(t *testing.T) {
	var out bytes.Buffer
	if err := PrintJson(reader(t, events...), &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(events)+1 {
		t.Fatalf("%d lines:\n%s", len(lines), out.String())
	}
	if lines[0] != `{"Magic":"KTRC","Version":1}` {
		t.Errorf("header %s", lines[0])
	}
	if lines[1] != `{"Kind":7,"Task":1,"Arg":3}` {
		t.Errorf("event %s", lines[1])
	}
}
