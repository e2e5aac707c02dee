package ktrace

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

type closeBuffer struct {
	bytes.Buffer
}

func (c *closeBuffer) Close() error { return nil }

func TestRoundTrip(t *testing.T) {
	var buf closeBuffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	events := []Event{
		{Kind: KindCreate, Task: 1},
		{Kind: KindFork, Task: 1, Arg: 3},
		{Kind: KindSwitch, Task: 1, Arg: 3},
		{Kind: KindExit, Task: 3, Arg: -1},
	}
	for _, e := range events {
		if err := w.Emit(e); err != nil {
			t.Fatal(err)
		}
	}
	if w.Count() != len(events) {
		t.Errorf("Count() = %d", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(Magic)) {
		t.Fatal("missing magic")
	}

	r, err := NewReader(ioutil.NopCloser(&buf.Buffer))
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.All()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEventSize(t *testing.T) {
	n, err := struc.Sizeof(&Event{})
	if err != nil {
		t.Fatal(err)
	}
	if n != eventSize {
		t.Fatalf("Sizeof(Event) = %d, want %d", n, eventSize)
	}
}

func TestTruncated(t *testing.T) {
	for _, cut := range []int{1, 5, eventSize - 1} {
		var buf closeBuffer
		w, err := NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Emit(Event{Kind: KindCreate, Task: 1}); err != nil {
			t.Fatal(err)
		}
		// a record cut short, as left by a crash mid-write
		if _, err := w.zw.Write([]byte{byte(KindExit), 3, 0, 0, 0, 1, 0, 0}[:cut]); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		r, err := NewReader(ioutil.NopCloser(&buf.Buffer))
		if err != nil {
			t.Fatal(err)
		}
		got, err := r.All()
		if errors.Cause(err) != ErrTruncated {
			t.Errorf("cut %d: got %v, want truncated", cut, err)
		}
		if len(got) != 1 {
			t.Errorf("cut %d: read %d whole events", cut, len(got))
		}
	}
}

func TestBadMagic(t *testing.T) {
	r := ioutil.NopCloser(bytes.NewReader([]byte("NOPE\x01\x00\x00\x00")))
	if _, err := NewReader(r); err == nil {
		t.Fatal("accepted bad magic")
	}
}

func TestKindString(t *testing.T) {
	if KindSwitch.String() != "switch" {
		t.Error(KindSwitch.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Error(Kind(99).String())
	}
}
