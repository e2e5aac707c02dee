// Package ktrace records scheduler and task lifecycle events to a compact
// binary stream: a fixed header followed by snappy-compressed records.
package ktrace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	Magic   = "KTRC"
	Version = 1
)

var order = binary.LittleEndian

var ErrTruncated = errors.New("truncated trace")

type Header struct {
	Magic   string `struc:"[4]byte"`
	Version uint32
}

type Kind uint8

const (
	KindCreate Kind = iota + 1
	KindSwitch
	KindSleep
	KindWake
	KindExit
	KindReap
	KindFork
	KindExec
	KindSyscall
)

var kindNames = map[Kind]string{
	KindCreate:  "create",
	KindSwitch:  "switch",
	KindSleep:   "sleep",
	KindWake:    "wake",
	KindExit:    "exit",
	KindReap:    "reap",
	KindFork:    "fork",
	KindExec:    "exec",
	KindSyscall: "syscall",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Event is one record. Arg depends on Kind: the switched-to task for
// switch, the child for fork, the exit code for exit, the syscall number
// for syscall.
type Event struct {
	Kind Kind `struc:"uint8"`
	Task int32
	Arg  int32
}

// packed size of an Event
const eventSize = 1 + 4 + 4

func (e Event) String() string {
	return fmt.Sprintf("%-8s task=%d arg=%d", e.Kind, e.Task, e.Arg)
}

type Writer struct {
	w  io.WriteCloser
	zw *snappy.Writer
	n  int
}

func NewWriter(w io.WriteCloser) (*Writer, error) {
	header := &Header{Magic: Magic, Version: Version}
	if err := struc.PackWithOrder(w, header, order); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &Writer{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

func (t *Writer) Emit(e Event) error {
	if err := struc.PackWithOrder(t.zw, &e, order); err != nil {
		return errors.Wrap(err, "failed to pack event")
	}
	t.n++
	return nil
}

// Count is the number of events written so far.
func (t *Writer) Count() int { return t.n }

func (t *Writer) Flush() error {
	return t.zw.Flush()
}

func (t *Writer) Close() error {
	if err := t.zw.Close(); err != nil {
		t.w.Close()
		return err
	}
	return t.w.Close()
}

type Reader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	n      int
	Header Header
}

func NewReader(r io.ReadCloser) (*Reader, error) {
	t := &Reader{r: r}
	if err := struc.UnpackWithOrder(r, &t.Header, order); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != Magic {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != Version {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns io.EOF after the last event and ErrTruncated when the
// stream ends inside a record.
func (t *Reader) Next() (*Event, error) {
	var buf [eventSize]byte
	if _, err := io.ReadFull(t.zr, buf[:]); err == io.EOF {
		return nil, io.EOF
	} else if err == io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(ErrTruncated, "partial record after event %d", t.n)
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to read event")
	}
	var e Event
	if err := struc.UnpackWithOrder(bytes.NewReader(buf[:]), &e, order); err != nil {
		return nil, errors.Wrap(err, "failed to unpack event")
	}
	t.n++
	return &e, nil
}

// All drains the reader.
func (t *Reader) All() ([]Event, error) {
	var events []Event
	for {
		e, err := t.Next()
		if err == io.EOF {
			return events, nil
		} else if err != nil {
			return events, err
		}
		events = append(events, *e)
	}
}

func (t *Reader) Close() error {
	return t.r.Close()
}
