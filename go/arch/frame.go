package arch

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// TrapFrame is the register image pushed on the kernel stack when a task
// enters privileged mode. Field order matches the push order of the trap
// entry stub, lowest address first.
type TrapFrame struct {
	GS, FS, ES, DS                         uint32
	EDI, ESI, EBP, ESP, EBX, EDX, ECX, EAX uint32
	IntNo, ErrCode                         uint32
	EIP, CS, EFlags, UserESP, SS           uint32
}

// Context is the callee-saved register set preserved across a voluntary switch.
type Context struct {
	EDI, ESI, EBX, EBP uint32
	EIP                uint32
}

// serialized sizes, checked against struc in tests
const (
	FrameSize   = 19 * 4
	ContextSize = 5 * 4
)

var order = binary.LittleEndian

// UserMode reports whether the frame returns to ring 3.
func (f *TrapFrame) UserMode() bool {
	return f.CS&3 == DPLUser
}

type Field struct {
	Name string
	Val  uint32
}

// Fields lists the frame's registers in display order.
func (f *TrapFrame) Fields() []Field {
	return []Field{
		{"eax", f.EAX}, {"ebx", f.EBX}, {"ecx", f.ECX}, {"edx", f.EDX},
		{"esi", f.ESI}, {"edi", f.EDI}, {"ebp", f.EBP}, {"esp", f.ESP},
		{"eip", f.EIP}, {"efl", f.EFlags}, {"uesp", f.UserESP}, {"int", f.IntNo},
		{"cs", f.CS}, {"ss", f.SS}, {"ds", f.DS}, {"es", f.ES},
		{"fs", f.FS}, {"gs", f.GS},
	}
}

func (f *TrapFrame) String() string {
	return fmt.Sprintf("eip=%#x esp=%#x eax=%#x cs=%#x eflags=%#x", f.EIP, f.UserESP, f.EAX, f.CS, f.EFlags)
}

// Memory is the view of kernel memory that kernel stacks live in.
type Memory interface {
	MemReadInto(p []byte, addr uint32) error
	MemWrite(addr uint32, p []byte) error
}

func pack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, v, order); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unpack(p []byte, v interface{}) error {
	return struc.UnpackWithOrder(bytes.NewReader(p), v, order)
}

func WriteFrame(mem Memory, addr uint32, f *TrapFrame) error {
	p, err := pack(f)
	if err != nil {
		return errors.Wrap(err, "packing trap frame")
	}
	return errors.Wrapf(mem.MemWrite(addr, p), "writing trap frame at %#x", addr)
}

func ReadFrame(mem Memory, addr uint32) (*TrapFrame, error) {
	p := make([]byte, FrameSize)
	if err := mem.MemReadInto(p, addr); err != nil {
		return nil, errors.Wrapf(err, "reading trap frame at %#x", addr)
	}
	f := &TrapFrame{}
	if err := unpack(p, f); err != nil {
		return nil, errors.Wrap(err, "unpacking trap frame")
	}
	return f, nil
}

func WriteContext(mem Memory, addr uint32, c *Context) error {
	p, err := pack(c)
	if err != nil {
		return errors.Wrap(err, "packing context")
	}
	return errors.Wrapf(mem.MemWrite(addr, p), "writing context at %#x", addr)
}

func ReadContext(mem Memory, addr uint32) (*Context, error) {
	p := make([]byte, ContextSize)
	if err := mem.MemReadInto(p, addr); err != nil {
		return nil, errors.Wrapf(err, "reading context at %#x", addr)
	}
	c := &Context{}
	if err := unpack(p, c); err != nil {
		return nil, errors.Wrap(err, "unpacking context")
	}
	return c, nil
}
