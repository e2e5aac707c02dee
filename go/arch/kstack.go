package arch

import "github.com/pkg/errors"

// KernelStack is a task's privileged-mode stack. The trap frame always
// occupies the topmost FrameSize bytes.
type KernelStack struct {
	Base uint32
	Size uint32
	Mem  Memory
}

func (k *KernelStack) Top() uint32 {
	return k.Base + k.Size
}

func (k *KernelStack) FrameAddr() uint32 {
	return k.Top() - FrameSize
}

func (k *KernelStack) Contains(addr uint32) bool {
	return addr >= k.Base && addr < k.Top()
}

func (k *KernelStack) Frame() (*TrapFrame, error) {
	return ReadFrame(k.Mem, k.FrameAddr())
}

func (k *KernelStack) SetFrame(f *TrapFrame) error {
	return WriteFrame(k.Mem, k.FrameAddr(), f)
}

// Activation is the pair of records a task needs on its kernel stack
// before it can be resumed by Switch for the first time: a trap frame to
// return to user (or idle) mode with, and a context whose EIP is the
// trampoline into the trap-return path.
type Activation struct {
	Frame   TrapFrame
	Context Context
}

func NewActivation() *Activation {
	return &Activation{Context: Context{EIP: TrampolineAddr}}
}

// Place writes the frame at the top of ks and the context directly below
// it. The returned stack pointer addresses the context, which is exactly
// where Switch leaves a suspended task's stack pointer.
func (a *Activation) Place(ks *KernelStack) (uint32, error) {
	if ks.Size < FrameSize+ContextSize {
		return 0, errors.Errorf("kernel stack too small (%d bytes)", ks.Size)
	}
	if err := ks.SetFrame(&a.Frame); err != nil {
		return 0, err
	}
	sp := ks.FrameAddr() - ContextSize
	if err := WriteContext(ks.Mem, sp, &a.Context); err != nil {
		return 0, err
	}
	return sp, nil
}
