package cpu

import (
	"github.com/pkg/errors"
)

// Regs is a 32-bit register file implementing the register half of Cpu.
type Regs struct {
	vals map[int]uint32
}

func NewRegs(enums []int) *Regs {
	r := &Regs{vals: make(map[int]uint32, len(enums))}
	for _, e := range enums {
		r.vals[e] = 0
	}
	return r
}

func (r *Regs) RegRead(enum int) (uint32, error) {
	if val, ok := r.vals[enum]; !ok {
		return 0, errors.Errorf("invalid register %d", enum)
	} else {
		return val, nil
	}
}

func (r *Regs) RegWrite(enum int, val uint32) error {
	if _, ok := r.vals[enum]; !ok {
		return errors.Errorf("invalid register %d", enum)
	}
	r.vals[enum] = val
	return nil
}

// MustRead is for registers the caller knows exist.
func (r *Regs) MustRead(enum int) uint32 {
	val, err := r.RegRead(enum)
	if err != nil {
		panic(err)
	}
	return val
}

func (r *Regs) MustWrite(enum int, val uint32) {
	if err := r.RegWrite(enum, val); err != nil {
		panic(err)
	}
}

// Snapshot copies the whole register file.
func (r *Regs) Snapshot() map[int]uint32 {
	m := make(map[int]uint32, len(r.vals))
	for k, v := range r.vals {
		m[k] = v
	}
	return m
}
