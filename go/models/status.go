package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/lunixbochs/kernelcorn/go/arch"
)

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

func colorPad(s, color string, pad int) string {
	length := len(s)
	s = color + s + ansi.Reset
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

type ChangeMask struct {
	Old, New string
	Changed  bool
}

type Change struct {
	Old, New uint32
	Name     string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

// Mask splits the hex rendering of the change into runs of equal and
// differing digits.
func (c *Change) Mask() []ChangeMask {
	s1, s2 := fmt.Sprintf("%08x", c.New), fmt.Sprintf("%08x", c.Old)
	pos := 0
	matching := true
	masks := make([]ChangeMask, 0, len(s1))
	for i := range s1 {
		if (s1[i] == s2[i]) != matching {
			if i > pos {
				masks = append(masks, ChangeMask{New: s1[pos:i], Old: s2[pos:i], Changed: !matching})
				pos = i
			}
			matching = !matching
		}
	}
	if pos < len(s1) {
		masks = append(masks, ChangeMask{New: s1[pos:], Old: s2[pos:], Changed: !matching})
	}
	return masks
}

func (c *Change) String(color bool) string {
	lineStart := fmt.Sprintf(" %4s 0x", c.Name)
	if !c.Changed() {
		return fmt.Sprintf(lineStart+"%08x", c.New)
	}
	if !color {
		return fmt.Sprintf("+"+lineStart+"%08x", c.New)
	}
	out := []string{fmt.Sprintf(" %s 0x", colorPad(c.Name, chNew, 4))}
	for _, mask := range c.Mask() {
		col := chSame
		if mask.Changed {
			col = chNew
		}
		out = append(out, col+mask.New)
	}
	out = append(out, ansi.Reset)
	return strings.Join(out, "")
}

type Changes []*Change

// Changed filters to the registers that differ.
func (cs Changes) Changed() Changes {
	var ret Changes
	for _, c := range cs {
		if c.Changed() {
			ret = append(ret, c)
		}
	}
	return ret
}

func (cs Changes) Find(name string) *Change {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// String lays the registers out column-wise, four per row.
func (cs Changes) String(color bool) string {
	const cols = 4
	var out []string
	rows := (len(cs) + cols - 1) / cols
	for i := 0; i < rows; i++ {
		var line []string
		for j := 0; j < cols; j++ {
			if k := j*rows + i; k < len(cs) {
				line = append(line, cs[k].String(color))
			}
		}
		out = append(out, strings.Join(line, " "))
	}
	return strings.Join(out, "\n")
}

// FrameDiff tracks a trap frame across observations and reports which
// registers moved since the last one.
type FrameDiff struct {
	old *arch.TrapFrame
}

func (d *FrameDiff) Changes(f *arch.TrapFrame) Changes {
	var oldFields []arch.Field
	if d.old != nil {
		oldFields = d.old.Fields()
	}
	fields := f.Fields()
	cs := make(Changes, len(fields))
	for i, field := range fields {
		c := &Change{Name: field.Name, New: field.Val}
		if oldFields != nil {
			c.Old = oldFields[i].Val
		}
		cs[i] = c
	}
	saved := *f
	d.old = &saved
	return cs
}
