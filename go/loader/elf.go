package loader

import (
	"bytes"
	"debug/elf"
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/kernelcorn/go/arch"
	"github.com/lunixbochs/kernelcorn/go/models"
)

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

func MatchElf(r io.ReaderAt) bool {
	magic := make([]byte, len(elfMagic))
	if _, err := r.ReadAt(magic, 0); err != nil {
		return false
	}
	return bytes.Equal(magic, elfMagic)
}

// Segment describes one loaded PT_LOAD range.
type Segment struct {
	Addr     uint32
	MemSize  uint32
	FileSize uint32
	Flags    elf.ProgFlag
}

func (s Segment) End() uint32 {
	return s.Addr + s.MemSize
}

// Layout is where a loaded image starts running and where its heap begins.
type Layout struct {
	Entry        uint32
	StackPointer uint32
	Break        uint32
	Segments     []Segment
}

func parseElf(image []byte) (*elf.File, error) {
	r := bytes.NewReader(image)
	if !MatchElf(r) {
		return nil, errors.WithStack(ErrInvalidFormat)
	}
	if len(image) <= elf.EI_CLASS {
		return nil, errors.Wrap(ErrInvalidFormat, "truncated ident")
	}
	if class := elf.Class(image[elf.EI_CLASS]); class != elf.ELFCLASS32 {
		return nil, errors.Wrapf(ErrUnsupportedClass, "%v", class)
	}
	file, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidFormat, err.Error())
	}
	return file, nil
}

// Load maps and fills every loadable segment of image into pd, then maps
// the user stack. It only touches pd through mm.
func Load(mm models.MemoryManager, pd models.PageDir, image []byte) (*Layout, error) {
	file, err := parseElf(image)
	if err != nil {
		return nil, err
	}
	layout := &Layout{Entry: uint32(file.Entry)}
	for _, prog := range file.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Filesz > prog.Memsz {
			return nil, errors.Wrapf(ErrInvalidFormat, "segment at %#x: file size %#x exceeds memory size %#x", prog.Vaddr, prog.Filesz, prog.Memsz)
		}
		seg := Segment{
			Addr:     uint32(prog.Vaddr),
			MemSize:  uint32(prog.Memsz),
			FileSize: uint32(prog.Filesz),
			Flags:    prog.Flags,
		}
		if prog.Off+prog.Filesz > uint64(len(image)) {
			return nil, errors.Wrapf(ErrLoadFailure, "segment at %#x: file range %#x+%#x outside image", seg.Addr, prog.Off, prog.Filesz)
		}
		if err := mm.AllocRegion(pd, seg.Addr, seg.MemSize); err != nil {
			return nil, errors.Wrapf(ErrLoadFailure, "segment at %#x: %v", seg.Addr, err)
		}
		if err := mm.LoadBytes(pd, seg.Addr, image[prog.Off:prog.Off+prog.Filesz]); err != nil {
			return nil, errors.Wrapf(ErrLoadFailure, "segment at %#x: %v", seg.Addr, err)
		}
		if end := seg.End(); end > layout.Break {
			layout.Break = end
		}
		layout.Segments = append(layout.Segments, seg)
	}
	if err := mm.AllocRegion(pd, arch.StackAddr-arch.StackSize, arch.StackSize); err != nil {
		return nil, errors.Wrapf(ErrLoadFailure, "user stack: %v", err)
	}
	layout.StackPointer = arch.StackAddr - arch.StackPad
	return layout, nil
}
