// Package elftest builds minimal static ELF32 i386 executables in memory.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/lunixbochs/struc"
)

const (
	ehdrSize = 52
	phdrSize = 32
)

type ehdr struct {
	Ident     []byte `struc:"[16]byte"`
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type phdr struct {
	Type, Off, Vaddr, Paddr uint32
	Filesz, Memsz           uint32
	Flags, Align            uint32
}

type Segment struct {
	Addr uint32
	Data []byte
	// MemSize defaults to len(Data)
	MemSize uint32
	// Type defaults to PT_LOAD
	Type elf.ProgType
}

// Build returns an executable with one program header per segment.
func Build(entry uint32, segs ...Segment) []byte {
	ident := make([]byte, elf.EI_NIDENT)
	copy(ident, elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	hdr := &ehdr{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_386),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     ehdrSize,
		Ehsize:    ehdrSize,
		Phentsize: phdrSize,
		Phnum:     uint16(len(segs)),
	}
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, hdr, binary.LittleEndian); err != nil {
		panic(err)
	}
	off := uint32(ehdrSize + phdrSize*len(segs))
	for _, seg := range segs {
		ph := &phdr{
			Type:   uint32(elf.PT_LOAD),
			Off:    off,
			Vaddr:  seg.Addr,
			Paddr:  seg.Addr,
			Filesz: uint32(len(seg.Data)),
			Memsz:  seg.MemSize,
			Flags:  uint32(elf.PF_R | elf.PF_X),
			Align:  0x1000,
		}
		if seg.Type != 0 {
			ph.Type = uint32(seg.Type)
		}
		if ph.Memsz == 0 {
			ph.Memsz = ph.Filesz
		}
		if err := struc.PackWithOrder(&buf, ph, binary.LittleEndian); err != nil {
			panic(err)
		}
		off += uint32(len(seg.Data))
	}
	for _, seg := range segs {
		buf.Write(seg.Data)
	}
	return buf.Bytes()
}

// Program is a one segment executable at addr running from its first byte.
func Program(addr uint32, code []byte, bss uint32) []byte {
	return Build(addr, Segment{Addr: addr, Data: code, MemSize: uint32(len(code)) + bss})
}
