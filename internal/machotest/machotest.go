// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// Package machotest builds small Mach-O files for tests.
// It writes only the structures the readers in this module look at:
// a header, segment, UUID, and LC_ID_DYLIB load commands,
// section contents, and universal (fat) wrappers.
package machotest

import (
	"encoding/binary"
	"fmt"
)

// CPU type and subtype values used by tests.
const (
	CPUTypeI386   = 0x00000007
	CPUTypeX86_64 = 0x01000007
	CPUTypeARM    = 0x0000000c
	CPUTypeARM64  = 0x0100000c

	CPUSubtypeI386All   = 3
	CPUSubtypeX86_64All = 3
	CPUSubtypeARMV7     = 9
	CPUSubtypeARM64All  = 0

	// CPUSubtypeLib64 is the capability bit
	// set on the subtype of 64-bit executables.
	CPUSubtypeLib64 = 0x80000000
)

const (
	lcSegment   = 0x1
	lcIDDylib   = 0xd
	lcSegment64 = 0x19
	lcUUID      = 0x1b
	lcSymtab    = 0x2
)

// File describes a single-architecture Mach-O file.
type File struct {
	CPU        uint32
	CPUSubtype uint32
	// Is64 selects the 64-bit header and LC_SEGMENT_64 commands.
	Is64      bool
	BigEndian bool
	// FileType defaults to MH_DSYM (10).
	FileType uint32

	// UUIDs are written as LC_UUID commands in order.
	UUIDs [][16]byte
	// DylibNames are written as LC_ID_DYLIB commands in order.
	DylibNames []string
	Segments   []Segment
	// ExtraCommand, if true, adds an LC_SYMTAB command
	// that the readers are expected to pass over.
	ExtraCommand bool
}

// Segment describes a segment load command.
type Segment struct {
	Name     string
	Addr     uint64
	Size     uint64
	Sections []Section
}

// Section describes a section inside a [Segment].
// Segment defaults to the name of the enclosing segment.
type Section struct {
	Name    string
	Segment string
	Data    []byte
}

// Build serializes f.
func (f *File) Build() []byte {
	order := f.byteOrder()
	hdrSize := 28
	segSize, sectSize := 56, 68
	if f.Is64 {
		hdrSize = 32
		segSize, sectSize = 72, 80
	}

	// Lay out the load commands first
	// so section data can follow them.
	var ncmds, cmdsSize int
	for _, seg := range f.Segments {
		ncmds++
		cmdsSize += segSize + len(seg.Sections)*sectSize
	}
	ncmds += len(f.UUIDs)
	cmdsSize += 24 * len(f.UUIDs)
	for _, name := range f.DylibNames {
		ncmds++
		cmdsSize += dylibCommandSize(name)
	}
	if f.ExtraCommand {
		ncmds++
		cmdsSize += 24
	}

	dataOffset := hdrSize + cmdsSize
	buf := make([]byte, 0, dataOffset)

	// Header.
	fileType := f.FileType
	if fileType == 0 {
		fileType = 10
	}
	if f.Is64 {
		buf = order.AppendUint32(buf, 0xfeedfacf)
	} else {
		buf = order.AppendUint32(buf, 0xfeedface)
	}
	buf = order.AppendUint32(buf, f.CPU)
	buf = order.AppendUint32(buf, f.CPUSubtype)
	buf = order.AppendUint32(buf, fileType)
	buf = order.AppendUint32(buf, uint32(ncmds))
	buf = order.AppendUint32(buf, uint32(cmdsSize))
	buf = order.AppendUint32(buf, 0) // flags
	if f.Is64 {
		buf = order.AppendUint32(buf, 0) // reserved
	}

	var data []byte
	for _, seg := range f.Segments {
		segFileOff := uint64(dataOffset + len(data))
		var segFileSize uint64
		for _, sect := range seg.Sections {
			segFileSize += uint64(len(sect.Data))
		}
		if f.Is64 {
			buf = order.AppendUint32(buf, lcSegment64)
			buf = order.AppendUint32(buf, uint32(segSize+len(seg.Sections)*sectSize))
			buf = appendName(buf, seg.Name)
			buf = order.AppendUint64(buf, seg.Addr)
			buf = order.AppendUint64(buf, seg.Size)
			buf = order.AppendUint64(buf, segFileOff)
			buf = order.AppendUint64(buf, segFileSize)
		} else {
			buf = order.AppendUint32(buf, lcSegment)
			buf = order.AppendUint32(buf, uint32(segSize+len(seg.Sections)*sectSize))
			buf = appendName(buf, seg.Name)
			buf = order.AppendUint32(buf, uint32(seg.Addr))
			buf = order.AppendUint32(buf, uint32(seg.Size))
			buf = order.AppendUint32(buf, uint32(segFileOff))
			buf = order.AppendUint32(buf, uint32(segFileSize))
		}
		buf = order.AppendUint32(buf, 7) // maxprot
		buf = order.AppendUint32(buf, 5) // initprot
		buf = order.AppendUint32(buf, uint32(len(seg.Sections)))
		buf = order.AppendUint32(buf, 0) // flags

		for _, sect := range seg.Sections {
			segName := sect.Segment
			if segName == "" {
				segName = seg.Name
			}
			offset := uint32(dataOffset + len(data))
			data = append(data, sect.Data...)
			buf = appendName(buf, sect.Name)
			buf = appendName(buf, segName)
			if f.Is64 {
				buf = order.AppendUint64(buf, 0) // addr
				buf = order.AppendUint64(buf, uint64(len(sect.Data)))
			} else {
				buf = order.AppendUint32(buf, 0) // addr
				buf = order.AppendUint32(buf, uint32(len(sect.Data)))
			}
			buf = order.AppendUint32(buf, offset)
			buf = order.AppendUint32(buf, 0) // align
			buf = order.AppendUint32(buf, 0) // reloff
			buf = order.AppendUint32(buf, 0) // nreloc
			buf = order.AppendUint32(buf, 0) // flags
			buf = order.AppendUint32(buf, 0) // reserved1
			buf = order.AppendUint32(buf, 0) // reserved2
			if f.Is64 {
				buf = order.AppendUint32(buf, 0) // reserved3
			}
		}
	}
	for _, u := range f.UUIDs {
		buf = order.AppendUint32(buf, lcUUID)
		buf = order.AppendUint32(buf, 24)
		buf = append(buf, u[:]...)
	}
	for _, name := range f.DylibNames {
		size := dylibCommandSize(name)
		start := len(buf)
		buf = order.AppendUint32(buf, lcIDDylib)
		buf = order.AppendUint32(buf, uint32(size))
		buf = order.AppendUint32(buf, 24) // name offset
		buf = order.AppendUint32(buf, 2)  // timestamp
		buf = order.AppendUint32(buf, 0x10000)
		buf = order.AppendUint32(buf, 0x10000)
		buf = append(buf, name...)
		for len(buf)-start < size {
			buf = append(buf, 0)
		}
	}
	if f.ExtraCommand {
		buf = order.AppendUint32(buf, lcSymtab)
		buf = order.AppendUint32(buf, 24)
		buf = append(buf, make([]byte, 16)...)
	}
	if len(buf) != dataOffset {
		panic(fmt.Sprintf("machotest: load commands are %d bytes; expected %d", len(buf)-hdrSize, cmdsSize))
	}
	return append(buf, data...)
}

// appendByteOrder is implemented by [binary.LittleEndian] and [binary.BigEndian].
type appendByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (f *File) byteOrder() appendByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func dylibCommandSize(name string) int {
	n := 24 + len(name) + 1
	return (n + 7) &^ 7
}

func appendName(buf []byte, name string) []byte {
	if len(name) > 16 {
		panic("machotest: name too long: " + name)
	}
	var b [16]byte
	copy(b[:], name)
	return append(buf, b[:]...)
}

// Arch is one architecture in a universal file.
type Arch struct {
	CPU        uint32
	CPUSubtype uint32
	Data       []byte
}

// universalAlign is the log2 alignment of each architecture's image.
const universalAlign = 12

// Universal serializes a universal (fat) file containing the given architectures.
// If wide is true, the 64-bit header (FAT_MAGIC_64) is used.
func Universal(wide bool, arches ...Arch) []byte {
	entrySize := 20
	if wide {
		entrySize = 32
	}
	var buf []byte
	if wide {
		buf = binary.BigEndian.AppendUint32(buf, 0xcafebabf)
	} else {
		buf = binary.BigEndian.AppendUint32(buf, 0xcafebabe)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(arches)))

	offsets := make([]uint64, len(arches))
	next := alignUp(uint64(8+entrySize*len(arches)), universalAlign)
	for i, arch := range arches {
		offsets[i] = next
		next = alignUp(next+uint64(len(arch.Data)), universalAlign)
	}
	for i, arch := range arches {
		buf = binary.BigEndian.AppendUint32(buf, arch.CPU)
		buf = binary.BigEndian.AppendUint32(buf, arch.CPUSubtype)
		if wide {
			buf = binary.BigEndian.AppendUint64(buf, offsets[i])
			buf = binary.BigEndian.AppendUint64(buf, uint64(len(arch.Data)))
			buf = binary.BigEndian.AppendUint32(buf, universalAlign)
			buf = binary.BigEndian.AppendUint32(buf, 0) // reserved
		} else {
			buf = binary.BigEndian.AppendUint32(buf, uint32(offsets[i]))
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(arch.Data)))
			buf = binary.BigEndian.AppendUint32(buf, universalAlign)
		}
	}
	for i, arch := range arches {
		for uint64(len(buf)) < offsets[i] {
			buf = append(buf, 0)
		}
		buf = append(buf, arch.Data...)
	}
	return buf
}

// UniversalLayout returns the offset and size that [Universal]
// assigns to each architecture, in order.
func UniversalLayout(wide bool, arches ...Arch) (offsets, sizes []uint64) {
	entrySize := 20
	if wide {
		entrySize = 32
	}
	next := alignUp(uint64(8+entrySize*len(arches)), universalAlign)
	for _, arch := range arches {
		offsets = append(offsets, next)
		sizes = append(sizes, uint64(len(arch.Data)))
		next = alignUp(next+uint64(len(arch.Data)), universalAlign)
	}
	return offsets, sizes
}

func alignUp(n uint64, log2 uint) uint64 {
	mask := uint64(1)<<log2 - 1
	return (n + mask) &^ mask
}
