// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// Package macho decodes the parts of the Mach-O object file format
// needed to locate debug information:
// universal (fat) headers, single-architecture headers,
// and segment, UUID, and dylib load commands.
// Decoding works in place on a byte slice;
// decoded values that refer to file contents use offsets into that slice.
package macho

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Type is an enumeration of Mach-O file types.
type Type uint32

// Known Mach-O file types.
const (
	TypeObj    Type = 1
	TypeExec   Type = 2
	TypeDylib  Type = 6
	TypeBundle Type = 8
	TypeDSYM   Type = 10
)

// FileHeader represents a Mach-O single-architecture file header.
type FileHeader struct {
	ByteOrder    binary.ByteOrder
	AddressWidth int
	Type         Type
	CPU          CPUType
	CPUSubtype   CPUSubtype

	LoadCommandCount      uint32
	LoadCommandRegionSize uint32
}

// Arch returns the architecture the header declares.
func (hdr *FileHeader) Arch() Arch {
	return Arch{CPU: hdr.CPU, CPUSubtype: hdr.CPUSubtype}
}

// ParseFileHeader parses the header at the start of a Mach-O single architecture file.
// It also returns a [CommandReader],
// which can be used to iterate over the load commands in data.
func ParseFileHeader(data []byte) (*FileHeader, *CommandReader, error) {
	if len(data) < MagicNumberSize {
		return nil, nil, fmt.Errorf("parse mach-o header: %v", io.ErrUnexpectedEOF)
	}
	hdrSize := imageHeaderSize(magicNumber(data))
	if len(data) < hdrSize {
		return nil, nil, fmt.Errorf("parse mach-o header: %v", io.ErrUnexpectedEOF)
	}
	hdr := new(imageHeader)
	if err := hdr.UnmarshalBinary(data[:hdrSize]); err != nil {
		return nil, nil, err
	}
	result := &FileHeader{
		ByteOrder:             hdr.magic.byteOrder(),
		Type:                  hdr.fileType,
		CPU:                   CPUType(hdr.cpu),
		CPUSubtype:            CPUSubtype(hdr.cpuSubtype),
		LoadCommandCount:      hdr.loadCommandCount,
		LoadCommandRegionSize: hdr.loadCommandSize,
	}
	if hdr.magic.is64Bit() {
		result.AddressWidth = 64
	} else {
		result.AddressWidth = 32
	}
	commandReader := NewCommandReader(data[hdrSize:], hdr.loadCommandCount, hdr.loadCommandSize, result.ByteOrder)
	return result, commandReader, nil
}

const (
	minImageHeaderSize = 28
	maxImageHeaderSize = 32
)

type imageHeader struct {
	magic            magicNumber
	cpu              uint32
	cpuSubtype       uint32
	fileType         Type
	loadCommandCount uint32
	loadCommandSize  uint32
	flags            uint32
}

func imageHeaderSize(magic magicNumber) int {
	if !magic.is64Bit() {
		return minImageHeaderSize
	}
	return maxImageHeaderSize
}

func (hdr *imageHeader) UnmarshalBinary(data []byte) error {
	if len(data) < MagicNumberSize {
		return fmt.Errorf("parse mach-o header: %v", io.ErrUnexpectedEOF)
	}
	hdr.magic = magicNumber(data)
	byteOrder := hdr.magic.byteOrder()
	if byteOrder == nil {
		return fmt.Errorf("parse mach-o header: invalid magic number %x", hdr.magic[:])
	}
	if want := imageHeaderSize(hdr.magic); len(data) < want {
		return fmt.Errorf("parse mach-o header: %v", io.ErrUnexpectedEOF)
	} else if len(data) > want {
		return fmt.Errorf("parse mach-o header: trailing data")
	}
	hdr.cpu = byteOrder.Uint32(data[4:])
	hdr.cpuSubtype = byteOrder.Uint32(data[8:])
	hdr.fileType = Type(byteOrder.Uint32(data[12:]))
	hdr.loadCommandCount = byteOrder.Uint32(data[16:])
	hdr.loadCommandSize = byteOrder.Uint32(data[20:])
	hdr.flags = byteOrder.Uint32(data[24:])
	return nil
}
