// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package macho

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	universalHeaderFixedSize = 8
	maxUniversalEntries      = 128
)

// ParseUniversalHeader parses the Mach-O multi-architecture header
// at the start of data and all of its entries.
// data must be the whole file:
// every entry's byte range is checked against len(data).
func ParseUniversalHeader(data []byte) ([]UniversalFileEntry, error) {
	if len(data) < universalHeaderFixedSize {
		return nil, fmt.Errorf("parse universal mach-o header: %v", io.ErrUnexpectedEOF)
	}
	magic := magicNumber(data)
	if !magic.isUniversal() {
		if !magic.isLittleEndian() && !magic.isBigEndian() {
			return nil, fmt.Errorf("parse universal mach-o header: not a mach-o file")
		}
		return nil, fmt.Errorf("parse universal mach-o header: found single-architecture mach-o")
	}
	entryCount := binary.BigEndian.Uint32(data[4:])
	if entryCount == 0 {
		return nil, fmt.Errorf("parse universal mach-o header: empty")
	}
	if entryCount > maxUniversalEntries {
		return nil, fmt.Errorf("parse universal mach-o header: too many entries (%d)", entryCount)
	}

	entrySize := universalFileEntrySize
	if magic.isUniversal64() {
		entrySize = universalFileEntry64Size
	}
	entryData := data[universalHeaderFixedSize:]
	if int64(len(entryData)) < int64(entryCount)*int64(entrySize) {
		return nil, fmt.Errorf("parse universal mach-o header: %v", io.ErrUnexpectedEOF)
	}
	result := make([]UniversalFileEntry, entryCount)
	for i := range result {
		ent := &result[i]
		currData := entryData[i*entrySize : (i+1)*entrySize]
		var err error
		if magic.isUniversal64() {
			err = ent.unmarshal64(currData)
		} else {
			err = ent.UnmarshalBinary(currData)
		}
		if err != nil {
			return nil, fmt.Errorf("parse universal mach-o header: %v", err)
		}
		if end, ok := ent.end(); !ok || end > uint64(len(data)) {
			return nil, fmt.Errorf("parse universal mach-o header: entry %d (offset=%d size=%d) extends past end of file (%d bytes)",
				i, ent.Offset, ent.Size, len(data))
		}
	}
	return result, nil
}

const (
	universalFileEntrySize   = 20
	universalFileEntry64Size = 32
)

// UniversalFileEntry is a single record from a Mach-O multi-architecture file.
type UniversalFileEntry struct {
	CPU        CPUType
	CPUSubtype CPUSubtype
	// Offset is the offset in bytes from the beginning of the Mach-O file
	// that this image starts at.
	Offset uint64
	// Size is the size of the image in bytes.
	Size      uint64
	Alignment Alignment
}

// Arch returns the architecture of the entry.
func (ent *UniversalFileEntry) Arch() Arch {
	return Arch{CPU: ent.CPU, CPUSubtype: ent.CPUSubtype}
}

func (ent *UniversalFileEntry) end() (_ uint64, ok bool) {
	end := ent.Offset + ent.Size
	return end, end >= ent.Offset
}

// UnmarshalBinary unmarshals a 32-bit universal file entry in Mach-O format.
func (ent *UniversalFileEntry) UnmarshalBinary(data []byte) error {
	if len(data) < universalFileEntrySize {
		return fmt.Errorf("parse universal mach-o entry: %v", io.ErrUnexpectedEOF)
	}
	if len(data) > universalFileEntrySize {
		return fmt.Errorf("parse universal mach-o entry: trailing data")
	}
	ent.CPU = CPUType(binary.BigEndian.Uint32(data))
	ent.CPUSubtype = CPUSubtype(binary.BigEndian.Uint32(data[4:]))
	ent.Offset = uint64(binary.BigEndian.Uint32(data[8:]))
	ent.Size = uint64(binary.BigEndian.Uint32(data[12:]))
	ent.Alignment = Alignment(binary.BigEndian.Uint32(data[16:]))
	if _, ok := ent.Alignment.Bytes(); !ok {
		return fmt.Errorf("parse universal mach-o entry: alignment too large")
	}
	return nil
}

func (ent *UniversalFileEntry) unmarshal64(data []byte) error {
	if len(data) != universalFileEntry64Size {
		return fmt.Errorf("parse universal mach-o entry: %v", io.ErrUnexpectedEOF)
	}
	ent.CPU = CPUType(binary.BigEndian.Uint32(data))
	ent.CPUSubtype = CPUSubtype(binary.BigEndian.Uint32(data[4:]))
	ent.Offset = binary.BigEndian.Uint64(data[8:])
	ent.Size = binary.BigEndian.Uint64(data[16:])
	ent.Alignment = Alignment(binary.BigEndian.Uint32(data[24:]))
	if _, ok := ent.Alignment.Bytes(); !ok {
		return fmt.Errorf("parse universal mach-o entry: alignment too large")
	}
	return nil
}

// Alignment is a power-of-two alignment stored as its base-2 logarithm.
type Alignment uint32

// Bytes returns the alignment in bytes.
// ok is false if the alignment does not fit in 32 bits.
func (a Alignment) Bytes() (_ uint32, ok bool) {
	if a >= 32 {
		return 0, false
	}
	return 1 << a, true
}
