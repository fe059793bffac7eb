// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// A LoadCommand is a decoded Mach-O load command.
// The concrete type is one of
// [*Segment], [*UUIDCommand], [*DylibCommand], or [*RawCommand].
type LoadCommand interface {
	Command() LoadCmd
}

// Segment is an LC_SEGMENT or LC_SEGMENT_64 load command.
// Both encodings decode to the same type;
// the 32-bit fields are widened.
type Segment struct {
	Cmd      LoadCmd
	Name     string
	Addr     uint64
	Memsz    uint64
	Offset   uint64
	Filesz   uint64
	MaxProt  uint32
	InitProt uint32
	Flags    uint32
	Sections []Section
}

// Command returns [LoadCmdSegment] or [LoadCmdSegment64].
func (seg *Segment) Command() LoadCmd { return seg.Cmd }

// Is64Bit reports whether seg was decoded from an LC_SEGMENT_64 command.
func (seg *Segment) Is64Bit() bool { return seg.Cmd == LoadCmdSegment64 }

// Section is a section header inside a [Segment].
type Section struct {
	Name    string
	Segment string
	Addr    uint64
	Size    uint64
	// Offset is the offset in bytes from the beginning
	// of the single-architecture file.
	Offset uint32
	Align  uint32
	Flags  uint32
}

// UUIDCommand is an LC_UUID load command.
type UUIDCommand struct {
	UUID uuid.UUID
}

// Command returns [LoadCmdUUID].
func (*UUIDCommand) Command() LoadCmd { return LoadCmdUUID }

// DylibCommand is a load command that names a dynamic library:
// LC_ID_DYLIB, LC_LOAD_DYLIB, LC_LOAD_WEAK_DYLIB, or LC_REEXPORT_DYLIB.
type DylibCommand struct {
	Cmd                  LoadCmd
	Name                 string
	Timestamp            uint32
	CurrentVersion       uint32
	CompatibilityVersion uint32
}

// Command returns the command type.
func (d *DylibCommand) Command() LoadCmd { return d.Cmd }

// RawCommand is a load command this package does not decode.
// Data aliases the file's bytes and includes the 8-byte command prefix.
type RawCommand struct {
	Cmd  LoadCmd
	Data []byte
}

// Command returns the command type.
func (raw *RawCommand) Command() LoadCmd { return raw.Cmd }

const (
	segmentCommandSize   = 56
	segment64CommandSize = 72
	sectionSize          = 68
	section64Size        = 80
	uuidCommandSize      = 24
	dylibCommandSize     = 24
)

// decodeCommand decodes a single load command.
// data must include the 8-byte command prefix.
func decodeCommand(data []byte, byteOrder binary.ByteOrder) (LoadCommand, error) {
	cmd := LoadCmd(byteOrder.Uint32(data))
	switch cmd {
	case LoadCmdSegment, LoadCmdSegment64:
		seg, err := decodeSegment(cmd, data, byteOrder)
		if err != nil {
			return nil, fmt.Errorf("parse %v: %v", cmd, err)
		}
		return seg, nil
	case LoadCmdUUID:
		if len(data) < uuidCommandSize {
			return nil, fmt.Errorf("parse %v: command too small (%d bytes)", cmd, len(data))
		}
		u := new(UUIDCommand)
		copy(u.UUID[:], data[8:uuidCommandSize])
		return u, nil
	case LoadCmdIDDylib, LoadCmdLoadDylib, LoadCmdLoadWeakDylib, LoadCmdReexportDylib:
		d, err := decodeDylib(cmd, data, byteOrder)
		if err != nil {
			return nil, fmt.Errorf("parse %v: %v", cmd, err)
		}
		return d, nil
	default:
		return &RawCommand{Cmd: cmd, Data: data}, nil
	}
}

func decodeSegment(cmd LoadCmd, data []byte, byteOrder binary.ByteOrder) (*Segment, error) {
	seg := &Segment{Cmd: cmd}
	var nsects uint32
	var sectData []byte
	if cmd == LoadCmdSegment64 {
		if len(data) < segment64CommandSize {
			return nil, fmt.Errorf("command too small (%d bytes)", len(data))
		}
		seg.Name = cstring(data[8:24])
		seg.Addr = byteOrder.Uint64(data[24:])
		seg.Memsz = byteOrder.Uint64(data[32:])
		seg.Offset = byteOrder.Uint64(data[40:])
		seg.Filesz = byteOrder.Uint64(data[48:])
		seg.MaxProt = byteOrder.Uint32(data[56:])
		seg.InitProt = byteOrder.Uint32(data[60:])
		nsects = byteOrder.Uint32(data[64:])
		seg.Flags = byteOrder.Uint32(data[68:])
		sectData = data[segment64CommandSize:]
	} else {
		if len(data) < segmentCommandSize {
			return nil, fmt.Errorf("command too small (%d bytes)", len(data))
		}
		seg.Name = cstring(data[8:24])
		seg.Addr = uint64(byteOrder.Uint32(data[24:]))
		seg.Memsz = uint64(byteOrder.Uint32(data[28:]))
		seg.Offset = uint64(byteOrder.Uint32(data[32:]))
		seg.Filesz = uint64(byteOrder.Uint32(data[36:]))
		seg.MaxProt = byteOrder.Uint32(data[40:])
		seg.InitProt = byteOrder.Uint32(data[44:])
		nsects = byteOrder.Uint32(data[48:])
		seg.Flags = byteOrder.Uint32(data[52:])
		sectData = data[segmentCommandSize:]
	}

	size := sectionSize
	if seg.Is64Bit() {
		size = section64Size
	}
	if int64(nsects)*int64(size) > int64(len(sectData)) {
		return nil, fmt.Errorf("segment %s: %d sections do not fit in command", seg.Name, nsects)
	}
	seg.Sections = make([]Section, nsects)
	for i := range seg.Sections {
		seg.Sections[i] = decodeSection(sectData[i*size:(i+1)*size], seg.Is64Bit(), byteOrder)
	}
	return seg, nil
}

func decodeSection(data []byte, is64 bool, byteOrder binary.ByteOrder) Section {
	sect := Section{
		Name:    cstring(data[0:16]),
		Segment: cstring(data[16:32]),
	}
	rest := data[32:]
	if is64 {
		sect.Addr = byteOrder.Uint64(rest[0:])
		sect.Size = byteOrder.Uint64(rest[8:])
		rest = rest[16:]
	} else {
		sect.Addr = uint64(byteOrder.Uint32(rest[0:]))
		sect.Size = uint64(byteOrder.Uint32(rest[4:]))
		rest = rest[8:]
	}
	sect.Offset = byteOrder.Uint32(rest[0:])
	sect.Align = byteOrder.Uint32(rest[4:])
	sect.Flags = byteOrder.Uint32(rest[16:])
	return sect
}

func decodeDylib(cmd LoadCmd, data []byte, byteOrder binary.ByteOrder) (*DylibCommand, error) {
	if len(data) < dylibCommandSize {
		return nil, fmt.Errorf("command too small (%d bytes)", len(data))
	}
	nameOffset := byteOrder.Uint32(data[8:])
	if nameOffset < dylibCommandSize || int64(nameOffset) > int64(len(data)) {
		return nil, fmt.Errorf("name offset %d out of range", nameOffset)
	}
	return &DylibCommand{
		Cmd:                  cmd,
		Name:                 cstring(data[nameOffset:]),
		Timestamp:            byteOrder.Uint32(data[12:]),
		CurrentVersion:       byteOrder.Uint32(data[16:]),
		CompatibilityVersion: byteOrder.Uint32(data[20:]),
	}, nil
}

// cstring returns the bytes of b up to the first NUL byte as a string.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
