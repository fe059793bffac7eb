// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:generate go tool stringer -type=LoadCmd -linecomment -output=load_command_string.go

package macho

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const loadCommandFixedSize = 8

// LoadCmd is an enumeration of load command types.
type LoadCmd uint32

const (
	LoadCmdSegment        LoadCmd = 0x1        // LC_SEGMENT
	LoadCmdSymtab         LoadCmd = 0x2        // LC_SYMTAB
	LoadCmdThread         LoadCmd = 0x4        // LC_THREAD
	LoadCmdUnixThread     LoadCmd = 0x5        // LC_UNIXTHREAD
	LoadCmdDysymtab       LoadCmd = 0xb        // LC_DYSYMTAB
	LoadCmdLoadDylib      LoadCmd = 0xc        // LC_LOAD_DYLIB
	LoadCmdIDDylib        LoadCmd = 0xd        // LC_ID_DYLIB
	LoadCmdLoadDylinker   LoadCmd = 0xe        // LC_LOAD_DYLINKER
	LoadCmdIDDylinker     LoadCmd = 0xf        // LC_ID_DYLINKER
	LoadCmdSegment64      LoadCmd = 0x19       // LC_SEGMENT_64
	LoadCmdUUID           LoadCmd = 0x1b       // LC_UUID
	LoadCmdLoadWeakDylib  LoadCmd = 0x80000018 // LC_LOAD_WEAK_DYLIB
	LoadCmdRPath          LoadCmd = 0x8000001c // LC_RPATH
	LoadCmdCodeSignature  LoadCmd = 0x1d       // LC_CODE_SIGNATURE
	LoadCmdReexportDylib  LoadCmd = 0x8000001f // LC_REEXPORT_DYLIB
	LoadCmdSourceVersion  LoadCmd = 0x2a       // LC_SOURCE_VERSION
	LoadCmdDyldInfo       LoadCmd = 0x22       // LC_DYLD_INFO
	LoadCmdDyldInfoOnly   LoadCmd = 0x80000022 // LC_DYLD_INFO_ONLY
	LoadCmdFunctionStarts LoadCmd = 0x26       // LC_FUNCTION_STARTS
	LoadCmdDataInCode     LoadCmd = 0x29       // LC_DATA_IN_CODE
	LoadCmdMain           LoadCmd = 0x80000028 // LC_MAIN
	LoadCmdBuildVersion   LoadCmd = 0x32       // LC_BUILD_VERSION
)

// A CommandReader iterates over the Mach-O load commands
// stored in a byte slice.
// The commands are not copied:
// [*CommandReader.Data] returns a sub-slice of the buffer
// passed to [NewCommandReader].
type CommandReader struct {
	data              []byte
	remainingCommands uint32
	byteOrder         binary.ByteOrder

	// curr is the current command, including its 8-byte prefix.
	curr []byte
	// offset is the position in data just past curr.
	offset int
	err    error
}

// NewCommandReader returns a reader for the n load commands
// in the region at the start of data.
// size is the declared size of the region (sizeofcmds)
// and must not exceed len(data).
func NewCommandReader(data []byte, n uint32, size uint32, byteOrder binary.ByteOrder) *CommandReader {
	switch {
	case int64(size) > int64(len(data)):
		return &CommandReader{err: fmt.Errorf("read mach-o load command: declared size (%d) exceeds file (%d bytes)", size, len(data))}
	case n == 0 && size != 0:
		return &CommandReader{err: errCommandTrailingData}
	case n > 0 && int64(size) < int64(n)*loadCommandFixedSize:
		return &CommandReader{err: fmt.Errorf("read mach-o load command: declared size (%d) too small for number of commands (%d)", size, n)}
	}
	return &CommandReader{
		data:              data[:size],
		remainingCommands: n,
		byteOrder:         byteOrder,
	}
}

// Err returns the first error encountered by r.
func (r *CommandReader) Err() error {
	return r.err
}

// Next advances r to the next load command,
// which will then be available through [*CommandReader.Data].
// It returns false when there are no more load commands,
// either by reaching the end of the input or an error.
// After Next returns false,
// the [*CommandReader.Err] method will return any error that occurred during scanning.
func (r *CommandReader) Next() bool {
	r.curr = nil
	if r.err != nil {
		return false
	}

	// Was this the last command?
	if r.remainingCommands == 0 {
		if r.offset < len(r.data) {
			r.err = errCommandTrailingData
		}
		return false
	}

	// Are there enough bytes for another load command?
	rest := r.data[r.offset:]
	if len(rest) < loadCommandFixedSize {
		r.err = errCommandSizeTooLarge
		return false
	}
	size := r.byteOrder.Uint32(rest[4:])
	switch {
	case size < loadCommandFixedSize:
		r.err = errCommandSizeTooSmall
		return false
	case int64(size) > int64(len(rest)):
		r.err = errCommandSizeTooLarge
		return false
	}

	r.remainingCommands--
	r.curr = rest[:size]
	r.offset += int(size)
	return true
}

// Command returns the type of the current command.
// ok is false if [*CommandReader.Next] has not returned true.
func (r *CommandReader) Command() (_ LoadCmd, ok bool) {
	if r.curr == nil {
		return 0, false
	}
	return LoadCmd(r.byteOrder.Uint32(r.curr)), true
}

// Size returns the total size of the current command in bytes.
// Size will never return a value less than 8 (the fixed base size of a command).
func (r *CommandReader) Size() (_ uint32, ok bool) {
	if r.curr == nil {
		return loadCommandFixedSize, false
	}
	return uint32(len(r.curr)), true
}

// Data returns the bytes of the current command,
// including the command type and size.
func (r *CommandReader) Data() []byte {
	return r.curr
}

var (
	errCommandSizeTooSmall = errors.New("read mach-o load command: invalid size for command")
	errCommandSizeTooLarge = errors.New("read mach-o load command: command array larger than declared size")
	errCommandTrailingData = errors.New("read mach-o load command: command array smaller than declared size")
)
