// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package macho

import "encoding/binary"

// MagicNumberSize is the size (in bytes) of the magic number at the start of the Mach-O file.
const MagicNumberSize = 4

type magicNumber [MagicNumberSize]byte

func (magic magicNumber) isUniversal() bool {
	return magic.isUniversal32() || magic.isUniversal64()
}

func (magic magicNumber) isUniversal32() bool {
	return magic == magicNumber{0xca, 0xfe, 0xba, 0xbe}
}

// isUniversal64 reports whether magic is FAT_MAGIC_64,
// which uses 64-bit offsets and sizes in its architecture table.
func (magic magicNumber) isUniversal64() bool {
	return magic == magicNumber{0xca, 0xfe, 0xba, 0xbf}
}

func (magic magicNumber) isBigEndian() bool {
	return magic[0] == 0xfe &&
		magic[1] == 0xed &&
		magic[2] == 0xfa &&
		(magic[3] == 0xce || magic[3] == 0xcf)
}

func (magic magicNumber) isLittleEndian() bool {
	return magic[3] == 0xfe &&
		magic[2] == 0xed &&
		magic[1] == 0xfa &&
		(magic[0] == 0xce || magic[0] == 0xcf)
}

func (magic magicNumber) byteOrder() binary.ByteOrder {
	switch {
	case magic.isBigEndian():
		return binary.BigEndian
	case magic.isLittleEndian():
		return binary.LittleEndian
	default:
		return nil
	}
}

func (magic magicNumber) is64Bit() bool {
	return magic == magicNumber{0xfe, 0xed, 0xfa, 0xcf} ||
		magic == magicNumber{0xcf, 0xfa, 0xed, 0xfe}
}

// IsSingleArchitecture reports whether head starts with the Mach-O magic number
// for a single-architecture Mach-O file.
// IsSingleArchitecture will always report false if len(head) < [MagicNumberSize].
func IsSingleArchitecture(head []byte) bool {
	if len(head) < MagicNumberSize {
		return false
	}
	magic := magicNumber(head)
	return magic.isLittleEndian() || magic.isBigEndian()
}

// IsUniversal reports whether head starts with the Mach-O magic number
// for a multi-architecture Mach-O file (32-bit or 64-bit table).
// IsUniversal will always report false if len(head) < [MagicNumberSize].
func IsUniversal(head []byte) bool {
	if len(head) < MagicNumberSize {
		return false
	}
	return magicNumber(head).isUniversal()
}
