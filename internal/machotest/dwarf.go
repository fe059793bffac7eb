// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package machotest

import (
	"encoding/binary"
)

// CompileUnit describes a DWARF compilation unit.
// An empty CompDir omits the DW_AT_comp_dir attribute.
type CompileUnit struct {
	Name      string
	CompDir   string
	Functions []string
}

// DWARF abbreviation codes written by [DWARF].
const (
	abbrevCompileUnit        = 1
	abbrevSubprogram         = 2
	abbrevCompileUnitNoDir   = 3
	dwTagCompileUnit         = 0x11
	dwTagSubprogram          = 0x2e
	dwAtName                 = 0x03
	dwAtCompDir              = 0x1b
	dwFormStrp               = 0x0e
	dwChildrenYes            = 1
	dwChildrenNo             = 0
	dwarfVersion             = 4
	dwarfAddressSize         = 8
	dwarfUnitHeaderAfterSize = 2 + 4 + 1
)

// DWARF encodes the units as version 4, 32-bit DWARF
// and returns the contents of the
// __debug_info, __debug_abbrev, and __debug_str sections.
// Every unit shares the abbreviation table at offset 0.
func DWARF(units ...CompileUnit) (info, abbrev, str []byte) {
	abbrev = appendULEB(abbrev, abbrevCompileUnit)
	abbrev = appendULEB(abbrev, dwTagCompileUnit)
	abbrev = append(abbrev, dwChildrenYes)
	abbrev = appendAttrSpec(abbrev, dwAtName, dwFormStrp)
	abbrev = appendAttrSpec(abbrev, dwAtCompDir, dwFormStrp)
	abbrev = appendAttrSpec(abbrev, 0, 0)

	abbrev = appendULEB(abbrev, abbrevSubprogram)
	abbrev = appendULEB(abbrev, dwTagSubprogram)
	abbrev = append(abbrev, dwChildrenNo)
	abbrev = appendAttrSpec(abbrev, dwAtName, dwFormStrp)
	abbrev = appendAttrSpec(abbrev, 0, 0)

	abbrev = appendULEB(abbrev, abbrevCompileUnitNoDir)
	abbrev = appendULEB(abbrev, dwTagCompileUnit)
	abbrev = append(abbrev, dwChildrenYes)
	abbrev = appendAttrSpec(abbrev, dwAtName, dwFormStrp)
	abbrev = appendAttrSpec(abbrev, 0, 0)

	abbrev = append(abbrev, 0)

	str = []byte{0}
	addString := func(s string) uint32 {
		off := uint32(len(str))
		str = append(str, s...)
		str = append(str, 0)
		return off
	}

	order := binary.LittleEndian
	for _, u := range units {
		var body []byte
		if u.CompDir == "" {
			body = appendULEB(body, abbrevCompileUnitNoDir)
			body = order.AppendUint32(body, addString(u.Name))
		} else {
			body = appendULEB(body, abbrevCompileUnit)
			body = order.AppendUint32(body, addString(u.Name))
			body = order.AppendUint32(body, addString(u.CompDir))
		}
		for _, fn := range u.Functions {
			body = appendULEB(body, abbrevSubprogram)
			body = order.AppendUint32(body, addString(fn))
		}
		body = append(body, 0) // end of children

		info = order.AppendUint32(info, uint32(dwarfUnitHeaderAfterSize+len(body)))
		info = order.AppendUint16(info, dwarfVersion)
		info = order.AppendUint32(info, 0) // abbrev offset
		info = append(info, dwarfAddressSize)
		info = append(info, body...)
	}
	return info, abbrev, str
}

// DWARFSegment returns a __DWARF segment holding the given units.
func DWARFSegment(units ...CompileUnit) Segment {
	info, abbrev, str := DWARF(units...)
	return Segment{
		Name: "__DWARF",
		Sections: []Section{
			{Name: "__debug_info", Data: info},
			{Name: "__debug_abbrev", Data: abbrev},
			{Name: "__debug_str", Data: str},
		},
	}
}

func appendAttrSpec(buf []byte, attr, form uint64) []byte {
	buf = appendULEB(buf, attr)
	return appendULEB(buf, form)
}

func appendULEB(buf []byte, x uint64) []byte {
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
