// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import (
	"debug/dwarf"
	"fmt"
	"strings"
)

// DWARF section names inside the __DWARF segment.
const (
	dwarfSegment       = "__DWARF"
	debugInfoSection   = "__debug_info"
	debugAbbrevSection = "__debug_abbrev"
	debugStrSection    = "__debug_str"
)

// CompilationDir returns the compilation directory (DW_AT_comp_dir)
// of the first compilation unit in the architecture named cpuName
// whose source path equals filename.
// cpuName is resolved as in [*Image.Arch],
// so capability bits in the image's CPU subtype do not prevent a match.
// A unit's source path is its DW_AT_name joined onto its compilation directory,
// unless DW_AT_name is already absolute.
// Units missing either attribute are skipped.
//
// CompilationDir returns an error wrapping [ErrNoSuchArch] if cpuName does not resolve,
// [ErrNoSuchSection] if the __debug_info, __debug_abbrev, or __debug_str section is absent,
// [ErrMalformedDebugData] if the DWARF data cannot be decoded,
// or [ErrNoSuchAttribute] if no unit matches.
func (img *Image) CompilationDir(cpuName, filename string) (string, error) {
	a, err := img.Arch(cpuName)
	if err != nil {
		return "", err
	}
	d, infoSize, err := a.dwarf()
	if err != nil {
		return "", fmt.Errorf("%s: %w", cpuName, err)
	}
	r := d.Reader()
	// Every entry, including a null entry, occupies at least one byte of __debug_info.
	// A unit that ends inside an abbreviation code makes Next
	// return empty entries without ever reporting an error.
	for n := 0; ; n++ {
		if n > infoSize {
			return "", fmt.Errorf("%s: %w: more entries than bytes in %s", cpuName, ErrMalformedDebugData, debugInfoSection)
		}
		e, err := r.Next()
		if err != nil {
			return "", fmt.Errorf("%s: %w: %w", cpuName, ErrMalformedDebugData, err)
		}
		if e == nil {
			break
		}
		if e.Tag != dwarf.TagCompileUnit {
			continue
		}
		compDir, ok := e.Val(dwarf.AttrCompDir).(string)
		if !ok {
			continue
		}
		name, ok := e.Val(dwarf.AttrName).(string)
		if !ok {
			continue
		}
		if joinSourcePath(compDir, name) == filename {
			return compDir, nil
		}
	}
	return "", fmt.Errorf("%s: compilation directory for %s: %w", cpuName, filename, ErrNoSuchAttribute)
}

// dwarf returns a decoder over the architecture's debug sections
// and the size of its __debug_info section.
// Sections are located before decoding,
// so a missing section is reported in preference to bad data.
func (a *Arch) dwarf() (_ *dwarf.Data, infoSize int, _ error) {
	info, err := a.section(dwarfSegment, debugInfoSection)
	if err != nil {
		return nil, 0, err
	}
	abbrev, err := a.section(dwarfSegment, debugAbbrevSection)
	if err != nil {
		return nil, 0, err
	}
	str, err := a.section(dwarfSegment, debugStrSection)
	if err != nil {
		return nil, 0, err
	}
	d, err := dwarf.New(abbrev, nil, nil, info, nil, nil, nil, str)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformedDebugData, err)
	}
	return d, len(info), nil
}

// joinSourcePath returns name if it is absolute
// or dir and name joined with a single slash otherwise.
// No other normalization is performed.
func joinSourcePath(dir, name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Reroot replaces the compDir prefix of filename with checkout.
// It reports false if filename is not inside compDir.
// Reroot is typically called with the result of [*Image.CompilationDir]
// to translate a path recorded at build time to a local source tree.
func Reroot(compDir, filename, checkout string) (string, bool) {
	rel, ok := strings.CutPrefix(filename, strings.TrimSuffix(compDir, "/"))
	if !ok || compDir == "" {
		return "", false
	}
	switch {
	case rel == "":
		return checkout, true
	case !strings.HasPrefix(rel, "/"):
		// compDir matched only part of a path component.
		return "", false
	}
	return joinSourcePath(checkout, rel[1:]), true
}
