// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import (
	"fmt"

	"zb.256lights.llc/dsym/internal/macho"
)

// Unknown is the name reported for an architecture or module
// that cannot be identified.
const Unknown = "<unknown>"

// Arch is one architecture inside an [Image].
// A single-architecture image has exactly one Arch
// that spans the whole file.
type Arch struct {
	CPUType    int32
	CPUSubtype int32
	// Offset and Size locate the architecture's Mach-O image
	// within the file, in bytes.
	Offset uint64
	Size   uint64

	arch macho.Arch
	data []byte
	file *macho.File
}

// Name returns the architecture's name (like "arm64")
// or [Unknown] if the CPU type and subtype are not in the name table.
func (a *Arch) Name() string {
	name, err := CPUName(a.CPUType, a.CPUSubtype)
	if err != nil {
		return Unknown
	}
	return name
}

// Arches returns the image's architectures
// in the order they appear in the file.
func (img *Image) Arches() ([]*Arch, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	return append([]*Arch(nil), img.arches...), nil
}

// Arch returns the first architecture in the image with the given name.
// The CPU type must match exactly,
// but the capability bits in the high byte of the CPU subtype are ignored:
// an x86_64 image whose subtype carries CPU_SUBTYPE_LIB64 (0x80000003)
// resolves as "x86_64" rather than failing an exact pair comparison.
// For universal files, the pair recorded in the universal header is used.
// It returns an error wrapping [ErrNoSuchArch]
// if the name is not recognized
// or the image does not contain that architecture.
func (img *Image) Arch(cpuName string) (*Arch, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	want, ok := macho.ArchFromName(cpuName)
	if !ok {
		return nil, fmt.Errorf("find architecture %q: %w", cpuName, ErrNoSuchArch)
	}
	for _, a := range img.arches {
		if want.Matches(a.arch) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("find architecture %q: %w", cpuName, ErrNoSuchArch)
}

// CPUType returns the Mach-O CPU type and subtype for an architecture name.
// It returns an error wrapping [ErrNoSuchArch] if the name is not recognized.
func CPUType(name string) (cputype, cpusubtype int32, err error) {
	arch, ok := macho.ArchFromName(name)
	if !ok {
		return 0, 0, fmt.Errorf("cpu type for %q: %w", name, ErrNoSuchArch)
	}
	return int32(arch.CPU), int32(arch.CPUSubtype), nil
}

// CPUName returns the architecture name for a Mach-O CPU type and subtype.
// Capability bits in the high byte of the subtype are ignored.
// It returns an error wrapping [ErrNoSuchArch] if the pair is not recognized.
func CPUName(cputype, cpusubtype int32) (string, error) {
	name, ok := macho.ArchName(macho.Arch{
		CPU:        macho.CPUType(cputype),
		CPUSubtype: macho.CPUSubtype(cpusubtype),
	})
	if !ok {
		return "", fmt.Errorf("cpu name for (%d, %d): %w", cputype, cpusubtype, ErrNoSuchArch)
	}
	return name, nil
}

// IsValidCPUName reports whether name is a recognized architecture name.
func IsValidCPUName(name string) bool {
	_, ok := macho.ArchFromName(name)
	return ok
}

// CPUNames returns every recognized architecture name.
func CPUNames() []string {
	return macho.ArchNames()
}
