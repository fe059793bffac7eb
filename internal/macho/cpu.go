// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:generate go tool stringer -type=CPUType -linecomment -output=cpu_string.go

package macho

// CPUType is an enumeration of instruction set architectures.
type CPUType uint32

// [CPUType] values defined by Mach-O file format.
const (
	CPUTypeVAX       CPUType = 0x00000001 // CPU_TYPE_VAX
	CPUTypeMC680x0   CPUType = 0x00000006 // CPU_TYPE_MC680x0
	CPUTypeI386      CPUType = 0x00000007 // CPU_TYPE_X86
	CPUTypeX86_64    CPUType = 0x01000007 // CPU_TYPE_X86_64
	CPUTypeMC98000   CPUType = 0x0000000a // CPU_TYPE_MC98000
	CPUTypeHPPA      CPUType = 0x0000000b // CPU_TYPE_HPPA
	CPUTypeARM       CPUType = 0x0000000c // CPU_TYPE_ARM
	CPUTypeARM64     CPUType = 0x0100000c // CPU_TYPE_ARM64
	CPUTypeARM64_32  CPUType = 0x0200000c // CPU_TYPE_ARM64_32
	CPUTypeMC88000   CPUType = 0x0000000d // CPU_TYPE_MC88000
	CPUTypeSPARC     CPUType = 0x0000000e // CPU_TYPE_SPARC
	CPUTypeI860      CPUType = 0x0000000f // CPU_TYPE_I860
	CPUTypePowerPC   CPUType = 0x00000012 // CPU_TYPE_POWERPC
	CPUTypePowerPC64 CPUType = 0x01000012 // CPU_TYPE_POWERPC64
)

// CPUSubtype is a machine-specific refinement of a [CPUType].
// The high byte holds capability bits
// (for example, CPU_SUBTYPE_LIB64 on x86_64 executables
// or the pointer authentication ABI version on arm64e)
// that do not change which architecture the image is built for.
type CPUSubtype uint32

// subtypeCapabilityMask is CPU_SUBTYPE_MASK.
const subtypeCapabilityMask CPUSubtype = 0xff000000

// Machine returns the subtype with the capability bits cleared.
func (st CPUSubtype) Machine() CPUSubtype {
	return st &^ subtypeCapabilityMask
}

// Arch is a (CPU type, CPU subtype) pair
// that identifies one architecture in a Mach-O file.
type Arch struct {
	CPU        CPUType
	CPUSubtype CPUSubtype
}

// Matches reports whether an image whose header declares other
// is built for the architecture a.
// Capability bits in other's subtype are ignored.
func (a Arch) Matches(other Arch) bool {
	return a.CPU == other.CPU && a.CPUSubtype.Machine() == other.CPUSubtype.Machine()
}

// archNames is the fixed table of architecture names.
// Every name maps to a distinct pair so that
// ArchName(ArchFromName(name)) == name for every entry.
var archNames = []struct {
	name string
	arch Arch
}{
	{"i386", Arch{CPUTypeI386, 3}},
	{"i486", Arch{CPUTypeI386, 4}},
	{"i486SX", Arch{CPUTypeI386, 0x84}},
	{"pentium", Arch{CPUTypeI386, 5}},
	{"pentpro", Arch{CPUTypeI386, 0x16}},
	{"pentIIm3", Arch{CPUTypeI386, 0x36}},
	{"pentIIm5", Arch{CPUTypeI386, 0x56}},
	{"pentium4", Arch{CPUTypeI386, 0x0a}},
	{"x86_64", Arch{CPUTypeX86_64, 3}},
	{"x86_64h", Arch{CPUTypeX86_64, 8}},
	{"arm", Arch{CPUTypeARM, 0}},
	{"armv4t", Arch{CPUTypeARM, 5}},
	{"armv6", Arch{CPUTypeARM, 6}},
	{"armv5", Arch{CPUTypeARM, 7}},
	{"xscale", Arch{CPUTypeARM, 8}},
	{"armv7", Arch{CPUTypeARM, 9}},
	{"armv7f", Arch{CPUTypeARM, 10}},
	{"armv7s", Arch{CPUTypeARM, 11}},
	{"armv7k", Arch{CPUTypeARM, 12}},
	{"armv8", Arch{CPUTypeARM, 13}},
	{"armv6m", Arch{CPUTypeARM, 14}},
	{"armv7m", Arch{CPUTypeARM, 15}},
	{"armv7em", Arch{CPUTypeARM, 16}},
	{"arm64", Arch{CPUTypeARM64, 0}},
	{"arm64v8", Arch{CPUTypeARM64, 1}},
	{"arm64e", Arch{CPUTypeARM64, 2}},
	{"arm64_32", Arch{CPUTypeARM64_32, 1}},
	{"ppc", Arch{CPUTypePowerPC, 0}},
	{"ppc601", Arch{CPUTypePowerPC, 1}},
	{"ppc603", Arch{CPUTypePowerPC, 3}},
	{"ppc604", Arch{CPUTypePowerPC, 6}},
	{"ppc750", Arch{CPUTypePowerPC, 9}},
	{"ppc7400", Arch{CPUTypePowerPC, 10}},
	{"ppc7450", Arch{CPUTypePowerPC, 11}},
	{"ppc970", Arch{CPUTypePowerPC, 100}},
	{"ppc64", Arch{CPUTypePowerPC64, 0}},
	{"ppc970-64", Arch{CPUTypePowerPC64, 100}},
	{"m68k", Arch{CPUTypeMC680x0, 1}},
	{"m68030", Arch{CPUTypeMC680x0, 3}},
	{"m68040", Arch{CPUTypeMC680x0, 2}},
	{"hppa", Arch{CPUTypeHPPA, 0}},
	{"hppa7100LC", Arch{CPUTypeHPPA, 1}},
	{"m88k", Arch{CPUTypeMC88000, 0}},
	{"sparc", Arch{CPUTypeSPARC, 0}},
	{"i860", Arch{CPUTypeI860, 0}},
}

// ArchFromName returns the architecture with the given name
// (for example "x86_64" or "armv7").
// Names are case-sensitive.
func ArchFromName(name string) (_ Arch, ok bool) {
	for _, ent := range archNames {
		if ent.name == name {
			return ent.arch, true
		}
	}
	return Arch{}, false
}

// ArchName returns the name of the architecture a.
// Capability bits in a's subtype are ignored.
func ArchName(a Arch) (_ string, ok bool) {
	for _, ent := range archNames {
		if ent.arch.Matches(a) {
			return ent.name, true
		}
	}
	return "", false
}

// ArchNames returns the names of all known architectures
// in table order.
func ArchNames() []string {
	names := make([]string, 0, len(archNames))
	for _, ent := range archNames {
		names = append(names, ent.name)
	}
	return names
}
