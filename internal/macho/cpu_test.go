// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package macho

import "testing"

func TestArchNameRoundTrip(t *testing.T) {
	for _, name := range ArchNames() {
		arch, ok := ArchFromName(name)
		if !ok {
			t.Errorf("ArchFromName(%q) not found", name)
			continue
		}
		if got, ok := ArchName(arch); !ok || got != name {
			t.Errorf("ArchName(ArchFromName(%q)) = %q, %t; want %q, true", name, got, ok, name)
		}
	}
}

func TestArchName(t *testing.T) {
	tests := []struct {
		arch   Arch
		want   string
		wantOK bool
	}{
		{arch: Arch{CPUTypeARM, 9}, want: "armv7", wantOK: true},
		{arch: Arch{CPUTypeX86_64, 3}, want: "x86_64", wantOK: true},
		{arch: Arch{CPUTypeX86_64, 0x80000003}, want: "x86_64", wantOK: true},
		{arch: Arch{CPUTypeARM64, 0}, want: "arm64", wantOK: true},
		{arch: Arch{CPUTypeARM64, 0x80000002}, want: "arm64e", wantOK: true},
		{arch: Arch{CPUTypeI386, 3}, want: "i386", wantOK: true},
		{arch: Arch{CPUTypeVAX, 0}, wantOK: false},
		{arch: Arch{CPUTypeARM64, 42}, wantOK: false},
	}
	for _, test := range tests {
		got, ok := ArchName(test.arch)
		if got != test.want || ok != test.wantOK {
			t.Errorf("ArchName(%v) = %q, %t; want %q, %t", test.arch, got, ok, test.want, test.wantOK)
		}
	}
}

func TestArchFromNameUnknown(t *testing.T) {
	for _, name := range []string{"", "X86_64", "amd64", "aarch64", "arm64 "} {
		if arch, ok := ArchFromName(name); ok {
			t.Errorf("ArchFromName(%q) = %v, true; want _, false", name, arch)
		}
	}
}

func TestCPUTypeString(t *testing.T) {
	if got, want := CPUTypeARM64.String(), "CPU_TYPE_ARM64"; got != want {
		t.Errorf("CPUTypeARM64.String() = %q; want %q", got, want)
	}
	if got, want := CPUType(3).String(), "CPUType(3)"; got != want {
		t.Errorf("CPUType(3).String() = %q; want %q", got, want)
	}
}
