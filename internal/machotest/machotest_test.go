// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package machotest

import (
	"encoding/binary"
	"testing"
)

func TestFileBuildHeader(t *testing.T) {
	tests := []struct {
		name      string
		file      File
		order     binary.ByteOrder
		wantMagic uint32
		wantSize  int
	}{
		{
			name:      "LittleEndian64",
			file:      File{CPU: CPUTypeARM64, Is64: true, UUIDs: [][16]byte{{1}}},
			order:     binary.LittleEndian,
			wantMagic: 0xfeedfacf,
			wantSize:  32 + 24,
		},
		{
			name:      "BigEndian32",
			file:      File{CPU: CPUTypeARM, CPUSubtype: CPUSubtypeARMV7, BigEndian: true, ExtraCommand: true},
			order:     binary.BigEndian,
			wantMagic: 0xfeedface,
			wantSize:  28 + 24,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := test.file.Build()
			if len(data) != test.wantSize {
				t.Fatalf("len(Build()) = %d; want %d", len(data), test.wantSize)
			}
			if got := test.order.Uint32(data); got != test.wantMagic {
				t.Errorf("magic = %#x; want %#x", got, test.wantMagic)
			}
			if got := test.order.Uint32(data[4:]); got != test.file.CPU {
				t.Errorf("cputype = %#x; want %#x", got, test.file.CPU)
			}
			if got, want := test.order.Uint32(data[12:]), uint32(10); got != want {
				t.Errorf("filetype = %d; want %d", got, want)
			}
			if got, want := test.order.Uint32(data[16:]), uint32(1); got != want {
				t.Errorf("ncmds = %d; want %d", got, want)
			}
		})
	}
}

func TestFileBuildSectionData(t *testing.T) {
	payload := []byte("payload")
	f := &File{
		CPU:       CPUTypeX86_64,
		Is64:      true,
		BigEndian: true,
		Segments: []Segment{{
			Name:     "__DATA",
			Sections: []Section{{Name: "__data", Data: payload}},
		}},
	}
	data := f.Build()
	// Header, then LC_SEGMENT_64 with one section, then the section's bytes.
	const dataOffset = 32 + 72 + 80
	if len(data) != dataOffset+len(payload) {
		t.Fatalf("len(Build()) = %d; want %d", len(data), dataOffset+len(payload))
	}
	sectHeader := data[32+72:]
	if got := binary.BigEndian.Uint64(sectHeader[40:]); got != uint64(len(payload)) {
		t.Errorf("section size = %d; want %d", got, len(payload))
	}
	if got := binary.BigEndian.Uint32(sectHeader[48:]); got != dataOffset {
		t.Errorf("section offset = %d; want %d", got, dataOffset)
	}
	if got := string(data[dataOffset:]); got != string(payload) {
		t.Errorf("section data = %q; want %q", got, payload)
	}
}
