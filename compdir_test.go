// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"zb.256lights.llc/dsym/internal/machotest"
)

func TestCompilationDir(t *testing.T) {
	img := mustNewImage(t, thinX86(
		machotest.CompileUnit{Name: "noattr.c"},
		machotest.CompileUnit{Name: "main.c", CompDir: "/build/src", Functions: []string{"main", "usage"}},
		machotest.CompileUnit{Name: "/abs/lib.c", CompDir: "/build/other"},
		machotest.CompileUnit{Name: "util.c", CompDir: "/build/trailing/"},
		machotest.CompileUnit{Name: "main.c", CompDir: "/build/src", Functions: []string{"shadowed"}},
		machotest.CompileUnit{Name: "dup.c", CompDir: "/first"},
		machotest.CompileUnit{Name: "/first/dup.c", CompDir: "/second"},
	))

	tests := []struct {
		filename string
		want     string
		wantErr  error
	}{
		{filename: "/build/src/main.c", want: "/build/src"},
		{filename: "/abs/lib.c", want: "/build/other"},
		{filename: "/build/trailing/util.c", want: "/build/trailing/"},
		{filename: "/first/dup.c", want: "/first"},
		{filename: "/build/src/other.c", wantErr: ErrNoSuchAttribute},
		{filename: "main.c", wantErr: ErrNoSuchAttribute},
		{filename: "/build/other/abs/lib.c", wantErr: ErrNoSuchAttribute},
		{filename: "noattr.c", wantErr: ErrNoSuchAttribute},
		{filename: "/build/trailing//util.c", wantErr: ErrNoSuchAttribute},
	}
	for _, test := range tests {
		got, err := img.CompilationDir("x86_64", test.filename)
		if test.wantErr != nil {
			if !errors.Is(err, test.wantErr) {
				t.Errorf("CompilationDir(\"x86_64\", %q) = %q, %v; want _, %v", test.filename, got, err, test.wantErr)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("CompilationDir(\"x86_64\", %q) = %q, %v; want %q, <nil>", test.filename, got, err, test.want)
		}
	}
}

func TestCompilationDirIdempotent(t *testing.T) {
	img := mustNewImage(t, thinARM64(
		machotest.CompileUnit{Name: "main.c", CompDir: "/build/src"},
	))
	for i := range 3 {
		got, err := img.CompilationDir("arm64", "/build/src/main.c")
		if err != nil || got != "/build/src" {
			t.Errorf("CompilationDir call #%d = %q, %v; want \"/build/src\", <nil>", i+1, got, err)
		}
	}
}

func TestCompilationDirUniversal(t *testing.T) {
	data := machotest.Universal(false,
		machotest.Arch{
			CPU:        machotest.CPUTypeX86_64,
			CPUSubtype: machotest.CPUSubtypeX86_64All,
			Data:       thinX86(machotest.CompileUnit{Name: "main.c", CompDir: "/x86/build"}),
		},
		machotest.Arch{
			CPU:        machotest.CPUTypeARM64,
			CPUSubtype: machotest.CPUSubtypeARM64All,
			Data:       thinARM64(machotest.CompileUnit{Name: "main.c", CompDir: "/arm/build"}),
		},
	)
	img := mustNewImage(t, data)
	tests := []struct {
		cpuName  string
		filename string
		want     string
	}{
		{cpuName: "x86_64", filename: "/x86/build/main.c", want: "/x86/build"},
		{cpuName: "arm64", filename: "/arm/build/main.c", want: "/arm/build"},
	}
	for _, test := range tests {
		got, err := img.CompilationDir(test.cpuName, test.filename)
		if err != nil || got != test.want {
			t.Errorf("CompilationDir(%q, %q) = %q, %v; want %q, <nil>", test.cpuName, test.filename, got, err, test.want)
		}
	}
	if _, err := img.CompilationDir("x86_64", "/arm/build/main.c"); !errors.Is(err, ErrNoSuchAttribute) {
		t.Errorf("CompilationDir(\"x86_64\", \"/arm/build/main.c\") error = %v; want %v", err, ErrNoSuchAttribute)
	}
}

func TestCompilationDirErrors(t *testing.T) {
	withDWARF := thinX86(machotest.CompileUnit{Name: "main.c", CompDir: "/build/src"})

	t.Run("UnknownArch", func(t *testing.T) {
		img := mustNewImage(t, withDWARF)
		_, err := img.CompilationDir("bogus", "/build/src/main.c")
		if !errors.Is(err, ErrNoSuchArch) || errors.Is(err, ErrNoSuchSection) {
			t.Errorf("error = %v; want %v", err, ErrNoSuchArch)
		}
	})

	t.Run("ArchNotPresent", func(t *testing.T) {
		img := mustNewImage(t, withDWARF)
		_, err := img.CompilationDir("arm64", "/build/src/main.c")
		if !errors.Is(err, ErrNoSuchArch) {
			t.Errorf("error = %v; want %v", err, ErrNoSuchArch)
		}
	})

	t.Run("NoDWARF", func(t *testing.T) {
		img := mustNewImage(t, thinX86())
		_, err := img.CompilationDir("x86_64", "/build/src/main.c")
		if !errors.Is(err, ErrNoSuchSection) {
			t.Errorf("error = %v; want %v", err, ErrNoSuchSection)
		}
	})

	t.Run("MissingStrings", func(t *testing.T) {
		info, abbrev, _ := machotest.DWARF(machotest.CompileUnit{Name: "main.c", CompDir: "/build/src"})
		img := mustNewImage(t, dwarfImage(info, abbrev, nil))
		_, err := img.CompilationDir("x86_64", "/build/src/main.c")
		if !errors.Is(err, ErrNoSuchSection) {
			t.Errorf("error = %v; want %v", err, ErrNoSuchSection)
		}
	})

	t.Run("MalformedInfo", func(t *testing.T) {
		info, abbrev, str := machotest.DWARF(machotest.CompileUnit{Name: "main.c", CompDir: "/build/src"})
		// Claim a unit length far larger than the section.
		info[0], info[1], info[2], info[3] = 0xf0, 0xff, 0xff, 0x0f
		img := mustNewImage(t, dwarfImage(info, abbrev, str))
		_, err := img.CompilationDir("x86_64", "/build/src/main.c")
		if !errors.Is(err, ErrMalformedDebugData) {
			t.Errorf("error = %v; want %v", err, ErrMalformedDebugData)
		}
		if got, want := ErrorCode(err), CodeMalformedDebugData; got != want {
			t.Errorf("ErrorCode(%v) = %d; want %d", err, got, want)
		}
	})

	t.Run("UnterminatedAbbrevCode", func(t *testing.T) {
		info, abbrev, str := machotest.DWARF(machotest.CompileUnit{
			Name:      "main.c",
			CompDir:   "/b",
			Functions: []string{"main"},
		})
		// Replace the unit's closing null entry with a LEB128 byte
		// whose continuation bit is set.
		info[len(info)-1] = 0xf6
		img := mustNewImage(t, dwarfImage(info, abbrev, str))

		done := make(chan error, 1)
		go func() {
			_, err := img.CompilationDir("x86_64", "/elsewhere/main.c")
			done <- err
		}()
		select {
		case err := <-done:
			if !errors.Is(err, ErrMalformedDebugData) {
				t.Errorf("error = %v; want %v", err, ErrMalformedDebugData)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("CompilationDir did not return")
		}
	})

	for _, field := range []string{"Size", "Offset"} {
		t.Run("SectionPastEnd"+field, func(t *testing.T) {
			data := bytes.Clone(withDWARF)
			hdr := sectionHeader(t, data, "__debug_info")
			if field == "Size" {
				binary.LittleEndian.PutUint64(hdr[40:], 1<<40)
			} else {
				binary.LittleEndian.PutUint32(hdr[48:], 0xfffffff0)
			}
			img := mustNewImage(t, data)

			if _, err := img.Section("x86_64", "__DWARF", "__debug_info"); !errors.Is(err, ErrMalformedContainer) {
				t.Errorf("Section(...) error = %v; want %v", err, ErrMalformedContainer)
			}
			_, err := img.CompilationDir("x86_64", "/build/src/main.c")
			if !errors.Is(err, ErrMalformedContainer) {
				t.Errorf("CompilationDir(...) error = %v; want %v", err, ErrMalformedContainer)
			}
			if got, want := ErrorCode(err), CodeMalformedContainer; got != want {
				t.Errorf("ErrorCode(%v) = %d; want %d", err, got, want)
			}
		})
	}
}

// dwarfImage returns a little-endian x86_64 image
// whose __DWARF segment holds the given sections.
// A nil section is omitted.
func dwarfImage(info, abbrev, str []byte) []byte {
	seg := machotest.Segment{Name: "__DWARF"}
	for _, sect := range []machotest.Section{
		{Name: "__debug_info", Data: info},
		{Name: "__debug_abbrev", Data: abbrev},
		{Name: "__debug_str", Data: str},
	} {
		if sect.Data != nil {
			seg.Sections = append(seg.Sections, sect)
		}
	}
	return (&machotest.File{
		CPU:        machotest.CPUTypeX86_64,
		CPUSubtype: machotest.CPUSubtypeX86_64All,
		Is64:       true,
		Segments:   []machotest.Segment{seg},
	}).Build()
}

// sectionHeader returns the 64-bit section header named sectname in data.
func sectionHeader(tb testing.TB, data []byte, sectname string) []byte {
	tb.Helper()
	var name [16]byte
	copy(name[:], sectname)
	i := bytes.Index(data, name[:])
	if i < 0 || i+80 > len(data) {
		tb.Fatalf("section header %s not found", sectname)
	}
	return data[i : i+80]
}

func TestJoinSourcePath(t *testing.T) {
	tests := []struct {
		dir  string
		name string
		want string
	}{
		{dir: "/build/src", name: "main.c", want: "/build/src/main.c"},
		{dir: "/build/src/", name: "main.c", want: "/build/src/main.c"},
		{dir: "/build/src", name: "/abs/main.c", want: "/abs/main.c"},
		{dir: "/build/src", name: "../lib/x.c", want: "/build/src/../lib/x.c"},
		{dir: "", name: "main.c", want: "/main.c"},
	}
	for _, test := range tests {
		if got := joinSourcePath(test.dir, test.name); got != test.want {
			t.Errorf("joinSourcePath(%q, %q) = %q; want %q", test.dir, test.name, got, test.want)
		}
	}
}

func TestReroot(t *testing.T) {
	tests := []struct {
		compDir  string
		filename string
		checkout string
		want     string
		wantOK   bool
	}{
		{
			compDir:  "/build/src",
			filename: "/build/src/main.c",
			checkout: "/home/me/proj",
			want:     "/home/me/proj/main.c",
			wantOK:   true,
		},
		{
			compDir:  "/build/src/",
			filename: "/build/src/lib/util.c",
			checkout: "/home/me/proj/",
			want:     "/home/me/proj/lib/util.c",
			wantOK:   true,
		},
		{
			compDir:  "/build/src",
			filename: "/build/src",
			checkout: "/home/me/proj",
			want:     "/home/me/proj",
			wantOK:   true,
		},
		{
			compDir:  "/build/src",
			filename: "/build/srcfoo/main.c",
			checkout: "/home/me/proj",
			wantOK:   false,
		},
		{
			compDir:  "/build/src",
			filename: "/other/main.c",
			checkout: "/home/me/proj",
			wantOK:   false,
		},
		{
			compDir:  "",
			filename: "/build/src/main.c",
			checkout: "/home/me/proj",
			wantOK:   false,
		},
	}
	for _, test := range tests {
		got, ok := Reroot(test.compDir, test.filename, test.checkout)
		if got != test.want || ok != test.wantOK {
			t.Errorf("Reroot(%q, %q, %q) = %q, %t; want %q, %t",
				test.compDir, test.filename, test.checkout, got, ok, test.want, test.wantOK)
		}
	}
}
