// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"zb.256lights.llc/dsym"
	"zb.256lights.llc/dsym/internal/machotest"
	"zb.256lights.llc/dsym/internal/testcontext"
)

var testUUID = uuid.MustParse("5b1d1a0c-9a7e-4d16-8f55-3c2b1a0f9e8d")

func writeTestFile(tb testing.TB, name string, units ...machotest.CompileUnit) string {
	tb.Helper()
	f := &machotest.File{
		CPU:        machotest.CPUTypeARM64,
		CPUSubtype: machotest.CPUSubtypeARM64All,
		Is64:       true,
		UUIDs:      [][16]byte{testUUID},
		DylibNames: []string{"@rpath/Foo.framework/Foo"},
		Segments: []machotest.Segment{
			{Name: "__TEXT", Addr: 0x1000, Size: 0x2000},
		},
	}
	if len(units) > 0 {
		f.Segments = append(f.Segments, machotest.DWARFSegment(units...))
	}
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, f.Build(), 0o666); err != nil {
		tb.Fatal(err)
	}
	return path
}

func TestRunVariants(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	path1 := writeTestFile(t, "One.dSYM")
	path2 := writeTestFile(t, "Two.dSYM")

	t.Run("JSON", func(t *testing.T) {
		buf := new(bytes.Buffer)
		if err := runVariants(ctx, buf, formatJSON, []string{path1, path2}); err != nil {
			t.Fatal(err)
		}
		var got []fileVariants
		if err := jsonv2.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		v := variantJSON{
			Arch:   "arm64",
			UUID:   testUUID,
			Name:   "@rpath/Foo.framework/Foo",
			VMAddr: 0x1000,
			VMSize: 0x2000,
		}
		want := []fileVariants{
			{Path: path1, Variants: []variantJSON{v}},
			{Path: path2, Variants: []variantJSON{v}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("output (-want +got):\n%s", diff)
		}
	})

	t.Run("Text", func(t *testing.T) {
		buf := new(bytes.Buffer)
		if err := runVariants(ctx, buf, formatText, []string{path1}); err != nil {
			t.Fatal(err)
		}
		want := fmt.Sprintf("%s\tarm64\t%v\t@rpath/Foo.framework/Foo\t0x1000\t0x2000\n", path1, testUUID)
		if got := buf.String(); got != want {
			t.Errorf("output = %q; want %q", got, want)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		buf := new(bytes.Buffer)
		err := runVariants(ctx, buf, formatText, []string{path1, filepath.Join(t.TempDir(), "missing")})
		if !errors.Is(err, dsym.ErrIO) {
			t.Errorf("runVariants(...) = %v; want %v", err, dsym.ErrIO)
		}
		if buf.Len() > 0 {
			t.Errorf("runVariants wrote %q on failure", buf)
		}
	})
}

func TestRunReroot(t *testing.T) {
	ctx, cancel := testcontext.New(t)
	defer cancel()
	path := writeTestFile(t, "Foo.dSYM", machotest.CompileUnit{
		Name:    "lib/foo.c",
		CompDir: "/Users/ci/build",
	})

	buf := new(bytes.Buffer)
	err := runReroot(ctx, buf, &rerootOptions{
		compDirOptions: compDirOptions{
			path:     path,
			filename: "/Users/ci/build/lib/foo.c",
		},
		checkout: "/home/me/foo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "/home/me/foo/lib/foo.c\n"; got != want {
		t.Errorf("output = %q; want %q", got, want)
	}

	err = runReroot(ctx, new(bytes.Buffer), &rerootOptions{
		compDirOptions: compDirOptions{
			arch:     "x86_64",
			path:     path,
			filename: "/Users/ci/build/lib/foo.c",
		},
		checkout: "/home/me/foo",
	})
	if !errors.Is(err, dsym.ErrNoSuchArch) {
		t.Errorf("runReroot with --arch=x86_64 = %v; want %v", err, dsym.ErrNoSuchArch)
	}
}

func TestCPUName(t *testing.T) {
	tests := []struct {
		cputype    string
		cpusubtype string
		want       string
	}{
		{"0x0100000c", "0", "arm64"},
		{"16777228", "2", "arm64e"},
		{"0x01000007", "0x80000003", "x86_64"},
		{"12", "9", "armv7"},
	}
	for _, test := range tests {
		got, err := cpuName(test.cputype, test.cpusubtype)
		if err != nil || got != test.want {
			t.Errorf("cpuName(%q, %q) = %q, %v; want %q, <nil>", test.cputype, test.cpusubtype, got, err, test.want)
		}
	}
	if _, err := cpuName("x", "0"); err == nil {
		t.Error("cpuName(\"x\", \"0\") did not return an error")
	}
}
