// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package mapfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "Empty", data: ""},
		{name: "Small", data: "Hello, World!\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(path, []byte(test.data), 0o666); err != nil {
				t.Fatal(err)
			}
			f, err := Open(path)
			if err != nil {
				t.Fatal("Open:", err)
			}
			if got := string(f.Bytes()); got != test.data {
				t.Errorf("Bytes() = %q; want %q", got, test.data)
			}
			if err := f.Close(); err != nil {
				t.Error("Close:", err)
			}
			if err := f.Close(); err != nil {
				t.Error("second Close:", err)
			}
			if got := f.Bytes(); got != nil {
				t.Errorf("Bytes() after Close = %q; want nil", got)
			}
		})
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v; want %v", err, os.ErrNotExist)
	}
}
