// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:build unix

package mapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps the file at path into memory read-only.
// The mapping is released by [*File.Close].
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: fmt.Errorf("not a regular file")}
	}
	size := info.Size()
	if size == 0 {
		// Zero-length mappings are rejected by mmap(2).
		return newFile(nil, nil), nil
	}
	if int64(int(size)) != size {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: fmt.Errorf("file too large (%d bytes)", size)}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return newFile(data, func() error {
		if err := unix.Munmap(data); err != nil {
			return &os.PathError{Op: "munmap", Path: path, Err: err}
		}
		return nil
	}), nil
}
