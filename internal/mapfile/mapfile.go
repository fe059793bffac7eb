// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// Package mapfile provides read-only access to a whole file as a byte slice.
package mapfile

import (
	"io"

	"zb.256lights.llc/dsym/internal/xio"
)

// File is the contents of a file opened with [Open].
type File struct {
	data   []byte
	closer io.Closer
}

// Bytes returns the file's contents.
// The slice must not be modified
// and must not be used after [*File.Close] is called.
func (f *File) Bytes() []byte {
	return f.data
}

// Close releases the file's contents.
// Calling Close more than once is a no-op.
func (f *File) Close() error {
	f.data = nil
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func newFile(data []byte, release func() error) *File {
	f := &File{data: data}
	if release != nil {
		f.closer = xio.CloseOnce(xio.CloserFunc(release))
	}
	return f
}
