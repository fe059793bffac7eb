// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// Package dsym reads build information from Mach-O files
// that carry DWARF debug information, such as dSYM companion files.
// It finds the compilation directory recorded for a source file
// and lists the architectures (variants) an image contains.
package dsym

import (
	"fmt"
	"io"
	"os"

	"zb.256lights.llc/dsym/internal/macho"
	"zb.256lights.llc/dsym/internal/mapfile"
)

// Image is an opened Mach-O file, either single-architecture or universal.
// The container structure is parsed once when the Image is created.
//
// Methods on Image may be called concurrently,
// but not concurrently with [*Image.Close].
type Image struct {
	data      []byte
	file      *mapfile.File
	universal bool
	arches    []*Arch
	closed    bool
}

// Open maps the Mach-O file at path into memory and parses it.
// The caller must call [*Image.Close] when done with the image.
func Open(path string) (*Image, error) {
	f, err := mapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	img, err := newImage(f.Bytes())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.file = f
	return img, nil
}

// ReadImage reads a Mach-O file from r into memory and parses it.
func ReadImage(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return newImage(data)
}

// NewImage parses the Mach-O file in data.
// The image refers to data without copying it,
// so the caller must not modify data while the image is in use.
func NewImage(data []byte) (*Image, error) {
	return newImage(data)
}

func newImage(data []byte) (*Image, error) {
	arches, universal, err := parseContainer(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}
	return &Image{
		data:      data,
		universal: universal,
		arches:    arches,
	}, nil
}

// Close releases the memory backing the image.
// Slices returned by [*Image.Section] must not be used after Close.
// Close is a no-op on a nil or already-closed image.
func (img *Image) Close() error {
	if img == nil || img.closed {
		return nil
	}
	img.closed = true
	img.data = nil
	img.arches = nil
	if img.file == nil {
		return nil
	}
	if err := img.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// IsUniversal reports whether the image is a multi-architecture (fat) file.
func (img *Image) IsUniversal() bool {
	return img.universal
}

func (img *Image) checkOpen() error {
	if img == nil || img.closed {
		return fmt.Errorf("%w: %w", ErrIO, os.ErrClosed)
	}
	return nil
}

// parseContainer splits data into its architectures
// and parses each architecture's header and load commands.
func parseContainer(data []byte) (_ []*Arch, universal bool, _ error) {
	switch {
	case macho.IsUniversal(data):
		entries, err := macho.ParseUniversalHeader(data)
		if err != nil {
			return nil, true, err
		}
		arches := make([]*Arch, 0, len(entries))
		for i, ent := range entries {
			// ParseUniversalHeader has checked the entry against len(data).
			archData := data[ent.Offset : ent.Offset+ent.Size]
			f, err := macho.ParseFile(archData)
			if err != nil {
				return nil, true, fmt.Errorf("architecture %d: %w", i, err)
			}
			arches = append(arches, &Arch{
				CPUType:    int32(ent.CPU),
				CPUSubtype: int32(ent.CPUSubtype),
				arch:       ent.Arch(),
				Offset:     ent.Offset,
				Size:       ent.Size,
				data:       archData,
				file:       f,
			})
		}
		return arches, true, nil
	case macho.IsSingleArchitecture(data):
		f, err := macho.ParseFile(data)
		if err != nil {
			return nil, false, err
		}
		return []*Arch{{
			CPUType:    int32(f.CPU),
			CPUSubtype: int32(f.CPUSubtype),
			arch:       f.Arch(),
			Offset:     0,
			Size:       uint64(len(data)),
			data:       data,
			file:       f,
		}}, false, nil
	default:
		return nil, false, fmt.Errorf("not a mach-o file")
	}
}
