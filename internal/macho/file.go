// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package macho

import "fmt"

// File is a parsed Mach-O single-architecture file.
type File struct {
	FileHeader
	Loads []LoadCommand
}

// ParseFile parses the header and load commands
// of the single-architecture Mach-O file in data.
// Section and segment offsets in the result are relative to the start of data.
func ParseFile(data []byte) (*File, error) {
	hdr, cr, err := ParseFileHeader(data)
	if err != nil {
		return nil, err
	}
	f := &File{
		FileHeader: *hdr,
		Loads:      make([]LoadCommand, 0, min(hdr.LoadCommandCount, 256)),
	}
	for cr.Next() {
		cmd, err := decodeCommand(cr.Data(), hdr.ByteOrder)
		if err != nil {
			return nil, fmt.Errorf("parse mach-o load command %d: %v", len(f.Loads), err)
		}
		f.Loads = append(f.Loads, cmd)
	}
	if err := cr.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Segments returns the segment commands of f in load command order.
func (f *File) Segments() []*Segment {
	var segs []*Segment
	for _, l := range f.Loads {
		if seg, ok := l.(*Segment); ok {
			segs = append(segs, seg)
		}
	}
	return segs
}

// Segment returns the first segment with the given name.
func (f *File) Segment(name string) (_ *Segment, ok bool) {
	for _, seg := range f.Segments() {
		if seg.Name == name {
			return seg, true
		}
	}
	return nil, false
}

// Section returns the first section whose segment and section names
// both match exactly.
// Sections are matched on the segment name recorded in the section header,
// inside segments of either encoding.
func (f *File) Section(segment, section string) (_ *Section, ok bool) {
	for _, seg := range f.Segments() {
		for i := range seg.Sections {
			sect := &seg.Sections[i]
			if sect.Segment == segment && sect.Name == section {
				return sect, true
			}
		}
	}
	return nil, false
}
