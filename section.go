// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import "fmt"

// Section returns the contents of the section with the given segment and section names
// (for example "__DWARF" and "__debug_info")
// in the architecture named cpuName.
// Names are matched exactly and the first matching section wins.
// The returned slice refers to the image's memory:
// it must not be modified or used after [*Image.Close].
func (img *Image) Section(cpuName, segment, section string) ([]byte, error) {
	a, err := img.Arch(cpuName)
	if err != nil {
		return nil, err
	}
	return a.section(segment, section)
}

func (a *Arch) section(segment, section string) ([]byte, error) {
	sect, ok := a.file.Section(segment, section)
	if !ok {
		return nil, fmt.Errorf("%s,%s: %w", segment, section, ErrNoSuchSection)
	}
	start := uint64(sect.Offset)
	end := start + sect.Size
	if end < start || end > uint64(len(a.data)) {
		return nil, fmt.Errorf("%w: %s,%s (offset=%d size=%d) extends past end of image (%d bytes)",
			ErrMalformedContainer, segment, section, sect.Offset, sect.Size, len(a.data))
	}
	return a.data[start:end:end], nil
}
