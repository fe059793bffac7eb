// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import (
	"fmt"

	"github.com/google/uuid"
	"zb.256lights.llc/dsym/internal/macho"
)

// Variant identifies one architecture-specific build inside an [Image].
type Variant struct {
	// Arch is the architecture name or [Unknown].
	Arch string
	// UUID is the build UUID from the last LC_UUID command
	// or [uuid.Nil] if there is none.
	UUID uuid.UUID
	// Name is the install name from the last LC_ID_DYLIB command
	// or [Unknown] if there is none.
	Name string
	// VMAddr and VMSize are the address and size of the __TEXT segment.
	// Both are zero if the architecture has no __TEXT segment.
	VMAddr uint64
	VMSize uint64
}

// Variants returns one variant for each architecture in the image,
// in the order the architectures appear in the file.
func (img *Image) Variants() ([]Variant, error) {
	if err := img.checkOpen(); err != nil {
		return nil, err
	}
	variants := make([]Variant, 0, len(img.arches))
	for _, a := range img.arches {
		variants = append(variants, a.variant())
	}
	return variants, nil
}

// Variant returns the variant whose UUID or architecture name matches key.
// key is parsed as a UUID if possible;
// otherwise it is treated as an architecture name.
// Variant returns an error wrapping [ErrNoSuchArch] if nothing matches.
func (img *Image) Variant(key string) (*Variant, error) {
	variants, err := img.Variants()
	if err != nil {
		return nil, err
	}
	if u, err := uuid.Parse(key); err == nil {
		for i := range variants {
			if variants[i].UUID == u {
				return &variants[i], nil
			}
		}
		return nil, fmt.Errorf("find variant %v: %w", u, ErrNoSuchArch)
	}
	for i := range variants {
		if variants[i].Arch == key {
			return &variants[i], nil
		}
	}
	return nil, fmt.Errorf("find variant %q: %w", key, ErrNoSuchArch)
}

func (a *Arch) variant() Variant {
	v := Variant{
		Arch: Unknown,
		Name: Unknown,
	}
	if name, ok := macho.ArchName(a.file.Arch()); ok {
		v.Arch = name
	}
	for _, l := range a.file.Loads {
		switch cmd := l.(type) {
		case *macho.UUIDCommand:
			v.UUID = cmd.UUID
		case *macho.DylibCommand:
			if cmd.Cmd == macho.LoadCmdIDDylib {
				v.Name = cmd.Name
			}
		case *macho.Segment:
			if cmd.Name == "__TEXT" {
				v.VMAddr = cmd.Addr
				v.VMSize = cmd.Memsz
			}
		}
	}
	return v
}
