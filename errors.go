// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package dsym

import "errors"

// Error kinds returned by this package.
// Every error returned from an [*Image] method wraps exactly one of these,
// so callers can classify failures with [errors.Is].
var (
	// ErrNoSuchArch indicates that a CPU name is not recognized
	// or that no architecture in the image matches it.
	ErrNoSuchArch = errors.New("no such architecture")
	// ErrNoSuchSection indicates that a required section
	// is absent from the selected architecture.
	ErrNoSuchSection = errors.New("no such section")
	// ErrNoSuchAttribute indicates that no compilation unit
	// matched the requested source file.
	ErrNoSuchAttribute = errors.New("no such attribute")
	// ErrMalformedContainer indicates that the Mach-O header, load commands,
	// or offsets inside the image are inconsistent or truncated.
	ErrMalformedContainer = errors.New("malformed mach-o container")
	// ErrMalformedDebugData indicates that the DWARF decoder rejected
	// the unit, abbreviation, or attribute structure.
	ErrMalformedDebugData = errors.New("malformed debug data")
	// ErrIO indicates that the image could not be opened or read.
	ErrIO = errors.New("i/o error")
)

// Numeric error codes returned by [ErrorCode].
const (
	CodeOK                 = 0
	CodeInternal           = 1
	CodeNoSuchArch         = 2
	CodeNoSuchSection      = 3
	CodeNoSuchAttribute    = 4
	CodeMalformedContainer = 5
	CodeIO                 = 6
	CodeMalformedDebugData = 7
)

// ErrorCode returns the numeric code for err
// for use across a foreign-function boundary.
// It returns [CodeOK] for a nil error
// and [CodeInternal] for an error that wraps none of the package's error kinds.
func ErrorCode(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrNoSuchArch):
		return CodeNoSuchArch
	case errors.Is(err, ErrNoSuchSection):
		return CodeNoSuchSection
	case errors.Is(err, ErrNoSuchAttribute):
		return CodeNoSuchAttribute
	case errors.Is(err, ErrMalformedContainer):
		return CodeMalformedContainer
	case errors.Is(err, ErrIO):
		return CodeIO
	case errors.Is(err, ErrMalformedDebugData):
		return CodeMalformedDebugData
	default:
		return CodeInternal
	}
}
