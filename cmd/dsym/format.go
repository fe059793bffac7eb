// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// outputFormat selects how commands print their results.
type outputFormat string

const (
	formatAuto outputFormat = "auto"
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
)

var _ pflag.Value = (*outputFormat)(nil)

func (f outputFormat) String() string { return string(f) }
func (f *outputFormat) Type() string  { return "format" }

func (f *outputFormat) Set(s string) error {
	switch v := outputFormat(s); v {
	case formatAuto, formatText, formatJSON:
		*f = v
		return nil
	default:
		return fmt.Errorf("unknown format %q (must be one of %q, %q, or %q)", s, formatAuto, formatText, formatJSON)
	}
}

// resolve returns formatText or formatJSON.
// Automatic format prints text to a terminal and JSON otherwise.
func (f outputFormat) resolve(isTerminal bool) outputFormat {
	if f != formatAuto {
		return f
	}
	if isTerminal {
		return formatText
	}
	return formatJSON
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
