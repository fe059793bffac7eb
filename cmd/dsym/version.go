// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// dsymVersion is the version string filled in by the linker (e.g. "1.2.3").
var dsymVersion string

func newVersionCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "version",
		Short:                 "show version information",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Printf("%s\nGo:           %s\nSystem:       %s/%s\n",
			versionLine(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		return err
	}
	return c
}

func versionLine() string {
	v := dsymVersion
	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	if v == "" {
		return "dsym (version unknown)"
	}
	return "dsym version " + v
}
