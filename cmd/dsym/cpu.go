// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"zb.256lights.llc/dsym"
)

func newCPUNameCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "cpu-name TYPE SUBTYPE",
		Short:                 "print the architecture name for a Mach-O CPU type and subtype",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(2),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		name, err := cpuName(args[0], args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Println(name)
		return err
	}
	return c
}

func cpuName(cputype, cpusubtype string) (string, error) {
	t, err := strconv.ParseUint(cputype, 0, 32)
	if err != nil {
		return "", fmt.Errorf("cpu type: %v", err)
	}
	st, err := strconv.ParseUint(cpusubtype, 0, 32)
	if err != nil {
		return "", fmt.Errorf("cpu subtype: %v", err)
	}
	return dsym.CPUName(int32(uint32(t)), int32(uint32(st)))
}

func newCPUTypeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "cpu-type NAME",
		Short:                 "print the Mach-O CPU type and subtype for an architecture name",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		t, st, err := dsym.CPUType(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%#x %#x\n", uint32(t), uint32(st))
		return err
	}
	return c
}
