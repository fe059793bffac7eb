// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"zb.256lights.llc/dsym"
	"zombiezen.com/go/log"
)

type compDirOptions struct {
	arch     string
	path     string
	filename string
}

func newCompDirCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "compdir [options] FILE SOURCE",
		Short:                 "print the directory a source file was compiled in",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(2),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &compDirOptions{arch: g.Arch}
	c.Flags().StringVar(&opts.arch, "arch", opts.arch, "architecture `name` to read (optional for single-architecture files)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.path = args[0]
		opts.filename = args[1]
		dir, err := compilationDir(cmd.Context(), opts)
		if err != nil {
			return err
		}
		_, err = fmt.Println(dir)
		return err
	}
	return c
}

type rerootOptions struct {
	compDirOptions
	checkout string
}

func newRerootCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "reroot [options] FILE SOURCE",
		Short:                 "translate a build-time source path to a local checkout",
		DisableFlagsInUseLine: true,
		Args:                  cobra.ExactArgs(2),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &rerootOptions{
		compDirOptions: compDirOptions{arch: g.Arch},
		checkout:       g.Checkout,
	}
	c.Flags().StringVar(&opts.arch, "arch", opts.arch, "architecture `name` to read (optional for single-architecture files)")
	c.Flags().StringVar(&opts.checkout, "checkout", opts.checkout, "`dir`ectory of the local source tree")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.path = args[0]
		opts.filename = args[1]
		return runReroot(cmd.Context(), os.Stdout, opts)
	}
	return c
}

func runReroot(ctx context.Context, w io.Writer, opts *rerootOptions) error {
	if opts.checkout == "" {
		return fmt.Errorf("--checkout not set")
	}
	dir, err := compilationDir(ctx, &opts.compDirOptions)
	if err != nil {
		return err
	}
	newPath, ok := dsym.Reroot(dir, opts.filename, opts.checkout)
	if !ok {
		return fmt.Errorf("%s is not inside compilation directory %s", opts.filename, dir)
	}
	_, err = fmt.Fprintln(w, newPath)
	return err
}

func compilationDir(ctx context.Context, opts *compDirOptions) (string, error) {
	img, err := dsym.Open(opts.path)
	if err != nil {
		return "", err
	}
	defer img.Close()

	arch := opts.arch
	if arch == "" {
		arches, err := img.Arches()
		if err != nil {
			return "", err
		}
		if len(arches) != 1 {
			return "", fmt.Errorf("%s has %d architectures; pass --arch to pick one", opts.path, len(arches))
		}
		arch = arches[0].Name()
		log.Debugf(ctx, "Using architecture %s from %s", arch, opts.path)
	}
	dir, err := img.CompilationDir(arch, opts.filename)
	if err != nil {
		return "", fmt.Errorf("%s: %w", opts.path, err)
	}
	return dir, nil
}
