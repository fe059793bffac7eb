// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zb.256lights.llc/dsym"
	"zombiezen.com/go/log"
)

type variantsOptions struct {
	format outputFormat
	paths  []string
}

func newVariantsCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "variants [options] FILE [...]",
		Short:                 "list the architectures and build UUIDs in Mach-O files",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := &variantsOptions{format: g.Format}
	c.Flags().Var(&opts.format, "format", "output `format` (auto, text, or json)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.paths = args
		return runVariants(cmd.Context(), os.Stdout, opts.format.resolve(stdoutIsTerminal()), opts.paths)
	}
	return c
}

// fileVariants is the JSON representation of one file's variants.
type fileVariants struct {
	Path     string        `json:"path"`
	Variants []variantJSON `json:"variants"`
}

type variantJSON struct {
	Arch   string    `json:"arch"`
	UUID   uuid.UUID `json:"uuid"`
	Name   string    `json:"name"`
	VMAddr uint64    `json:"vmaddr"`
	VMSize uint64    `json:"vmsize"`
}

func runVariants(ctx context.Context, w io.Writer, format outputFormat, paths []string) error {
	results := make([]fileVariants, len(paths))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			variants, err := readVariants(grpCtx, path)
			if err != nil {
				return err
			}
			results[i] = fileVariants{
				Path:     path,
				Variants: variants,
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	switch format {
	case formatJSON:
		return jsonv2.MarshalWrite(w, results, jsontext.Multiline(true))
	case formatText:
		for _, result := range results {
			for _, v := range result.Variants {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%#x\t%#x\n", result.Path, v.Arch, v.UUID, v.Name, v.VMAddr, v.VMSize); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

func readVariants(ctx context.Context, path string) ([]variantJSON, error) {
	img, err := dsym.Open(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	variants, err := img.Variants()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf(ctx, "%s: found %d variant(s)", path, len(variants))
	result := make([]variantJSON, 0, len(variants))
	for _, v := range variants {
		result = append(result, variantJSON(v))
	}
	return result, nil
}
