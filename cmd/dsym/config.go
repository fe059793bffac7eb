// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
	"zb.256lights.llc/dsym"
)

type globalConfig struct {
	Debug    bool         `json:"debug"`
	Arch     string       `json:"arch"`
	Format   outputFormat `json:"format"`
	Checkout string       `json:"checkout"`
}

func defaultGlobalConfig() *globalConfig {
	return &globalConfig{
		Format: formatAuto,
	}
}

// configPaths returns the paths of the configuration files to read
// in increasing order of preference.
func configPaths() iter.Seq[string] {
	return func(yield func(string) bool) {
		for dir := range systemConfigDirs() {
			if !yield(filepath.Join(dir, "dsym", "config.jsonc")) {
				return
			}
		}
	}
}

func (g *globalConfig) mergeEnvironment() error {
	if arch := os.Getenv("DSYM_ARCH"); arch != "" {
		g.Arch = arch
	}
	if format := os.Getenv("DSYM_FORMAT"); format != "" {
		if err := g.Format.Set(format); err != nil {
			return fmt.Errorf("DSYM_FORMAT: %v", err)
		}
	}
	return nil
}

func (g *globalConfig) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, g, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}
	return nil
}

// UnmarshalJSONFrom unmarshals the configuration object from the JSON decoder,
// merging any fields in the JSON object with existing values.
func (g *globalConfig) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got := tok.Kind(); got != '{' {
		return fmt.Errorf("config must be an object not a %v", got)
	}

	for {
		keyToken, err := in.ReadToken()
		if err != nil {
			return err
		}
		switch kind := keyToken.Kind(); kind {
		case '}':
			return nil
		case '"':
			// Keep going.
		default:
			return fmt.Errorf("unexpected non-string key (%v) in object", kind)
		}

		switch k := keyToken.String(); k {
		case "debug":
			if err := jsonv2.UnmarshalDecode(in, &g.Debug); err != nil {
				return fmt.Errorf("unmarshal config.debug: %w", err)
			}
		case "arch":
			if err := jsonv2.UnmarshalDecode(in, &g.Arch); err != nil {
				return fmt.Errorf("unmarshal config.arch: %w", err)
			}
		case "format":
			var s string
			if err := jsonv2.UnmarshalDecode(in, &s); err != nil {
				return fmt.Errorf("unmarshal config.format: %w", err)
			}
			if err := g.Format.Set(s); err != nil {
				return fmt.Errorf("unmarshal config.format: %w", err)
			}
		case "checkout":
			if err := jsonv2.UnmarshalDecode(in, &g.Checkout); err != nil {
				return fmt.Errorf("unmarshal config.checkout: %w", err)
			}
		default:
			if reject, _ := jsonv2.GetOption(in.Options(), jsonv2.RejectUnknownMembers); reject {
				return fmt.Errorf("unmarshal config: unknown field %q", k)
			}
			if err := in.SkipValue(); err != nil {
				return err
			}
		}
	}
}

func (g *globalConfig) validate() error {
	if g.Arch != "" && !dsym.IsValidCPUName(g.Arch) {
		return fmt.Errorf("unknown architecture %q", g.Arch)
	}
	if g.Checkout != "" && !filepath.IsAbs(g.Checkout) {
		return fmt.Errorf("checkout directory %q is not absolute", g.Checkout)
	}
	return nil
}
