// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:build unix

package main

import (
	"iter"

	"go4.org/xdgdir"
)

// systemConfigDirs returns a sequence of configuration directory paths
// in increasing order of preference (i.e. later entries should override earlier entries).
func systemConfigDirs() iter.Seq[string] {
	return func(yield func(string) bool) {
		// SearchPaths lists the most preferred directory first.
		dirs := xdgdir.Config.SearchPaths()
		for i := len(dirs) - 1; i >= 0; i-- {
			if !yield(dirs[i]) {
				return
			}
		}
	}
}
