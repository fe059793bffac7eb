// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

//go:build !unix

package mapfile

import "os"

// Open reads the file at path into memory.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newFile(data, nil), nil
}
