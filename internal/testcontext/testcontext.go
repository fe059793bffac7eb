// Copyright 2025 The zb Authors
// SPDX-License-Identifier: MIT

// Package testcontext provides contexts for tests.
package testcontext

import (
	"context"
	"testing"

	"zombiezen.com/go/log/testlog"
)

// New returns a context that associates the test logger with the test.
// The context is canceled when the test's cleanup functions start
// or when the returned function is called.
func New(tb testing.TB) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(tb.Context())
	ctx = testlog.WithTB(ctx, tb)
	return ctx, cancel
}
