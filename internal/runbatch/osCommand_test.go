// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shPath = "/bin/sh"

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestOSCommandRun_Success(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("echo-test", "", nil),
		Path:        shPath,
		Args:        []string{"-c", "echo hello"},
		Quiet:       true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].ExitCode)
	assert.Equal(t, ResultStatusSuccess, results[0].Status)
	assert.Contains(t, string(results[0].StdOut), "hello")
}

func TestOSCommandRun_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("fail-test", "", nil),
		Path:        shPath,
		Args:        []string{"-c", "echo boom >&2; exit 3"},
		Quiet:       true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].ExitCode)
	assert.Equal(t, ResultStatusError, results[0].Status)
	assert.Contains(t, string(results[0].StdErr), "boom")
}

func TestOSCommandRun_SuccessExitCodes(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand:      NewBaseCommand("custom-exit-test", "", nil),
		Path:             shPath,
		Args:             []string{"-c", "exit 2"},
		SuccessExitCodes: []int{0, 2},
		Quiet:            true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, ResultStatusSuccess, results[0].Status)
}

func TestOSCommandRun_StdinFeed(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("stdin-test", "", nil),
		Path:        shPath,
		Args:        []string{"-c", "cat"},
		Stdin:       []byte("recon-all -s sub-01\nrecon-all -s sub-02\n"),
		Quiet:       true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, ResultStatusSuccess, results[0].Status)
	assert.Equal(t, "recon-all -s sub-01\nrecon-all -s sub-02\n", string(results[0].StdOut))
}

func TestOSCommandRun_Env(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("env-test", "", map[string]string{"RECON_SUBJECT": "sub-42"}),
		Path:        shPath,
		Args:        []string{"-c", "echo $RECON_SUBJECT"},
		Quiet:       true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.Contains(t, string(results[0].StdOut), "sub-42")
}

func TestOSCommandRun_ContextCancellation(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("sleep-test", "", nil),
		Path:        shPath,
		Args:        []string{"-c", "sleep 30"},
		Quiet:       true,
	}

	start := time.Now()
	results := cmd.Run(ctx)
	require.Len(t, results, 1)
	assert.Less(t, time.Since(start), 5*time.Second, "expected the watchdog to kill the process")
	assert.Equal(t, ResultStatusError, results[0].Status)
	assert.ErrorIs(t, results[0].Error, ErrTimeoutExceeded)
}

func TestOSCommandRun_BadPath(t *testing.T) {
	skipOnWindows(t)

	cmd := &OSCommand{
		BaseCommand: NewBaseCommand("bad-path-test", "", nil),
		Path:        "/nonexistent/binary",
		Quiet:       true,
	}

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, ErrCouldNotStartProcess)
	assert.Equal(t, -1, results[0].ExitCode)
}
