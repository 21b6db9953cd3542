// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the reconbatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/reconbatch"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/history"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/run"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/show"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/subjects"
	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/reconbatch/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		subjects.SubjectsCmd,
		show.ShowCmd,
		history.HistoryCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "reconbatch",
	Description: `Reconbatch dispatches per-subject neuroimaging pipeline commands in parallel.
It derives the subject list from a study's raw-data directory, renders one
command line per subject from a template, and hands the batch to an external
parallel runner such as GNU parallel, or runs it in-process. Each dispatch is
appended to the study log with timing and hardware details.`,
	Usage:     "reconbatch run -r /data/raw -s /data/subjects",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", reconbatch.Version, reconbatch.Commit)

	err := rootCmd.Run(ctx, os.Args)

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
