// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package history contains the command that lists past dispatches.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/studyflags"
	"github.com/matt-FFFFFF/reconbatch/internal/history"
	"github.com/urfave/cli/v3"
)

const (
	dbFlag    = "db"
	limitFlag = "limit"
	runArg    = "run"

	defaultLimit = 20
)

// HistoryCmd lists recorded runs, or the per-subject outcomes of one run.
var HistoryCmd = NewCommand()

// NewCommand builds the history command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name: "history",
		Description: `List past dispatches recorded in the history database.

With a run id argument, lists that run's per-subject outcomes instead.`,
		Usage: "reconbatch history -s /data/subjects [run-id]",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: runArg,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      studyflags.SubjectsDirFlag,
				Aliases:   []string{"s"},
				Usage:     "Pipeline output directory holding the history database",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      dbFlag,
				Usage:     "Run history database. Defaults to reconbatch.db in the subjects directory",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.IntFlag{
				Name:     limitFlag,
				Usage:    "Maximum number of runs to list",
				Value:    defaultLimit,
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	dbPath := cmd.String(dbFlag)
	if dbPath == "" {
		subjectsDir := cmd.String(studyflags.SubjectsDirFlag)
		if subjectsDir == "" {
			return cli.Exit("specify the history database with --db or the subjects directory with --subjects-dir", 1)
		}

		dbPath = filepath.Join(subjectsDir, history.DefaultFileName)
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	defer store.Close() //nolint:errcheck

	if runID := cmd.StringArg(runArg); runID != "" {
		return showRun(ctx, cmd, store, runID)
	}

	return listRuns(ctx, cmd, store)
}

// listRuns prints one line per recorded run, newest first.
func listRuns(ctx context.Context, cmd *cli.Command, store *history.Store) error {
	entries, err := store.List(ctx, int(cmd.Int(limitFlag)))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.Writer, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.Writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSTUDY\tRUNNER\tSTARTED\tELAPSED\tSUBJECTS\tFAILED")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			e.ID, e.Study, e.Runner,
			humanize.Time(e.Started),
			e.Finished.Sub(e.Started).Round(time.Second),
			e.Subjects, e.Failed,
		)
	}

	return w.Flush()
}

// showRun prints the per-subject outcomes of one run.
func showRun(ctx context.Context, cmd *cli.Command, store *history.Store, runID string) error {
	outcomes, err := store.Subjects(ctx, runID)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if len(outcomes) == 0 {
		fmt.Fprintf(cmd.Writer, "no per-subject outcomes recorded for run %s\n", runID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.Writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "SUBJECT\tSTATUS\tEXIT CODE")

	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%d\n", o.Subject, o.Status, o.ExitCode)
	}

	return w.Flush()
}
