// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/studyflags"
	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/reconbatch/internal/dispatch"
	"github.com/matt-FFFFFF/reconbatch/internal/history"
	"github.com/matt-FFFFFF/reconbatch/internal/pipeline"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/matt-FFFFFF/reconbatch/internal/report"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
	"github.com/matt-FFFFFF/reconbatch/internal/subjects"
	"github.com/matt-FFFFFF/reconbatch/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	logFlag       = "log"
	dbFlag        = "db"
	noHistoryFlag = "no-history"
	dryRunFlag    = "dry-run"
	strictFlag    = "strict"
	tuiFlag       = "tui"
	outFlag       = "out"

	defaultLogFileName = "reconbatch.log"
	cliExitStr         = ""

	// reporterBufferSize bounds the progress event queue feeding the log
	// listener in non-TUI runs. Events beyond the buffer are dropped rather
	// than blocking the dispatch.
	reporterBufferSize = 64
)

// RunCmd dispatches the per-subject pipeline commands for a study.
var RunCmd = NewCommand()

// NewCommand builds the run command. Flag instances carry parse state, so
// tests construct their own command per run.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name: "run",
		Description: `Dispatch the reconstruction pipeline for every subject in a study.

The subject list is read from the list file when it exists; otherwise it is
derived from the raw-data directory and written back so subsequent runs are
stable. One command line is rendered per subject from the command template and
handed to the configured batch-parallel runner (GNU parallel by default), or
executed in-process with --runner builtin.

Study manifest URLs use Hashicorp's go-getter syntax, which allows for
fetching files from various sources. See https://github.com/hashicorp/go-getter.`,
		Usage: "reconbatch run -r /data/raw -s /data/subjects",
		Flags: append(studyflags.Flags(),
			&cli.StringFlag{
				Name:      logFlag,
				Usage:     "Study log file for timing and hardware reports. Defaults to reconbatch.log in the subjects directory",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      dbFlag,
				Usage:     "Run history database. Defaults to reconbatch.db in the subjects directory",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:     noHistoryFlag,
				Usage:    "Do not record this run in the history database",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     dryRunFlag,
				Aliases:  []string{"n"},
				Usage:    "Print the rendered command lines without dispatching anything",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     strictFlag,
				Usage:    "Fail before dispatch when a listed subject has no raw-data directory",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     tuiFlag,
				Aliases:  []string{"t", "interactive"},
				Usage:    "Run with interactive Terminal User Interface (TUI) showing real-time progress",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Usage:     "Write the full result tree to a file",
				TakesFile: true,
				OnlyOnce:  true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	settings, err := studyflags.Resolve(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fs := afero.NewOsFs()

	if err := subjects.ValidateDirs(fs, settings.RawDir, settings.SubjectsDir); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	listPath := cmd.String(studyflags.ListFlag)
	if listPath == "" {
		listPath = filepath.Join(settings.SubjectsDir, subjects.DefaultListFileName)
	}

	ids, derived, err := subjects.Resolve(ctx, fs, settings.RawDir, listPath)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if derived {
		logger.Info("derived subject list from raw-data directory",
			"subjects", len(ids), "list", listPath)
	}

	if cmd.Bool(strictFlag) {
		if err := subjects.ValidateAgainstRaw(fs, settings.RawDir, ids); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	plan, err := pipeline.Render(settings, ids)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if cmd.Bool(dryRunFlag) {
		fmt.Fprint(cmd.Writer, plan.Lines())
		return nil
	}

	runnable, err := dispatch.New(settings, plan)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Info("dispatching subjects",
		"study", settings.Name, "subjects", len(ids), "runner", plan.Runner)

	started := time.Now()
	res, execErr := execute(ctx, cmd, plan, runnable)
	finished := time.Now()

	if execErr != nil {
		logger.Error("execution error", "error", execErr.Error())
	}

	run := report.Summarise(settings.Name, plan.Runner, started, finished, len(ids), res)
	run.Jobs = plan.Jobs

	logPath := cmd.String(logFlag)
	if logPath == "" {
		logPath = filepath.Join(settings.SubjectsDir, defaultLogFileName)
	}

	if err := report.Append(fs, logPath, run); err != nil {
		logger.Error("failed to write study log", "error", err.Error())
	}

	if !cmd.Bool(noHistoryFlag) {
		recordHistory(ctx, cmd, settings, run)
	}

	if err := writeResults(cmd, res); err != nil {
		logger.Error("failed to write results", "error", err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if res.HasError() {
		logger.Error("some subjects failed, see above for details")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// execute runs the dispatch, with or without the TUI.
func execute(ctx context.Context, cmd *cli.Command, plan *pipeline.Plan, runnable runbatch.Runnable) (runbatch.Results, error) {
	if !cmd.Bool(tuiFlag) {
		reporter := progress.NewChannelReporter(ctx, reporterBufferSize)
		reporter.Listen(progress.NewLogListener(ctxlog.Logger(ctx)))
		runnable.SetReporter(reporter)

		res := runnable.Run(ctx)
		reporter.Close()

		return res, nil
	}

	// Buffer log output while the TUI owns the terminal.
	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, buf)

	title := plan.Name
	if title == "" {
		title = "reconbatch"
	}

	runner := tui.NewRunner(title, tuiSubjects(plan))

	res, err := runner.Run(tuiCtx, runnable)

	buf.WriteTo(cmd.Writer) //nolint:errcheck

	return res, err
}

// tuiSubjects returns the rows the TUI is seeded with. The builtin runner
// reports one event stream per subject; an external runner is a single
// process, so seeding per-subject rows would leave them pending forever.
// Its one row is created when its first event arrives.
func tuiSubjects(plan *pipeline.Plan) []string {
	if plan.Runner == pipeline.BuiltinRunner {
		return plan.Subjects()
	}

	return nil
}

// recordHistory stores the run in the history database. History failures are
// logged, not fatal: the dispatch already happened.
func recordHistory(ctx context.Context, cmd *cli.Command, settings *pipeline.Settings, run *report.Run) {
	logger := ctxlog.Logger(ctx)

	dbPath := cmd.String(dbFlag)
	if dbPath == "" {
		dbPath = filepath.Join(settings.SubjectsDir, history.DefaultFileName)
	}

	store, err := history.Open(dbPath)
	if err != nil {
		logger.Error("failed to open history store", "error", err.Error())
		return
	}

	defer store.Close() //nolint:errcheck

	id, err := store.Record(ctx, run)
	if err != nil {
		logger.Error("failed to record run", "error", err.Error())
		return
	}

	logger.Debug("recorded run", "id", id, "db", dbPath)
}

// writeResults prints the result tree, and saves it to the out file if set.
func writeResults(cmd *cli.Command, res runbatch.Results) error {
	if outFileName := cmd.String(outFlag); outFileName != "" {
		f, err := afero.NewOsFs().Create(outFileName)
		if err != nil {
			return err
		}

		defer f.Close() //nolint:errcheck

		opts := runbatch.DefaultOutputOptions()
		opts.IncludeStdOut = true
		opts.IncludeStdErr = true

		if err := res.WriteTextWithOptions(f, opts); err != nil {
			return err
		}
	}

	return res.WriteText(cmd.Writer)
}
