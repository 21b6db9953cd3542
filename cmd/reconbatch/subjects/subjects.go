// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package subjects contains the subject list management commands.
package subjects

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/studyflags"
	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/reconbatch/internal/subjects"
	"github.com/peterh/liner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const forceFlag = "force"

// ErrAborted is returned when the user declines to overwrite an existing list.
var ErrAborted = errors.New("aborted")

// SubjectsCmd groups the subject list management commands.
var SubjectsCmd = &cli.Command{
	Name:  "subjects",
	Usage: "Inspect and manage the study's subject list",
	Commands: []*cli.Command{
		newListCommand(),
		newInitCommand(),
	},
}

func newListCommand() *cli.Command {
	return &cli.Command{
		Name: "list",
		Description: `Print the subject ids for the study, one per line.

Reads the subject list file when it exists, otherwise lists the subject
directories under the raw-data directory. Nothing is written.`,
		Usage:  "reconbatch subjects list -r /data/raw -s /data/subjects",
		Flags:  studyflags.Flags(),
		Action: listAction,
	}
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := studyflags.Resolve(ctx, cmd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fs := afero.NewOsFs()

	listPath := cmd.String(studyflags.ListFlag)
	if listPath == "" {
		listPath = filepath.Join(settings.SubjectsDir, subjects.DefaultListFileName)
	}

	exists, err := afero.Exists(fs, listPath)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var ids []string

	if exists {
		ids, err = subjects.Load(fs, listPath)
	} else {
		ids, err = subjects.Discover(ctx, fs, settings.RawDir)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, id := range ids {
		fmt.Fprintln(cmd.Writer, id)
	}

	return nil
}

func newInitCommand() *cli.Command {
	return &cli.Command{
		Name: "init",
		Description: `Write the subject list file from the raw-data directory.

Lists the subject directories under the raw-data directory and writes them to
the subject list file. An existing list is only overwritten after
confirmation, or with --force.`,
		Usage: "reconbatch subjects init -r /data/raw -s /data/subjects",
		Flags: append(studyflags.Flags(),
			&cli.BoolFlag{
				Name:     forceFlag,
				Usage:    "Overwrite an existing subject list without asking",
				OnlyOnce: true,
			},
		),
		Action: initAction,
	}
}

func initAction(ctx context.Context, cmd *cli.Command) error {
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

	exists, err := afero.Exists(fs, listPath)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if exists && !cmd.Bool(forceFlag) {
		if !confirmOverwrite(listPath) {
			return cli.Exit(ErrAborted.Error(), 1)
		}
	}

	ids, err := subjects.Discover(ctx, fs, settings.RawDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if len(ids) == 0 {
		return cli.Exit(fmt.Sprintf("no subject directories in %s", settings.RawDir), 1)
	}

	if err := subjects.Write(fs, listPath, ids); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Info("wrote subject list", "list", listPath, "subjects", len(ids))

	return nil
}

// confirmOverwrite prompts before clobbering an existing subject list.
func confirmOverwrite(listPath string) bool {
	line := liner.NewLiner()
	defer line.Close() //nolint:errcheck

	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(fmt.Sprintf("%s exists, overwrite? [y/N] ", listPath))
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
