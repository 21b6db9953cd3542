// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the command that prints the resolved dispatch plan.
package show

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/reconbatch/cmd/reconbatch/studyflags"
	"github.com/matt-FFFFFF/reconbatch/internal/color"
	"github.com/matt-FFFFFF/reconbatch/internal/pipeline"
	"github.com/matt-FFFFFF/reconbatch/internal/subjects"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const jsonIndent = 2

// ErrEncodePlan is returned when the plan cannot be rendered as JSON.
var ErrEncodePlan = errors.New("failed to encode plan")

// ShowCmd resolves the study configuration and prints the dispatch plan
// without running anything.
var ShowCmd = NewCommand()

// NewCommand builds the show command.
func NewCommand() *cli.Command {
	return &cli.Command{
		Name: "show",
		Description: `Print the resolved dispatch plan as JSON.

Resolves the study configuration, derives or reads the subject list and
renders the per-subject command lines, exactly as run would, then prints the
plan instead of dispatching it.`,
		Usage:  "reconbatch show -r /data/raw -s /data/subjects",
		Flags:  studyflags.Flags(),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
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

	var ids []string

	if exists {
		ids, err = subjects.Load(fs, listPath)
	} else {
		ids, err = subjects.Discover(ctx, fs, settings.RawDir)
	}

	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	plan, err := pipeline.Render(settings, ids)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out, err := encodePlan(plan)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintln(cmd.Writer, string(out))

	return nil
}

// encodePlan renders the plan as JSON, colourised when stdout is a capable
// terminal.
func encodePlan(plan *pipeline.Plan) ([]byte, error) {
	if !color.Enabled() {
		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return nil, errors.Join(ErrEncodePlan, err)
		}

		return out, nil
	}

	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, errors.Join(ErrEncodePlan, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Join(ErrEncodePlan, err)
	}

	formatter := colorjson.NewFormatter()
	formatter.Indent = jsonIndent

	out, err := formatter.Marshal(obj)
	if err != nil {
		return nil, errors.Join(ErrEncodePlan, err)
	}

	return out, nil
}
