// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package studyflags holds the flags shared by every command that needs a
// resolved study configuration, and resolves them against an optional study
// manifest. Precedence is flags over manifest over defaults.
package studyflags

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/reconbatch/internal/pipeline"
	"github.com/urfave/cli/v3"
)

const (
	// RawFlag is the raw-data directory flag name.
	RawFlag = "raw"
	// SubjectsDirFlag is the pipeline output directory flag name.
	SubjectsDirFlag = "subjects-dir"
	// ListFlag is the subject list file flag name.
	ListFlag = "list"
	// StudyFlag is the study name flag name.
	StudyFlag = "study"
	// GroupFlag is the subject group suffix flag name.
	GroupFlag = "group"
	// PatternFlag is the raw-data path pattern flag name.
	PatternFlag = "pattern"
	// TemplateFlag is the command template flag name.
	TemplateFlag = "template"
	// RunnerFlag is the external runner flag name.
	RunnerFlag = "runner"
	// RunnerArgFlag is the extra runner argument flag name.
	RunnerArgFlag = "runner-arg"
	// JobsFlag is the parallel job slots flag name.
	JobsFlag = "jobs"
	// ManifestFlag is the study manifest URL flag name.
	ManifestFlag = "manifest"
)

// ErrResolve is returned when the study configuration cannot be resolved.
var ErrResolve = errors.New("failed to resolve study configuration")

// Flags returns the study configuration flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      RawFlag,
			Aliases:   []string{"r"},
			Usage:     "Directory containing one raw-data directory per subject",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      SubjectsDirFlag,
			Aliases:   []string{"s"},
			Usage:     "Pipeline output directory, exported to pipeline processes as SUBJECTS_DIR",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      ListFlag,
			Aliases:   []string{"l"},
			Usage:     "Subject list file. Defaults to subjects.txt in the subjects directory",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     StudyFlag,
			Usage:    "Study name, used in logs and run history",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     GroupFlag,
			Aliases:  []string{"g"},
			Usage:    "Suffix appended to each subject id in the rendered command",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     PatternFlag,
			Usage:    "Raw-data path pattern appended to the subject's raw directory",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     TemplateFlag,
			Usage:    "Per-subject command template",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     RunnerFlag,
			Usage:    "External batch-parallel runner executable, or 'builtin' for in-process execution",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:  RunnerArgFlag,
			Usage: "Extra argument for the external runner. Specify multiple times",
		},
		&cli.IntFlag{
			Name:     JobsFlag,
			Aliases:  []string{"j"},
			Usage:    "Maximum subjects in flight. Defaults to the number of CPU cores available",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:    ManifestFlag,
			Aliases: []string{"f"},
			Usage: "URL of the study manifest (YAML or HCL). " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources",
			OnlyOnce: true,
		},
	}
}

// Resolve builds the study settings from the manifest (if given) and the
// command flags. Flag values override manifest values.
func Resolve(ctx context.Context, cmd *cli.Command) (*pipeline.Settings, error) {
	settings := &pipeline.Settings{}

	if url := cmd.String(ManifestFlag); url != "" {
		data, err := getURL(ctx, url)
		if err != nil {
			return nil, errors.Join(ErrResolve, err)
		}

		manifest, err := pipeline.DecodeManifest(url, data)
		if err != nil {
			return nil, errors.Join(ErrResolve, err)
		}

		manifest.Apply(settings)
	}

	applyFlags(cmd, settings)

	return settings, nil
}

// applyFlags overlays set flag values onto the settings.
func applyFlags(cmd *cli.Command, settings *pipeline.Settings) {
	if v := cmd.String(StudyFlag); v != "" {
		settings.Name = v
	}

	if v := cmd.String(RawFlag); v != "" {
		settings.RawDir = v
	}

	if v := cmd.String(SubjectsDirFlag); v != "" {
		settings.SubjectsDir = v
	}

	if v := cmd.String(TemplateFlag); v != "" {
		settings.Template = v
	}

	if v := cmd.String(GroupFlag); v != "" {
		settings.Group = v
	}

	if v := cmd.String(PatternFlag); v != "" {
		settings.Pattern = v
	}

	if v := cmd.String(RunnerFlag); v != "" {
		settings.Runner = v
	}

	if v := cmd.StringSlice(RunnerArgFlag); len(v) > 0 {
		settings.RunnerArgs = v
	}

	if v := cmd.Int(JobsFlag); v > 0 {
		settings.Jobs = int(v)
	}
}
