// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/matt-FFFFFF/reconbatch/internal/pipeline"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
)

// subjectsDirEnvVar is exported to every pipeline process so the
// reconstruction tools write their output under the study's subjects
// directory.
const subjectsDirEnvVar = "SUBJECTS_DIR"

var (
	// ErrRunnerNotFound is returned when the external runner executable is not on PATH.
	ErrRunnerNotFound = errors.New("runner executable not found on PATH")
	// ErrEmptyPlan is returned when the plan contains no commands.
	ErrEmptyPlan = errors.New("plan contains no commands")
)

// New builds the Runnable for a resolved plan. An external runner becomes a
// single OSCommand fed the rendered command lines on stdin; the builtin
// runner becomes a ParallelBatch of per-subject shell commands bounded by the
// job count.
func New(settings *pipeline.Settings, plan *pipeline.Plan) (runbatch.Runnable, error) {
	if len(plan.Commands) == 0 {
		return nil, ErrEmptyPlan
	}

	if plan.Runner == pipeline.BuiltinRunner {
		return newBuiltin(settings, plan), nil
	}

	return newExternal(settings, plan)
}

// newExternal wraps the external runner in an OSCommand. The rendered
// command lines are handed over on stdin, one line per subject, which is the
// contract GNU parallel and most queue submitters share.
func newExternal(settings *pipeline.Settings, plan *pipeline.Plan) (runbatch.Runnable, error) {
	runner := plan.Runner
	if runner == "" {
		runner = pipeline.DefaultRunner
	}

	path, err := exec.LookPath(runner)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunnerNotFound, runner)
	}

	label := runner
	if plan.Name != "" {
		label = fmt.Sprintf("%s (%s)", plan.Name, runner)
	}

	cmd := &runbatch.OSCommand{
		BaseCommand: runbatch.NewBaseCommand(label, settings.RawDir, buildEnv(settings)),
		Path:        path,
		Args:        runnerArgs(settings, plan, runner),
		Stdin:       []byte(plan.Lines()),
	}

	return cmd, nil
}

// runnerArgs returns the argument list for the external runner. Explicitly
// configured arguments win; otherwise GNU parallel gets its job-slot flag
// when a job count is set. Other runners take their defaults, there is no
// portable job-count flag.
func runnerArgs(settings *pipeline.Settings, plan *pipeline.Plan, runner string) []string {
	if len(settings.RunnerArgs) > 0 {
		return settings.RunnerArgs
	}

	if filepath.Base(runner) == pipeline.DefaultRunner && plan.Jobs > 0 {
		return []string{"-j", strconv.Itoa(plan.Jobs)}
	}

	return nil
}

// newBuiltin builds a bounded parallel batch with one shell invocation per
// subject. Command lines are templated strings, so they run through the
// user's shell the same way the external runner would run them.
func newBuiltin(settings *pipeline.Settings, plan *pipeline.Plan) runbatch.Runnable {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	env := buildEnv(settings)
	commands := make([]runbatch.Runnable, 0, len(plan.Commands))

	for _, c := range plan.Commands {
		commands = append(commands, &runbatch.OSCommand{
			BaseCommand: runbatch.NewBaseCommand(c.Subject, settings.RawDir, env),
			Path:        shell,
			Args:        []string{"-c", c.Line},
		})
	}

	label := plan.Name
	if label == "" {
		label = pipeline.BuiltinRunner
	}

	return &runbatch.ParallelBatch{
		BaseCommand: runbatch.NewBaseCommand(label, settings.RawDir, env),
		Commands:    commands,
		MaxParallel: int64(plan.Jobs),
	}
}

// buildEnv merges the study environment with the subjects directory export.
func buildEnv(settings *pipeline.Settings) map[string]string {
	env := make(map[string]string, len(settings.Env)+1)

	for k, v := range settings.Env {
		env[k] = v
	}

	if settings.SubjectsDir != "" {
		env[subjectsDirEnvVar] = settings.SubjectsDir
	}

	return env
}
