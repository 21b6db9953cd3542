// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"

	"github.com/matt-FFFFFF/reconbatch/internal/progress"
)

// BaseCommand implements the common parts of the Runnable interface.
// It should be embedded in other command types to provide common functionality.
type BaseCommand struct {
	Label    string            // Label for the command, usually a subject id
	Cwd      string            // The working directory for the command
	Env      map[string]string // Environment variables to be passed to the command
	reporter progress.Reporter // Optional progress reporter
}

// NewBaseCommand creates a new BaseCommand with the specified parameters.
func NewBaseCommand(label, cwd string, env map[string]string) *BaseCommand {
	if env == nil {
		env = make(map[string]string)
	}

	return &BaseCommand{
		Label: label,
		Cwd:   cwd,
		Env:   env,
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// SetCwd sets the working directory for the command if one is not already set.
func (c *BaseCommand) SetCwd(cwd string) {
	if cwd == "" || c.Cwd != "" {
		return
	}

	c.Cwd = cwd
}

// InheritEnv sets additional environment variables for the command.
// Existing keys are not overwritten.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range maps.All(env) {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// SetReporter attaches a progress reporter to the command.
func (c *BaseCommand) SetReporter(reporter progress.Reporter) {
	c.reporter = reporter
}

// report sends an event if a reporter is attached.
func (c *BaseCommand) report(event progress.Event) {
	if c.reporter == nil {
		return
	}

	c.reporter.Report(event)
}
