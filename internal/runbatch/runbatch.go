// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"

	"github.com/matt-FFFFFF/reconbatch/internal/progress"
)

// Runnable is the interface for anything that can be dispatched:
// a single OS command or a batch of them.
type Runnable interface {
	// Run executes the command or batch and returns the results.
	Run(ctx context.Context) Results
	// GetLabel returns the label of the command or batch.
	GetLabel() string
	// InheritEnv merges environment variables from the parent batch.
	InheritEnv(env map[string]string)
	// SetCwd sets the working directory for the command or batch.
	SetCwd(cwd string)
	// SetReporter attaches a progress reporter to the command or batch.
	SetReporter(reporter progress.Reporter)
}
