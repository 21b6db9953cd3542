// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"golang.org/x/sync/semaphore"
)

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch represents a collection of commands which run in parallel,
// bounded by MaxParallel job slots. There is no scheduling beyond the
// semaphore: commands start in order and finish when they finish.
type ParallelBatch struct {
	*BaseCommand
	Commands    []Runnable // The commands or nested batches to run
	MaxParallel int64      // Maximum commands in flight, defaults to the CPU count
}

// Run implements the Runnable interface for ParallelBatch.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("label", b.GetLabel()).
		With("runnableType", "ParallelBatch")

	maxParallel := b.MaxParallel
	if maxParallel <= 0 {
		maxParallel = int64(runtime.NumCPU())
	}

	logger.Debug("starting parallel batch", "commands", len(b.Commands), "maxParallel", maxParallel)

	for _, cmd := range b.Commands {
		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		if b.reporter != nil {
			cmd.SetReporter(b.reporter)
		}
	}

	sem := semaphore.NewWeighted(maxParallel)
	children := make(Results, 0, len(b.Commands))
	wg := &sync.WaitGroup{}
	resChan := make(chan Results, len(b.Commands))

	for _, cmd := range b.Commands {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled while waiting for a slot; remaining commands do not start.
			resChan <- Results{&Result{
				Label:    cmd.GetLabel(),
				ExitCode: -1,
				Error:    err,
				Status:   ResultStatusError,
			}}

			continue
		}

		wg.Add(1)

		go func(c Runnable) {
			defer wg.Done()
			defer sem.Release(1)

			resChan <- c.Run(ctx)
		}(cmd)
	}

	wg.Wait()
	close(resChan)

	for r := range resChan {
		children = slices.Concat(children, r)
	}

	res := Results{&Result{
		Label:    b.GetLabel(),
		Children: children,
		Status:   ResultStatusSuccess,
	}}
	if children.HasError() {
		res[0].ExitCode = -1
		res[0].Error = ErrResultChildrenHasError
		res[0].Status = ResultStatusError
	}

	return res
}

// SetReporter attaches a progress reporter to the batch and its commands.
func (b *ParallelBatch) SetReporter(reporter progress.Reporter) {
	b.BaseCommand.SetReporter(reporter)

	for _, cmd := range b.Commands {
		cmd.SetReporter(reporter)
	}
}
