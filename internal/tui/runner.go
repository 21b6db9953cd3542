// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *TUIReporter
	mutex    sync.Mutex
}

// TUIReporter implements progress.Reporter and forwards events to the TUI.
type TUIReporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewTUIReporter creates a new TUI progress reporter.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{
		program: program,
	}
}

// Report implements progress.Reporter.Report.
func (tr *TUIReporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.Close.
func (tr *TUIReporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a new TUI runner showing one row per subject.
func NewRunner(title string, subjects []string) *Runner {
	model := NewModel(title, subjects)
	program := tea.NewProgram(model, tea.WithAltScreen())
	reporter := NewTUIReporter(program)

	return &Runner{
		model:    model,
		program:  program,
		reporter: reporter,
	}
}

// Reporter returns the progress reporter for this TUI runner.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Run starts the TUI and executes the runnable with progress reporting. The
// TUI stays up after completion until the user quits, so the final per-subject
// statuses remain visible.
func (r *Runner) Run(ctx context.Context, runnable runbatch.Runnable) (runbatch.Results, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	runnable.SetReporter(r.reporter)

	resultChan := make(chan runbatch.Results, 1)

	go func() {
		defer close(resultChan)

		resultChan <- runnable.Run(ctx)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		results runbatch.Results
		tuiErr  error
	)

	select {
	case results = <-resultChan:
		// Dispatch finished first: show the outcome until the user quits.
		r.program.Send(BatchCompletedMsg{Results: results})

		tuiErr = <-tuiDone

		r.reporter.Close()

	case tuiErr = <-tuiDone:
		// User quit the TUI while commands were still running. Keep waiting
		// for the dispatch so nothing is orphaned.
		r.reporter.Close()

		select {
		case results = <-resultChan:
		case <-ctx.Done():
			results = runbatch.Results{&runbatch.Result{
				Error:  ctx.Err(),
				Status: runbatch.ResultStatusError,
			}}
		}

	case <-ctx.Done():
		r.reporter.Close()
		r.program.Quit()

		select {
		case results = <-resultChan:
		default:
			results = runbatch.Results{&runbatch.Result{
				Error:  ctx.Err(),
				Status: runbatch.ResultStatusError,
			}}
		}

		<-tuiDone
	}

	return results, tuiErr
}
