// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
	"github.com/spf13/afero"
)

// ErrWriteLog is returned when the study log cannot be appended to.
var ErrWriteLog = errors.New("failed to append to study log")

const logFileMode = 0o644

// HostInfo describes the machine a run executed on. It is recorded in the
// study log so reconstruction timings can be compared across hardware.
type HostInfo struct {
	Hostname    string
	OS          string
	Arch        string
	CPUs        int
	TotalMemory uint64 // bytes, zero when the platform probe is unavailable
	Kernel      string
}

// CollectHostInfo probes the local machine. Probe failures degrade to empty
// fields rather than failing the run, the report is advisory.
func CollectHostInfo() HostInfo {
	info := HostInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPUs: runtime.NumCPU(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	info.Kernel, info.TotalMemory = probeKernel()

	return info
}

// SubjectOutcome is the final state of one subject's pipeline command.
type SubjectOutcome struct {
	Subject  string
	Status   runbatch.ResultStatus
	ExitCode int
}

// Run is one complete dispatch, summarised for the study log.
type Run struct {
	Study    string
	Runner   string
	Jobs     int // parallel job slots, zero when left to the runner's default
	Started  time.Time
	Finished time.Time
	Host     HostInfo
	Subjects int
	Failed   int
	Outcomes []SubjectOutcome // per-subject detail, empty for external runners
}

// Elapsed returns the wall-clock duration of the run, rounded to the second.
func (r *Run) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started).Round(time.Second)
}

// Summarise builds the run record from the result tree. The builtin runner
// produces one child result per subject; an external runner produces a single
// opaque result, in which case per-subject outcomes stay empty and the
// failure count reflects the runner's own exit status.
func Summarise(study, runner string, started, finished time.Time, subjects int, results runbatch.Results) *Run {
	run := &Run{
		Study:    study,
		Runner:   runner,
		Started:  started,
		Finished: finished,
		Host:     CollectHostInfo(),
		Subjects: subjects,
	}

	for _, res := range results {
		if len(res.Children) == 0 {
			if res.Status == runbatch.ResultStatusError {
				run.Failed = subjects
			}

			continue
		}

		for _, child := range res.Children {
			outcome := SubjectOutcome{
				Subject:  child.Label,
				Status:   child.Status,
				ExitCode: child.ExitCode,
			}

			if child.Status == runbatch.ResultStatusError {
				run.Failed++
			}

			run.Outcomes = append(run.Outcomes, outcome)
		}
	}

	return run
}

// Append writes the run report as a text block at the end of the study log,
// creating the file if needed. Each run is one block, so the log accumulates
// a history of dispatches with their timings and hardware.
func Append(fs afero.Fs, path string, run *Run) error {
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFileMode)
	if err != nil {
		return errors.Join(ErrWriteLog, err)
	}

	defer f.Close() //nolint:errcheck

	if err := write(f, run); err != nil {
		return errors.Join(ErrWriteLog, err)
	}

	return nil
}

// write renders the report block.
func write(w io.Writer, run *Run) error {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "==== reconbatch run %s ====\n", run.Started.Format(time.RFC3339))

	if run.Study != "" {
		fmt.Fprintf(sb, "study:    %s\n", run.Study)
	}

	if run.Jobs > 0 {
		fmt.Fprintf(sb, "runner:   %s (%d jobs)\n", run.Runner, run.Jobs)
	} else {
		fmt.Fprintf(sb, "runner:   %s\n", run.Runner)
	}
	fmt.Fprintf(sb, "subjects: %d total, %d ok, %d failed\n",
		run.Subjects, run.Subjects-run.Failed, run.Failed)
	fmt.Fprintf(sb, "elapsed:  %s (finished %s)\n",
		run.Elapsed(), run.Finished.Format(time.RFC3339))

	host := run.Host
	fmt.Fprintf(sb, "host:     %s (%s/%s, %d cpus", host.Hostname, host.OS, host.Arch, host.CPUs)

	if host.TotalMemory > 0 {
		fmt.Fprintf(sb, ", %s ram", humanize.IBytes(host.TotalMemory))
	}

	sb.WriteString(")\n")

	if host.Kernel != "" {
		fmt.Fprintf(sb, "kernel:   %s\n", host.Kernel)
	}

	for _, o := range run.Outcomes {
		if o.Status != runbatch.ResultStatusError {
			continue
		}

		fmt.Fprintf(sb, "  failed: %s (exit %d)\n", o.Subject, o.ExitCode)
	}

	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())

	return err
}
