// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/matt-FFFFFF/reconbatch/internal/signalbroker"
	"github.com/matt-FFFFFF/reconbatch/internal/teereader"
)

const (
	maxBufferSize     = 8 * 1024 * 1024  // 8MB
	tickerInterval    = 10 * time.Second // Interval for the process watchdog ticker
	maxLastLineLength = 160              // Longest output line streamed as progress
)

// pipeRead carries the result of draining a process output pipe.
type pipeRead struct {
	data []byte
	err  error
}

var _ Runnable = (*OSCommand)(nil)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadBuffer is returned when the buffer from the operating system pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrTimeoutExceeded is returned when the command exceeds the context deadline.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrSignalReceived is returned when an operating system signal is received by the child process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal is received, forcing process termination.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
)

// OSCommand represents a single command to be run in the batch.
type OSCommand struct {
	*BaseCommand
	Args             []string       // Arguments to the command, do not include the executable name itself.
	Path             string         // The command to run (e.g. executable full path).
	Stdin            []byte         // Data written to the process stdin; nil inherits the parent stdin.
	SuccessExitCodes []int          // Exit codes that indicate success, defaults to 0.
	Quiet            bool           // Suppress the start/finish/elapsed console lines.
	sigCh            chan os.Signal // Channel to receive signals, allows mocking in test.
}

// Run implements the Runnable interface for OSCommand.
func (c *OSCommand) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("label", c.Label)

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	if c.SuccessExitCodes == nil {
		c.SuccessExitCodes = []int{0} // Default to success on exit code 0
	}

	if c.sigCh == nil {
		c.sigCh = signalbroker.New(ctx)
	}

	res := &Result{
		Label:    c.Label,
		ExitCode: 0,
	}

	env := os.Environ()

	for k, v := range c.Env {
		logger.Debug("adding environment variable", "key", k, "value", v)
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return errorResults(res, ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		return errorResults(res, ErrFailedToCreatePipe, err)
	}

	stdin := os.Stdin

	var rIn, wIn *os.File

	if c.Stdin != nil {
		rIn, wIn, err = os.Pipe()
		if err != nil {
			return errorResults(res, ErrFailedToCreatePipe, err)
		}

		stdin = rIn
	}

	execName := filepath.Base(c.Path)
	args := slices.Concat([]string{execName}, c.Args)

	logger.Debug("starting process")

	ps, err := os.StartProcess(c.Path, args, &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   env,
		Files: []*os.File{stdin, wOut, wErr},
	})

	startTime := time.Now()

	if !c.Quiet {
		fmt.Printf("Starting %s: at %s\n", c.GetLabel(), startTime.Format(ctxlog.TimeFormat))
	}

	if err != nil {
		res.Error = errors.Join(ErrCouldNotStartProcess, err)
		res.ExitCode = -1
		res.Status = ResultStatusError

		return Results{res}
	}

	logger.Debug("process started", "pid", ps.Pid)

	c.report(progress.Event{
		Label:     c.GetLabel(),
		Type:      progress.EventStarted,
		Timestamp: startTime,
	})

	if wIn != nil {
		// The child holds its own copy of the read end.
		_ = rIn.Close()

		go func() {
			_, _ = wIn.Write(c.Stdin)
			_ = wIn.Close()
		}()
	}

	// Stdout is read while the process runs so the last line can be streamed
	// as progress and a long-running pipeline cannot fill the pipe buffer.
	outTee := teereader.New(rOut)
	outCh := make(chan pipeRead, 1)

	go func() {
		data, err := readAllUpToMax(ctx, outTee, maxBufferSize)
		outCh <- pipeRead{data: data, err: err}
	}()

	// This is the process watchdog that will kill the process if the context is
	// cancelled, and relay any received signals to the process.
	done := make(chan struct{})
	// This allows us to track why the process was killed.
	wasKilled := make(chan error)

	go func() {
		signalCount := make(map[os.Signal]struct{})

		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if line := outTee.LastLine(maxLastLineLength); line != "" {
					c.report(progress.Event{
						Label:     c.GetLabel(),
						Type:      progress.EventOutput,
						Timestamp: time.Now(),
						Data: progress.EventData{
							OutputLine: line,
						},
					})
				}

				if c.Quiet {
					continue
				}

				diff := time.Since(startTime).Round(time.Second)
				fmt.Printf("Running %s: [%s]...\n", c.GetLabel(), diff)

			case s := <-c.sigCh:
				// is this the second signal received of this type?
				if _, ok := signalCount[s]; ok {
					logger.Info("received duplicate signal, killing process", "signal", s.String())
					fmt.Fprintf(wErr, "received duplicate signal, killing process: %s\n", s.String()) //nolint:errcheck
					killPs(ctx, ps)

					select {
					case wasKilled <- ErrDuplicateSignalReceived:
					case <-done:
						// Channel was closed, process already finished
					}

					return
				}

				signalCount[s] = struct{}{}

				logger.Info("received signal", "signal", s.String())
				fmt.Fprintf(wErr, "received signal: %s\n", s.String()) //nolint:errcheck

				if err := ps.Signal(s); err != nil {
					logger.Info("failed to send signal", "signal", s.String(), "error", err)
				}

				select {
				case wasKilled <- ErrSignalReceived:
				case <-done:
					// Channel was closed, process already finished
				}

			case <-ctx.Done():
				logger.Info("context done, killing process")
				fmt.Fprintln(wErr, "context done, killing process") //nolint:errcheck
				killPs(ctx, ps)

				select {
				case wasKilled <- ErrTimeoutExceeded:
				case <-done:
					// Channel was closed, process already finished
				}

				return

			case <-done:
				return
			}
		}
	}()

	logger.Debug("waiting for process to finish")

	state, psErr := ps.Wait()

	if !c.Quiet {
		fmt.Printf("Finished %s: at %s\n", c.GetLabel(), time.Now().Format(ctxlog.TimeFormat))
	}

	_ = wOut.Close()
	_ = wErr.Close()
	res.ExitCode = state.ExitCode()
	res.Error = psErr
	res.Status = ResultStatusUnknown

	logger.Debug("process finished", "exitCode", res.ExitCode)

	// Check if the process was killed due to cancellation or signal
	select {
	case e := <-wasKilled:
		res.Error = errors.Join(res.Error, e)
		res.ExitCode = -1
		res.Status = ResultStatusError
	default:
		// No error from watchdog, process completed normally
	}

	close(done)

	// Close wasKilled channel after signaling done to prevent race condition
	select {
	case <-wasKilled:
		// Already received an error from watchdog
	default:
		close(wasKilled)
	}

	switch {
	// Exit code is success and error is nil. Return success.
	case slices.Contains(c.SuccessExitCodes, res.ExitCode) && res.Error == nil:
		logger.Debug("process exit code indicates success", "exitCode", res.ExitCode)
		res.Status = ResultStatusSuccess
	// Exit code is not successful or process error is not nil. Return error.
	// A non-zero exit code does not generate an error, so this needs to be an OR.
	case res.Error != nil || !slices.Contains(c.SuccessExitCodes, res.ExitCode):
		logger.Debug("process error", "error", res.Error, "exitCode", res.ExitCode)

		if res.ExitCode == 0 {
			res.ExitCode = -1 // If exit code is 0 but there is an error, set exit code to -1
		}

		res.Status = ResultStatusError
	}

	logger.Debug("read stdout")

	out := <-outCh

	res.StdOut = out.data
	if out.err != nil {
		res.Error = errors.Join(res.Error, out.err)
		res.ExitCode = -1
	}

	logger.Debug("read stderr")

	stderr, err := readAllUpToMax(ctx, rErr, maxBufferSize)

	res.StdErr = stderr
	if err != nil {
		res.ExitCode = -1
		res.Error = errors.Join(res.Error, err)
	}

	eventType := progress.EventCompleted
	if res.Status == ResultStatusError {
		eventType = progress.EventFailed
	}

	c.report(progress.Event{
		Label:     c.GetLabel(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: progress.EventData{
			ExitCode: res.ExitCode,
			Error:    res.Error,
		},
	})

	return Results{res}
}

func errorResults(res *Result, sentinel, err error) Results {
	res.Error = errors.Join(sentinel, err)
	res.ExitCode = -1
	res.Status = ResultStatusError

	return Results{res}
}

func readAllUpToMax(ctx context.Context, r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && err != io.EOF {
		return nil, errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		ctxlog.Logger(ctx).Debug(
			"buffer overflow in readAllUpToMax",
			"bytesRead", n,
			"maxBytes", maxBufferSize,
		)

		return buf.Bytes()[:maxBufferSize], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}

// killPs kills the process and logs the outcome.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}
