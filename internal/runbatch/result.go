// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"io"
	"os"
	"slices"
)

// ErrResultChildrenHasError is set on a batch result when any child failed.
var ErrResultChildrenHasError = errors.New("result has children with errors")

// ResultStatus describes the final state of a command or batch.
type ResultStatus int

const (
	// ResultStatusUnknown is the zero value, before the command has finished.
	ResultStatusUnknown ResultStatus = iota
	// ResultStatusSuccess indicates the command completed successfully.
	ResultStatusSuccess
	// ResultStatusError indicates the command failed.
	ResultStatusError
)

// String implements the Stringer interface for ResultStatus.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	ExitCode int          // Exit code of the command or batch
	Error    error        // Error, if any
	StdOut   []byte       // Output from the command(s)
	StdErr   []byte       // Error output from the command(s)
	Label    string       // Label of the command or batch
	Status   ResultStatus // Final status
	Children Results      // Nested results for tree output
}

// Results is a slice of Result pointers, used to represent multiple results.
type Results []*Result

// HasError reports whether any result in the tree failed.
func (r Results) HasError() bool {
	for v := range slices.Values(r) {
		if v.Error != nil || v.ExitCode != 0 {
			return true
		}

		if v.Children != nil && v.Children.HasError() {
			return true
		}
	}

	return false
}

// Print outputs the results to stdout with default options.
func (r Results) Print() error {
	return writeTextResults(os.Stdout, r, nil)
}

// WriteText outputs the results to the specified writer with default options.
func (r Results) WriteText(w io.Writer) error {
	return writeTextResults(w, r, nil)
}

// WriteTextWithOptions outputs the results to the specified writer with the specified options.
func (r Results) WriteTextWithOptions(w io.Writer, options *OutputOptions) error {
	return writeTextResults(w, r, options)
}
