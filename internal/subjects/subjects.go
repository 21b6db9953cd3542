// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package subjects

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/reconbatch/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// DefaultListFileName is the subject list file created in the subjects directory.
	DefaultListFileName = "subjects.txt"

	commentPrefix = "#"
	listFileMode  = 0o644
)

var (
	// ErrNotADirectory is returned when a required directory path is missing or not a directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrEmptySubjectList is returned when no subjects could be read or discovered.
	ErrEmptySubjectList = errors.New("subject list is empty")
	// ErrReadList is returned when the subject list file cannot be read.
	ErrReadList = errors.New("failed to read subject list")
	// ErrWriteList is returned when the subject list file cannot be written.
	ErrWriteList = errors.New("failed to write subject list")
	// ErrDiscover is returned when the raw-data directory cannot be enumerated.
	ErrDiscover = errors.New("failed to discover subjects")
	// ErrMissingRawData is returned when a listed subject has no raw-data directory.
	ErrMissingRawData = errors.New("subject has no raw-data directory")
)

// ValidateDirs checks that both the raw-data and subjects directories exist
// and are directories. All failures are aggregated so the user sees every
// bad path at once.
func ValidateDirs(fs afero.Fs, rawDir, subjectsDir string) error {
	var result *multierror.Error

	for _, dir := range []string{rawDir, subjectsDir} {
		fi, err := fs.Stat(dir)

		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("%w: %s: %v", ErrNotADirectory, dir, err))
		case !fi.IsDir():
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrNotADirectory, dir))
		}
	}

	return result.ErrorOrNil()
}

// Load reads a newline-delimited subject list file.
// Lines are trimmed; blank lines and lines starting with "#" are skipped.
func Load(fs afero.Fs, listPath string) ([]string, error) {
	data, err := afero.ReadFile(fs, listPath)
	if err != nil {
		return nil, errors.Join(ErrReadList, err)
	}

	var ids []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		ids = append(ids, line)
	}

	return ids, nil
}

// Discover derives the subject list from the raw-data directory by listing
// its non-file entries. Hidden entries are excluded and the result is sorted.
func Discover(ctx context.Context, fs afero.Fs, rawDir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, rawDir)
	if err != nil {
		return nil, errors.Join(ErrDiscover, err)
	}

	var ids []string

	for _, entry := range entries {
		// Regular files are never subjects; directories and symlinked
		// directories are.
		if entry.Mode().IsRegular() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		ids = append(ids, name)
	}

	sort.Strings(ids)

	ctxlog.Debug(ctx, "discovered subjects", "rawDir", rawDir, "count", len(ids))

	return ids, nil
}

// Write writes the subject list to the given path, one id per line.
func Write(fs afero.Fs, listPath string, ids []string) error {
	sb := strings.Builder{}

	for _, id := range ids {
		sb.WriteString(id)
		sb.WriteString("\n")
	}

	if err := afero.WriteFile(fs, listPath, []byte(sb.String()), listFileMode); err != nil {
		return errors.Join(ErrWriteList, err)
	}

	return nil
}

// Resolve returns the subject list for a run. If the list file exists it is
// read; otherwise the list is derived from the raw-data directory and written
// back to the list file so subsequent runs are stable. The second return
// value reports whether the list was derived.
func Resolve(ctx context.Context, fs afero.Fs, rawDir, listPath string) ([]string, bool, error) {
	exists, err := afero.Exists(fs, listPath)
	if err != nil {
		return nil, false, errors.Join(ErrReadList, err)
	}

	if exists {
		ids, err := Load(fs, listPath)
		if err != nil {
			return nil, false, err
		}

		if len(ids) == 0 {
			return nil, false, fmt.Errorf("%w: %s", ErrEmptySubjectList, listPath)
		}

		return ids, false, nil
	}

	ctxlog.Info(ctx, "subject list not found, deriving from raw-data directory",
		"list", listPath, "rawDir", rawDir)

	ids, err := Discover(ctx, fs, rawDir)
	if err != nil {
		return nil, false, err
	}

	if len(ids) == 0 {
		return nil, false, fmt.Errorf("%w: no subject directories in %s", ErrEmptySubjectList, rawDir)
	}

	if err := Write(fs, listPath, ids); err != nil {
		return nil, false, err
	}

	return ids, true, nil
}

// ValidateAgainstRaw checks that every subject id has a matching directory
// under the raw-data directory. All missing subjects are aggregated into a
// single error.
func ValidateAgainstRaw(fs afero.Fs, rawDir string, ids []string) error {
	var result *multierror.Error

	for _, id := range ids {
		fi, err := fs.Stat(filepath.Join(rawDir, id))
		if err != nil || !fi.IsDir() {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrMissingRawData, id))
		}
	}

	return result.ErrorOrNil()
}
