// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package subjects

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudyFs(t *testing.T, subjectDirs []string, rawFiles []string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/study/raw", 0o755))
	require.NoError(t, fs.MkdirAll("/study/out", 0o755))

	for _, d := range subjectDirs {
		require.NoError(t, fs.MkdirAll(filepath.Join("/study/raw", d), 0o755))
	}

	for _, f := range rawFiles {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/study/raw", f), []byte("x"), 0o644))
	}

	return fs
}

func TestValidateDirs(t *testing.T) {
	fs := newStudyFs(t, nil, nil)

	assert.NoError(t, ValidateDirs(fs, "/study/raw", "/study/out"))

	err := ValidateDirs(fs, "/study/missing", "/study/out")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotADirectory)

	// Both bad paths are reported together.
	err = ValidateDirs(fs, "/study/missing", "/study/also-missing")
	require.Error(t, err)

	var merr *multierror.Error

	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}

func TestValidateDirsFileNotDir(t *testing.T) {
	fs := newStudyFs(t, nil, []string{"README"})

	err := ValidateDirs(fs, "/study/raw/README", "/study/out")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestDiscover(t *testing.T) {
	fs := newStudyFs(t,
		[]string{"sub-02", "sub-01", ".snapshot"},
		[]string{"manifest.csv"},
	)

	ids, err := Discover(context.Background(), fs, "/study/raw")
	require.NoError(t, err)

	// Files and hidden entries are excluded, output is sorted.
	assert.Equal(t, []string{"sub-01", "sub-02"}, ids)
}

func TestDiscoverMissingDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Discover(context.Background(), fs, "/nope")
	assert.ErrorIs(t, err, ErrDiscover)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	list := "sub-01\n\n# pilot scan, excluded\n  sub-02  \n"
	require.NoError(t, afero.WriteFile(fs, "/study/out/subjects.txt", []byte(list), 0o644))

	ids, err := Load(fs, "/study/out/subjects.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-01", "sub-02"}, ids)
}

func TestLoadMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/study/out/subjects.txt")
	assert.ErrorIs(t, err, ErrReadList)
}

func TestResolveReadsExistingList(t *testing.T) {
	fs := newStudyFs(t, []string{"sub-01", "sub-02"}, nil)
	require.NoError(t, afero.WriteFile(fs, "/study/out/subjects.txt", []byte("sub-99\n"), 0o644))

	ids, derived, err := Resolve(context.Background(), fs, "/study/raw", "/study/out/subjects.txt")
	require.NoError(t, err)
	assert.False(t, derived)
	assert.Equal(t, []string{"sub-99"}, ids, "existing list wins over discovery")
}

func TestResolveDerivesAndWritesBack(t *testing.T) {
	fs := newStudyFs(t, []string{"sub-01", "sub-02"}, nil)

	ids, derived, err := Resolve(context.Background(), fs, "/study/raw", "/study/out/subjects.txt")
	require.NoError(t, err)
	assert.True(t, derived)
	assert.Equal(t, []string{"sub-01", "sub-02"}, ids)

	// Derived list is persisted for subsequent runs.
	data, err := afero.ReadFile(fs, "/study/out/subjects.txt")
	require.NoError(t, err)
	assert.Equal(t, "sub-01\nsub-02\n", string(data))
}

func TestResolveEmpty(t *testing.T) {
	fs := newStudyFs(t, nil, []string{"only-a-file.nii"})

	_, _, err := Resolve(context.Background(), fs, "/study/raw", "/study/out/subjects.txt")
	assert.ErrorIs(t, err, ErrEmptySubjectList)
}

func TestResolveEmptyListFile(t *testing.T) {
	fs := newStudyFs(t, []string{"sub-01"}, nil)
	require.NoError(t, afero.WriteFile(fs, "/study/out/subjects.txt", []byte("# nothing yet\n"), 0o644))

	_, _, err := Resolve(context.Background(), fs, "/study/raw", "/study/out/subjects.txt")
	assert.ErrorIs(t, err, ErrEmptySubjectList)
}

func TestValidateAgainstRaw(t *testing.T) {
	fs := newStudyFs(t, []string{"sub-01"}, nil)

	assert.NoError(t, ValidateAgainstRaw(fs, "/study/raw", []string{"sub-01"}))

	err := ValidateAgainstRaw(fs, "/study/raw", []string{"sub-01", "sub-02", "sub-03"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRawData)

	var merr *multierror.Error

	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
}
