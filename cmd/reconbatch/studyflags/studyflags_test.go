// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package studyflags

import (
	"context"
	"testing"

	"github.com/matt-FFFFFF/reconbatch/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func Test_getURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		url     string
		wantErr error
	}{
		{
			name:    "empty url returns error",
			url:     "",
			wantErr: ErrGetManifest,
		},
		{
			name:    "unreachable remote fails",
			url:     "git::http://notexist//study.yaml",
			wantErr: ErrGetManifest,
		},
		{
			name: "local file succeeds",
			url:  "./testdata/study.yaml",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			data, err := getURL(ctx, tc.url)
			if tc.wantErr != nil {
				assert.Error(t, err)
				assert.Nil(t, data)

				return
			}

			require.NoError(t, err)
			assert.Contains(t, string(data), "name: adni")
		})
	}
}

// resolveWith runs Resolve through a throwaway command so flag parsing is
// exercised the same way the real CLI does it.
func resolveWith(t *testing.T, args ...string) (*pipeline.Settings, error) {
	t.Helper()

	var settings *pipeline.Settings

	cmd := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := Resolve(ctx, cmd)
			if err != nil {
				return err
			}

			settings = s

			return nil
		},
	}

	err := cmd.Run(context.Background(), append([]string{"test"}, args...))

	return settings, err
}

func TestResolveFlagsOnly(t *testing.T) {
	s, err := resolveWith(t,
		"--raw", "/data/raw",
		"--subjects-dir", "/data/subjects",
		"--group", "_fs7",
		"--jobs", "4",
		"--runner-arg", "--halt",
		"--runner-arg", "soon,fail=1",
	)
	require.NoError(t, err)

	assert.Equal(t, "/data/raw", s.RawDir)
	assert.Equal(t, "/data/subjects", s.SubjectsDir)
	assert.Equal(t, "_fs7", s.Group)
	assert.Equal(t, 4, s.Jobs)
	assert.Equal(t, []string{"--halt", "soon,fail=1"}, s.RunnerArgs)
}

func TestResolveManifestWithFlagOverride(t *testing.T) {
	s, err := resolveWith(t,
		"--manifest", "./testdata/study.yaml",
		"--jobs", "2",
	)
	require.NoError(t, err)

	assert.Equal(t, "adni", s.Name)
	assert.Equal(t, "_fs7", s.Group)
	assert.Equal(t, "parallel", s.Runner)
	assert.Equal(t, 2, s.Jobs, "flags override manifest values")
}

func TestResolveBadManifest(t *testing.T) {
	_, err := resolveWith(t, "--manifest", "./testdata/missing.yaml")
	assert.ErrorIs(t, err, ErrResolve)
}
