// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlManifest = `
name: adni
pipeline:
  template: "recon-all -s {{.Subject}} -all"
  group: "_fs7"
  pattern: "*.dcm"
runner:
  command: parallel
  args: ["--halt", "soon,fail=1"]
  jobs: 8
env:
  FS_LICENSE: /opt/freesurfer/license.txt
`

const hclManifest = `
name = "adni"

pipeline {
  group   = "_fs7"
  pattern = "*.dcm"
}

runner {
  command = env.RECON_RUNNER
  jobs    = 8
}
`

func TestDecodeManifestYAML(t *testing.T) {
	m, err := DecodeManifest("study.yaml", []byte(yamlManifest))
	require.NoError(t, err)

	assert.Equal(t, "adni", m.Name)
	require.NotNil(t, m.Pipeline)
	assert.Equal(t, "_fs7", m.Pipeline.Group)
	assert.Equal(t, "*.dcm", m.Pipeline.Pattern)
	require.NotNil(t, m.Runner)
	assert.Equal(t, "parallel", m.Runner.Command)
	assert.Equal(t, []string{"--halt", "soon,fail=1"}, m.Runner.Args)
	assert.Equal(t, 8, m.Runner.Jobs)
	assert.Equal(t, "/opt/freesurfer/license.txt", m.Env["FS_LICENSE"])
}

func TestDecodeManifestHCL(t *testing.T) {
	stub := gostub.New().SetEnv("RECON_RUNNER", "srun")
	defer stub.Reset()

	m, err := DecodeManifest("study.hcl", []byte(hclManifest))
	require.NoError(t, err)

	assert.Equal(t, "adni", m.Name)
	require.NotNil(t, m.Runner)
	assert.Equal(t, "srun", m.Runner.Command)
	assert.Equal(t, 8, m.Runner.Jobs)
}

func TestDecodeManifestUnknownExtension(t *testing.T) {
	_, err := DecodeManifest("study.toml", []byte("name = \"x\""))
	assert.ErrorIs(t, err, ErrUnknownManifestFormat)
}

func TestDecodeManifestInvalid(t *testing.T) {
	_, err := DecodeManifest("study.yaml", []byte("name: [broken"))
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestManifestApplyPrecedence(t *testing.T) {
	settings := &Settings{
		Name:   "from-flags",
		Runner: "parallel",
		Jobs:   2,
		Env:    map[string]string{"EXISTING": "1"},
	}

	m := &Manifest{
		Name:     "adni",
		Pipeline: &PipelineBlock{Group: "_fs7"},
		Runner:   &RunnerBlock{Jobs: 8},
		Env:      map[string]string{"FS_LICENSE": "/opt/fs/license.txt"},
	}

	m.Apply(settings)

	assert.Equal(t, "adni", settings.Name)
	assert.Equal(t, "_fs7", settings.Group)
	assert.Equal(t, "parallel", settings.Runner, "unset manifest values leave settings alone")
	assert.Equal(t, 8, settings.Jobs)
	assert.Equal(t, "1", settings.Env["EXISTING"])
	assert.Equal(t, "/opt/fs/license.txt", settings.Env["FS_LICENSE"])
}

func TestManifestApplyEmpty(t *testing.T) {
	settings := &Settings{Name: "keep"}

	(&Manifest{}).Apply(settings)

	assert.Equal(t, "keep", settings.Name)
	assert.Nil(t, settings.Env)
}
