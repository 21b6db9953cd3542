// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrInvalidManifest is returned when the manifest cannot be decoded.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrUnknownManifestFormat is returned for manifest files that are neither YAML nor HCL.
	ErrUnknownManifestFormat = errors.New("unknown manifest format, expected .yaml, .yml or .hcl")
)

// Manifest is the study manifest as written by the user, in YAML or HCL.
// Zero values mean "not set" and fall through to flags or defaults.
type Manifest struct {
	Name     string            `yaml:"name" hcl:"name,optional"`
	Pipeline *PipelineBlock    `yaml:"pipeline" hcl:"pipeline,block"`
	Runner   *RunnerBlock      `yaml:"runner" hcl:"runner,block"`
	Env      map[string]string `yaml:"env" hcl:"env,optional"`
}

// PipelineBlock configures the per-subject command rendering.
type PipelineBlock struct {
	Template string `yaml:"template" hcl:"template,optional"`
	Group    string `yaml:"group" hcl:"group,optional"`
	Pattern  string `yaml:"pattern" hcl:"pattern,optional"`
}

// RunnerBlock configures the batch-parallel executor.
type RunnerBlock struct {
	Command string   `yaml:"command" hcl:"command,optional"`
	Args    []string `yaml:"args" hcl:"args,optional"`
	Jobs    int      `yaml:"jobs" hcl:"jobs,optional"`
}

// DecodeManifest decodes manifest bytes, selecting the codec from the file
// name extension. HCL manifests can reference process environment variables
// through the "env" object, e.g. runner { command = env.RECON_RUNNER }.
func DecodeManifest(filename string, data []byte) (*Manifest, error) {
	m := &Manifest{}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, errors.Join(ErrInvalidManifest, err)
		}
	case ".hcl":
		if err := hclsimple.Decode(filename, data, hclEvalContext(), m); err != nil {
			return nil, errors.Join(ErrInvalidManifest, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownManifestFormat, filename)
	}

	return m, nil
}

// hclEvalContext exposes the process environment to HCL manifests as the
// "env" object variable.
func hclEvalContext() *hcl.EvalContext {
	environ := os.Environ()
	vals := make(map[string]cty.Value, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vals[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
	}
}

// Apply overlays manifest values onto the settings. Only values the manifest
// actually sets are applied; the caller applies flag overrides afterwards.
func (m *Manifest) Apply(settings *Settings) {
	if m.Name != "" {
		settings.Name = m.Name
	}

	if m.Pipeline != nil {
		if m.Pipeline.Template != "" {
			settings.Template = m.Pipeline.Template
		}

		if m.Pipeline.Group != "" {
			settings.Group = m.Pipeline.Group
		}

		if m.Pipeline.Pattern != "" {
			settings.Pattern = m.Pipeline.Pattern
		}
	}

	if m.Runner != nil {
		if m.Runner.Command != "" {
			settings.Runner = m.Runner.Command
		}

		if len(m.Runner.Args) > 0 {
			settings.RunnerArgs = m.Runner.Args
		}

		if m.Runner.Jobs > 0 {
			settings.Jobs = m.Runner.Jobs
		}
	}

	if len(m.Env) > 0 {
		if settings.Env == nil {
			settings.Env = make(map[string]string, len(m.Env))
		}

		for k, v := range m.Env {
			settings.Env[k] = v
		}
	}
}
