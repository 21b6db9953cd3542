// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate is the per-subject command line rendered when the study
// manifest does not provide one. It invokes a cortical reconstruction
// pipeline on the subject's raw images.
const DefaultTemplate = "recon-all -s {{.Subject}}{{.Group}} -i {{.RawDir}}/{{.Subject}}/{{.Pattern}} -all"

// DefaultPattern is the raw-data path pattern appended to the subject's
// raw directory when none is configured.
const DefaultPattern = "*.nii.gz"

// DefaultRunner is the external batch-parallel executor used when the study
// does not configure one. It reads one command line per subject on stdin.
const DefaultRunner = "parallel"

// BuiltinRunner selects the in-process bounded executor instead of an
// external batch-parallel tool.
const BuiltinRunner = "builtin"

var (
	// ErrParseTemplate is returned when the command template cannot be parsed.
	ErrParseTemplate = errors.New("failed to parse command template")
	// ErrRenderTemplate is returned when the command template cannot be rendered for a subject.
	ErrRenderTemplate = errors.New("failed to render command template")
	// ErrNoSubjects is returned when a plan is requested for zero subjects.
	ErrNoSubjects = errors.New("no subjects to dispatch")
)

// Settings is the fully resolved configuration for a dispatch run.
// Precedence is flags over manifest over defaults; the resolution happens in
// the CLI layer, this struct is the end product.
type Settings struct {
	Name        string            // Study name, used in logs and history
	RawDir      string            // Directory holding one raw-data directory per subject
	SubjectsDir string            // Pipeline output directory (exported as SUBJECTS_DIR)
	Template    string            // Per-subject command template
	Group       string            // Optional suffix appended to the subject id
	Pattern     string            // Raw-data path pattern
	Runner      string            // External runner executable, or "builtin"
	RunnerArgs  []string          // Extra arguments for the external runner
	Jobs        int               // Parallel job slots
	Env         map[string]string // Environment exported to the pipeline processes
}

// templateData is the substitution payload for one subject.
type templateData struct {
	Subject     string
	Group       string
	RawDir      string
	SubjectsDir string
	Pattern     string
}

// Command is one rendered per-subject command line.
type Command struct {
	Subject string `json:"subject"`
	Line    string `json:"line"`
}

// Plan is the complete, resolved dispatch plan: one command line per subject
// plus the runner they will be handed to.
type Plan struct {
	Name     string            `json:"name"`
	Runner   string            `json:"runner"`
	Jobs     int               `json:"jobs"`
	Commands []Command         `json:"commands"`
	Env      map[string]string `json:"env,omitempty"`
}

// Render builds the dispatch plan by rendering the command template once per
// subject. Any rendering failure aborts before dispatch so no work starts on
// a partially built plan.
func Render(settings *Settings, ids []string) (*Plan, error) {
	if len(ids) == 0 {
		return nil, ErrNoSubjects
	}

	tmplText := settings.Template
	if tmplText == "" {
		tmplText = DefaultTemplate
	}

	pattern := settings.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	runner := settings.Runner
	if runner == "" {
		runner = DefaultRunner
	}

	tmpl, err := template.New("command").Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, errors.Join(ErrParseTemplate, err)
	}

	commands := make([]Command, 0, len(ids))

	for _, id := range ids {
		sb := strings.Builder{}

		data := templateData{
			Subject:     id,
			Group:       settings.Group,
			RawDir:      settings.RawDir,
			SubjectsDir: settings.SubjectsDir,
			Pattern:     pattern,
		}

		if err := tmpl.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("%w: subject %s: %v", ErrRenderTemplate, id, err)
		}

		commands = append(commands, Command{Subject: id, Line: sb.String()})
	}

	return &Plan{
		Name:     settings.Name,
		Runner:   runner,
		Jobs:     settings.Jobs,
		Commands: commands,
		Env:      settings.Env,
	}, nil
}

// Lines returns the rendered command lines, one per subject, newline
// terminated. This is the exact payload fed to the external runner's stdin.
func (p *Plan) Lines() string {
	sb := strings.Builder{}

	for _, c := range p.Commands {
		sb.WriteString(c.Line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Subjects returns the subject ids in plan order.
func (p *Plan) Subjects() []string {
	ids := make([]string, 0, len(p.Commands))

	for _, c := range p.Commands {
		ids = append(ids, c.Subject)
	}

	return ids
}
