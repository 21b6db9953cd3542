// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
)

// SubjectStatus represents the current state of a subject's pipeline command.
type SubjectStatus int

const (
	StatusPending SubjectStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
)

// String returns a string representation of the subject status.
func (s SubjectStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubjectRow is the display state for one subject.
type SubjectRow struct {
	Subject    string
	Status     SubjectStatus
	StartTime  *time.Time
	EndTime    *time.Time
	LastOutput string
	ErrorMsg   string
	mutex      sync.RWMutex
}

// NewSubjectRow creates a pending row for a subject.
func NewSubjectRow(subject string) *SubjectRow {
	return &SubjectRow{
		Subject: subject,
		Status:  StatusPending,
	}
}

// UpdateStatus safely updates the subject status and timestamps.
func (sr *SubjectRow) UpdateStatus(status SubjectStatus) {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()

	sr.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if sr.StartTime == nil {
			sr.StartTime = &now
		}
	case StatusSuccess, StatusFailed:
		if sr.EndTime == nil {
			sr.EndTime = &now
		}
	case StatusPending:
	}
}

// UpdateOutput safely records the last output line.
func (sr *SubjectRow) UpdateOutput(output string) {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()

	output = strings.TrimSpace(output)
	if output == "" {
		return
	}

	lines := strings.Split(output, "\n")
	sr.LastOutput = strings.TrimSpace(lines[len(lines)-1])
}

// UpdateError safely records the error message.
func (sr *SubjectRow) UpdateError(msg string) {
	sr.mutex.Lock()
	defer sr.mutex.Unlock()

	sr.ErrorMsg = msg
}

// GetDisplayInfo safely retrieves display information.
func (sr *SubjectRow) GetDisplayInfo() (SubjectStatus, string, string, *time.Time, *time.Time) {
	sr.mutex.RLock()
	defer sr.mutex.RUnlock()

	return sr.Status, sr.LastOutput, sr.ErrorMsg, sr.StartTime, sr.EndTime
}

// Model represents the TUI application state: one row per subject plus an
// overall completion status.
type Model struct {
	title     string
	spinner   spinner.Model
	rows      []*SubjectRow
	index     map[string]*SubjectRow
	width     int
	height    int
	scroll    int
	quitting  bool
	completed bool
	results   runbatch.Results
	styles    *Styles
	mutex     sync.RWMutex
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// NewModel creates a new TUI model with a pending row per subject.
func NewModel(title string, subjects []string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		title:   title,
		spinner: sp,
		rows:    make([]*SubjectRow, 0, len(subjects)),
		index:   make(map[string]*SubjectRow, len(subjects)),
		styles:  NewStyles(),
	}

	for _, s := range subjects {
		m.addRow(s)
	}

	return m
}

// addRow appends a row for a subject. Caller must hold the mutex or be
// single-threaded (construction time).
func (m *Model) addRow(subject string) *SubjectRow {
	row := NewSubjectRow(subject)
	m.rows = append(m.rows, row)
	m.index[subject] = row

	return row
}

// getOrCreateRow returns the row for a subject, creating it for labels that
// were not known up front (e.g. the external runner's own label).
func (m *Model) getOrCreateRow(subject string) *SubjectRow {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if row, ok := m.index[subject]; ok {
		return row
	}

	return m.addRow(subject)
}

// counts returns running, done and failed row counts.
// Caller must hold the model mutex.
func (m *Model) counts() (running, done, failed int) {
	for _, row := range m.rows {
		status, _, _, _, _ := row.GetDisplayInfo()

		switch status {
		case StatusRunning:
			running++
		case StatusSuccess:
			done++
		case StatusFailed:
			done++
			failed++
		case StatusPending:
		}
	}

	return running, done, failed
}

// processProgressEvent applies an incoming progress event to its row.
func (m *Model) processProgressEvent(event progress.Event) {
	row := m.getOrCreateRow(event.Label)

	switch event.Type {
	case progress.EventStarted:
		row.UpdateStatus(StatusRunning)

	case progress.EventOutput:
		row.UpdateOutput(event.Data.OutputLine)

	case progress.EventCompleted:
		row.UpdateStatus(StatusSuccess)

	case progress.EventFailed:
		row.UpdateStatus(StatusFailed)

		if event.Data.Error != nil {
			row.UpdateError(event.Data.Error.Error())
		}
	}
}
