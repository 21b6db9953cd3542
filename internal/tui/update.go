// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/matt-FFFFFF/reconbatch/internal/runbatch"
)

const (
	reservedLines    = 5                      // title, blank, status bar, blank, help
	minViewportRows  = 1
	durationRounding = 100 * time.Millisecond // Round durations to 100ms
	ellipsis         = "..."
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that the dispatch has finished.
type BatchCompletedMsg struct {
	Results runbatch.Results
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.spinner.Tick)
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		m.mutex.Unlock()

		return m, nil

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, nil

	case BatchCompletedMsg:
		m.mutex.Lock()
		m.completed = true
		m.results = msg.Results
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.scroll--
	case "down", "j":
		m.scroll++
	case "pgup":
		m.scroll -= m.viewportRows()
	case "pgdown":
		m.scroll += m.viewportRows()
	case "home":
		m.scroll = 0
	case "end":
		m.scroll = len(m.rows)
	}

	m.clampScroll()

	return m, nil
}

// viewportRows returns the number of subject rows that fit on screen.
func (m *Model) viewportRows() int {
	rows := m.height - reservedLines
	if rows < minViewportRows {
		rows = minViewportRows
	}

	return rows
}

// clampScroll keeps the scroll offset inside the row list.
func (m *Model) clampScroll() {
	maxScroll := len(m.rows) - m.viewportRows()
	if maxScroll < 0 {
		maxScroll = 0
	}

	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	if m.scroll < 0 {
		m.scroll = 0
	}
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	view.WriteString(m.styles.Title.Render(m.title))
	view.WriteString("\n")

	start := m.scroll
	end := start + m.viewportRows()

	if end > len(m.rows) {
		end = len(m.rows)
	}

	for _, row := range m.rows[start:end] {
		m.renderRow(&view, row)
	}

	view.WriteString("\n")
	view.WriteString(m.renderStatusBar())
	view.WriteString("\n")

	helpText := "↑/↓ or j/k to scroll, 'q' to quit"
	if m.completed {
		helpText = "'q' to quit and return to terminal"
	}

	view.WriteString(m.styles.Help.Render(helpText))

	return view.String()
}

// renderRow renders one subject line with status glyph, elapsed time and the
// last output line or error.
func (m *Model) renderRow(b *strings.Builder, row *SubjectRow) {
	status, output, errorMsg, startTime, endTime := row.GetDisplayInfo()

	var statusIcon, styledName string

	switch status {
	case StatusPending:
		statusIcon = "·"
		styledName = m.styles.Pending.Render(row.Subject)
	case StatusRunning:
		statusIcon = m.spinner.View()
		styledName = m.styles.Running.Render(row.Subject)
	case StatusSuccess:
		statusIcon = m.styles.Success.Render("✓")
		styledName = m.styles.Success.Render(row.Subject)
	case StatusFailed:
		statusIcon = m.styles.Failed.Render("✗")
		styledName = m.styles.Failed.Render(row.Subject)
	}

	left := fmt.Sprintf("%s %s", statusIcon, styledName)

	if startTime != nil {
		elapsed := time.Since(*startTime)
		if endTime != nil {
			elapsed = endTime.Sub(*startTime)
		}

		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(durationRounding)))
	}

	var right string

	switch {
	case errorMsg != "" && status == StatusFailed:
		right = m.styles.Error.Render(truncate(errorMsg, m.width/2))
	case output != "" && status == StatusRunning:
		right = m.styles.Output.Render(truncate(output, m.width/2))
	}

	b.WriteString(left)

	if right != "" {
		b.WriteString("  ")
		b.WriteString(right)
	}

	b.WriteString("\n")
}

// renderStatusBar renders the aggregate progress line.
func (m *Model) renderStatusBar() string {
	running, done, failed := m.counts()

	bar := fmt.Sprintf("%d/%d done, %d running", done, len(m.rows), running)
	if failed > 0 {
		bar += m.styles.Failed.Render(fmt.Sprintf(", %d failed", failed))
	}

	if m.completed {
		if m.results != nil && m.results.HasError() {
			return m.styles.Failed.Render("Dispatch completed with errors") + "  " + bar
		}

		return m.styles.Success.Render("Dispatch completed successfully") + "  " + bar
	}

	return bar
}

// truncate shortens s to at most max bytes, appending an ellipsis. The cut
// lands on a rune boundary so multi-byte runes are never split.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	if max <= len(ellipsis) {
		cut := runeBoundary(s, max)
		return s[:cut]
	}

	cut := runeBoundary(s, max-len(ellipsis))

	return s[:cut] + ellipsis
}

// runeBoundary returns the largest index <= i that starts a rune in s.
func runeBoundary(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}

	return i
}
