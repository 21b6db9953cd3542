// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/matt-FFFFFF/reconbatch/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	m := NewModel("adni", []string{"sub-01", "sub-02"})

	require.Len(t, m.rows, 2)
	assert.Equal(t, "sub-01", m.rows[0].Subject)
	assert.Equal(t, StatusPending, m.rows[0].Status)
	assert.Same(t, m.rows[1], m.index["sub-02"])
}

func TestSubjectRow_UpdateStatus(t *testing.T) {
	row := NewSubjectRow("sub-01")

	row.UpdateStatus(StatusRunning)
	status, _, _, startTime, endTime := row.GetDisplayInfo()
	assert.Equal(t, StatusRunning, status)
	assert.NotNil(t, startTime)
	assert.Nil(t, endTime)

	firstStart := *startTime

	// A second start must not reset the clock.
	time.Sleep(time.Millisecond)
	row.UpdateStatus(StatusRunning)
	_, _, _, startTime, _ = row.GetDisplayInfo()
	assert.Equal(t, firstStart, *startTime)

	row.UpdateStatus(StatusSuccess)
	status, _, _, _, endTime = row.GetDisplayInfo()
	assert.Equal(t, StatusSuccess, status)
	assert.NotNil(t, endTime)
}

func TestSubjectRow_UpdateOutput(t *testing.T) {
	row := NewSubjectRow("sub-01")

	row.UpdateOutput("first line\nsecond line\n")
	_, output, _, _, _ := row.GetDisplayInfo()
	assert.Equal(t, "second line", output)

	// Blank output does not clear the last line.
	row.UpdateOutput("   \n")
	_, output, _, _, _ = row.GetDisplayInfo()
	assert.Equal(t, "second line", output)
}

func TestProcessProgressEvent(t *testing.T) {
	m := NewModel("adni", []string{"sub-01"})

	m.processProgressEvent(progress.Event{
		Label: "sub-01",
		Type:  progress.EventStarted,
	})
	assert.Equal(t, StatusRunning, m.rows[0].Status)

	m.processProgressEvent(progress.Event{
		Label: "sub-01",
		Type:  progress.EventOutput,
		Data:  progress.EventData{OutputLine: "recon-all step 5"},
	})
	_, output, _, _, _ := m.rows[0].GetDisplayInfo()
	assert.Equal(t, "recon-all step 5", output)

	m.processProgressEvent(progress.Event{
		Label: "sub-01",
		Type:  progress.EventFailed,
		Data:  progress.EventData{ExitCode: 1, Error: errors.New("boom")},
	})
	status, _, errMsg, _, _ := m.rows[0].GetDisplayInfo()
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, "boom", errMsg)
}

func TestProcessProgressEventUnknownLabel(t *testing.T) {
	m := NewModel("adni", []string{"sub-01"})

	m.processProgressEvent(progress.Event{
		Label: "adni (parallel)",
		Type:  progress.EventStarted,
	})

	require.Len(t, m.rows, 2, "unknown labels get their own row")
	assert.Equal(t, StatusRunning, m.rows[1].Status)
}

func TestCounts(t *testing.T) {
	m := NewModel("adni", []string{"a", "b", "c", "d"})

	m.rows[0].UpdateStatus(StatusRunning)
	m.rows[1].UpdateStatus(StatusSuccess)
	m.rows[2].UpdateStatus(StatusFailed)

	running, done, failed := m.counts()
	assert.Equal(t, 1, running)
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, failed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "long st...", truncate("long string here", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))

	// Multi-byte runes are never split mid-sequence.
	assert.Equal(t, "étape...", truncate("étape terminée", 9))
	assert.Equal(t, "éta...", truncate("étape terminée", 7))
	assert.True(t, utf8.ValidString(truncate("日本語のステータス行", 10)))
}
