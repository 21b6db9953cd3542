// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLineTeeReader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLast string
	}{
		{
			name:     "empty input",
			input:    "",
			wantLast: "",
		},
		{
			name:     "no newline",
			input:    "partial",
			wantLast: "",
		},
		{
			name:     "single line",
			input:    "sub-01 finished\n",
			wantLast: "sub-01 finished",
		},
		{
			name:     "multiple lines",
			input:    "sub-01 started\nsub-01 finished\n",
			wantLast: "sub-01 finished",
		},
		{
			name:     "trailing partial line",
			input:    "sub-01 started\nsub-02 in prog",
			wantLast: "sub-01 started",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(strings.NewReader(tt.input))

			out, err := io.ReadAll(tr)
			require.NoError(t, err)

			assert.Equal(t, tt.input, string(out))
			assert.Equal(t, tt.input, string(tr.Bytes()))
			assert.Equal(t, tt.wantLast, tr.LastLine(0))
		})
	}
}

func TestLastLineTruncation(t *testing.T) {
	tr := New(strings.NewReader("a very long status line from the runner\n"))

	_, err := io.ReadAll(tr)
	require.NoError(t, err)

	assert.Equal(t, "a very ...", tr.LastLine(10))
}

func TestLastLineTruncationRuneBoundary(t *testing.T) {
	// The cut lands inside the two-byte "é" unless truncation backs up to a
	// rune boundary.
	tr := New(strings.NewReader("étape terminée: reconstruction corticale\n"))

	_, err := io.ReadAll(tr)
	require.NoError(t, err)

	got := tr.LastLine(4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "...", got)

	got = tr.LastLine(12)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "étape te...", got)
}

func TestReadAcrossChunks(t *testing.T) {
	tr := New(strings.NewReader("first line\nsecond line\n"))

	buf := make([]byte, 7) // Force several small reads

	for {
		if _, err := tr.Read(buf); err != nil {
			break
		}
	}

	assert.Equal(t, "second line", tr.LastLine(0))
}
