// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

const ellipsis = "..."

// LastLineTeeReader wraps an io.Reader and captures both the complete output
// and the last complete line, for progress display purposes.
// It is safe for concurrent use.
type LastLineTeeReader struct {
	reader         io.Reader
	fullBuffer     *bytes.Buffer
	lastLine       string
	partialBuilder strings.Builder // Buffer for incomplete lines
	mu             sync.RWMutex
}

// New creates a LastLineTeeReader that wraps the given reader.
func New(r io.Reader) *LastLineTeeReader {
	return &LastLineTeeReader{
		reader:     r,
		fullBuffer: &bytes.Buffer{},
	}
}

// Read implements io.Reader. It reads from the underlying reader and updates
// both the full buffer and the last line tracking.
func (lt *LastLineTeeReader) Read(p []byte) (n int, err error) {
	n, err = lt.reader.Read(p)
	if n > 0 {
		lt.mu.Lock()
		defer lt.mu.Unlock()

		lt.fullBuffer.Write(p[:n])
		lt.processNewData(string(p[:n]))
	}

	return n, err //nolint:wrapcheck
}

// processNewData updates the last line based on new data.
// Must be called with the write lock held.
func (lt *LastLineTeeReader) processNewData(data string) {
	lt.partialBuilder.WriteString(data)
	combined := lt.partialBuilder.String()

	lines := strings.Split(combined, "\n")

	if len(lines) == 1 {
		// No newline yet, keep accumulating the partial line.
		return
	}

	lt.lastLine = lines[len(lines)-2]
	lt.partialBuilder.Reset()

	if data[len(data)-1] != '\n' {
		lt.partialBuilder.WriteString(lines[len(lines)-1])
	}
}

// LastLine returns the last complete line that was read.
// Returns an empty string if no complete lines have been read yet.
// If maxLength > 0 the line is truncated to that length with a "..." suffix.
func (lt *LastLineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	result := lt.lastLine
	if maxLength > 0 && len(result) > maxLength {
		cut := maxLength - len(ellipsis)
		if cut < 0 {
			cut = 0
		}

		// Back up to a rune boundary so a multi-byte rune is never split.
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}

		result = result[:cut] + ellipsis
	}

	return result
}

// Bytes returns all data that has been read so far.
func (lt *LastLineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.fullBuffer.Bytes()
}
