// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"log/slog"
)

// LogListener forwards progress events to a structured logger. It is the
// non-interactive counterpart to the TUI: lifecycle events are logged at
// info, per-line output at debug so a default log level stays quiet while
// commands run.
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener creates a LogListener writing to the given logger.
func NewLogListener(logger *slog.Logger) *LogListener {
	return &LogListener{logger: logger}
}

// OnEvent implements Listener.OnEvent.
func (ll *LogListener) OnEvent(event Event) {
	switch event.Type {
	case EventStarted:
		ll.logger.Info("started", "label", event.Label)
	case EventOutput:
		ll.logger.Debug("output", "label", event.Label, "line", event.Data.OutputLine)
	case EventCompleted:
		ll.logger.Info("completed", "label", event.Label)
	case EventFailed:
		ll.logger.Warn("failed", "label", event.Label, "exit_code", event.Data.ExitCode)
	}
}
