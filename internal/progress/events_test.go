// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		et   EventType
		want string
	}{
		{EventStarted, "started"},
		{EventOutput, "output"},
		{EventCompleted, "completed"},
		{EventFailed, "failed"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.et.String())
	}
}

type collectListener struct {
	mu     sync.Mutex
	events []Event
}

func (cl *collectListener) OnEvent(event Event) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.events = append(cl.events, event)
}

func (cl *collectListener) count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return len(cl.events)
}

func TestChannelReporterDeliversEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 8)
	listener := &collectListener{}
	cr.Listen(listener)

	cr.Report(Event{Label: "sub-01", Type: EventStarted, Timestamp: time.Now()})
	cr.Report(Event{Label: "sub-01", Type: EventCompleted, Timestamp: time.Now()})

	assert.Eventually(t, func() bool {
		return listener.count() == 2
	}, time.Second, 10*time.Millisecond)

	cr.Close()
}

func TestChannelReporterDropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)
	defer cr.Close()

	// No listener attached; second event must be dropped without blocking.
	cr.Report(Event{Label: "sub-01", Type: EventStarted})
	cr.Report(Event{Label: "sub-02", Type: EventStarted})

	assert.Len(t, cr.Events(), 1)
}

func TestChannelReporterReportAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	cr := NewChannelReporter(context.Background(), 1)
	cr.Close()

	// Must not panic.
	cr.Report(Event{Label: "sub-01", Type: EventStarted})
}

func TestNullReporter(t *testing.T) {
	nr := NewNullReporter()
	nr.Report(Event{Label: "sub-01"})
	nr.Close()
}
