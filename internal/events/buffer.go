// Package events fans recorded clicks out to a Redis stream for downstream consumers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/traffic-gate/internal/domain"
)

// EventTypeClickRecorded is the type of every event this package publishes.
const EventTypeClickRecorded = "click.recorded"

// ClickEvent is the payload written to the stream.
type ClickEvent struct {
	EventID   uuid.UUID          `json:"event_id"`
	EventType string             `json:"event_type"`
	Timestamp time.Time          `json:"timestamp"`
	Click     domain.ClickRecord `json:"click"`
}

// NewClickEvent wraps a record in an event envelope.
func NewClickEvent(record domain.ClickRecord) ClickEvent {
	return ClickEvent{
		EventID:   uuid.New(),
		EventType: EventTypeClickRecorded,
		Timestamp: time.Now().UTC(),
		Click:     record,
	}
}

// Buffer is a channel-based event buffer for non-blocking ingestion.
type Buffer struct {
	events chan ClickEvent
	closed chan struct{}
	once   sync.Once
}

// NewBuffer creates a buffer with a buffered channel of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		events: make(chan ClickEvent, capacity),
		closed: make(chan struct{}),
	}
}

// Send performs a non-blocking send. It returns false if the buffer is full.
func (b *Buffer) Send(event ClickEvent) bool {
	select {
	case b.events <- event:
		return true
	default:
		return false
	}
}

// Len returns the number of events currently buffered.
func (b *Buffer) Len() int {
	return len(b.events)
}

// Close signals the buffer to stop. It is safe to call multiple times.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}
