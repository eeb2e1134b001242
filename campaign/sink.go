package campaign

import (
	"sync"

	"github.com/theidealshukla/ColdMailBot-api/models"
)

// EventType discriminates the progress events a campaign emits.
type EventType string

const (
	EventConnected  EventType = "connected"
	EventProgress   EventType = "progress"
	EventError      EventType = "error"
	EventComplete   EventType = "complete"
	EventFatalError EventType = "fatal_error"
)

// Event is one incremental status update. Progress events are emitted before
// each send attempt; the complete event carries the same summary fields as
// the buffered response.
type Event struct {
	Type             EventType       `json:"type"`
	CampaignID       string          `json:"campaign_id,omitempty"`
	Contact          *models.Contact `json:"contact,omitempty"`
	Position         int             `json:"position,omitempty"`
	Total            int             `json:"total,omitempty"`
	Success          int             `json:"success"`
	Fail             int             `json:"fail"`
	Error            string          `json:"error,omitempty"`
	FailedRecipients []string        `json:"failed_recipients,omitempty"`
}

// Sink receives campaign events. Implementations may stream, buffer or
// discard them; the runner does not care which. A sink error never fails a
// send, it is only logged.
type Sink interface {
	Emit(event Event) error
}

// BufferSink collects events in memory. Useful for callers without an
// incremental channel and for tests.
type BufferSink struct {
	mu     sync.Mutex
	events []Event
}

func (b *BufferSink) Emit(event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (b *BufferSink) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}
