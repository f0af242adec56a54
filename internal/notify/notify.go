package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Event types
const (
	EventNoteCreated       = "note.created"
	EventNoteUpdated       = "note.updated"
	EventTrainingsReplaced = "trainings.replaced"
	EventCatalogImported   = "catalog.imported"
)

// Event workflow notification
type Event struct {
	Type    string         `json:"type"`
	Subject string         `json:"subject"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Publisher delivers events to one sink.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout delivers to every sink. Delivery is best effort: failures are logged
// and never returned to the caller.
type Fanout struct {
	sinks  []Publisher
	logger *zap.Logger
}

func NewFanout(logger *zap.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, s := range f.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			f.logger.Warn("event delivery failed",
				zap.String("type", ev.Type),
				zap.String("subject", ev.Subject),
				zap.Error(err),
			)
		}
	}
	return nil
}
