package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookPublisher posts a one-line summary to a chat webhook ({"text": ...}).
// Each event is posted once; a failed post is not retried.
type WebhookPublisher struct {
	client *resty.Client
	url    string
}

func NewWebhookPublisher(url string) *WebhookPublisher {
	client := resty.New().
		SetTimeout(3 * time.Second).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	return &WebhookPublisher{client: client, url: url}
}

func (p *WebhookPublisher) Publish(ctx context.Context, ev Event) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": Summary(ev)}).
		Post(p.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode())
	}
	return nil
}

// Summary human-readable event line.
func Summary(ev Event) string {
	switch ev.Type {
	case EventNoteCreated:
		return fmt.Sprintf("New note on %s (%v)", ev.Subject, ev.Payload["method"])
	case EventNoteUpdated:
		return fmt.Sprintf("Note %s updated: status %v", ev.Subject, ev.Payload["status"])
	case EventTrainingsReplaced:
		return fmt.Sprintf("Trainings replaced for employee %s (%v entries)", ev.Subject, ev.Payload["count"])
	case EventCatalogImported:
		return fmt.Sprintf("Imported %v %s row(s)", ev.Payload["written"], ev.Subject)
	}
	return fmt.Sprintf("%s: %s", ev.Type, ev.Subject)
}
