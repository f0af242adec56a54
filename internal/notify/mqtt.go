package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MessagePublisher is satisfied by *mqtt.Client.
type MessagePublisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTPublisher sends events as JSON to <prefix>/<type>.
type MQTTPublisher struct {
	client MessagePublisher
	prefix string
}

func NewMQTTPublisher(client MessagePublisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

func (p *MQTTPublisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "/" + eventType
}

func (p *MQTTPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(p.Topic(ev.Type), false, payload)
}
