package mqtt

import (
	"fmt"

	"labcatalog/internal/common/config"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps a paho client with the broker settings it was built from.
type Client struct {
	client paho.Client
	config *config.MQTTConfig
}

// NewClient connects to the broker and blocks until the CONNACK arrives.
func NewClient(cfg *config.MQTTConfig) (*Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Client{client: client, config: cfg}, nil
}

// Publish sends payload to topic with the configured QoS.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	token := c.client.Publish(topic, c.config.QoS, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect waits up to 250ms for in-flight work.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected reports the underlying connection state.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
