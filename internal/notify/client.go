// Package notify publishes flux state to an MQTT broker.
package notify

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/config"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Client implements Publisher using the Paho MQTT client
type Client struct {
	client  pahomqtt.Client
	broker  string
	timeout time.Duration
}

// NewClient creates a new MQTT client with the given configuration.
// An empty client id is replaced with a random one.
func NewClient(cfg config.MQTTConfig) *Client {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "gammad-" + uuid.NewString()[:8]
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(pahomqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}
	opts.OnReconnecting = func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		log.Debug().Msg("MQTT reconnecting")
	}

	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		client:  pahomqtt.NewClient(opts),
		broker:  cfg.Broker,
		timeout: timeout,
	}
}

// Connect starts connecting to the broker. With connect-retry enabled the
// token completes once the first attempt is queued, so an unreachable broker
// does not block startup.
func (c *Client) Connect(ctx context.Context) error {
	log.Debug().Str("broker", c.broker).Msg("Connecting to MQTT broker")

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect closes the connection to the MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// Publish publishes a message and waits up to the configured timeout.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("publish to %s timed out after %s", topic, c.timeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	log.Debug().Str("topic", topic).Int("size", len(payload)).Msg("Published message")
	return nil
}
