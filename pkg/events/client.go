// Package events publishes and consumes inventory events over MQTT. Messages
// travel as JSON envelopes on bleuims topics; delivery is best effort and
// must never gate an API response.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Config holds broker connection settings.
type Config struct {
	// BrokerURL is the MQTT broker URL (e.g., "tcp://localhost:1883")
	BrokerURL string
	// ClientID is the unique identifier for this client
	ClientID string
	// Username for broker authentication (optional)
	Username string
	// Password for broker authentication (optional)
	Password string
	// QoS applies to every publish and subscription
	QoS byte
	// KeepAlive interval
	KeepAlive time.Duration
	// ConnectTimeout bounds the initial connection attempt
	ConnectTimeout time.Duration
	// AutoReconnect enables automatic reconnection
	AutoReconnect bool
	// MaxReconnectInterval is the maximum time between reconnection attempts
	MaxReconnectInterval time.Duration
}

// Handler consumes a received message. A returned error is logged; the
// message is not redelivered.
type Handler func(topic string, payload []byte) error

// Client is the broker connection shared by event publishers and consumers.
type Client struct {
	client mqtt.Client
	logger *zap.Logger
	config *Config
}

// NewClient creates a broker client with the given configuration.
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "events"))

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.BrokerURL)
	opts.SetClientID(config.ClientID)

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetKeepAlive(config.KeepAlive)
	opts.SetConnectTimeout(config.ConnectTimeout)
	opts.SetAutoReconnect(config.AutoReconnect)
	opts.SetMaxReconnectInterval(config.MaxReconnectInterval)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Error("Broker connection lost", zap.Error(err))
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("Broker connected", zap.String("broker", config.BrokerURL))
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Info("Broker reconnecting...")
	})

	return &Client{
		client: mqtt.NewClient(opts),
		logger: logger,
		config: config,
	}, nil
}

// Connect establishes the connection to the broker.
func (c *Client) Connect() error {
	c.logger.Info("Connecting to broker", zap.String("broker", c.config.BrokerURL))

	token := c.client.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("connection timeout after %v", c.config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Disconnect closes the connection to the broker.
func (c *Client) Disconnect() {
	c.logger.Info("Disconnecting from broker")
	c.client.Disconnect(250)
}

// IsConnected returns true if the client is connected to the broker.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Publish sends a raw payload to the given topic at the configured QoS.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("client not connected")
	}

	token := c.client.Publish(topic, c.config.QoS, false, payload)
	token.Wait()

	if err := token.Error(); err != nil {
		c.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.Error(err))
		return fmt.Errorf("publish failed: %w", err)
	}

	c.logger.Debug("Event published",
		zap.String("topic", topic),
		zap.Int("size", len(payload)))
	return nil
}

// PublishJSON serializes the payload to JSON and publishes it.
func (c *Client) PublishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.Publish(topic, data)
}

// PublishMessage publishes an envelope message to the given topic.
func (c *Client) PublishMessage(topic string, msg *Message) error {
	return c.PublishJSON(topic, msg)
}

// Subscribe attaches a handler to a topic at the configured QoS.
func (c *Client) Subscribe(topic string, handler Handler) error {
	if !c.IsConnected() {
		return fmt.Errorf("client not connected")
	}

	callback := func(client mqtt.Client, msg mqtt.Message) {
		c.logger.Debug("Event received",
			zap.String("topic", msg.Topic()),
			zap.Int("size", len(msg.Payload())))

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Error("Handler error",
				zap.String("topic", msg.Topic()),
				zap.Error(err))
		}
	}

	token := c.client.Subscribe(topic, c.config.QoS, callback)
	token.Wait()

	if err := token.Error(); err != nil {
		c.logger.Error("Failed to subscribe",
			zap.String("topic", topic),
			zap.Error(err))
		return fmt.Errorf("subscribe failed: %w", err)
	}

	c.logger.Info("Subscribed to topic", zap.String("topic", topic))
	return nil
}

// Unsubscribe detaches the client from a topic.
func (c *Client) Unsubscribe(topic string) error {
	if !c.IsConnected() {
		return fmt.Errorf("client not connected")
	}

	token := c.client.Unsubscribe(topic)
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribe failed: %w", err)
	}

	c.logger.Info("Unsubscribed from topic", zap.String("topic", topic))
	return nil
}
