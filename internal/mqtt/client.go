package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Config holds MQTT broker connection settings
type Config struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	TopicRoot string
}

// Client wraps a paho MQTT client with a scoped topic root and JSON
// payload encoding.
type Client struct {
	topicRoot string
	client    paho.Client
}

// NewClient creates a new MQTT client. Connect must be called before use.
func NewClient(cfg Config) *Client {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
	})

	return &Client{
		topicRoot: strings.Trim(cfg.TopicRoot, "/"),
		client:    paho.NewClient(opts),
	}
}

// Connect establishes the connection to the broker.
func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return nil
}

// Disconnect closes the connection, allowing in-flight work to finish.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// Publish JSON-encodes the payload and publishes it under the topic root.
func (c *Client) Publish(topic string, payload any, retained bool) error {
	if topic == "" || strings.HasPrefix(topic, "/") {
		return fmt.Errorf("expected relative topic, got %q", topic)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", topic, err)
	}

	scoped := c.topicRoot + "/" + topic
	if token := c.client.Publish(scoped, 0, retained, body); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", scoped, token.Error())
	}
	return nil
}

// Subscribe registers a handler for a topic pattern under the topic root.
// The handler receives the topic relative to the root.
func (c *Client) Subscribe(pattern string, handler func(topic string, payload []byte)) error {
	scoped := c.topicRoot + "/" + pattern
	token := c.client.Subscribe(scoped, 1, func(_ paho.Client, msg paho.Message) {
		relative := strings.TrimPrefix(msg.Topic(), c.topicRoot+"/")
		handler(relative, msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", scoped, token.Error())
	}
	log.Debug().Str("topic", scoped).Msg("Subscribed")
	return nil
}
