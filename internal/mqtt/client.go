package mqtt

import (
	"fmt"
	"sync"
	"time"

	"WellnessMonitorAPI/internal/config"
	"WellnessMonitorAPI/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is a thin publisher over the MQTT broker that carries the push
// notification channel. Delivery is best-effort: a broker outage degrades
// push notifications, it never fails alert evaluation.
type Client struct {
	client    mqtt.Client
	cfg       *config.MQTTConfig
	log       *logger.Logger
	mu        sync.RWMutex
	connected bool
}

type ClientConfig struct {
	MQTT   *config.MQTTConfig
	Logger *logger.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	c := &Client{
		cfg: cfg.MQTT,
		log: cfg.Logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Broker, cfg.MQTT.Port))
	opts.SetClientID(cfg.MQTT.ClientID)
	opts.SetKeepAlive(cfg.MQTT.KeepAlive)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(cfg.MQTT.ConnectTimeout)
	opts.SetAutoReconnect(cfg.MQTT.AutoReconnect)
	opts.SetCleanSession(true)

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	return c, nil
}

func (c *Client) Connect() error {
	c.log.Info("Connecting to MQTT broker: %s:%d", c.cfg.Broker, c.cfg.Port)

	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("connection timeout after %v", c.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.log.Info("Connected to MQTT broker")
	return nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Disconnect(250)
	c.log.Info("Disconnected from MQTT broker")
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Publish sends a payload to a topic under the configured prefix.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected to broker")
	}

	fullTopic := c.cfg.TopicPrefix + "/" + topic
	token := c.client.Publish(fullTopic, c.cfg.QoS, c.cfg.RetainMessages, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic: %s", fullTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	c.log.Debug("Published %d bytes to %s", len(payload), fullTopic)
	return nil
}

func (c *Client) onConnect(_ mqtt.Client) {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.log.Info("MQTT connection established")
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.log.Warn("MQTT connection lost: %v", err)
}
