// Package mqtt feeds commands from MQTT topics into the inbound queue and
// publishes the replies. It also announces the strip to Home Assistant.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/config"
	"neopixel-controller/internal/core"
)

// Subtopics under the configured prefix.
const (
	TopicCommand       = "command"
	TopicPowerSet      = "power/set"
	TopicBrightnessSet = "brightness/set"
	TopicEffectSet     = "effect/set"
	TopicNotify        = "notify"
	TopicAvailability  = "availability"
)

// Client is an MQTT command source and notification peer.
type Client struct {
	client  mqtt.Client
	cfg     config.MQTTConfig
	device  string
	queue   *core.Queue
	effects func() []string
	prefix  string
}

// NewClient creates the client, or returns nil when MQTT is disabled.
// effects lists the effect names announced to Home Assistant.
func NewClient(cfg config.MQTTConfig, device string, q *core.Queue, effects func() []string) *Client {
	if !cfg.Enabled {
		return nil
	}

	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)

	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	// Keep retrying at startup when the broker is not up yet.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	// Commands must reach the queue in arrival order.
	opts.SetOrderMatters(true)
	opts.SetWill(prefix+"/"+TopicAvailability, "offline", 1, true)

	c := &Client{
		cfg:     cfg,
		device:  device,
		queue:   q,
		effects: effects,
		prefix:  prefix,
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v. Retrying in background...", err)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, options *mqtt.ClientOptions) {
		log.Println("[MQTT] Attempting to reconnect...")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect starts connecting. With connect retry enabled an error here means
// a configuration problem rather than an unreachable broker.
func (c *Client) Connect() error {
	if c.client == nil {
		return nil
	}
	log.Printf("[MQTT] Starting connection loop to %s...", c.cfg.Broker)

	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] Initial connection error: %v", token.Error())
		return token.Error()
	}
	return nil
}

// Disconnect publishes the offline status and closes the connection.
func (c *Client) Disconnect() {
	if c.client == nil || !c.client.IsConnected() {
		return
	}
	log.Println("[MQTT] Disconnecting...")

	token := c.client.Publish(c.topic(TopicAvailability), 0, true, "offline")
	if token.WaitTimeout(2 * time.Second) {
		if token.Error() != nil {
			log.Printf("[MQTT] Warning: failed to publish offline status: %v", token.Error())
		}
	} else {
		log.Println("[MQTT] Warning: timed out publishing offline status")
	}

	c.client.Disconnect(250)
	log.Println("[MQTT] Disconnected.")
}

// Name implements core.Peer.
func (c *Client) Name() string {
	return "mqtt"
}

// Connected implements core.Peer.
func (c *Client) Connected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Send implements core.Peer by publishing text to the notify topic.
func (c *Client) Send(text string) error {
	return c.Publish(TopicNotify, strings.TrimSuffix(text, "\n"), false)
}

// Notify publishes a reply that concerns this source only.
func (c *Client) Notify(text string) {
	if err := c.Send(text); err != nil {
		log.Printf("[MQTT] %v", err)
	}
}

// Publish sends payload to a subtopic without blocking the caller.
func (c *Client) Publish(subtopic string, payload interface{}, retained bool) error {
	if !c.Connected() {
		return fmt.Errorf("not connected")
	}

	topic := c.topic(subtopic)
	token := c.client.Publish(topic, 0, retained, fmt.Sprintf("%v", payload))
	go func() {
		if token.WaitTimeout(5 * time.Second) {
			if token.Error() != nil {
				log.Printf("[MQTT] Publish error to %s: %v", topic, token.Error())
			}
		} else {
			log.Printf("[MQTT] Timeout publishing to %s", topic)
		}
	}()
	return nil
}

func (c *Client) topic(sub string) string {
	return fmt.Sprintf("%s/%s", c.prefix, sub)
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("[MQTT] Connected to broker.")

	for _, sub := range []string{TopicCommand, TopicPowerSet, TopicBrightnessSet, TopicEffectSet} {
		topic := c.topic(sub)
		if token := client.Subscribe(topic, 1, c.handler(sub)); token.Wait() && token.Error() != nil {
			log.Printf("[MQTT] Error subscribing to %s: %v", topic, token.Error())
		} else {
			log.Printf("[MQTT] Subscribed to %s", topic)
		}
	}

	// Discovery waits a moment, so it must not block the connect handler.
	go func() {
		if err := c.Publish(TopicAvailability, "online", true); err != nil {
			log.Printf("[MQTT] Failed to publish availability: %v", err)
		}
		if c.cfg.HADiscoveryEnabled {
			c.PublishHADiscovery()
		}
	}()
}

func (c *Client) handler(sub string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		token, ok := Translate(sub, string(msg.Payload()))
		if !ok {
			log.Printf("[MQTT] Ignoring payload %q on %s", msg.Payload(), msg.Topic())
			return
		}
		core.Submit(c.queue, c, token)
	}
}

// Translate maps a message on one of the command subtopics to a command token.
func Translate(sub, payload string) (string, bool) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", false
	}

	switch sub {
	case TopicCommand, TopicEffectSet:
		return payload, true
	case TopicPowerSet:
		switch strings.ToLower(payload) {
		case "on", "true", "1":
			return string(core.ModeOn), true
		case "off", "false", "0":
			return string(core.ModeOff), true
		}
	case TopicBrightnessSet:
		if _, err := strconv.Atoi(payload); err == nil {
			return payload + "%", true
		}
	}
	return "", false
}

// PublishHADiscovery announces the strip as a Home Assistant light.
func (c *Client) PublishHADiscovery() {
	// Give the subscriptions a moment to settle.
	time.Sleep(1 * time.Second)

	safeID := SafeID(c.cfg.ClientID)
	discoveryTopic := fmt.Sprintf("%s/light/%s/light/config", c.cfg.HADiscoveryPrefix, safeID)

	payload, err := json.Marshal(c.discoveryPayload(safeID))
	if err != nil {
		log.Printf("[MQTT] Failed to encode HA discovery: %v", err)
		return
	}
	c.client.Publish(discoveryTopic, 0, true, payload)
	log.Printf("[MQTT] HA Discovery sent to %s", discoveryTopic)
}

func (c *Client) discoveryPayload(safeID string) map[string]interface{} {
	var effects []string
	if c.effects != nil {
		effects = c.effects()
	}

	return map[string]interface{}{
		"name":      "Light",
		"unique_id": safeID + "_light",
		"object_id": safeID,
		"icon":      "mdi:led-strip",

		"optimistic": true,

		"command_topic":   c.topic(TopicPowerSet),
		"payload_on":      "ON",
		"payload_off":     "OFF",
		"on_command_type": "brightness",

		"brightness_command_topic": c.topic(TopicBrightnessSet),
		"brightness_scale":         100,

		"effect_command_topic": c.topic(TopicEffectSet),
		"effect_list":          effects,

		"availability_topic":    c.topic(TopicAvailability),
		"payload_available":     "online",
		"payload_not_available": "offline",

		"device": map[string]interface{}{
			"identifiers":  []string{safeID},
			"name":         c.device,
			"manufacturer": "neopixel-controller",
			"model":        "Addressable LED strip",
		},
	}
}

// SafeID strips everything but letters, digits, '_' and '-' from id.
func SafeID(id string) string {
	id = strings.ReplaceAll(id, " ", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return -1
	}, id)
}
