package mqtt

import (
	"testing"

	"neopixel-controller/internal/config"
	"neopixel-controller/internal/core"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		sub, payload string
		want         string
		ok           bool
	}{
		{TopicCommand, " rainbow ", "rainbow", true},
		{TopicEffectSet, "fire", "fire", true},
		{TopicPowerSet, "ON", "on", true},
		{TopicPowerSet, "false", "off", true},
		{TopicPowerSet, "maybe", "", false},
		{TopicBrightnessSet, "40", "40%", true},
		{TopicBrightnessSet, "bright", "", false},
		{TopicCommand, "   ", "", false},
		{"other", "x", "", false},
	}
	for _, tt := range tests {
		got, ok := Translate(tt.sub, tt.payload)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Translate(%q, %q) = %q, %v; want %q, %v", tt.sub, tt.payload, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSafeID(t *testing.T) {
	if got := SafeID("living room/strip #1"); got != "living_roomstrip_1" {
		t.Errorf("got %q", got)
	}
}

func TestDisabledClient(t *testing.T) {
	if c := NewClient(config.MQTTConfig{}, "strip", core.NewQueue(1), nil); c != nil {
		t.Error("disabled MQTT should give no client")
	}
}

func TestDiscoveryPayload(t *testing.T) {
	c := NewClient(config.MQTTConfig{
		Enabled:     true,
		Broker:      "tcp://localhost:1883",
		ClientID:    "desk",
		TopicPrefix: "neopixel/",
	}, "Desk strip", core.NewQueue(1), func() []string { return []string{"fire", "rainbow"} })

	if c.Connected() {
		t.Fatal("client should not be connected before Connect")
	}
	if err := c.Send("hello\n"); err == nil {
		t.Error("sending while disconnected should fail")
	}

	p := c.discoveryPayload("desk")
	if p["command_topic"] != "neopixel/power/set" || p["effect_command_topic"] != "neopixel/effect/set" {
		t.Errorf("unexpected topics %v", p)
	}
	if effects, ok := p["effect_list"].([]string); !ok || len(effects) != 2 {
		t.Errorf("unexpected effect list %v", p["effect_list"])
	}
}
