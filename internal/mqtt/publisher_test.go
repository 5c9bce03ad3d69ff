package mqtt

import (
	"strings"
	"testing"
	"time"

	"sunclock/internal/clock"
	"sunclock/internal/solar"
)

func belgrade(t *testing.T) *solar.Report {
	t.Helper()
	date := time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC)
	clk := clock.Fixed{T: time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC)}
	c, err := solar.New(solar.ParamsFor(date, 44.8125, 20.4612, 2), clk, true)
	if err != nil {
		t.Fatal(err)
	}
	r, err := c.Report()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher(PublisherConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	if err := p.Publish(belgrade(t)); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := p.PublishHomeAssistantDiscovery(); err != nil {
		t.Errorf("PublishHomeAssistantDiscovery() error = %v", err)
	}
	if p.IsConnected() {
		t.Error("disabled publisher reports connected")
	}
	p.Close()
}

func TestReportTopics(t *testing.T) {
	p, _ := NewPublisher(PublisherConfig{TopicPrefix: "sun", Site: "Belgrade Home"})
	topics := p.reportTopics(belgrade(t))

	want := map[string]string{
		"sun/belgrade_home/sunrise":        "04:52",
		"sun/belgrade_home/sunset":         "20:28",
		"sun/belgrade_home/day_length":     "15:36",
		"sun/belgrade_home/is_day":         "true",
		"sun/belgrade_home/time_to_change": "Sunset in: 08:28",
	}
	for topic, payload := range want {
		if got, ok := topics[topic]; !ok || got != payload {
			t.Errorf("%s = %q, want %q", topic, got, payload)
		}
	}
	if _, ok := topics["sun/belgrade_home/next_change"]; !ok {
		t.Error("missing next_change topic")
	}
}

func TestDiscoveryConfigs(t *testing.T) {
	p, _ := NewPublisher(PublisherConfig{TopicPrefix: "sun"})
	configs := p.discoveryConfigs()
	if len(configs) != 7 {
		t.Fatalf("got %d configs", len(configs))
	}
	for _, cfg := range configs {
		if !strings.HasPrefix(cfg.Topic, "homeassistant/") || !strings.HasSuffix(cfg.Topic, "/config") {
			t.Errorf("topic = %s", cfg.Topic)
		}
		state, _ := cfg.Payload["state_topic"].(string)
		if !strings.HasPrefix(state, "sun/home/") {
			t.Errorf("state_topic = %s", state)
		}
	}
	last := configs[len(configs)-1]
	if !strings.HasPrefix(last.Topic, "homeassistant/binary_sensor/") || last.Payload["payload_on"] != "true" {
		t.Errorf("daylight config = %+v", last)
	}
}
