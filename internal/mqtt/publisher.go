package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sunclock/internal/log"
	"sunclock/internal/solar"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	site        string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	// Site names the location in topics and discovery ids.
	Site    string
	Enabled bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	site := siteSlug(cfg.Site)
	if !cfg.Enabled {
		return &Publisher{enabled: false, topicPrefix: cfg.TopicPrefix, site: site}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Warnf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Info("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: cfg.TopicPrefix,
		site:        site,
		enabled:     true,
	}, nil
}

func siteSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "home"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
}

func (p *Publisher) topic(name string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, p.site, name)
}

// reportTopics maps each per-value topic to its payload.
func (p *Publisher) reportTopics(r *solar.Report) map[string]string {
	return map[string]string{
		p.topic("sunrise"):        solar.FormatTime(r.Sunrise),
		p.topic("sunset"):         solar.FormatTime(r.Sunset),
		p.topic("next_sunrise"):   solar.FormatTime(r.NextSunrise),
		p.topic("day_length"):     r.DayLength,
		p.topic("is_day"):         fmt.Sprintf("%t", r.IsDay),
		p.topic("time_to_change"): r.TimeToChange,
		p.topic("next_change"):    r.NextChange.Format(time.RFC3339),
	}
}

func (p *Publisher) Publish(r *solar.Report) error {
	if !p.enabled {
		return nil
	}

	for topic, payload := range p.reportTopics(r) {
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Warnf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	statusJSON, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	token := p.client.Publish(p.topic("status"), 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

type discoveryConfig struct {
	Topic   string
	Payload map[string]interface{}
}

func (p *Publisher) discoveryConfigs() []discoveryConfig {
	sensors := []struct {
		Name        string
		ID          string
		DeviceClass string
		Component   string
	}{
		{"Sunrise", "sunrise", "", "sensor"},
		{"Sunset", "sunset", "", "sensor"},
		{"Next Sunrise", "next_sunrise", "", "sensor"},
		{"Day Length", "day_length", "", "sensor"},
		{"Time To Change", "time_to_change", "", "sensor"},
		{"Next Change", "next_change", "timestamp", "sensor"},
		{"Daylight", "is_day", "light", "binary_sensor"},
	}

	configs := make([]discoveryConfig, 0, len(sensors))
	for _, sensor := range sensors {
		config := map[string]interface{}{
			"name":        fmt.Sprintf("Sun %s", sensor.Name),
			"unique_id":   fmt.Sprintf("sunclock_%s_%s", p.site, sensor.ID),
			"state_topic": p.topic(sensor.ID),
			"device": map[string]interface{}{
				"identifiers":  []string{"sunclock_" + p.site},
				"name":         "Sun clock " + p.site,
				"manufacturer": "sunclock",
				"model":        "Solar time calculator",
			},
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}
		if sensor.Component == "binary_sensor" {
			config["payload_on"] = "true"
			config["payload_off"] = "false"
		}

		configs = append(configs, discoveryConfig{
			Topic:   fmt.Sprintf("homeassistant/%s/sunclock_%s/%s/config", sensor.Component, p.site, sensor.ID),
			Payload: config,
		})
	}
	return configs
}

func (p *Publisher) PublishHomeAssistantDiscovery() error {
	if !p.enabled {
		return nil
	}

	for _, cfg := range p.discoveryConfigs() {
		payload, err := json.Marshal(cfg.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal discovery config: %w", err)
		}
		token := p.client.Publish(cfg.Topic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Warnf("Failed to publish discovery %s: %v", cfg.Topic, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
