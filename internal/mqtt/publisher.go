package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"cragcast/internal/config"
	"cragcast/internal/modules/weather/severity"
	"cragcast/internal/modules/weather/types"
)

const publishTimeout = 5 * time.Second

var ErrNotConnected = errors.New("mqtt client not connected")

// Publisher sends refreshed crag conditions to the broker, one retained message
// per location on <prefix>/<location key>/conditions.
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	logger      *slog.Logger
	mu          sync.RWMutex
	connected   bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// ConditionsMessage is the JSON payload of a conditions message.
type ConditionsMessage struct {
	Location    string                    `json:"location"`
	Latitude    float64                   `json:"latitude"`
	Longitude   float64                   `json:"longitude"`
	FetchedAt   time.Time                 `json:"fetched_at"`
	Temperature *float64                  `json:"temperature"`
	Humidity    *float64                  `json:"humidity"`
	Precip      *float64                  `json:"precipitation"`
	Windspeed   *float64                  `json:"windspeed"`
	Labels      map[string]severity.Label `json:"labels"`
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{
		topicPrefix: cfg.MQTTTopicPrefix,
		logger:      logger.With("component", "mqtt"),
		stopCh:      make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		p.setConnected(true)
		p.logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.setConnected(false)
		p.logger.Warn("mqtt connection lost", "error", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect waits for the initial broker connection, respecting ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	select {
	case <-p.stopCh:
		return fmt.Errorf("publisher stopped")
	default:
	}

	if p.IsConnected() {
		return nil
	}

	// With ConnectRetry(true) paho keeps retrying internally.
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return fmt.Errorf("publisher stopped")
		default:
		}
	}
}

// Topic returns the conditions topic for a location key.
func (p *Publisher) Topic(locationKey string) string {
	if p.topicPrefix == "" {
		return locationKey + "/conditions"
	}
	return p.topicPrefix + "/" + locationKey + "/conditions"
}

// PublishConditions publishes the snapshot with its severity labels as a
// retained QoS 1 message.
func (p *Publisher) PublishConditions(ctx context.Context, loc types.Location, snap types.Snapshot) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	topic := p.Topic(loc.Key())
	data, err := json.Marshal(NewConditionsMessage(loc, snap))
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	token := p.client.Publish(topic, 1, true, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error("failed to publish conditions", "topic", topic, "error", err)
		return fmt.Errorf("publish conditions: %w", err)
	}

	p.logger.Debug("published conditions", "topic", topic)
	return nil
}

// NewConditionsMessage builds the payload for a snapshot, labelling each metric.
func NewConditionsMessage(loc types.Location, snap types.Snapshot) ConditionsMessage {
	c := snap.Conditions
	return ConditionsMessage{
		Location:    loc.Key(),
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		FetchedAt:   snap.FetchedAt.UTC(),
		Temperature: c.Temperature,
		Humidity:    c.Humidity,
		Precip:      c.Precipitation,
		Windspeed:   c.Windspeed,
		Labels: map[string]severity.Label{
			string(severity.Temperature):   severity.Classify(severity.Temperature, c.Temperature),
			string(severity.Humidity):      severity.Classify(severity.Humidity, c.Humidity),
			string(severity.Precipitation): severity.Classify(severity.Precipitation, c.Precipitation),
			string(severity.Windspeed):     severity.Classify(severity.Windspeed, c.Windspeed),
		},
	}
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

// Disconnect stops the publisher and closes the connection. Safe to call more
// than once; Connect fails afterwards.
func (p *Publisher) Disconnect() {
	p.stopOnce.Do(func() { close(p.stopCh) })

	if p.client != nil {
		p.client.Disconnect(250)
	}

	p.setConnected(false)
	p.logger.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}
