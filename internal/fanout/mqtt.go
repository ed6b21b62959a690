package fanout

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/radar-pipeline/internal/monitoring"
)

// MQTTConfig configures the broker connection and publish topic.
type MQTTConfig struct {
	Broker   string
	Port     int
	Topic    string
	Username string
	Password string

	ConnectTimeout time.Duration
}

// DefaultMQTTConfig returns the documented connect timeout.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{ConnectTimeout: 5 * time.Second}
}

// MQTTSink publishes each record as a JSON object to a configured MQTT
// topic. A connect failure at construction is fatal to the caller; a
// transient publish failure after that just drops the record.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	dropped uint64
}

// NewMQTTSink connects to cfg.Broker and returns a ready MQTTSink, or an
// error if the initial connection attempt fails or times out.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	opts.SetConnectTimeout(cfg.ConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("fanout: mqtt connect to %s:%d timed out", cfg.Broker, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("fanout: mqtt connect to %s:%d: %w", cfg.Broker, cfg.Port, err)
	}

	return &MQTTSink{client: client, topic: cfg.Topic}, nil
}

// Name implements Sink.
func (m *MQTTSink) Name() string { return "mqtt" }

// Publish marshals r and publishes it on the configured topic. A publish
// failure only drops the record; it never stops the pipeline.
func (m *MQTTSink) Publish(r Record) {
	body, err := json.Marshal(r.Rounded())
	if err != nil {
		monitoring.Logf("fanout: mqtt marshal failed: %v", err)
		atomic.AddUint64(&m.dropped, 1)
		return
	}

	token := m.client.Publish(m.topic, 0, false, body)
	if !token.WaitTimeout(time.Second) || token.Error() != nil {
		monitoring.Logf("fanout: mqtt publish failed or timed out: %v", token.Error())
		atomic.AddUint64(&m.dropped, 1)
	}
}

// Dropped returns the number of records dropped due to publish failure.
func (m *MQTTSink) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

// Close disconnects from the broker.
func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}
