package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// MQTTForwarder republishes alert events from a Bus to an MQTT broker.
type MQTTForwarder struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger

	published atomic.Uint64
	failures  atomic.Uint64
}

func NewMQTTForwarder(cfg MQTTConfig, logger *slog.Logger) *MQTTForwarder {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt-forwarder", "broker", cfg.Broker)

	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect", "error", err)
	}

	return newMQTTForwarder(mqtt.NewClient(opts), cfg.Topic, logger)
}

func newMQTTForwarder(client mqtt.Client, topic string, logger *slog.Logger) *MQTTForwarder {
	if topic == "" {
		topic = "omnivision"
	}
	return &MQTTForwarder{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		logger: logger,
	}
}

func (f *MQTTForwarder) Connect(ctx context.Context) error {
	token := f.client.Connect()
	deadline := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	if !token.WaitTimeout(deadline) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

// Run forwards alert events until ctx is done or the bus closes the subscription.
func (f *MQTTForwarder) Run(ctx context.Context, bus Bus) {
	ch, cancel := bus.Subscribe(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type != TypeAlert || ev.Alert == nil {
				continue
			}
			if err := f.Forward(ev); err != nil {
				f.logger.Error("forward alert", "error", err, "alert_id", ev.Alert.ID)
			}
		}
	}
}

func (f *MQTTForwarder) Forward(ev Event) error {
	if ev.Alert == nil {
		return nil
	}
	data, err := json.Marshal(ev.Alert)
	if err != nil {
		f.failures.Add(1)
		return fmt.Errorf("marshal alert: %w", err)
	}

	topic := fmt.Sprintf("%s/alerts/%s", f.topic, strings.ToLower(string(ev.Alert.Kind)))
	token := f.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		f.failures.Add(1)
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		f.failures.Add(1)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	f.published.Add(1)
	return nil
}

func (f *MQTTForwarder) Connected() bool {
	return f.client.IsConnected()
}

func (f *MQTTForwarder) Published() uint64 { return f.published.Load() }

func (f *MQTTForwarder) Failures() uint64 { return f.failures.Load() }

func (f *MQTTForwarder) Close() {
	f.client.Disconnect(250)
}
