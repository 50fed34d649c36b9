package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/falcrise/omnivision/internal/alertlog"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakeMQTTClient struct {
	mqtt.Client

	mu        sync.Mutex
	messages  []published
	err       error
	connected bool
}

func (c *fakeMQTTClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeMQTTClient) Connect() mqtt.Token {
	c.connected = c.err == nil
	return &fakeToken{err: c.err}
}

func (c *fakeMQTTClient) IsConnected() bool { return c.connected }

func (c *fakeMQTTClient) Disconnect(uint) { c.connected = false }

func (c *fakeMQTTClient) sent() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.messages...)
}

func TestMQTTForwarder_Forward(t *testing.T) {
	client := &fakeMQTTClient{}
	f := newMQTTForwarder(client, "site/cam1/", quietLogger())

	alert := alertlog.Event{ID: "alt_1", Kind: alertlog.KindWarning, Message: "Condition detected: fire"}
	if err := f.Forward(AlertEvent(alert)); err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	msgs := client.sent()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].topic != "site/cam1/alerts/warning" {
		t.Errorf("unexpected topic %s", msgs[0].topic)
	}
	var got alertlog.Event
	if err := json.Unmarshal(msgs[0].payload, &got); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if got.Message != alert.Message {
		t.Errorf("expected message %q, got %q", alert.Message, got.Message)
	}
	if f.Published() != 1 {
		t.Errorf("expected published count 1, got %d", f.Published())
	}
}

func TestMQTTForwarder_ForwardError(t *testing.T) {
	client := &fakeMQTTClient{err: errors.New("not connected")}
	f := newMQTTForwarder(client, "", quietLogger())

	err := f.Forward(AlertEvent(alertlog.Event{Kind: alertlog.KindError}))
	if err == nil {
		t.Fatal("expected error")
	}
	if f.Failures() != 1 {
		t.Errorf("expected 1 failure, got %d", f.Failures())
	}
}

func TestMQTTForwarder_Connect(t *testing.T) {
	client := &fakeMQTTClient{}
	f := newMQTTForwarder(client, "", quietLogger())

	if err := f.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if !f.Connected() {
		t.Error("expected connected")
	}
	f.Close()
	if f.Connected() {
		t.Error("expected disconnected after Close")
	}

	failing := newMQTTForwarder(&fakeMQTTClient{err: errors.New("refused")}, "", quietLogger())
	if err := failing.Connect(context.Background()); err == nil {
		t.Error("expected connect error")
	}
}

func TestMQTTForwarder_RunForwardsOnlyAlerts(t *testing.T) {
	bus := NewLocalBus(quietLogger())
	client := &fakeMQTTClient{}
	f := newMQTTForwarder(client, "cam", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx, bus)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for bus.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	bus.Publish(ctx, SceneEvent("a hallway", time.Now()))
	bus.Publish(ctx, AlertEvent(alertlog.Event{ID: "alt_9", Kind: alertlog.KindInfo}))

	deadline = time.Now().Add(time.Second)
	for len(client.sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	msgs := client.sent()
	if len(msgs) != 1 || msgs[0].topic != "cam/alerts/info" {
		t.Errorf("expected one info alert forwarded, got %+v", msgs)
	}
}
