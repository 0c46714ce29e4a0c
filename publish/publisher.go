// Package publish forwards station snapshots to a message broker.
package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher delivers one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

// ErrPublishTimeout indicates that the broker didn't acknowledge a publish in time.
var ErrPublishTimeout = errors.New("publish timeout")

// MQTTPublisher publishes to an MQTT broker and reconnects automatically.
type MQTTPublisher struct {
	client         mqtt.Client
	qos            byte
	retained       bool
	publishTimeout time.Duration
}

// MQTTOption is a functional option for configuring an MQTTPublisher.
type MQTTOption func(p *MQTTPublisher, opts *mqtt.ClientOptions)

// WithQoS sets the QoS level of published messages.
func WithQoS(qos byte) MQTTOption {
	return func(p *MQTTPublisher, _ *mqtt.ClientOptions) { p.qos = qos }
}

// WithRetained marks published messages as retained so late subscribers get the latest state.
func WithRetained(retained bool) MQTTOption {
	return func(p *MQTTPublisher, _ *mqtt.ClientOptions) { p.retained = retained }
}

// WithCredentials sets the broker username and password.
func WithCredentials(username string, password string) MQTTOption {
	return func(_ *MQTTPublisher, opts *mqtt.ClientOptions) {
		opts.SetUsername(username).SetPassword(password)
	}
}

// WithPublishTimeout sets how long Publish waits for the broker.
func WithPublishTimeout(d time.Duration) MQTTOption {
	return func(p *MQTTPublisher, _ *mqtt.ClientOptions) { p.publishTimeout = d }
}

// NewMQTT connects to broker, e.g. "tcp://localhost:1883", as clientID.
func NewMQTT(broker string, clientID string, options ...MQTTOption) (*MQTTPublisher, error) {
	if broker == "" {
		return nil, errors.New("publish: broker is empty")
	}

	p := &MQTTPublisher{publishTimeout: DefaultPublishTimeout}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(DefaultConnectTimeout).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)

	for _, opt := range options {
		opt(p, opts)
	}

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if !token.WaitTimeout(DefaultConnectTimeout) {
		return nil, fmt.Errorf("publish: connect %s: %w", broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", broker, err)
	}

	return p, nil
}

// Publish sends payload to topic and waits for the broker acknowledgment.
func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retained, payload)
	if !token.WaitTimeout(p.publishTimeout) {
		return fmt.Errorf("publish: %s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
