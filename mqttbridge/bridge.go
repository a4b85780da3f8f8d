// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package mqttbridge drives the controller from MQTT topics and publishes the
// device state back.
//
// With the default prefix "ad840x" the topics are:
//
//	ad840x/<device>/channel/<n>/set   payload: "128", "50%", "12.5k" or JSON
//	ad840x/<device>/reset             payload ignored
//	ad840x/<device>/shutdown          payload: on/off, true/false or 1/0
//	ad840x/<device>/state             retained JSON status (published)
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/schmidtw/ad840x/controller"
	"go.uber.org/zap"
)

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrInvalidPayload = errors.New("invalid payload")

	errTimeout  = errors.New("timed out")
	errNoBroker = errors.New("broker is required")
	errQoS      = errors.New("qos must be 0, 1 or 2")
)

const (
	defaultPrefix  = "ad840x"
	defaultTimeout = 5 * time.Second
)

// Controller is the part of *controller.Controller the bridge needs.
type Controller interface {
	Names() []string
	Status(name string) (controller.Status, error)
	Apply(ctx context.Context, name string, ch int, sp controller.Setpoint) (controller.ChannelStatus, error)
	Reset(ctx context.Context, name string) error
	Shutdown(name string, enter bool) (controller.Status, error)
}

type Config struct {
	// Broker is the broker url, for example tcp://localhost:1883.  The bridge
	// is disabled when it is empty.
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte

	// ConnectTimeout bounds the initial connection, PublishTimeout each
	// publish and subscribe.
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

type Bridge struct {
	cfg    Config
	ctl    Controller
	log    *zap.Logger
	client mqtt.Client

	m      sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Bridge.
type Option interface {
	apply(*Bridge)
}

type optionFunc func(*Bridge)

func (f optionFunc) apply(b *Bridge) {
	f(b)
}

// UseLogger sets the logger.
func UseLogger(l *zap.Logger) Option {
	return optionFunc(func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	})
}

// useClient replaces the paho client, for testing.
func useClient(c mqtt.Client) Option {
	return optionFunc(func(b *Bridge) {
		b.client = c
	})
}

// New makes a bridge.  It does not connect until Start is called.
func New(cfg Config, ctl Controller, opts ...Option) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, errNoBroker
	}
	if cfg.QoS > 2 {
		return nil, errQoS
	}
	cfg.TopicPrefix = strings.Trim(cfg.TopicPrefix, "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultPrefix
	}
	if cfg.ClientID == "" {
		cfg.ClientID = cfg.TopicPrefix
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultTimeout
	}

	b := Bridge{
		cfg: cfg,
		ctl: ctl,
		log: zap.NewNop(),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt.apply(&b)
	}

	if b.client == nil {
		o := mqtt.NewClientOptions().AddBroker(cfg.Broker)
		o.SetClientID(cfg.ClientID)
		o.SetUsername(cfg.Username)
		o.SetPassword(cfg.Password)
		o.SetAutoReconnect(true)
		o.SetConnectTimeout(cfg.ConnectTimeout)
		// Handlers wait for their state publish to be acknowledged.
		o.SetOrderMatters(false)
		o.SetOnConnectHandler(func(mqtt.Client) {
			if err := b.subscribe(); err != nil {
				b.log.Error("MQTT subscribe failed", zap.Error(err))
			}
			b.publishAll()
		})
		o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.log.Warn("MQTT connection lost", zap.Error(err))
		})
		b.client = mqtt.NewClient(o)
	}

	return &b, nil
}

// Start connects to the broker.  Subscriptions are made, and remade after
// reconnects, once the connection is up.
func (b *Bridge) Start(ctx context.Context) error {
	b.log.Info("Connecting to MQTT broker",
		zap.String("broker", b.cfg.Broker),
		zap.String("client_id", b.cfg.ClientID))

	return b.wait(ctx, b.client.Connect(), b.cfg.ConnectTimeout)
}

// Stop unsubscribes and disconnects.
func (b *Bridge) Stop(ctx context.Context) error {
	b.cancel()

	if !b.client.IsConnected() {
		return nil
	}

	err := b.wait(ctx, b.client.Unsubscribe(b.filters()...), b.cfg.PublishTimeout)
	b.client.Disconnect(250)
	b.log.Info("Disconnected from MQTT broker")
	return err
}

func (b *Bridge) wait(ctx context.Context, t mqtt.Token, timeout time.Duration) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-time.After(timeout):
		return errTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) filters() []string {
	p := b.cfg.TopicPrefix
	return []string{
		p + "/+/channel/+/set",
		p + "/+/reset",
		p + "/+/shutdown",
	}
}

func (b *Bridge) subscribe() error {
	filters := make(map[string]byte, 3)
	for _, f := range b.filters() {
		filters[f] = b.cfg.QoS
	}

	t := b.client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		b.handle(msg.Topic(), msg.Payload())
	})
	return b.wait(b.ctx, t, b.cfg.PublishTimeout)
}

type command int

const (
	cmdSet command = iota
	cmdReset
	cmdShutdown
)

type request struct {
	cmd     command
	device  string
	channel int
}

// parseTopic splits a command topic into the request it names.
func (b *Bridge) parseTopic(topic string) (request, error) {
	rest, found := strings.CutPrefix(topic, b.cfg.TopicPrefix+"/")
	if !found {
		return request{}, fmt.Errorf("%w: '%s'", ErrInvalidTopic, topic)
	}

	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		return request{}, fmt.Errorf("%w: '%s'", ErrInvalidTopic, topic)
	}

	req := request{device: parts[0]}
	switch {
	case len(parts) == 2 && parts[1] == "reset":
		req.cmd = cmdReset
	case len(parts) == 2 && parts[1] == "shutdown":
		req.cmd = cmdShutdown
	case len(parts) == 4 && parts[1] == "channel" && parts[3] == "set":
		ch, err := strconv.Atoi(parts[2])
		if err != nil {
			return request{}, fmt.Errorf("%w: '%s' %v", ErrInvalidTopic, topic, err)
		}
		req.cmd = cmdSet
		req.channel = ch
	default:
		return request{}, fmt.Errorf("%w: '%s'", ErrInvalidTopic, topic)
	}

	return req, nil
}

func parseSetpoint(payload []byte) (controller.Setpoint, error) {
	s := strings.TrimSpace(string(payload))
	if strings.HasPrefix(s, "{") {
		var sp controller.Setpoint
		if err := json.Unmarshal([]byte(s), &sp); err != nil {
			return controller.Setpoint{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return sp, nil
	}
	return controller.ParseSetpoint(s)
}

func parseSwitch(payload []byte) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(string(payload)))
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}

	enter, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: '%s'", ErrInvalidPayload, s)
	}
	return enter, nil
}

func (b *Bridge) handle(topic string, payload []byte) {
	if err := b.dispatch(topic, payload); err != nil {
		b.log.Warn("MQTT command failed",
			zap.String("topic", topic),
			zap.ByteString("payload", payload),
			zap.Error(err))
	}
}

func (b *Bridge) dispatch(topic string, payload []byte) error {
	req, err := b.parseTopic(topic)
	if err != nil {
		return err
	}

	b.m.Lock()
	defer b.m.Unlock()

	switch req.cmd {
	case cmdSet:
		sp, err := parseSetpoint(payload)
		if err != nil {
			return err
		}
		if _, err := b.ctl.Apply(b.ctx, req.device, req.channel, sp); err != nil {
			return err
		}
	case cmdReset:
		if err := b.ctl.Reset(b.ctx, req.device); err != nil {
			return err
		}
	case cmdShutdown:
		enter, err := parseSwitch(payload)
		if err != nil {
			return err
		}
		if _, err := b.ctl.Shutdown(req.device, enter); err != nil {
			return err
		}
	}

	return b.publish(req.device)
}

// publish sends the retained state of one device.
func (b *Bridge) publish(name string) error {
	s, err := b.ctl.Status(name)
	if err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	topic := b.cfg.TopicPrefix + "/" + name + "/state"
	return b.wait(b.ctx, b.client.Publish(topic, b.cfg.QoS, true, data), b.cfg.PublishTimeout)
}

func (b *Bridge) publishAll() {
	b.m.Lock()
	defer b.m.Unlock()

	for _, name := range b.ctl.Names() {
		if err := b.publish(name); err != nil {
			b.log.Warn("Unable to publish state", zap.String("device", name), zap.Error(err))
		}
	}
}
