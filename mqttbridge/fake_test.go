// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package mqttbridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/schmidtw/ad840x/controller"
)

type token struct {
	err error
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Error() error                   { return t.err }

func (t *token) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload string
}

// fakeClient records what is published and subscribed.  Methods not
// overridden panic through the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	m           sync.Mutex
	connected   bool
	err         error
	published   []published
	filters     map[string]byte
	unsubscribe []string
	handler     mqtt.MessageHandler
}

func (f *fakeClient) IsConnected() bool {
	f.m.Lock()
	defer f.m.Unlock()
	return f.connected
}

func (f *fakeClient) Connect() mqtt.Token {
	f.m.Lock()
	defer f.m.Unlock()
	f.connected = f.err == nil
	return &token{err: f.err}
}

func (f *fakeClient) Disconnect(uint) {
	f.m.Lock()
	defer f.m.Unlock()
	f.connected = false
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.m.Lock()
	defer f.m.Unlock()
	f.published = append(f.published, published{
		topic:   topic,
		qos:     qos,
		retain:  retained,
		payload: string(payload.([]byte)),
	})
	return &token{}
}

func (f *fakeClient) SubscribeMultiple(filters map[string]byte, cb mqtt.MessageHandler) mqtt.Token {
	f.m.Lock()
	defer f.m.Unlock()
	f.filters = filters
	f.handler = cb
	return &token{err: f.err}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.m.Lock()
	defer f.m.Unlock()
	f.unsubscribe = topics
	return &token{}
}

func (f *fakeClient) take() []published {
	f.m.Lock()
	defer f.m.Unlock()
	p := f.published
	f.published = nil
	return p
}

type message struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m *message) Topic() string   { return m.topic }
func (m *message) Payload() []byte { return m.payload }

// fakeController keeps one code per channel and records the calls.
type fakeController struct {
	m     sync.Mutex
	codes map[string][]int
	down  map[string]bool
	calls []string
}

func newFakeController() *fakeController {
	return &fakeController{
		codes: map[string][]int{
			"volume": {128, 128},
		},
		down: map[string]bool{},
	}
}

func (f *fakeController) Names() []string {
	return []string{"volume"}
}

func (f *fakeController) Status(name string) (controller.Status, error) {
	f.m.Lock()
	defer f.m.Unlock()

	codes, found := f.codes[name]
	if !found {
		return controller.Status{}, controller.ErrUnknownDevice
	}
	s := controller.Status{Name: name, Shutdown: f.down[name]}
	for i, c := range codes {
		s.Channels = append(s.Channels, controller.ChannelStatus{
			Channel: string(rune('A' + i)),
			Code:    c,
		})
	}
	return s, nil
}

func (f *fakeController) Apply(_ context.Context, name string, ch int, sp controller.Setpoint) (controller.ChannelStatus, error) {
	f.m.Lock()
	defer f.m.Unlock()

	codes, found := f.codes[name]
	if !found {
		return controller.ChannelStatus{}, controller.ErrUnknownDevice
	}
	if ch < 0 || ch >= len(codes) {
		return controller.ChannelStatus{}, controller.ErrInvalidChannel
	}

	code := 0
	switch {
	case sp.Code != nil:
		code = *sp.Code
	case sp.Ratio != nil:
		code = int(*sp.Ratio * 255)
	default:
		code = -1
	}
	codes[ch] = code
	f.calls = append(f.calls, fmt.Sprintf("apply %s %d %d", name, ch, code))
	return controller.ChannelStatus{Code: code}, nil
}

func (f *fakeController) Reset(_ context.Context, name string) error {
	f.m.Lock()
	defer f.m.Unlock()

	if _, found := f.codes[name]; !found {
		return controller.ErrUnknownDevice
	}
	f.calls = append(f.calls, "reset "+name)
	return nil
}

func (f *fakeController) Shutdown(name string, enter bool) (controller.Status, error) {
	f.m.Lock()
	if _, found := f.codes[name]; !found {
		f.m.Unlock()
		return controller.Status{}, controller.ErrUnknownDevice
	}
	f.down[name] = enter
	f.calls = append(f.calls, fmt.Sprintf("shutdown %s %t", name, enter))
	f.m.Unlock()

	return f.Status(name)
}
