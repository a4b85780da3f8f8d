// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package mqttbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/schmidtw/ad840x/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errUnknown = errors.New("unknown")

func TestNew(t *testing.T) {
	tests := []struct {
		description  string
		cfg          Config
		expectPrefix string
		expectID     string
		expectErr    error
	}{
		{
			description:  "defaults",
			cfg:          Config{Broker: "tcp://localhost:1883"},
			expectPrefix: "ad840x",
			expectID:     "ad840x",
		}, {
			description:  "prefix is trimmed",
			cfg:          Config{Broker: "tcp://localhost:1883", TopicPrefix: "/home/pots/", ClientID: "me"},
			expectPrefix: "home/pots",
			expectID:     "me",
		}, {
			description: "no broker",
			expectErr:   errNoBroker,
		}, {
			description: "bad qos",
			cfg:         Config{Broker: "tcp://localhost:1883", QoS: 3},
			expectErr:   errQoS,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			b, err := New(tc.cfg, newFakeController())

			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.Nil(b)
				return
			}

			assert.NoError(err)
			require.NotNil(t, b)
			assert.Equal(tc.expectPrefix, b.cfg.TopicPrefix)
			assert.Equal(tc.expectID, b.cfg.ClientID)
			assert.Equal(defaultTimeout, b.cfg.ConnectTimeout)
			require.NotNil(t, b.client)
			opts := b.client.OptionsReader()
			assert.False(opts.Order())
		})
	}
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic     string
		expect    request
		expectErr bool
	}{
		{topic: "ad840x/volume/channel/1/set", expect: request{cmd: cmdSet, device: "volume", channel: 1}},
		{topic: "ad840x/volume/reset", expect: request{cmd: cmdReset, device: "volume"}},
		{topic: "ad840x/volume/shutdown", expect: request{cmd: cmdShutdown, device: "volume"}},
		{topic: "ad840x/volume/state", expectErr: true},
		{topic: "ad840x/volume/channel/x/set", expectErr: true},
		{topic: "ad840x/volume/channel/1", expectErr: true},
		{topic: "ad840x//reset", expectErr: true},
		{topic: "other/volume/reset", expectErr: true},
		{topic: "ad840x", expectErr: true},
	}

	b, err := New(Config{Broker: "tcp://localhost:1883"}, newFakeController())
	require.NoError(t, err)

	for _, tc := range tests {
		t.Run(tc.topic, func(t *testing.T) {
			got, err := b.parseTopic(tc.topic)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidTopic)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		description string
		topic       string
		payload     string
		expectCalls []string
		expectState string
		expectErr   error
	}{
		{
			description: "set a code",
			topic:       "ad840x/volume/channel/1/set",
			payload:     "66",
			expectCalls: []string{"apply volume 1 66"},
			expectState: `"code":66`,
		}, {
			description: "set a percentage",
			topic:       "ad840x/volume/channel/0/set",
			payload:     "100%",
			expectCalls: []string{"apply volume 0 255"},
			expectState: `"code":255`,
		}, {
			description: "set with json",
			topic:       "ad840x/volume/channel/0/set",
			payload:     `{"code": 3}`,
			expectCalls: []string{"apply volume 0 3"},
			expectState: `"code":3`,
		}, {
			description: "bad json",
			topic:       "ad840x/volume/channel/0/set",
			payload:     `{"code": `,
			expectErr:   ErrInvalidPayload,
		}, {
			description: "bad setpoint",
			topic:       "ad840x/volume/channel/0/set",
			payload:     "loud",
			expectErr:   controller.ErrInvalidSetpoint,
		}, {
			description: "bad channel",
			topic:       "ad840x/volume/channel/7/set",
			payload:     "1",
			expectErr:   controller.ErrInvalidChannel,
		}, {
			description: "reset",
			topic:       "ad840x/volume/reset",
			expectCalls: []string{"reset volume"},
			expectState: `"name":"volume"`,
		}, {
			description: "reset unknown",
			topic:       "ad840x/bass/reset",
			expectErr:   controller.ErrUnknownDevice,
		}, {
			description: "shutdown on",
			topic:       "ad840x/volume/shutdown",
			payload:     "ON",
			expectCalls: []string{"shutdown volume true"},
			expectState: `"shutdown":true`,
		}, {
			description: "shutdown false",
			topic:       "ad840x/volume/shutdown",
			payload:     "0",
			expectCalls: []string{"shutdown volume false"},
			expectState: `"shutdown":false`,
		}, {
			description: "shutdown maybe",
			topic:       "ad840x/volume/shutdown",
			payload:     "maybe",
			expectErr:   ErrInvalidPayload,
		}, {
			description: "state is not a command",
			topic:       "ad840x/volume/state",
			expectErr:   ErrInvalidTopic,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctl := newFakeController()
			client := &fakeClient{}
			b, err := New(Config{Broker: "tcp://localhost:1883", QoS: 1}, ctl, useClient(client))
			require.NoError(err)

			err = b.dispatch(tc.topic, []byte(tc.payload))

			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.Empty(ctl.calls)
				assert.Empty(client.take())
				return
			}

			require.NoError(err)
			assert.Equal(tc.expectCalls, ctl.calls)

			pub := client.take()
			require.Len(pub, 1)
			assert.Equal("ad840x/volume/state", pub[0].topic)
			assert.Equal(byte(1), pub[0].qos)
			assert.True(pub[0].retain)
			assert.Contains(pub[0].payload, tc.expectState)
		})
	}
}

func TestLifecycle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	core, logs := observer.New(zap.WarnLevel)
	ctl := newFakeController()
	client := &fakeClient{}
	b, err := New(Config{Broker: "tcp://localhost:1883", TopicPrefix: "pots"}, ctl,
		useClient(client), UseLogger(zap.New(core)))
	require.NoError(err)

	require.NoError(b.Start(context.Background()))
	assert.True(client.IsConnected())

	// What the connect handler does.
	require.NoError(b.subscribe())
	b.publishAll()

	assert.Equal(map[string]byte{
		"pots/+/channel/+/set": 0,
		"pots/+/reset":         0,
		"pots/+/shutdown":      0,
	}, client.filters)

	pub := client.take()
	require.Len(pub, 1)
	assert.Equal("pots/volume/state", pub[0].topic)

	// Messages flow from the subscription callback.
	client.handler(nil, &message{topic: "pots/volume/channel/0/set", payload: []byte("9")})
	assert.Equal([]string{"apply volume 0 9"}, ctl.calls)
	assert.Len(client.take(), 1)

	client.handler(nil, &message{topic: "pots/volume/channel/0/set", payload: []byte("??")})
	assert.Equal(1, logs.FilterMessage("MQTT command failed").Len())

	require.NoError(b.Stop(context.Background()))
	assert.False(client.IsConnected())
	assert.Len(client.unsubscribe, 3)

	// Stopping twice is harmless.
	assert.NoError(b.Stop(context.Background()))
}

func TestStartFails(t *testing.T) {
	client := &fakeClient{err: errUnknown}
	b, err := New(Config{Broker: "tcp://localhost:1883"}, newFakeController(), useClient(client))
	require.NoError(t, err)

	assert.ErrorIs(t, b.Start(context.Background()), errUnknown)
	assert.ErrorIs(t, b.subscribe(), errUnknown)
}
