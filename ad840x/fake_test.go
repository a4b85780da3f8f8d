// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

var errFake = errors.New("fake failure")

// recorder keeps the order of everything that happens on the wires.
type recorder struct {
	m      sync.Mutex
	events []string
}

func (r *recorder) add(format string, a ...any) {
	r.m.Lock()
	defer r.m.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, a...))
}

// take returns the events so far and forgets them.
func (r *recorder) take() []string {
	r.m.Lock()
	defer r.m.Unlock()
	out := r.events
	r.events = nil
	return out
}

// Recording gpio.PinOut

type recPin struct {
	*gpiotest.Pin
	rec *recorder
	err error

	// errHigh fails only the release to high.
	errHigh error
}

func newPin(rec *recorder, name string) *recPin {
	return &recPin{
		Pin: &gpiotest.Pin{N: name},
		rec: rec,
	}
}

func (p *recPin) Out(l gpio.Level) error {
	if p.err != nil {
		return p.err
	}
	if l == gpio.High && p.errHigh != nil {
		return p.errHigh
	}
	p.rec.add("%s=%s", p.N, l)
	return p.Pin.Out(l)
}

// Recording spi.Conn

type recConn struct {
	rec *recorder
	err error
}

func (c *recConn) String() string {
	return "recConn"
}

func (c *recConn) Duplex() conn.Duplex {
	return conn.Half
}

func (c *recConn) Tx(w, r []byte) error {
	c.rec.add("tx=%x", w)
	return c.err
}

func (c *recConn) TxPackets(p []spi.Packet) error {
	for i := range p {
		if err := c.Tx(p[i].W, p[i].R); err != nil {
			return err
		}
	}
	return nil
}

// Recording AsyncConn.  Transfers stay pending until finish is called,
// unless auto is set.

type recAsync struct {
	rec     *recorder
	err     error
	auto    bool
	m       sync.Mutex
	pending []func()
}

func (a *recAsync) StartTx(w []byte, done func()) error {
	if a.err != nil {
		return a.err
	}
	a.rec.add("start=%x", w)
	if a.auto {
		go done()
		return nil
	}
	a.m.Lock()
	a.pending = append(a.pending, done)
	a.m.Unlock()
	return nil
}

// finish fires the completion of the oldest pending transfer.
func (a *recAsync) finish() {
	a.m.Lock()
	done := a.pending[0]
	a.pending = a.pending[1:]
	a.m.Unlock()
	done()
}

// Recording clock; Sleep returns immediately.

type sleepRecorder struct {
	clock.Clock
	rec *recorder
}

func (s *sleepRecorder) Sleep(d time.Duration) {
	s.rec.add("sleep=%s", d)
}

var (
	_ spi.Conn    = &recConn{}
	_ gpio.PinOut = &recPin{}
	_ AsyncConn   = &recAsync{}
)
