// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"sync"

	"periph.io/x/conn/v3/spi"
)

// Mode is the transfer strategy of a bus.
type Mode int

const (
	// Blocking transfers finish before Write returns.
	Blocking Mode = iota
	// Asynchronous transfers are started by Write and finished by the
	// completion notification delivered to the Engine.
	Asynchronous
)

func (m Mode) String() string {
	switch m {
	case Blocking:
		return "blocking"
	case Asynchronous:
		return "asynchronous"
	}
	return "unknown"
}

// AsyncConn starts a write-only transfer and returns without waiting for it.
//
// done must be called exactly once, after the last bit of w has been shifted
// out.  w is owned by the transfer slot and stays valid until then.
type AsyncConn interface {
	StartTx(w []byte, done func()) error
}

// Bus is a SPI bus shared by every device whose chip-select is wired to it.
type Bus struct {
	name string

	// m is held for the whole chip-select frame of a blocking write.
	m      sync.Mutex
	conn   spi.Conn
	async  AsyncConn
	engine *Engine
}

// NewBus makes a bus that performs blocking transfers on c.  The connection
// must not drive a chip-select of its own (use spi.NoCS).
func NewBus(name string, c spi.Conn) *Bus {
	return &Bus{
		name: name,
		conn: c,
	}
}

// NewAsyncBus makes a bus that starts transfers on c and is finalized by e.
// Several buses may share one Engine; only one transfer is in flight across
// all of them.
func NewAsyncBus(name string, c AsyncConn, e *Engine) *Bus {
	return &Bus{
		name:   name,
		async:  c,
		engine: e,
	}
}

// Mode returns the transfer strategy the bus was built with.
func (b *Bus) Mode() Mode {
	if b.async != nil {
		return Asynchronous
	}
	return Blocking
}

// Engine returns the engine finalizing asynchronous transfers, or nil.
func (b *Bus) Engine() *Engine {
	return b.engine
}

func (b *Bus) String() string {
	return b.name
}
