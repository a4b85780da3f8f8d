// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/tca95xx"
	"periph.io/x/host/v3"
)

type hwWrapper struct {
	m        sync.Mutex
	port     spi.PortCloser
	i2c      i2c.BusCloser
	expander *tca95xx.Dev
}

func (h *hwWrapper) Init() error {
	_, err := host.Init()
	return err
}

func (h *hwWrapper) OpenSPI(name string, speed physic.Frequency) (spi.Conn, error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.port != nil {
		return nil, errAlreadyOpen
	}

	p, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}

	// The chip-select lines are driven by the driver, one per device.
	c, err := p.Connect(speed, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	h.port = p
	return c, nil
}

func (h *hwWrapper) Pin(name string) gpio.PinIO {
	return gpioreg.ByName(name)
}

func (h *hwWrapper) OpenExpander(bus string, v tca95xx.Variant, addr uint16) ([][]tca95xx.Pin, error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.i2c != nil {
		return nil, errAlreadyOpen
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, err
	}

	dev, err := tca95xx.New(b, v, addr)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("expander at 0x%02x: %w", addr, err)
	}

	h.i2c = b
	h.expander = dev
	return dev.Pins, nil
}

func (h *hwWrapper) Close() (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.expander != nil {
		err = multierr.Append(err, h.expander.Close())
		h.expander = nil
	}
	if h.i2c != nil {
		err = multierr.Append(err, h.i2c.Close())
		h.i2c = nil
	}
	if h.port != nil {
		err = multierr.Append(err, h.port.Close())
		h.port = nil
	}

	return err
}
