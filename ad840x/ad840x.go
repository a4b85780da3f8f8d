// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package ad840x drives the Analog Devices AD8400, AD8402 and AD8403 digital
// potentiometers.
//
// Each device is addressed with a 10-bit word sent as two bytes: the channel
// address followed by the 8-bit wiper code.  The value is latched when the
// chip-select line returns high, so the chip-select of a device stays low
// for the whole transfer.  Many devices may share one SPI bus; each has its
// own chip-select and, optionally, its own RS (reset) and SHDN (shutdown)
// lines.
//
// # Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/AD8400_8402_8403.pdf
package ad840x

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrBusy           = errors.New("ad840x: transfer in progress")
	ErrInvalidChannel = errors.New("ad840x: invalid channel")
	ErrInvalidPin     = errors.New("ad840x: invalid pin")
)

// Variant is the model of the device.
type Variant string

const (
	AD8400 Variant = "AD8400"
	AD8402 Variant = "AD8402"
	AD8403 Variant = "AD8403"
)

// Channels returns the number of potentiometers in the package.
func (v Variant) Channels() int {
	switch v {
	case AD8400:
		return 1
	case AD8402:
		return 2
	case AD8403:
		return 4
	}
	return 0
}

// ParseVariant accepts the part number, case insensitive.
func ParseVariant(s string) (Variant, error) {
	for _, v := range []Variant{AD8400, AD8402, AD8403} {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("ad840x: unknown variant '%s'", s)
}

// Channel is the 2-bit address of a potentiometer in the package.
type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
	ChannelC // AD8403 only
	ChannelD // AD8403 only
)

func (c Channel) String() string {
	if c > ChannelD {
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
	return string(rune('A' + c))
}

// Standard end-to-end resistances.
const (
	R1K   = 1 * physic.KiloOhm
	R10K  = 10 * physic.KiloOhm
	R50K  = 50 * physic.KiloOhm
	R100K = 100 * physic.KiloOhm
)

// Dev is one AD840x package.
type Dev struct {
	bus      *Bus
	cs       gpio.PinOut
	shutdown Line
	reset    Line
	mode     Mode

	variant   Variant
	fullScale physic.ElectricResistance
	clock     clock.Clock
	log       *zap.Logger

	resetWarning    sync.Once
	shutdownWarning sync.Once
}

// New binds a device to its bus and chip-select and deselects it.  RS and
// SHDN start absent; see ConfigureLines.  The transfer mode is taken from the
// bus once, here.
func New(bus *Bus, cs gpio.PinOut, opts ...Option) (*Dev, error) {
	if bus == nil || cs == nil || cs == gpio.INVALID {
		return nil, ErrInvalidPin
	}

	d := Dev{
		bus:       bus,
		cs:        cs,
		mode:      bus.Mode(),
		variant:   AD8403,
		fullScale: R10K,
		clock:     clock.New(),
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt.apply(&d)
	}

	if err := d.cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("ad840x: %w", err)
	}

	return &d, nil
}

// ConfigureLines assigns the optional RS and SHDN lines and drives the
// present ones to their inactive (high) level.
func (d *Dev) ConfigureLines(shutdown, reset Line) error {
	d.shutdown = shutdown
	d.reset = reset

	for _, l := range []Line{shutdown, reset} {
		if !l.Present() {
			continue
		}
		if err := l.out(gpio.High); err != nil {
			return fmt.Errorf("ad840x: %w", err)
		}
	}
	return nil
}

// Write sets the wiper of channel ch to code.
//
// On a blocking bus the value is latched when Write returns.  On an
// asynchronous bus Write only starts the transfer; the value is latched when
// the Engine receives the completion for the bus.  Use Wait to block until
// then.
func (d *Dev) Write(ch Channel, code byte) error {
	if ch > ChannelD {
		return ErrInvalidChannel
	}

	w := [2]byte{byte(ch), code}
	if d.mode == Asynchronous {
		return d.startTx(w)
	}
	return d.tx(w)
}

func (d *Dev) tx(w [2]byte) (err error) {
	d.bus.m.Lock()
	defer d.bus.m.Unlock()

	if err = d.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("ad840x: %w", err)
	}

	err = d.bus.conn.Tx(w[:], nil)

	if e := d.cs.Out(gpio.High); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return fmt.Errorf("ad840x: %w", err)
	}
	return nil
}

func (d *Dev) startTx(w [2]byte) error {
	e := d.bus.engine

	t, err := e.claim(d, w)
	if err != nil {
		return err
	}

	if err := d.cs.Out(gpio.Low); err != nil {
		e.release(t)
		return fmt.Errorf("ad840x: %w", err)
	}

	bus := d.bus
	if err := bus.async.StartTx(t.buf[:], func() { e.Complete(bus) }); err != nil {
		err = fmt.Errorf("ad840x: %w", err)
		if csErr := d.cs.Out(gpio.High); csErr != nil {
			err = multierr.Append(err, fmt.Errorf("ad840x: releasing chip-select: %w", csErr))
		}
		e.release(t)
		return err
	}
	return nil
}

// Wait blocks until no asynchronous transfer is in flight on the device's
// engine.  It returns immediately on a blocking bus.
func (d *Dev) Wait(ctx context.Context) error {
	if d.mode != Asynchronous {
		return nil
	}
	return d.bus.engine.Wait(ctx)
}

// WriteRatio sets channel ch to the code nearest ratio (0.0 to 1.0) and
// returns the code written.
func (d *Dev) WriteRatio(ch Channel, ratio float64) (byte, error) {
	code := RatioToCode(ratio)
	return code, d.Write(ch, code)
}

// WriteResistance sets channel ch to the code nearest the target wiper to B
// resistance and returns the resistance actually achieved.
func (d *Dev) WriteResistance(ch Channel, target physic.ElectricResistance) (physic.ElectricResistance, error) {
	code, actual := ResistanceToCode(target, d.fullScale)
	return actual, d.Write(ch, code)
}

// Mode returns the transfer strategy.
func (d *Dev) Mode() Mode {
	return d.mode
}

// Variant returns the configured model.
func (d *Dev) Variant() Variant {
	return d.variant
}

// FullScale returns the end-to-end resistance.
func (d *Dev) FullScale() physic.ElectricResistance {
	return d.fullScale
}

// Lines returns the SHDN and RS lines.
func (d *Dev) Lines() (shutdown, reset Line) {
	return d.shutdown, d.reset
}

func (d *Dev) String() string {
	return string(d.variant) + "@" + d.bus.String() + "/" + d.cs.String()
}
