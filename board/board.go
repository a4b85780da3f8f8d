// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package board opens the SPI bus and the GPIO lines the potentiometers are
// wired to.
package board

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/schmidtw/ad840x/ad840x"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/tca95xx"
)

var (
	ErrUnknownPin = errors.New("unknown pin")

	errSpeedTooFast   = errors.New("spi clock too fast")
	errAlreadyOpen    = errors.New("already open")
	errNotOpen        = errors.New("not open")
	errUnknownVariant = errors.New("unknown expander variant")
)

const (
	// The AD840x accepts a 10MHz clock at most.
	maxSpeed     = 10 * physic.MegaHertz
	defaultSpeed = physic.MegaHertz

	expanderPrefix = "EXP"
)

// ExpanderConfig describes an optional I²C GPIO expander carrying some of the
// control lines.  Its pins are named EXP<port>.<bit>, e.g. EXP0.3.
type ExpanderConfig struct {
	Bus     string
	Address uint16
	Variant string
}

type Config struct {
	// SPIPort is the periph name of the SPI port, e.g. "/dev/spidev0.0" or "SPI0.0".
	SPIPort string

	// MaxSpeed is the SPI clock.  Defaults to 1MHz.
	MaxSpeed physic.Frequency

	// Async runs transfers in the background and finalizes them from the
	// completion notification instead of blocking the writer.
	Async bool

	Expander *ExpanderConfig
}

type Board struct {
	m      sync.Mutex
	config Config
	log    *zap.Logger

	hw       hardware
	bus      *ad840x.Bus
	expander [][]tca95xx.Pin
}

type hardware interface {
	Init() error
	OpenSPI(port string, speed physic.Frequency) (spi.Conn, error)
	Pin(name string) gpio.PinIO
	OpenExpander(bus string, v tca95xx.Variant, addr uint16) ([][]tca95xx.Pin, error)
	Close() error
}

// Option configures a Board.
type Option interface {
	apply(b *Board)
}

type loggerOption struct {
	log *zap.Logger
}

func (o loggerOption) apply(b *Board) {
	if o.log != nil {
		b.log = o.log
	}
}

// UseLogger sets the logger.
func UseLogger(l *zap.Logger) Option {
	return loggerOption{log: l}
}

func New(c Config, opts ...Option) (*Board, error) {
	if c.MaxSpeed > maxSpeed {
		return nil, errSpeedTooFast
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = defaultSpeed
	}
	if c.Expander != nil {
		if _, err := expanderVariant(c.Expander.Variant); err != nil {
			return nil, err
		}
	}

	b := Board{
		config: c,
		log:    zap.NewNop(),
		hw:     &hwWrapper{},
	}

	for _, opt := range opts {
		opt.apply(&b)
	}

	return &b, nil
}

// Open initializes the host and opens the bus and the expander.
func (b *Board) Open() error {
	b.m.Lock()
	defer b.m.Unlock()

	if b.bus != nil {
		return errAlreadyOpen
	}

	if err := b.hw.Init(); err != nil {
		return err
	}

	conn, err := b.hw.OpenSPI(b.config.SPIPort, b.config.MaxSpeed)
	if err != nil {
		_ = b.hw.Close()
		return err
	}

	if x := b.config.Expander; x != nil {
		v, _ := expanderVariant(x.Variant)
		b.expander, err = b.hw.OpenExpander(x.Bus, v, x.Address)
		if err != nil {
			_ = b.hw.Close()
			return err
		}
	}

	if b.config.Async {
		tx := &goroutineTx{conn: conn, log: b.log}
		b.bus = ad840x.NewAsyncBus(b.config.SPIPort, tx, ad840x.NewEngine())
	} else {
		b.bus = ad840x.NewBus(b.config.SPIPort, conn)
	}

	b.log.Info("Opened SPI bus",
		zap.String("port", b.config.SPIPort),
		zap.Stringer("speed", b.config.MaxSpeed),
		zap.Stringer("mode", b.bus.Mode()))
	return nil
}

// Close releases the bus and the expander.
func (b *Board) Close() error {
	b.m.Lock()
	defer b.m.Unlock()

	if b.bus == nil {
		return nil
	}

	b.bus = nil
	b.expander = nil
	return b.hw.Close()
}

// Bus returns the opened bus, or nil before Open.
func (b *Board) Bus() *ad840x.Bus {
	b.m.Lock()
	defer b.m.Unlock()

	return b.bus
}

// Pin finds an output line by name, either a host GPIO or an expander pin.
func (b *Board) Pin(name string) (gpio.PinOut, error) {
	b.m.Lock()
	defer b.m.Unlock()

	if b.bus == nil {
		return nil, errNotOpen
	}

	if strings.HasPrefix(name, expanderPrefix) && b.expander != nil {
		var port, bit int
		n, err := fmt.Sscanf(name, expanderPrefix+"%d.%d", &port, &bit)
		if err != nil || n != 2 ||
			port < 0 || port >= len(b.expander) ||
			bit < 0 || bit >= len(b.expander[port]) {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownPin, name)
		}
		return b.expander[port][bit], nil
	}

	p := b.hw.Pin(name)
	if p == nil || p == gpio.INVALID {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPin, name)
	}
	return p, nil
}

func expanderVariant(s string) (tca95xx.Variant, error) {
	switch strings.ToUpper(s) {
	case "TCA9534":
		return tca95xx.TCA9534, nil
	case "TCA9535":
		return tca95xx.TCA9535, nil
	}
	return tca95xx.TCA9534, fmt.Errorf("%w: '%s'", errUnknownVariant, s)
}
