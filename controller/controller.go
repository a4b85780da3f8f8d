// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

// Package controller manages the named potentiometers of an installation.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schmidtw/ad840x/ad840x"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	ErrInvalidChannel  = errors.New("invalid channel")
	ErrInvalidSetpoint = errors.New("invalid setpoint")

	errNotOpen       = errors.New("bus not open")
	errInvalidConfig = errors.New("invalid device configuration")
)

// Board provides the opened bus and the lines by name.
type Board interface {
	Bus() *ad840x.Bus
	Pin(name string) (gpio.PinOut, error)
}

// DeviceConfig describes one potentiometer package.  Shutdown and Reset are
// optional pin names.
type DeviceConfig struct {
	Name       string
	Variant    string
	FullScale  physic.ElectricResistance
	ChipSelect string
	Shutdown   string
	Reset      string
}

type Config struct {
	Devices []DeviceConfig

	// ResetOnStart returns every device to midscale when the controller is
	// made.
	ResetOnStart bool

	// Namespace of the metrics.
	Namespace string
}

type ChannelStatus struct {
	Channel    string  `json:"channel"`
	Code       int     `json:"code"`
	Ratio      float64 `json:"ratio"`
	Resistance string  `json:"resistance"`
}

type Status struct {
	Name         string          `json:"name"`
	Variant      string          `json:"variant"`
	Mode         string          `json:"mode"`
	FullScale    string          `json:"full_scale"`
	Shutdown     bool            `json:"shutdown"`
	ShutdownLine bool            `json:"shutdown_line"`
	ResetLine    bool            `json:"reset_line"`
	Channels     []ChannelStatus `json:"channels"`
}

type device struct {
	name     string
	dev      *ad840x.Dev
	codes    []byte
	shutdown bool

	resetWarning sync.Once
}

// Controller serializes every operation on the devices: one write is on the
// bus at a time and it is latched before the next one starts.
type Controller struct {
	m       sync.Mutex
	log     *zap.Logger
	reg     prometheus.Registerer
	devOpts []ad840x.Option
	devices map[string]*device
	names   []string
	metrics *metrics
}

// Option configures a Controller.
type Option interface {
	apply(c *Controller)
}

type optionFunc func(*Controller)

func (f optionFunc) apply(c *Controller) {
	f(c)
}

// UseLogger sets the logger, which is also handed to the device drivers.
func UseLogger(l *zap.Logger) Option {
	return optionFunc(func(c *Controller) {
		if l != nil {
			c.log = l
		}
	})
}

// UseRegisterer sets where the metrics are registered.  By default they go
// to a private registry.
func UseRegisterer(r prometheus.Registerer) Option {
	return optionFunc(func(c *Controller) {
		if r != nil {
			c.reg = r
		}
	})
}

// WithDeviceOptions passes options to every device driver.
func WithDeviceOptions(opts ...ad840x.Option) Option {
	return optionFunc(func(c *Controller) {
		c.devOpts = append(c.devOpts, opts...)
	})
}

// New binds every configured device to the board.
func New(ctx context.Context, b Board, cfg Config, opts ...Option) (*Controller, error) {
	c := Controller{
		log:     zap.NewNop(),
		reg:     prometheus.NewRegistry(),
		devices: make(map[string]*device, len(cfg.Devices)),
	}

	for _, opt := range opts {
		opt.apply(&c)
	}

	bus := b.Bus()
	if bus == nil {
		return nil, errNotOpen
	}

	var err error
	c.metrics, err = newMetrics(cfg.Namespace, c.reg)
	if err != nil {
		return nil, err
	}

	chipSelects := make(map[string]string, len(cfg.Devices))
	for _, dc := range cfg.Devices {
		if dc.Name == "" || dc.ChipSelect == "" {
			return nil, fmt.Errorf("%w: name and chip_select are required", errInvalidConfig)
		}
		if _, found := c.devices[dc.Name]; found {
			return nil, fmt.Errorf("%w: duplicate name '%s'", errInvalidConfig, dc.Name)
		}
		if other, found := chipSelects[dc.ChipSelect]; found {
			return nil, fmt.Errorf("%w: '%s' and '%s' share chip-select '%s'",
				errInvalidConfig, other, dc.Name, dc.ChipSelect)
		}
		chipSelects[dc.ChipSelect] = dc.Name

		d, err := c.bind(b, bus, dc)
		if err != nil {
			return nil, fmt.Errorf("device '%s': %w", dc.Name, err)
		}
		c.devices[dc.Name] = d
		c.names = append(c.names, dc.Name)

		for i, code := range d.codes {
			c.metrics.wiper.WithLabelValues(d.name, ad840x.Channel(i).String()).Set(float64(code))
		}
		c.metrics.shutdown.WithLabelValues(d.name).Set(0)
	}

	if cfg.ResetOnStart {
		if err := c.ResetAll(ctx); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

func (c *Controller) bind(b Board, bus *ad840x.Bus, dc DeviceConfig) (*device, error) {
	variant := ad840x.AD8403
	if dc.Variant != "" {
		var err error
		if variant, err = ad840x.ParseVariant(dc.Variant); err != nil {
			return nil, err
		}
	}

	cs, err := b.Pin(dc.ChipSelect)
	if err != nil {
		return nil, err
	}

	shutdown, err := optionalLine(b, dc.Shutdown)
	if err != nil {
		return nil, err
	}
	reset, err := optionalLine(b, dc.Reset)
	if err != nil {
		return nil, err
	}

	opts := append([]ad840x.Option{
		ad840x.WithVariant(variant),
		ad840x.WithFullScale(dc.FullScale),
		ad840x.UseLogger(c.log.With(zap.String("device", dc.Name))),
	}, c.devOpts...)

	dev, err := ad840x.New(bus, cs, opts...)
	if err != nil {
		return nil, err
	}
	if err := dev.ConfigureLines(shutdown, reset); err != nil {
		return nil, err
	}

	d := device{
		name:  dc.Name,
		dev:   dev,
		codes: make([]byte, variant.Channels()),
	}
	// The wipers power up at midscale.
	for i := range d.codes {
		d.codes[i] = ad840x.Midscale
	}

	c.log.Info("Bound potentiometer",
		zap.String("device", dc.Name),
		zap.Stringer("dev", dev),
		zap.Stringer("shutdown", shutdown),
		zap.Stringer("reset", reset))

	return &d, nil
}

func optionalLine(b Board, name string) (ad840x.Line, error) {
	if name == "" {
		return ad840x.Absent, nil
	}
	p, err := b.Pin(name)
	if err != nil {
		return ad840x.Absent, err
	}
	return ad840x.Pin(p), nil
}

// Names returns the device names in configuration order.
func (c *Controller) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Controller) lookup(name string) (*device, error) {
	d, found := c.devices[name]
	if !found {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownDevice, name)
	}
	return d, nil
}

// Status returns the last latched state of a device.
func (c *Controller) Status(name string) (Status, error) {
	c.m.Lock()
	defer c.m.Unlock()

	d, err := c.lookup(name)
	if err != nil {
		return Status{}, err
	}
	return c.status(d), nil
}

func (c *Controller) status(d *device) Status {
	shutdown, reset := d.dev.Lines()

	s := Status{
		Name:         d.name,
		Variant:      string(d.dev.Variant()),
		Mode:         d.dev.Mode().String(),
		FullScale:    d.dev.FullScale().String(),
		Shutdown:     d.shutdown,
		ShutdownLine: shutdown.Present(),
		ResetLine:    reset.Present(),
		Channels:     make([]ChannelStatus, len(d.codes)),
	}
	for i, code := range d.codes {
		s.Channels[i] = c.channelStatus(d, i, code)
	}
	return s
}

func (c *Controller) channelStatus(d *device, ch int, code byte) ChannelStatus {
	return ChannelStatus{
		Channel:    ad840x.Channel(ch).String(),
		Code:       int(code),
		Ratio:      ad840x.CodeToRatio(code),
		Resistance: ad840x.CodeToResistance(code, d.dev.FullScale()).String(),
	}
}

// Apply moves a wiper to the setpoint and returns once it is latched.
func (c *Controller) Apply(ctx context.Context, name string, ch int, sp Setpoint) (ChannelStatus, error) {
	c.m.Lock()
	defer c.m.Unlock()

	d, err := c.lookup(name)
	if err != nil {
		return ChannelStatus{}, err
	}
	if ch < 0 || ch >= len(d.codes) {
		return ChannelStatus{}, fmt.Errorf("%w: %d on %s", ErrInvalidChannel, ch, d.dev.Variant())
	}

	code, err := sp.code(d.dev.FullScale())
	if err != nil {
		return ChannelStatus{}, err
	}

	if err := c.write(ctx, d, ad840x.Channel(ch), code); err != nil {
		return ChannelStatus{}, err
	}
	return c.channelStatus(d, ch, code), nil
}

func (c *Controller) write(ctx context.Context, d *device, ch ad840x.Channel, code byte) error {
	err := d.dev.Wait(ctx)
	if err == nil {
		err = d.dev.Write(ch, code)
	}
	if err != nil {
		c.metrics.failures.WithLabelValues(d.name, "write").Inc()
		c.log.Error("Write failed",
			zap.String("device", d.name),
			zap.Stringer("channel", ch),
			zap.Uint8("code", code),
			zap.Error(err))
		return err
	}

	// Once Write returns the transfer is committed and the value will latch.
	d.codes[ch] = code
	c.metrics.writes.WithLabelValues(d.name, ch.String()).Inc()
	c.metrics.wiper.WithLabelValues(d.name, ch.String()).Set(float64(code))
	c.log.Debug("Wiper set",
		zap.String("device", d.name),
		zap.Stringer("channel", ch),
		zap.Uint8("code", code))

	if err := d.dev.Wait(ctx); err != nil {
		c.log.Warn("Stopped waiting for the wiper to latch",
			zap.String("device", d.name),
			zap.Stringer("channel", ch),
			zap.Error(err))
	}
	return nil
}

// Reset returns every channel of a device to midscale.
func (c *Controller) Reset(ctx context.Context, name string) error {
	c.m.Lock()
	defer c.m.Unlock()

	d, err := c.lookup(name)
	if err != nil {
		return err
	}
	return c.reset(ctx, d)
}

// ResetAll resets every device in configuration order.
func (c *Controller) ResetAll(ctx context.Context) error {
	c.m.Lock()
	defer c.m.Unlock()

	for _, name := range c.names {
		if err := c.reset(ctx, c.devices[name]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) reset(ctx context.Context, d *device) error {
	_, line := d.dev.Lines()
	method := "spi"
	if line.Present() {
		method = "line"
	}

	var err error
	if line.Present() {
		if err = d.dev.Reset(ctx); err == nil {
			for i := range d.codes {
				d.codes[i] = ad840x.Midscale
				c.metrics.wiper.WithLabelValues(d.name, ad840x.Channel(i).String()).Set(float64(ad840x.Midscale))
			}
		}
	} else {
		// Written channel by channel so each one is recorded as it is
		// committed, even when a later one fails.
		d.resetWarning.Do(func() {
			c.log.Warn("RS is not connected, resetting with SPI writes; RS must be pulled high externally",
				zap.String("device", d.name))
		})
		for i := range d.codes {
			if err = c.write(ctx, d, ad840x.Channel(i), ad840x.Midscale); err != nil {
				break
			}
		}
	}

	if err != nil {
		c.metrics.failures.WithLabelValues(d.name, "reset").Inc()
		c.log.Error("Reset failed", zap.String("device", d.name), zap.Error(err))
		return err
	}

	c.metrics.resets.WithLabelValues(d.name, method).Inc()
	c.log.Info("Reset to midscale", zap.String("device", d.name), zap.String("method", method))
	return nil
}

// Shutdown puts a device into, or takes it out of, low power mode.  Devices
// without a SHDN line always report normal operation.
func (c *Controller) Shutdown(name string, enter bool) (Status, error) {
	c.m.Lock()
	defer c.m.Unlock()

	d, err := c.lookup(name)
	if err != nil {
		return Status{}, err
	}

	if err := d.dev.Shutdown(enter); err != nil {
		c.metrics.failures.WithLabelValues(d.name, "shutdown").Inc()
		c.log.Error("Shutdown failed", zap.String("device", d.name), zap.Error(err))
		return Status{}, err
	}

	if line, _ := d.dev.Lines(); line.Present() {
		d.shutdown = enter
	}

	state := 0.0
	if d.shutdown {
		state = 1.0
	}
	c.metrics.shutdown.WithLabelValues(d.name).Set(state)
	c.log.Info("Shutdown changed", zap.String("device", d.name), zap.Bool("low_power", d.shutdown))

	return c.status(d), nil
}
