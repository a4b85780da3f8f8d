// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"
)

// Option configures a Dev.
type Option interface {
	apply(d *Dev)
}

type optionFunc func(*Dev)

func (f optionFunc) apply(d *Dev) {
	f(d)
}

// UseClock provides a way to set the clock used for the reset pulse and the
// wake-up delay.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return optionFunc(func(d *Dev) {
		if c != nil {
			d.clock = c
		}
	})
}

// UseLogger sets the logger that receives wiring diagnostics.
func UseLogger(l *zap.Logger) Option {
	return optionFunc(func(d *Dev) {
		if l != nil {
			d.log = l
		}
	})
}

// WithVariant sets the model, which decides how many channels are reset when
// no RS line is wired.  The default is AD8403.
func WithVariant(v Variant) Option {
	return optionFunc(func(d *Dev) {
		if v.Channels() > 0 {
			d.variant = v
		}
	})
}

// WithFullScale sets the end-to-end resistance used by WriteResistance.
// The default is 10kΩ.
func WithFullScale(r physic.ElectricResistance) Option {
	return optionFunc(func(d *Dev) {
		if r > 0 {
			d.fullScale = r
		}
	})
}
