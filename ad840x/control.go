// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
)

const (
	// ResetPulseWidth is how long RS is held low.  The datasheet minimum
	// (tRS) is 50ns.
	ResetPulseWidth = time.Microsecond

	// WakeTime is how long to wait after SHDN is released before the wiper
	// is usable again.
	WakeTime = time.Millisecond
)

// Reset returns every channel to Midscale.
//
// With RS wired the whole package is reset by one pulse.  Without it each
// channel of the variant is written with Midscale in turn; RS must then be
// tied high externally or the device stays in reset.
func (d *Dev) Reset(ctx context.Context) error {
	if d.reset.Present() {
		if err := d.reset.out(gpio.Low); err != nil {
			return fmt.Errorf("ad840x: %w", err)
		}
		d.clock.Sleep(ResetPulseWidth)
		if err := d.reset.out(gpio.High); err != nil {
			return fmt.Errorf("ad840x: %w", err)
		}
		return nil
	}

	d.resetWarning.Do(func() {
		d.log.Warn("RS is not connected, resetting with SPI writes; RS must be pulled high externally",
			zap.Stringer("device", d))
	})

	if err := d.Wait(ctx); err != nil {
		return err
	}
	for ch := ChannelA; int(ch) < d.variant.Channels(); ch++ {
		if err := d.Write(ch, Midscale); err != nil {
			return err
		}
		if err := d.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown puts the device into (enter true) or takes it out of the low
// power mode.  Leaving shutdown blocks for WakeTime.  Without SHDN wired this
// does nothing and SHDN must be held high externally.
func (d *Dev) Shutdown(enter bool) error {
	if !d.shutdown.Present() {
		d.shutdownWarning.Do(func() {
			d.log.Warn("SHDN is not connected, shutdown has no effect; SHDN must be pulled high externally",
				zap.Stringer("device", d))
		})
		return nil
	}

	if enter {
		if err := d.shutdown.out(gpio.Low); err != nil {
			return fmt.Errorf("ad840x: %w", err)
		}
		return nil
	}

	if err := d.shutdown.out(gpio.High); err != nil {
		return fmt.Errorf("ad840x: %w", err)
	}
	d.clock.Sleep(WakeTime)
	return nil
}
