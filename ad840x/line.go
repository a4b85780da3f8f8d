// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import "periph.io/x/conn/v3/gpio"

// Line is an optional control line (RS or SHDN).  The zero value is a line
// that is not wired to the controller.
type Line struct {
	pin gpio.PinOut
}

// Absent is the Line that is not connected.
var Absent = Line{}

// Pin returns a present Line driven by p.  A nil or invalid pin yields Absent.
func Pin(p gpio.PinOut) Line {
	if p == nil || p == gpio.INVALID {
		return Absent
	}
	return Line{pin: p}
}

// Present reports whether the line is wired.
func (l Line) Present() bool {
	return l.pin != nil
}

func (l Line) String() string {
	if l.pin == nil {
		return "absent"
	}
	return l.pin.String()
}

func (l Line) out(level gpio.Level) error {
	return l.pin.Out(level)
}
