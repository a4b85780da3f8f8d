// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schmidtw/ad840x/ad840x"
	"github.com/schmidtw/ad840x/units"
	"periph.io/x/conn/v3/physic"
)

// Setpoint is a requested wiper position.  Exactly one field must be set.
type Setpoint struct {
	Code       *int     `json:"code,omitempty"`
	Ratio      *float64 `json:"ratio,omitempty"`
	Resistance string   `json:"resistance,omitempty"`
}

// ParseSetpoint reads a setpoint from the command line form: a bare integer
// is a code ("128"), a percentage or decimal fraction is a ratio ("50%",
// "0.5") and anything else is a resistance ("12.5k").
func ParseSetpoint(s string) (Setpoint, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return Setpoint{Code: &n}, nil
	}

	if strings.HasSuffix(s, "%") || strings.Contains(s, ".") && !strings.ContainsAny(strings.ToLower(s), "kmrω") {
		r, err := units.ParseRatio(s)
		if err != nil {
			return Setpoint{}, fmt.Errorf("%w: %v", ErrInvalidSetpoint, err)
		}
		return Setpoint{Ratio: &r}, nil
	}

	if _, err := units.ParseResistance(s); err != nil {
		return Setpoint{}, fmt.Errorf("%w: %v", ErrInvalidSetpoint, err)
	}
	return Setpoint{Resistance: s}, nil
}

// code resolves the setpoint for a potentiometer of fullScale end-to-end
// resistance.
func (sp Setpoint) code(fullScale physic.ElectricResistance) (byte, error) {
	set := 0
	if sp.Code != nil {
		set++
	}
	if sp.Ratio != nil {
		set++
	}
	if sp.Resistance != "" {
		set++
	}
	if set != 1 {
		return 0, fmt.Errorf("%w: exactly one of code, ratio or resistance is required", ErrInvalidSetpoint)
	}

	switch {
	case sp.Code != nil:
		if *sp.Code < 0 || *sp.Code > 255 {
			return 0, fmt.Errorf("%w: code %d is outside 0-255", ErrInvalidSetpoint, *sp.Code)
		}
		return byte(*sp.Code), nil
	case sp.Ratio != nil:
		return ad840x.RatioToCode(*sp.Ratio), nil
	}

	r, err := units.ParseResistance(sp.Resistance)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSetpoint, err)
	}
	code, _ := ad840x.ResistanceToCode(r, fullScale)
	return code, nil
}
