// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// ParseResistance sets the resistance based on the string provided.  Both a
// number and a unit are required; "10k", "10kΩ", "10 kohms" and "1M" are all
// accepted.
func ParseResistance(s string) (physic.ElectricResistance, error) {
	list := []struct {
		chompS bool
		suffix string
		ohms   physic.ElectricResistance
	}{
		{chompS: true, suffix: "megaohm", ohms: physic.MegaOhm},
		{chompS: true, suffix: "kiloohm", ohms: physic.KiloOhm},
		{chompS: true, suffix: "mohm", ohms: physic.MegaOhm},
		{chompS: true, suffix: "kohm", ohms: physic.KiloOhm},
		{chompS: true, suffix: "ohm", ohms: physic.Ohm},
		{chompS: false, suffix: "mω", ohms: physic.MegaOhm},
		{chompS: false, suffix: "kω", ohms: physic.KiloOhm},
		{chompS: false, suffix: "ω", ohms: physic.Ohm},
		{chompS: false, suffix: "m", ohms: physic.MegaOhm},
		{chompS: false, suffix: "k", ohms: physic.KiloOhm},
		{chompS: false, suffix: "r", ohms: physic.Ohm},
	}

	known := make([]string, 0, len(list))
	lower := strings.ToLower(strings.TrimSpace(s))

	for _, unit := range list {
		hasSuffix := strings.HasSuffix(lower, unit.suffix)
		hasS := strings.HasSuffix(lower, unit.suffix+"s")
		if hasSuffix || unit.chompS && hasS {
			num := lower
			if hasSuffix {
				num = num[:len(num)-len(unit.suffix)]
			} else {
				num = num[:len(num)-len(unit.suffix+"s")]
			}

			n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: '%s' %v", ErrInvalidUnit, s, err)
			}
			return physic.ElectricResistance(n * float64(unit.ohms)), nil
		}
		known = append(known, unit.suffix)
	}

	return 0, fmt.Errorf("%w: unknown unit for '%s' valid: %s", ErrInvalidUnit, s, strings.Join(known, ", "))
}
