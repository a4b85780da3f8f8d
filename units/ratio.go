// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRatio parses a wiper position given either as a percentage ("50%")
// or as a fraction ("0.5").  The value is not clamped.
func ParseRatio(s string) (float64, error) {
	in := strings.TrimSpace(s)

	scale := 1.0
	if strings.HasSuffix(in, "%") {
		in = strings.TrimSpace(strings.TrimSuffix(in, "%"))
		scale = 0.01
	}

	n, err := strconv.ParseFloat(in, 64)
	if err != nil {
		return 0.0, fmt.Errorf("%w: '%s' %v", ErrInvalidUnit, s, err)
	}
	return n * scale, nil
}
