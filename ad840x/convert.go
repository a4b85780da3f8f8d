// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package ad840x

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

const (
	// Midscale is the wiper code set by power-up and by Reset.
	Midscale byte = 0x80

	maxCode = 255
)

// RatioToCode converts a wiper position between 0.0 and 1.0 to the nearest
// code.  Values outside the range are clamped.
func RatioToCode(ratio float64) byte {
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return byte(math.Round(ratio * maxCode))
}

// CodeToRatio converts a code to the wiper position between 0.0 and 1.0.
func CodeToRatio(code byte) float64 {
	return float64(code) / maxCode
}

// ResistanceToCode returns the code nearest target for a potentiometer of
// fullScale end-to-end resistance, and the resistance that code achieves.
func ResistanceToCode(target, fullScale physic.ElectricResistance) (byte, physic.ElectricResistance) {
	if fullScale <= 0 {
		return 0, 0
	}
	code := RatioToCode(float64(target) / float64(fullScale))
	return code, CodeToResistance(code, fullScale)
}

// CodeToResistance returns the resistance selected by code.
func CodeToResistance(code byte, fullScale physic.ElectricResistance) physic.ElectricResistance {
	return physic.ElectricResistance(math.Round(float64(fullScale) * CodeToRatio(code)))
}
