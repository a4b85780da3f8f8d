// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"periph.io/x/conn/v3/physic"
)

var (
	resistanceType = reflect.TypeOf(physic.ElectricResistance(0))
	frequencyType  = reflect.TypeOf(physic.Frequency(0))
)

// DecodeHook converts configuration strings into durations, resistances and
// frequencies.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToPhysic,
	)
}

func stringToPhysic(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	s := data.(string)
	switch to {
	case resistanceType:
		return ParseResistance(s)
	case frequencyType:
		var f physic.Frequency
		if err := f.Set(s); err != nil {
			return nil, err
		}
		return f, nil
	}
	return data, nil
}
