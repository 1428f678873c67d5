// Licensed under the MIT license which can be found in the LICENSE file.

// Package dpt implements the datapoint types needed to populate APDU
// payloads. Only a small set of basic types is provided; everything else
// can be transmitted through the raw write path.
package dpt

import (
	"errors"
	"fmt"
	"math"
)

// A DatapointValue can convert itself to and from APDU payload bytes.
type DatapointValue interface {
	// Pack returns the payload bytes. Values of up to six bits occupy a
	// single byte and travel embedded in the APCI word.
	Pack() []byte

	// Unpack initializes the value from payload bytes.
	Unpack(data []byte) error
}

// ErrInvalidLength indicates payload bytes of the wrong size for the
// datapoint type.
var ErrInvalidLength = errors.New("dpt: payload has invalid length")

func packB1(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func unpackB1(data []byte, b *bool) error {
	if len(data) != 1 {
		return ErrInvalidLength
	}

	*b = data[0]&1 == 1
	return nil
}

func packU8(v uint8) []byte {
	return []byte{0, v}
}

func unpackU8(data []byte, v *uint8) error {
	if len(data) != 2 {
		return ErrInvalidLength
	}

	*v = data[1]
	return nil
}

func packF16(v float32) []byte {
	buffer := []byte{0, 0, 0}

	if v > 670760.96 {
		v = 670760.96
	} else if v < -671088.64 {
		v = -671088.64
	}

	signed := v < 0

	mantissa := v * 100
	exponent := 0
	for mantissa > 2047 || mantissa < -2048 {
		mantissa /= 2
		exponent++
	}

	m := int(math.Round(float64(mantissa))) & 0x7FF
	word := uint16(exponent&15)<<11 | uint16(m)
	if signed {
		word |= 1 << 15
	}

	buffer[1] = byte(word >> 8)
	buffer[2] = byte(word)
	return buffer
}

func unpackF16(data []byte, v *float32) error {
	if len(data) != 3 {
		return ErrInvalidLength
	}

	word := uint16(data[1])<<8 | uint16(data[2])

	mantissa := int(word & 0x7FF)
	if word&(1<<15) != 0 {
		mantissa -= 2048
	}
	exponent := (word >> 11) & 15

	*v = float32(mantissa) * float32(math.Pow(2, float64(exponent))) / 100
	return nil
}

// Switch is DPT 1.001: a boolean on/off value.
type Switch bool

// Pack returns the payload bytes.
func (sw Switch) Pack() []byte {
	return packB1(bool(sw))
}

// Unpack initializes the value from payload bytes.
func (sw *Switch) Unpack(data []byte) error {
	return unpackB1(data, (*bool)(sw))
}

// String formats the value as a switch position.
func (sw Switch) String() string {
	if sw {
		return "On"
	}
	return "Off"
}

// Scaling is DPT 5.001: a percentage between 0 and 100.
type Scaling float32

// Pack returns the payload bytes.
func (s Scaling) Pack() []byte {
	v := float32(s)
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}

	return packU8(uint8(math.Round(float64(v * 255 / 100))))
}

// Unpack initializes the value from payload bytes.
func (s *Scaling) Unpack(data []byte) error {
	var raw uint8
	if err := unpackU8(data, &raw); err != nil {
		return err
	}

	*s = Scaling(float32(raw) * 100 / 255)
	return nil
}

// String formats the value as a percentage.
func (s Scaling) String() string {
	return fmt.Sprintf("%.2f%%", float32(s))
}

// ValueTemp is DPT 9.001: a temperature in °C.
type ValueTemp float32

// Pack returns the payload bytes.
func (t ValueTemp) Pack() []byte {
	return packF16(float32(t))
}

// Unpack initializes the value from payload bytes.
func (t *ValueTemp) Unpack(data []byte) error {
	return unpackF16(data, (*float32)(t))
}

// String formats the value with its unit.
func (t ValueTemp) String() string {
	return fmt.Sprintf("%.2f°C", float32(t))
}
