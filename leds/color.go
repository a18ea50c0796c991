// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"fmt"
	"strconv"
	"strings"
)

// Layout of a packed 24-bit color register.
const (
	FieldBits = 8
	FieldMask = 1<<FieldBits - 1

	BlueShift  = 0
	GreenShift = BlueShift + FieldBits
	RedShift   = GreenShift + FieldBits

	ColorBits = 3 * FieldBits
	ColorMask = 1<<ColorBits - 1
)

// Color is a packed 24-bit RGB value: red in bits [23:16],
// green in bits [15:8] and blue in bits [7:0].
type Color uint32

// RGB packs the three color fields into a Color.
func RGB(r, g, b uint8) Color {
	return Color(uint32(r)<<RedShift | uint32(g)<<GreenShift | uint32(b)<<BlueShift)
}

func (c Color) Red() uint8   { return c.Field(Red) }
func (c Color) Green() uint8 { return c.Field(Green) }
func (c Color) Blue() uint8  { return c.Field(Blue) }

// Field returns the 8-bit field of the color driving channel ch.
func (c Color) Field(ch Channel) uint8 {
	return uint8((uint32(c) >> ch.shift()) & FieldMask)
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&ColorMask)
}

// ParseColor parses a color given as "#rrggbb", "0xrrggbb" or as a
// decimal integer.
// Values wider than 24 bits are rejected.
func ParseColor(s string) (Color, error) {
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseUint(s[1:], 16, 32)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 32)
	default:
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("leds: could not parse color %q: %w", s, err)
	}
	if v > ColorMask {
		return 0, fmt.Errorf("leds: color %q overflows %d bits", s, ColorBits)
	}
	return Color(v), nil
}

// Channel identifies one of the three color wires of an LED.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists the color channels of an LED, in wiring order.
var Channels = [NumChannels]Channel{Red, Green, Blue}

func (ch Channel) valid() bool { return ch < NumChannels }

func (ch Channel) shift() uint {
	switch ch {
	case Red:
		return RedShift
	case Green:
		return GreenShift
	default:
		return BlueShift
	}
}

func (ch Channel) String() string {
	switch ch {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(ch))
	}
}
