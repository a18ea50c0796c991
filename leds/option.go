// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	defaultCounterBits = 12
	minCounterBits     = FieldBits
	maxCounterBits     = 16
)

type config struct {
	bits  uint           // width of the PWM counters
	reset [NumLEDs]Color // register values at system reset
	msg   *log.Logger
}

func newConfig() config {
	return config{
		bits: defaultCounterBits,
		msg:  log.New(os.Stdout, "leds: ", 0),
	}
}

// Option configures a Controller.
type Option func(*config)

// WithCounterBits sets the width of the free-running PWM counters.
// WithCounterBits panics if n is not within [8, 16].
func WithCounterBits(n uint) Option {
	if n < minCounterBits || n > maxCounterBits {
		panic(fmt.Errorf(
			"leds: invalid counter width %d (want %d..%d)",
			n, minCounterBits, maxCounterBits,
		))
	}
	return func(cfg *config) {
		cfg.bits = n
	}
}

// WithResetColors sets the values loaded in the color registers at
// construction and on every Reset.
func WithResetColors(colors [NumLEDs]Color) Option {
	return func(cfg *config) {
		for i, c := range colors {
			cfg.reset[i] = c & ColorMask
		}
	}
}

// WithLogger sets the logger used by the controller.
// A nil logger discards all messages.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		if msg == nil {
			msg = log.New(io.Discard, "", 0)
		}
		cfg.msg = msg
	}
}
