// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package leds models the RGB LED peripheral of the Arty SoC.
//
// The peripheral exposes four 24-bit color registers, one per LED.
// Each register is split into three 8-bit fields (red, green, blue),
// each field driving an independent free-running PWM generator.
// Time only advances when Controller.Tick is called.
package leds // import "github.com/go-lpc/arty/leds"

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

const (
	NumLEDs     = 4
	NumChannels = 3
	NumWires    = NumLEDs * NumChannels
)

var (
	ErrInvalidLED     = errors.New("leds: invalid LED index")
	ErrInvalidChannel = errors.New("leds: invalid color channel")
	ErrInvalidAddr    = errors.New("leds: invalid register address")
)

// Wires holds the levels of the 4x3 output lines.
type Wires [NumLEDs][NumChannels]bool

// Mask packs the wires into a bit mask, wire (led, ch) being
// bit 3*led+ch.
func (ws Wires) Mask() uint16 {
	var m uint16
	for i := range ws {
		for j, v := range ws[i] {
			if v {
				m |= 1 << (NumChannels*i + j)
			}
		}
	}
	return m
}

// WiresFrom unpacks a bit mask built with Wires.Mask.
func WiresFrom(mask uint16) Wires {
	var ws Wires
	for i := range ws {
		for j := range ws[i] {
			ws[i][j] = (mask>>(NumChannels*i+j))&1 == 1
		}
	}
	return ws
}

// Controller is the RGB LED peripheral: four color registers and the
// twelve PWM channels they drive.
//
// Register accesses (WriteColor, ReadColor) may happen concurrently with
// ticks. Tick state is protected by a mutex so wires can be sampled from
// any goroutine.
type Controller struct {
	msg *log.Logger
	cfg config

	regs [NumLEDs]register

	mu   sync.Mutex
	pwms [NumLEDs][NumChannels]pwm
}

// New creates a new RGB LED controller.
func New(opts ...Option) *Controller {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctl := &Controller{
		msg: cfg.msg,
		cfg: cfg,
	}
	for i := range ctl.regs {
		ctl.regs[i].store(uint32(cfg.reset[i]))
		for j, ch := range Channels {
			ctl.pwms[i][j] = newPWM(&ctl.regs[i], ch, cfg.bits)
		}
	}
	return ctl
}

// CounterBits returns the width of the PWM counters.
func (ctl *Controller) CounterBits() uint { return ctl.cfg.bits }

// Period returns the number of ticks of a full counter period.
func (ctl *Controller) Period() int { return 1 << ctl.cfg.bits }

func checkLED(i int) error {
	if i < 0 || i >= NumLEDs {
		return fmt.Errorf("%w %d (want 0..%d)", ErrInvalidLED, i, NumLEDs-1)
	}
	return nil
}

// WriteColor stores v in the color register of LED i.
// v is truncated to its low 24 bits.
// The new thresholds are observed from the next tick on.
func (ctl *Controller) WriteColor(i int, v uint32) error {
	err := checkLED(i)
	if err != nil {
		return err
	}
	ctl.regs[i].store(v)
	return nil
}

// ReadColor returns the last value written to the color register of LED i.
func (ctl *Controller) ReadColor(i int) (Color, error) {
	err := checkLED(i)
	if err != nil {
		return 0, err
	}
	return ctl.regs[i].load(), nil
}

// Colors returns the content of all color registers.
func (ctl *Controller) Colors() [NumLEDs]Color {
	var cs [NumLEDs]Color
	for i := range ctl.regs {
		cs[i] = ctl.regs[i].load()
	}
	return cs
}

// Tick advances all PWM channels by one step.
// Each color register is read once per tick: the three channels of an LED
// always compare against the same register value.
func (ctl *Controller) Tick() {
	ctl.mu.Lock()
	ctl.tick()
	ctl.mu.Unlock()
}

func (ctl *Controller) tick() {
	for i := range ctl.pwms {
		c := ctl.regs[i].load()
		for j := range ctl.pwms[i] {
			ctl.pwms[i][j].step(c)
		}
	}
}

// Run advances all PWM channels by n steps.
func (ctl *Controller) Run(n int) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	for k := 0; k < n; k++ {
		ctl.tick()
	}
}

// Counter returns the counter value the PWM channels will compare at the
// next tick. All channels share the same phase.
func (ctl *Controller) Counter() uint32 {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.pwms[0][0].counter()
}

// Wire returns the current level of the ch wire of LED i.
func (ctl *Controller) Wire(i int, ch Channel) (bool, error) {
	err := checkLED(i)
	if err != nil {
		return false, err
	}
	if !ch.valid() {
		return false, fmt.Errorf("%w %d", ErrInvalidChannel, uint8(ch))
	}

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.pwms[i][ch].output(), nil
}

// Wires returns a snapshot of all output lines.
func (ctl *Controller) Wires() Wires {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.wires()
}

func (ctl *Controller) wires() Wires {
	var ws Wires
	for i := range ctl.pwms {
		for j := range ctl.pwms[i] {
			ws[i][j] = ctl.pwms[i][j].output()
		}
	}
	return ws
}

// Reset brings the peripheral back to its reset state: counters and
// wires are cleared and the color registers reloaded with their reset
// values.
func (ctl *Controller) Reset() {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	for i := range ctl.regs {
		ctl.regs[i].store(uint32(ctl.cfg.reset[i]))
		for j := range ctl.pwms[i] {
			ctl.pwms[i][j].reset()
		}
	}
	ctl.msg.Printf("reset: colors=%v", ctl.cfg.reset)
}
