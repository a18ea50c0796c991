// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import "sync/atomic"

// register is a 24-bit color register.
// Stores replace all three fields at once, so a tick never sees a torn value.
type register struct {
	v atomic.Uint32
}

func (reg *register) load() Color {
	return Color(reg.v.Load())
}

func (reg *register) store(v uint32) {
	reg.v.Store(v & ColorMask)
}

// pwm is a free-running counter and comparator driving one wire.
//
// The threshold is not stored in the channel: it is read from one 8-bit
// field of its color register at every tick and zero-extended to the
// counter width. With a 12-bit counter, the output can thus only be high
// during the first 256 counts of each 4096-count period.
//
// pwm is not safe for concurrent use.
type pwm struct {
	reg   *register
	shift uint
	mask  uint32 // counter wraps modulo mask+1

	cnt uint32
	out bool
}

func newPWM(reg *register, ch Channel, bits uint) pwm {
	return pwm{
		reg:   reg,
		shift: ch.shift(),
		mask:  1<<bits - 1,
	}
}

// tick compares the current counter value with the threshold and then
// advances the counter by one, wrapping around.
func (p *pwm) tick() {
	p.step(p.reg.load())
}

func (p *pwm) step(c Color) {
	lvl := (uint32(c) >> p.shift) & FieldMask
	p.out = p.cnt < lvl
	p.cnt = (p.cnt + 1) & p.mask
}

func (p *pwm) output() bool { return p.out }

// counter returns the value the counter will have at the next tick.
func (p *pwm) counter() uint32 { return p.cnt }

func (p *pwm) reset() {
	p.cnt = 0
	p.out = false
}
