// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"context"
	"fmt"
	"time"
)

// Clock drives a controller from wall-clock time.
//
// Every period, the clock runs a batch of ticks and then hands the counter
// phase and the wires to the Sample callback, if any.
type Clock struct {
	ctl    *Controller
	period time.Duration
	batch  int

	// Sample, when set, is called after each batch of ticks
	// from the clock goroutine.
	Sample func(cnt uint32, ws Wires)
}

// NewClock creates a clock running batch ticks of ctl every period.
func NewClock(ctl *Controller, period time.Duration, batch int) (*Clock, error) {
	if period <= 0 {
		return nil, fmt.Errorf("leds: invalid clock period %v", period)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("leds: invalid clock batch size %d", batch)
	}
	return &Clock{ctl: ctl, period: period, batch: batch}, nil
}

// Step runs one batch of ticks.
func (clk *Clock) Step() {
	clk.ctl.mu.Lock()
	for k := 0; k < clk.batch; k++ {
		clk.ctl.tick()
	}
	var (
		cnt = clk.ctl.pwms[0][0].counter()
		ws  = clk.ctl.wires()
	)
	clk.ctl.mu.Unlock()

	if clk.Sample != nil {
		clk.Sample(cnt, ws)
	}
}

// Run steps the clock until the context is done.
func (clk *Clock) Run(ctx context.Context) error {
	tck := time.NewTicker(clk.period)
	defer tck.Stop()

	clk.ctl.msg.Printf("clock: %d tick(s) every %v", clk.batch, clk.period)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
			clk.Step()
		}
	}
}
