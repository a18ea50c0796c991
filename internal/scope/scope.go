// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scope samples the output wires of an RGB LED peripheral and
// accumulates their on-time as a function of the PWM counter phase.
package scope // import "github.com/go-lpc/arty/internal/scope"

import (
	"fmt"
	"io"

	"github.com/go-lpc/arty/leds"
	"go-hep.org/x/hep/hbook"
)

// Scope records the activity of the 12 wires of a controller.
type Scope struct {
	ctl   *leds.Controller
	ticks int

	// Trace, when set, is called with every acquired sample.
	Trace func(cnt uint32, ws leds.Wires) error

	on    [leds.NumLEDs][leds.NumChannels]int
	hists [leds.NumLEDs][leds.NumChannels]*hbook.H1D
}

// New creates a scope attached to ctl.
// Each wire histogram has one bin per counter value.
func New(ctl *leds.Controller) *Scope {
	sc := &Scope{ctl: ctl}
	n := ctl.Period()
	for i := range sc.hists {
		for j, ch := range leds.Channels {
			h := hbook.NewH1D(n, 0, float64(n))
			h.Annotation()["name"] = fmt.Sprintf("led%d-%v", i, ch)
			sc.hists[i][j] = h
		}
	}
	return sc
}

// Acquire ticks the controller n times, recording the wires after each
// tick against the counter value compared during that tick.
func (sc *Scope) Acquire(n int) error {
	for k := 0; k < n; k++ {
		cnt := sc.ctl.Counter()
		sc.ctl.Tick()
		ws := sc.ctl.Wires()
		sc.ticks++
		if sc.Trace != nil {
			err := sc.Trace(cnt, ws)
			if err != nil {
				return fmt.Errorf("scope: could not trace tick %d: %w", sc.ticks, err)
			}
		}
		for i := range ws {
			for j, v := range ws[i] {
				if !v {
					continue
				}
				sc.on[i][j]++
				sc.hists[i][j].Fill(float64(cnt), 1)
			}
		}
	}
	return nil
}

// Ticks returns the number of acquired ticks.
func (sc *Scope) Ticks() int { return sc.ticks }

// On returns the number of ticks the ch wire of LED i was high.
func (sc *Scope) On(i int, ch leds.Channel) int { return sc.on[i][ch] }

// Duty returns the fraction of acquired ticks the ch wire of LED i was high.
func (sc *Scope) Duty(i int, ch leds.Channel) float64 {
	if sc.ticks == 0 {
		return 0
	}
	return float64(sc.on[i][ch]) / float64(sc.ticks)
}

// Hist returns the on-time histogram of the ch wire of LED i.
func (sc *Scope) Hist(i int, ch leds.Channel) *hbook.H1D { return sc.hists[i][ch] }

// WriteSummary writes a table of the on-time of every wire.
func (sc *Scope) WriteSummary(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ticks: %d\nLED  color    chan  on-ticks  duty\n", sc.ticks)
	if err != nil {
		return fmt.Errorf("scope: could not write summary header: %w", err)
	}
	colors := sc.ctl.Colors()
	for i := range sc.on {
		for j, ch := range leds.Channels {
			_, err = fmt.Fprintf(w, "%3d  %v  %-5v %9d  %.6f\n",
				i, colors[i], ch, sc.on[i][j], sc.Duty(i, ch),
			)
			if err != nil {
				return fmt.Errorf("scope: could not write summary: %w", err)
			}
		}
	}
	return nil
}

// WriteYODA writes all wire histograms in the YODA format.
func (sc *Scope) WriteYODA(w io.Writer) error {
	for i := range sc.hists {
		for _, h := range sc.hists[i] {
			raw, err := h.MarshalYODA()
			if err != nil {
				return fmt.Errorf("scope: could not marshal %v: %w", h.Name(), err)
			}
			_, err = w.Write(raw)
			if err != nil {
				return fmt.Errorf("scope: could not write %v: %w", h.Name(), err)
			}
		}
	}
	return nil
}
