// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert RGB LED wire samples to/from LCIO.
//
// Each sample is stored as an LCIO event holding a single generic object
// in the "RGB_LEDS" collection, with two int32 words: the compared
// counter value and the wires bit mask.
package xcnv // import "github.com/go-lpc/arty/internal/xcnv"

import (
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/arty/leds"
	"go-hep.org/x/hep/lcio"
)

const (
	detector = "ARTY-RGBLEDS"
	collName = "RGB_LEDS"
)

// Writer streams wire samples into an LCIO file.
type Writer struct {
	w   *lcio.Writer
	run int32
	n   int32
	raw *lcio.GenericObject
}

// NewWriter writes the run header, holding the LED colors and the PWM
// period, and returns a writer for the samples of that run.
func NewWriter(w *lcio.Writer, run int32, colors [leds.NumLEDs]leds.Color, period int) (*Writer, error) {
	cs := make([]int32, len(colors))
	for i, c := range colors {
		cs[i] = int32(c)
	}
	err := w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  detector,
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Colors": cs,
				"Period": {int32(period)},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("xcnv: could not write run header: %w", err)
	}

	return &Writer{
		w:   w,
		run: run,
		raw: &lcio.GenericObject{
			Data: []lcio.GenericObjectData{{I32s: make([]int32, 2)}},
		},
	}, nil
}

// Write writes one sample as a new event.
func (w *Writer) Write(cnt uint32, ws leds.Wires) error {
	evt := lcio.Event{
		RunNumber:   w.run,
		EventNumber: w.n,
		TimeStamp:   int64(w.n),
		Detector:    detector,
	}
	w.raw.Data[0].I32s[0] = int32(cnt)
	w.raw.Data[0].I32s[1] = int32(ws.Mask())
	evt.Add(collName, w.raw)

	err := w.w.WriteEvent(&evt)
	if err != nil {
		return fmt.Errorf("xcnv: could not write sample %d: %w", w.n, err)
	}
	w.n++
	return nil
}

// Len returns the number of written samples.
func (w *Writer) Len() int { return int(w.n) }

// RunInfo describes the peripheral configuration of a recorded run.
type RunInfo struct {
	Run    int32
	Colors [leds.NumLEDs]leds.Color
	Period int
}

// ReadSamples reads all the samples of r, calling f for each of them.
func ReadSamples(r *lcio.Reader, freq int, msg *log.Logger, f func(cnt uint32, ws leds.Wires) error) (RunInfo, error) {
	var (
		info RunInfo
		i    = 0
	)

	for r.Next() {
		if i == 0 {
			var err error
			info, err = runInfoFrom(r.RunHeader())
			if err != nil {
				return info, err
			}
		}
		if freq > 0 && i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}

		evt := r.Event()
		obj, ok := evt.Get(collName).(*lcio.GenericObject)
		if !ok || len(obj.Data) != 1 || len(obj.Data[0].I32s) != 2 {
			return info, fmt.Errorf("xcnv: evt %d: invalid %q collection", evt.EventNumber, collName)
		}
		raw := obj.Data[0].I32s
		mask := uint16(raw[1])
		if raw[1] < 0 || raw[1]>>leds.NumWires != 0 {
			return info, fmt.Errorf("xcnv: evt %d: invalid wires mask 0x%x", evt.EventNumber, raw[1])
		}

		err := f(uint32(raw[0]), leds.WiresFrom(mask))
		if err != nil {
			return info, err
		}
		i++
	}

	err := r.Err()
	if err != nil && err != io.EOF {
		return info, fmt.Errorf("xcnv: could not read LCIO file: %w", err)
	}

	return info, nil
}

func runInfoFrom(hdr lcio.RunHeader) (RunInfo, error) {
	info := RunInfo{Run: hdr.RunNumber}
	if hdr.Detector != detector {
		return info, fmt.Errorf("xcnv: invalid detector %q", hdr.Detector)
	}

	cs := hdr.Params.Ints["Colors"]
	if len(cs) != leds.NumLEDs {
		return info, fmt.Errorf("xcnv: invalid number of colors (%d)", len(cs))
	}
	for i, c := range cs {
		info.Colors[i] = leds.Color(uint32(c) & leds.ColorMask)
	}

	period := hdr.Params.Ints["Period"]
	if len(period) != 1 {
		return info, fmt.Errorf("xcnv: missing PWM period")
	}
	info.Period = int(period[0])

	return info, nil
}
