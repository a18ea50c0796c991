// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ledsdaq exposes an RGB LED peripheral as a TDAQ process.
//
// The process accepts the usual TDAQ commands:
//   - /config: loads the four color registers (4 x u32),
//   - /init, /reset: reset the peripheral,
//   - /start, /stop: start and stop the peripheral clock,
//   - /quit.
//
// While running, the /leds output end-point publishes one sample per
// batch of ticks: the counter phase (u32) followed by the wires bit mask
// (u16, wire (led, ch) being bit 3*led+ch) and the CRC-16 (CCITT) of
// these 6 bytes (u16).
package ledsdaq // import "github.com/go-lpc/arty/leds/ledsdaq"

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/arty/internal/crc16"
	"github.com/go-lpc/arty/leds"
)

// sampleSize is the size of an encoded sample, CRC-16 trailer included.
const sampleSize = 4 + 2 + crc16.Size

// Device is a TDAQ front-end for an RGB LED peripheral.
type Device struct {
	ctl    *leds.Controller
	period time.Duration
	batch  int

	n    atomic.Int64 // number of published samples
	data chan []byte
}

// New creates a TDAQ device running batch ticks of ctl every period.
func New(ctl *leds.Controller, period time.Duration, batch int) (*Device, error) {
	// validate the clock parameters early.
	_, err := leds.NewClock(ctl, period, batch)
	if err != nil {
		return nil, fmt.Errorf("ledsdaq: invalid clock: %w", err)
	}
	return &Device{
		ctl:    ctl,
		period: period,
		batch:  batch,
		data:   make(chan []byte, 1024),
	}, nil
}

func (dev *Device) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	colors, err := DecodeColors(req.Body)
	if err != nil {
		ctx.Msg.Errorf("could not decode /config payload: %+v", err)
		return fmt.Errorf("could not decode /config payload: %w", err)
	}

	for i, c := range colors {
		err = dev.ctl.WriteColor(i, uint32(c))
		if err != nil {
			return fmt.Errorf("could not configure LED=%d: %w", i, err)
		}
	}
	ctx.Msg.Infof("colors: %v", colors)
	return nil
}

func (dev *Device) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	dev.reset()
	return nil
}

func (dev *Device) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.reset()
	return nil
}

func (dev *Device) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *Device) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	n := dev.n.Load()
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (dev *Device) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *Device) reset() {
	dev.ctl.Reset()
	dev.n.Store(0)
	for {
		select {
		case <-dev.data:
		default:
			return
		}
	}
}

// Output publishes the wire samples.
func (dev *Device) Output(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

// Run drives the peripheral clock until the run is stopped.
func (dev *Device) Run(ctx tdaq.Context) error {
	clk, err := leds.NewClock(dev.ctl, dev.period, dev.batch)
	if err != nil {
		return err
	}
	clk.Sample = func(cnt uint32, ws leds.Wires) {
		raw, err := EncodeSample(cnt, ws)
		if err != nil {
			ctx.Msg.Errorf("could not encode sample: %+v", err)
			return
		}
		select {
		case dev.data <- raw:
			dev.n.Add(1)
		default:
		}
	}
	return clk.Run(ctx.Ctx)
}

// EncodeColors encodes the colors of a /config command.
func EncodeColors(colors [leds.NumLEDs]leds.Color) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	for _, c := range colors {
		enc.WriteU32(uint32(c))
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("ledsdaq: could not encode colors: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeColors decodes the payload of a /config command.
func DecodeColors(p []byte) ([leds.NumLEDs]leds.Color, error) {
	var colors [leds.NumLEDs]leds.Color
	if len(p) != 4*leds.NumLEDs {
		return colors, fmt.Errorf("ledsdaq: invalid colors payload size %d", len(p))
	}
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	for i := range colors {
		colors[i] = leds.Color(dec.ReadU32() & leds.ColorMask)
	}
	if err := dec.Err(); err != nil {
		return colors, fmt.Errorf("ledsdaq: could not decode colors: %w", err)
	}
	return colors, nil
}

// EncodeSample encodes one wire sample.
func EncodeSample(cnt uint32, ws leds.Wires) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(cnt)
	enc.WriteU16(ws.Mask())
	enc.WriteU16(crc16.Checksum(buf.Bytes()))
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("ledsdaq: could not encode sample: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSample decodes one wire sample.
func DecodeSample(p []byte) (uint32, leds.Wires, error) {
	if len(p) != sampleSize {
		return 0, leds.Wires{}, fmt.Errorf("ledsdaq: invalid sample size %d", len(p))
	}
	dec := tdaq.NewDecoder(bytes.NewReader(p))
	cnt := dec.ReadU32()
	mask := dec.ReadU16()
	crc := dec.ReadU16()
	if err := dec.Err(); err != nil {
		return 0, leds.Wires{}, fmt.Errorf("ledsdaq: could not decode sample: %w", err)
	}
	if sum := crc16.Checksum(p[:sampleSize-crc16.Size]); sum != crc {
		return 0, leds.Wires{}, fmt.Errorf("ledsdaq: invalid sample checksum (got=0x%04x, want=0x%04x)", crc, sum)
	}
	if mask>>leds.NumWires != 0 {
		return 0, leds.Wires{}, fmt.Errorf("ledsdaq: invalid wires mask 0x%x", mask)
	}
	return cnt, leds.WiresFrom(mask), nil
}
