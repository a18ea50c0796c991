// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Window is a register window, such as a memory-mapped file.
type Window interface {
	io.ReaderAt
	io.WriterAt
}

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(br *Bridge, rw Window, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return br.readU32(rw, offset)
		},
		w: func(v uint32) {
			br.writeU32(rw, offset, v)
		},
	}
}

// Bridge keeps an external register window (typically a shared-memory
// file) and the color registers of a controller in sync.
//
// The window uses the CSR layout: one 32-bit little-endian word per LED.
type Bridge struct {
	ctl  *Controller
	regs [NumLEDs]reg32
	last [NumLEDs]uint32

	buf [regSize]byte
	err error
}

// NewBridge creates a bridge between the window rw and the controller.
// The window is first loaded with the current content of the color
// registers.
func NewBridge(ctl *Controller, rw Window) (*Bridge, error) {
	br := &Bridge{ctl: ctl}
	for i := range br.regs {
		br.regs[i] = newReg32(br, rw, int64(i*regSize))
	}

	for i, c := range ctl.Colors() {
		br.regs[i].w(uint32(c))
		br.last[i] = uint32(c)
	}
	if br.err != nil {
		return nil, fmt.Errorf("leds: could not initialize bridge window: %w", br.err)
	}

	return br, nil
}

func (br *Bridge) readU32(r io.ReaderAt, off int64) uint32 {
	if br.err != nil {
		return 0
	}
	_, br.err = r.ReadAt(br.buf[:], off)
	if br.err != nil {
		br.err = fmt.Errorf("could not read register 0x%x: %w", off, br.err)
		return 0
	}
	return binary.LittleEndian.Uint32(br.buf[:])
}

func (br *Bridge) writeU32(w io.WriterAt, off int64, v uint32) {
	if br.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(br.buf[:], v)
	_, br.err = w.WriteAt(br.buf[:], off)
	if br.err != nil {
		br.err = fmt.Errorf("could not write register 0x%x: %w", off, br.err)
	}
}

// Sync performs one pass over the window.
// Registers changed in the window since the previous pass are forwarded to
// the controller. Registers changed through the controller are written back
// to the window, so the bus always reads the last written value. When both
// sides changed, the window wins.
// Sync returns the number of forwarded registers.
func (br *Bridge) Sync() (int, error) {
	var (
		n   = 0
		cur = br.ctl.Colors()
	)
	for i := range br.regs {
		v := br.regs[i].r() & ColorMask
		if br.err != nil {
			return n, br.syncErr(i)
		}
		if v != br.last[i] {
			err := br.ctl.WriteColor(i, v)
			if err != nil {
				return n, fmt.Errorf("leds: could not forward LED=%d: %w", i, err)
			}
			br.last[i] = v
			n++
			continue
		}

		c := uint32(cur[i])
		if c == br.last[i] {
			continue
		}
		br.regs[i].w(c)
		if br.err != nil {
			return n, br.syncErr(i)
		}
		br.last[i] = c
	}
	return n, nil
}

func (br *Bridge) syncErr(i int) error {
	err := br.err
	br.err = nil
	return fmt.Errorf("leds: could not sync LED=%d: %w", i, err)
}

// Run syncs the window every freq until the context is done.
func (br *Bridge) Run(ctx context.Context, freq time.Duration) error {
	tck := time.NewTicker(freq)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
			n, err := br.Sync()
			if err != nil {
				return err
			}
			if n > 0 {
				br.ctl.msg.Printf("bridge: forwarded %d register(s): %v", n, br.ctl.Colors())
			}
		}
	}
}
