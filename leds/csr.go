// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// CSRBase is the bus address of the rgb_leds CSR bank (bank 21).
	CSRBase uint32 = 0xe0000000 + 21*0x800

	regSize = 4 // bytes per color register word

	// CSRSize is the size in bytes of the register window.
	CSRSize = NumLEDs * regSize
)

// CSRReg describes one register of the CSR map.
type CSRReg struct {
	Name  string
	Addr  uint32
	Width int // in bits
	Mode  string
}

// CSRMap returns the register map of the peripheral.
func CSRMap() []CSRReg {
	regs := make([]CSRReg, NumLEDs)
	for i := range regs {
		regs[i] = CSRReg{
			Name:  fmt.Sprintf("rgb_leds_csr_led%d", i),
			Addr:  CSRBase + uint32(i*regSize),
			Width: ColorBits,
			Mode:  "rw",
		}
	}
	return regs
}

// WriteCSV writes the register map in the csr.csv format.
func WriteCSV(w io.Writer) error {
	_, err := fmt.Fprintf(w, "csr_base,rgb_leds,0x%08x,,\n", CSRBase)
	if err != nil {
		return fmt.Errorf("leds: could not write CSR base: %w", err)
	}
	for _, reg := range CSRMap() {
		_, err = fmt.Fprintf(w, "csr_register,%s,0x%08x,%d,%s\n",
			reg.Name, reg.Addr, reg.Width, reg.Mode,
		)
		if err != nil {
			return fmt.Errorf("leds: could not write CSR %q: %w", reg.Name, err)
		}
	}
	return nil
}

// CSR is the memory-mapped view of the color registers.
//
// Registers are 32-bit little-endian words at offsets 0x0, 0x4, 0x8 and 0xc.
// Bits [31:24] read as zero and are ignored on writes.
// Accesses must cover whole, aligned words.
type CSR struct {
	ctl *Controller
}

// CSR returns the register window of the controller.
func (ctl *Controller) CSR() *CSR {
	return &CSR{ctl: ctl}
}

func (csr *CSR) check(p []byte, off int64) error {
	switch {
	case off < 0, off%regSize != 0, len(p)%regSize != 0:
		return fmt.Errorf("%w: unaligned access (off=0x%x, len=%d)", ErrInvalidAddr, off, len(p))
	case off+int64(len(p)) > CSRSize:
		return fmt.Errorf("%w: out of window (off=0x%x, len=%d)", ErrInvalidAddr, off, len(p))
	}
	return nil
}

// ReadAt implements the io.ReaderAt interface.
func (csr *CSR) ReadAt(p []byte, off int64) (int, error) {
	err := csr.check(p, off)
	if err != nil {
		return 0, err
	}
	i := int(off / regSize)
	for n := 0; n < len(p); n += regSize {
		binary.LittleEndian.PutUint32(p[n:], uint32(csr.ctl.regs[i].load()))
		i++
	}
	return len(p), nil
}

// WriteAt implements the io.WriterAt interface.
// Each word is stored atomically.
func (csr *CSR) WriteAt(p []byte, off int64) (int, error) {
	err := csr.check(p, off)
	if err != nil {
		return 0, err
	}
	i := int(off / regSize)
	for n := 0; n < len(p); n += regSize {
		csr.ctl.regs[i].store(binary.LittleEndian.Uint32(p[n:]))
		i++
	}
	return len(p), nil
}

var (
	_ io.ReaderAt = (*CSR)(nil)
	_ io.WriterAt = (*CSR)(nil)
)
