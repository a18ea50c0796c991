// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-scope runs an RGB LED peripheral for a number of ticks and
// displays the activity of its output wires.
//
// Usage: rgbled-scope [OPTIONS] COLOR0 [COLOR1 [COLOR2 [COLOR3]]]
//
// Example:
//
//	$> rgbled-scope -n=4096 -o=out.yoda '#ff0000' '#000080'
//	ticks: 4096
//	LED  color    chan  on-ticks  duty
//	  0  #ff0000  red         255  0.062256
//	  0  #ff0000  green         0  0.000000
//	[...]
package main // import "github.com/go-lpc/arty/cmd/rgbled-scope"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/arty/internal/scope"
	"github.com/go-lpc/arty/internal/xcnv"
	"github.com/go-lpc/arty/leds"
	"go-hep.org/x/hep/lcio"
)

const usage = `rgbled-scope runs an RGB LED peripheral and displays the activity of its wires.

Usage: rgbled-scope [OPTIONS] COLOR0 [COLOR1 [COLOR2 [COLOR3]]]

Colors may be given as #rrggbb, 0xrrggbb or decimal values.
Missing colors are switched off.

Example:

 $> rgbled-scope -n=4096 -o=out.yoda '#ff0000' '#000080'
 ticks: 4096
 LED  color    chan  on-ticks  duty
   0  #ff0000  red         255  0.062256
   0  #ff0000  green         0  0.000000
 [...]

Options:
`

func main() {
	log.SetPrefix("rgbled-scope: ")
	log.SetFlags(0)

	err := xmain(os.Stdout, os.Args[1:])
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(w io.Writer, args []string) error {
	var (
		fset = flag.NewFlagSet("rgbled-scope", flag.ContinueOnError)

		n     = fset.Int("n", 0, "number of ticks to acquire (default: one counter period)")
		bits  = fset.Uint("bits", 12, "width of the PWM counters")
		oname = fset.String("o", "", "path to an output YODA file")
		lname = fset.String("lcio", "", "path to an output LCIO file recording every sample")
		run   = fset.Int("run", 0, "run number of the LCIO file")
	)

	fset.Usage = func() {
		fmt.Fprint(fset.Output(), usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	if fset.NArg() == 0 || fset.NArg() > leds.NumLEDs {
		fset.Usage()
		return fmt.Errorf("invalid number of colors (got=%d, want=1..%d)", fset.NArg(), leds.NumLEDs)
	}

	if *bits < 8 || *bits > 16 {
		return fmt.Errorf("invalid counter width %d (want 8..16)", *bits)
	}

	ctl := leds.New(
		leds.WithCounterBits(*bits),
		leds.WithLogger(log.New(io.Discard, "", 0)),
	)
	for i, arg := range fset.Args() {
		c, err := leds.ParseColor(arg)
		if err != nil {
			return err
		}
		err = ctl.WriteColor(i, uint32(c))
		if err != nil {
			return fmt.Errorf("could not write LED=%d: %w", i, err)
		}
	}

	if *n <= 0 {
		*n = ctl.Period()
	}

	sc := scope.New(ctl)

	var lw *lcio.Writer
	if *lname != "" {
		lw, err = lcio.Create(*lname)
		if err != nil {
			return fmt.Errorf("could not create LCIO file: %w", err)
		}
		defer lw.Close()

		xw, err := xcnv.NewWriter(lw, int32(*run), ctl.Colors(), ctl.Period())
		if err != nil {
			return fmt.Errorf("could not write LCIO run header: %w", err)
		}
		sc.Trace = xw.Write
	}

	err = sc.Acquire(*n)
	if err != nil {
		return fmt.Errorf("could not acquire samples: %w", err)
	}

	if lw != nil {
		err = lw.Close()
		if err != nil {
			return fmt.Errorf("could not close LCIO file: %w", err)
		}
	}

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	err = sc.WriteSummary(wbuf)
	if err != nil {
		return err
	}

	err = wbuf.Flush()
	if err != nil {
		return fmt.Errorf("could not flush summary: %w", err)
	}

	if *oname != "" {
		err = writeYODA(*oname, sc)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeYODA(fname string, sc *scope.Scope) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create YODA file: %w", err)
	}
	defer f.Close()

	err = sc.WriteYODA(f)
	if err != nil {
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close YODA file: %w", err)
	}
	return nil
}
