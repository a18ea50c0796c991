// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rgbled-dump decodes and displays RGB LED wire samples stored in LCIO files.
//
// Usage: rgbled-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> rgbled-dump ./out.slcio
//	=== run 0 ===
//	period: 4096
//	colors: [#ff0000 #000080 #000000 #000000]
//	samples: 4096
//	counter  LED0 LED1 LED2 LED3
//	      0   100  001  000  000
//	      1   100  001  000  000
//	[...]
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/arty/internal/xcnv"
	"github.com/go-lpc/arty/leds"
	"go-hep.org/x/hep/lcio"
)

const usage = `rgbled-dump decodes and displays RGB LED wire samples stored in LCIO files.

Usage: rgbled-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> rgbled-dump ./out.slcio
 === run 0 ===
 period: 4096
 colors: [#ff0000 #000080 #000000 #000000]
 samples: 4096
 counter  LED0 LED1 LED2 LED3
       0   100  001  000  000
       1   100  001  000  000
 [...]

Options:
`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("rgbled-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("rgbled-dump", flag.ExitOnError)

		changes = fset.Bool("changes", false, "only display samples where a wire changed")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *changes)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, changes bool) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	var (
		msg  = log.New(io.Discard, "", 0)
		body = new(bytes.Buffer)
		i    = 0
		prev leds.Wires
	)
	info, err := xcnv.ReadSamples(r, 0, msg, func(cnt uint32, ws leds.Wires) error {
		defer func() { i++ }()
		if changes && i > 0 && ws == prev {
			return nil
		}
		prev = ws
		fmt.Fprintf(body, "%7d  ", cnt)
		for j, led := range ws {
			if j > 0 {
				body.WriteString(" ")
			}
			fmt.Fprintf(body, " %d%d%d", b2i(led[leds.Red]), b2i(led[leds.Green]), b2i(led[leds.Blue]))
		}
		body.WriteString("\n")
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not decode samples: %w", err)
	}

	fmt.Fprintf(wbuf, "=== run %d ===\n", info.Run)
	fmt.Fprintf(wbuf, "period: %d\n", info.Period)
	fmt.Fprintf(wbuf, "colors: %v\n", info.Colors)
	fmt.Fprintf(wbuf, "samples: %d\n", i)
	fmt.Fprintf(wbuf, "counter  LED0 LED1 LED2 LED3\n")
	_, err = wbuf.Write(body.Bytes())
	if err != nil {
		return fmt.Errorf("could not write samples: %w", err)
	}

	return nil
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}
