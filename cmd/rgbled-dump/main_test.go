// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-lpc/arty/internal/xcnv"
	"github.com/go-lpc/arty/leds"
	"go-hep.org/x/hep/lcio"
)

func TestDump(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.slcio")

	ctl := leds.New(
		leds.WithCounterBits(8),
		leds.WithLogger(log.New(io.Discard, "", 0)),
	)
	_ = ctl.WriteColor(0, 0x000002)
	_ = ctl.WriteColor(3, 0x010000)

	lw, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer lw.Close()

	w, err := xcnv.NewWriter(lw, 3, ctl.Colors(), ctl.Period())
	if err != nil {
		t.Fatalf("could not create writer: %+v", err)
	}
	for i := 0; i < 4; i++ {
		cnt := ctl.Counter()
		ctl.Tick()
		err = w.Write(cnt, ctl.Wires())
		if err != nil {
			t.Fatalf("could not write sample: %+v", err)
		}
	}
	err = lw.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	for _, tc := range []struct {
		name    string
		changes bool
		want    string
	}{
		{
			name: "all",
			want: `=== run 3 ===
period: 256
colors: [#000002 #000000 #000000 #010000]
samples: 4
counter  LED0 LED1 LED2 LED3
      0   001  000  000  100
      1   001  000  000  000
      2   000  000  000  000
      3   000  000  000  000
`,
		},
		{
			name:    "changes",
			changes: true,
			want: `=== run 3 ===
period: 256
colors: [#000002 #000000 #000000 #010000]
samples: 4
counter  LED0 LED1 LED2 LED3
      0   001  000  000  100
      1   001  000  000  000
      2   000  000  000  000
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			err := process(out, fname, tc.changes)
			if err != nil {
				t.Fatalf("could not dump file: %+v", err)
			}
			if got, want := out.String(), tc.want; got != want {
				t.Fatalf("invalid dump:\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}

	err = process(new(bytes.Buffer), filepath.Join(t.TempDir(), "missing.slcio"), false)
	if err == nil || !strings.Contains(err.Error(), "could not open LCIO file") {
		t.Fatalf("invalid error: %+v", err)
	}
}
