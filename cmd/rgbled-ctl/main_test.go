// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/arty/leds"
)

func TestEval(t *testing.T) {
	ctl := leds.New(leds.WithLogger(log.New(io.Discard, "", 0)))
	srv, err := leds.NewServer("localhost:0", ctl)
	if err != nil {
		t.Fatalf("could not create server: %+v", err)
	}
	defer srv.Close()
	go func() { _ = srv.Serve() }()

	cli, err := leds.Dial(srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}
	defer cli.Close()

	out := new(bytes.Buffer)
	for _, tc := range []struct {
		line string
		want string
		err  string
		quit bool
	}{
		{line: ""},
		{line: "write 0 #ff0000"},
		{line: "WRITE 3 0x000080"},
		{line: "read 0", want: "LED=0: #ff0000\n"},
		{line: "read 3", want: "LED=3: #000080\n"},
		{line: "tick", want: "counter: 1\n"},
		{line: "tick 199", want: "counter: 200\n"},
		{
			line: "wires",
			want: "LED=0: r=1 g=0 b=0\nLED=1: r=0 g=0 b=0\nLED=2: r=0 g=0 b=0\nLED=3: r=0 g=0 b=0\n",
		},
		{line: "reset"},
		{line: "read 0", want: "LED=0: #000000\n"},
		{line: "write 4 #ffffff", err: "could not write LED=4"},
		{line: "write 0", err: "usage: write"},
		{line: "write x #ffffff", err: "could not parse LED index"},
		{line: "write 0 #fffffff", err: "leds:"},
		{line: "read", err: "usage: read"},
		{line: "read -1", err: "could not read LED=-1"},
		{line: "tick -1", err: "could not tick"},
		{line: "tick 1 2", err: "usage: tick"},
		{line: "blink", err: `unknown command "blink"`},
		{line: "help", want: help},
		{line: "quit", quit: true},
	} {
		t.Run(tc.line, func(t *testing.T) {
			out.Reset()
			quit, err := eval(out, cli, tc.line)
			switch {
			case tc.err != "":
				if err == nil {
					t.Fatalf("expected an error")
				}
				if !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("invalid error: got=%q, want=%q", err, tc.err)
				}
			case err != nil:
				t.Fatalf("could not eval %q: %+v", tc.line, err)
			}
			if quit != tc.quit {
				t.Fatalf("invalid quit status: got=%v, want=%v", quit, tc.quit)
			}
			if got := out.String(); got != tc.want {
				t.Fatalf("invalid output:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	for _, tc := range []struct {
		line string
		want []string
	}{
		{"w", []string{"wires", "write"}},
		{"re", []string{"read", "reset"}},
		{"T", []string{"tick"}},
		{"x", nil},
	} {
		if got := complete(tc.line); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("complete(%q): got=%q, want=%q", tc.line, got, tc.want)
		}
	}
}
