// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/arty/internal/mmap"
	"github.com/go-lpc/arty/leds"
)

func TestRun(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "rgbleds.csr")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		addrc = make(chan string, 1)
		errc  = make(chan error, 1)
	)
	go func() {
		errc <- run(ctx, config{
			addr:   "localhost:0",
			bits:   12,
			period: time.Millisecond,
			batch:  64,
			csr:    fname,
			poll:   time.Millisecond,
		}, func(addr string) { addrc <- addr })
	}()

	var addr string
	select {
	case addr = <-addrc:
	case err := <-errc:
		t.Fatalf("could not start server: %+v", err)
	}

	cli, err := leds.Dial(addr)
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}

	err = cli.Write(1, 0x00ff00)
	if err != nil {
		t.Fatalf("could not write color: %+v", err)
	}
	c, err := cli.Read(1)
	if err != nil {
		t.Fatalf("could not read color: %+v", err)
	}
	if got, want := c, leds.Color(0x00ff00); got != want {
		t.Fatalf("invalid color: got=%v, want=%v", got, want)
	}

	h, err := mmap.Open(fname, leds.CSRSize)
	if err != nil {
		t.Fatalf("could not map CSR window: %+v", err)
	}
	defer h.Close()

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], 0x0000ff)
	_, err = h.WriteAt(buf[:], 2*4)
	if err != nil {
		t.Fatalf("could not write CSR window: %+v", err)
	}

	timeout := time.After(5 * time.Second)
loop:
	for {
		c, err := cli.Read(2)
		if err != nil {
			t.Fatalf("could not read color: %+v", err)
		}
		if c == 0x0000ff {
			break loop
		}
		select {
		case <-timeout:
			t.Fatalf("CSR write not forwarded: got=%v", c)
		case <-time.After(time.Millisecond):
		}
	}

	// colors written through the control server are visible on the bus.
	timeout = time.After(5 * time.Second)
	for {
		_, err = h.ReadAt(buf[:], 1*4)
		if err != nil {
			t.Fatalf("could not read CSR window: %+v", err)
		}
		if binary.LittleEndian.Uint32(buf[:]) == 0x00ff00 {
			break
		}
		select {
		case <-timeout:
			t.Fatalf("color not written back: got=0x%x", binary.LittleEndian.Uint32(buf[:]))
		case <-time.After(time.Millisecond):
		}
	}

	err = cli.Close()
	if err != nil {
		t.Fatalf("could not close client: %+v", err)
	}

	cancel()
	err = <-errc
	if err != nil {
		t.Fatalf("could not run server: %+v", err)
	}
}

func TestRunInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  config
		want string
	}{
		{
			name: "bits",
			cfg:  config{addr: "localhost:0", bits: 4, period: time.Millisecond, batch: 1},
			want: "invalid counter width 4",
		},
		{
			name: "clock",
			cfg:  config{addr: "localhost:0", bits: 12, period: 0, batch: 1},
			want: "could not create clock",
		},
		{
			name: "csr",
			cfg: config{
				addr: "localhost:0", bits: 12, period: time.Millisecond, batch: 1,
				csr: filepath.Join(t.TempDir(), "missing", "csr"),
			},
			want: "could not map CSR window",
		},
		{
			name: "mqtt",
			cfg: config{
				addr: "localhost:0", bits: 12, period: time.Millisecond, batch: 1,
				mqtt: "localhost:1",
			},
			want: "could not create MQTT publisher",
		},
		{
			name: "addr",
			cfg:  config{addr: "not-an-address", bits: 12, period: time.Millisecond, batch: 1},
			want: "could not create server",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.cfg, nil)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("invalid error: got=%q, want=%q", err, tc.want)
			}
		})
	}
}

func TestAlertMail(t *testing.T) {
	defer func(usr, pwd, srv string, port int, tgts []string) {
		alertMailUsr = usr
		alertMailPwd = pwd
		alertMailSrv = srv
		alertMailPort = port
		alertMailTgts = tgts
	}(alertMailUsr, alertMailPwd, alertMailSrv, alertMailPort, alertMailTgts)

	cfg := config{addr: ":8877", csr: "/dev/shm/rgbleds"}
	boom := errors.New("boom")

	alertMailUsr = ""
	if _, ok := alertMail(cfg, boom); ok {
		t.Fatalf("expected missing credentials")
	}

	alertMailUsr = "arty@example.com"
	alertMailPwd = "s3cr3t"
	alertMailSrv = "smtp.example.com"
	alertMailPort = 587
	alertMailTgts = targets("a@example.com, b@example.com,")

	if got, want := len(alertMailTgts), 2; got != want {
		t.Fatalf("invalid number of targets: got=%d, want=%d", got, want)
	}

	msg, ok := alertMail(cfg, boom)
	if !ok {
		t.Fatalf("could not create alert mail")
	}
	if got, want := msg.GetHeader("Bcc"), alertMailTgts; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("invalid targets: got=%q, want=%q", got, want)
	}
	if got := msg.GetHeader("Subject"); len(got) != 1 || !strings.HasPrefix(got[0], "[rgbled-srv] alert: ") {
		t.Fatalf("invalid subject: %q", got)
	}
}

func TestAtoi(t *testing.T) {
	for _, tc := range []struct {
		str  string
		want int
	}{
		{"", 0},
		{"587", 587},
		{"smtp", 0},
	} {
		if got := atoi(tc.str); got != tc.want {
			t.Fatalf("atoi(%q): got=%d, want=%d", tc.str, got, tc.want)
		}
	}
}
