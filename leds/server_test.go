// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"encoding/json"
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, ctl *Controller) *Server {
	t.Helper()

	srv, err := NewServer("localhost:0", ctl)
	if err != nil {
		t.Fatalf("could not create server: %+v", err)
	}
	srv.msg = log.New(io.Discard, "leds-srv: ", 0)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve()
	}()
	t.Cleanup(func() {
		_ = srv.Close()
		err := <-errc
		if err != nil {
			t.Errorf("could not run server: %+v", err)
		}
	})

	return srv
}

func TestServerFail(t *testing.T) {
	err := Serve(":invalid", newTestController())
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestServer(t *testing.T) {
	var (
		ctl = newTestController()
		srv = newTestServer(t, ctl)
	)

	cli, err := Dial(srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}
	defer cli.Close()

	err = cli.Write(0, 0xff0000)
	if err != nil {
		t.Fatalf("could not write color: %+v", err)
	}

	c, err := cli.Read(0)
	if err != nil {
		t.Fatalf("could not read color: %+v", err)
	}
	if got, want := c, Color(0xff0000); got != want {
		t.Fatalf("invalid color: got=%v, want=%v", got, want)
	}

	cnt, err := cli.Tick(10)
	if err != nil {
		t.Fatalf("could not tick: %+v", err)
	}
	if got, want := cnt, uint32(10); got != want {
		t.Fatalf("invalid counter: got=%d, want=%d", got, want)
	}

	ws, err := cli.Wires()
	if err != nil {
		t.Fatalf("could not read wires: %+v", err)
	}
	var want Wires
	want[0][Red] = true
	if ws != want {
		t.Fatalf("invalid wires: got=%v, want=%v", ws, want)
	}

	cnt, err = cli.Tick(4086)
	if err != nil {
		t.Fatalf("could not tick: %+v", err)
	}
	if cnt != 0 {
		t.Fatalf("invalid counter after a full period: got=%d", cnt)
	}
	ws, err = cli.Wires()
	if err != nil {
		t.Fatalf("could not read wires: %+v", err)
	}
	if ws != (Wires{}) {
		t.Fatalf("wires should be low at the end of a period: %v", ws)
	}

	err = cli.Write(7, 0x123456)
	if err == nil || !strings.Contains(err.Error(), ErrInvalidLED.Error()) {
		t.Fatalf("invalid write error: %+v", err)
	}
	_, err = cli.Read(-1)
	if err == nil || !strings.Contains(err.Error(), ErrInvalidLED.Error()) {
		t.Fatalf("invalid read error: %+v", err)
	}
	_, err = cli.Tick(-1)
	if err == nil {
		t.Fatalf("expected an error for negative ticks")
	}
	_, err = cli.Tick(maxTickPeriods*ctl.Period() + 1)
	if err == nil || !strings.Contains(err.Error(), "invalid number of ticks") {
		t.Fatalf("invalid error for too many ticks: %+v", err)
	}
	if got := ctl.Counter(); got != 0 {
		t.Fatalf("rejected tick request modified the counter: got=%d", got)
	}
	cnt, err = cli.Tick(maxTickPeriods * ctl.Period())
	if err != nil {
		t.Fatalf("could not tick %d periods: %+v", maxTickPeriods, err)
	}
	if cnt != 0 {
		t.Fatalf("invalid counter after %d periods: got=%d", maxTickPeriods, cnt)
	}

	err = cli.Reset()
	if err != nil {
		t.Fatalf("could not reset: %+v", err)
	}
	if got, want := ctl.Colors(), [NumLEDs]Color{}; got != want {
		t.Fatalf("invalid colors after reset: got=%v", got)
	}
	if got := ctl.Counter(); got != 0 {
		t.Fatalf("invalid counter after reset: got=%d", got)
	}
}

func TestServerProtocolErrors(t *testing.T) {
	srv := newTestServer(t, newTestController())

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}
	defer conn.Close()

	var (
		enc = json.NewEncoder(conn)
		dec = json.NewDecoder(conn)
	)

	for _, tc := range []struct {
		req  string
		want string
	}{
		{`{"name":"blink"}`, `unknown command "blink"`},
		{`{"name":"write"}`, `missing "write" payload`},
		{`{"name":"read","args":{"led":"one"}}`, `could not decode "read" payload`},
		{`{"name":"tick","args":[1]}`, `could not decode "tick" payload`},
		{`{"name":42}`, `cannot unmarshal number`},
		{`{"name":"WIRES"}`, `ok`},
	} {
		t.Run(tc.req, func(t *testing.T) {
			err := enc.Encode(json.RawMessage(tc.req))
			if err != nil {
				t.Fatalf("could not send request: %+v", err)
			}
			var rep reply
			err = dec.Decode(&rep)
			if err != nil {
				t.Fatalf("could not decode reply: %+v", err)
			}
			if !strings.Contains(rep.Msg, tc.want) {
				t.Fatalf("invalid reply: got=%q, want=%q", rep.Msg, tc.want)
			}
		})
	}

	err = enc.Encode(request{Name: "quit"})
	if err != nil {
		t.Fatalf("could not send quit: %+v", err)
	}
	var rep reply
	err = dec.Decode(&rep)
	if err != nil {
		t.Fatalf("could not decode quit reply: %+v", err)
	}
	if rep.Msg != "ok" {
		t.Fatalf("invalid quit reply: %q", rep.Msg)
	}

	_, err = conn.Read(make([]byte, 1))
	if err != io.EOF {
		t.Fatalf("connection should be closed after quit: %+v", err)
	}
}

func TestServerTruncatedRequest(t *testing.T) {
	srv := newTestServer(t, newTestController())

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}
	defer conn.Close()

	_, err = conn.Write([]byte(`{"name":"wri`))
	if err != nil {
		t.Fatalf("could not send request: %+v", err)
	}
	err = conn.(*net.TCPConn).CloseWrite()
	if err != nil {
		t.Fatalf("could not half-close connection: %+v", err)
	}

	err = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		t.Fatalf("could not set read deadline: %+v", err)
	}
	raw, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("connection should be closed by the server: %+v", err)
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	var rep reply
	err = dec.Decode(&rep)
	if err != nil {
		t.Fatalf("could not decode reply: %+v", err)
	}
	if !strings.Contains(rep.Msg, "unexpected EOF") {
		t.Fatalf("invalid reply: got=%q", rep.Msg)
	}
	if dec.More() {
		t.Fatalf("server sent more than one reply (%d bytes)", len(raw))
	}
}
