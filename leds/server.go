// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
)

// Server allows to control an RGB LED peripheral over TCP.
//
// Requests and replies are JSON values:
//
//	{"name": "write", "args": {"led": 0, "color": 16711680}}
//	{"msg": "ok", "value": ...}
type Server struct {
	ctl net.Listener

	msg *log.Logger
	dev *Controller
}

// Serve serves the controller dev on the provided address.
func Serve(addr string, dev *Controller) error {
	srv, err := NewServer(addr, dev)
	if err != nil {
		return fmt.Errorf("leds: could not create server: %w", err)
	}
	return srv.Serve()
}

// NewServer creates a new server listening on addr.
func NewServer(addr string, dev *Controller) (*Server, error) {
	ctl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("leds: could not listen on %q: %w", addr, err)
	}

	srv := &Server{
		ctl: ctl,
		msg: log.New(os.Stdout, "leds-srv: ", 0),
		dev: dev,
	}
	return srv, nil
}

// Addr returns the address the server listens on.
func (srv *Server) Addr() net.Addr {
	return srv.ctl.Addr()
}

// Serve accepts connections until the server is closed.
func (srv *Server) Serve() error {
	defer srv.Close()

	for {
		conn, err := srv.ctl.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("leds: could not accept connection: %w", err)
		}

		go func() {
			err := srv.handle(conn)
			if err != nil {
				srv.msg.Printf("could not serve %v: %+v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// Close stops the server.
func (srv *Server) Close() error {
	return srv.ctl.Close()
}

type request struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type reply struct {
	Msg   string          `json:"msg"`
	Value json.RawMessage `json:"value,omitempty"`
}

type ledArgs struct {
	LED   int    `json:"led"`
	Color uint32 `json:"color"`
}

// maxTickPeriods is the largest number of PWM periods a single tick request
// may run.
const maxTickPeriods = 16

type tickArgs struct {
	N int `json:"n"`
}

func (srv *Server) handle(conn net.Conn) error {
	defer conn.Close()
	srv.msg.Printf("serving %v...", conn.RemoteAddr())
	defer srv.msg.Printf("serving %v... [done]", conn.RemoteAddr())

	var (
		dec = json.NewDecoder(conn)
		enc = json.NewEncoder(conn)
	)

	for {
		var req request
		err := dec.Decode(&req)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var typ *json.UnmarshalTypeError
			if !errors.As(err, &typ) {
				// the decoder is left in a sticky error state.
				_ = srv.reply(enc, nil, err)
				return fmt.Errorf("could not decode request: %w", err)
			}
			srv.msg.Printf("could not decode request: %+v", err)
			err = srv.reply(enc, nil, err)
			if err != nil {
				return err
			}
			continue
		}

		var (
			name  = strings.ToLower(req.Name)
			value interface{}
		)
		switch name {
		case "write":
			var args ledArgs
			err = srv.decode(req, &args)
			if err != nil {
				break
			}
			err = srv.dev.WriteColor(args.LED, args.Color)

		case "read":
			var args ledArgs
			err = srv.decode(req, &args)
			if err != nil {
				break
			}
			var c Color
			c, err = srv.dev.ReadColor(args.LED)
			value = uint32(c)

		case "wires":
			value = srv.dev.Wires()

		case "tick":
			var args tickArgs
			err = srv.decode(req, &args)
			if err != nil {
				break
			}
			if lim := maxTickPeriods * srv.dev.Period(); args.N < 0 || args.N > lim {
				err = fmt.Errorf("invalid number of ticks %d (want 0..%d)", args.N, lim)
				break
			}
			srv.dev.Run(args.N)
			value = srv.dev.Counter()

		case "reset":
			srv.dev.Reset()

		case "quit":
			return srv.reply(enc, nil, nil)

		default:
			srv.msg.Printf("unknown command name=%q, args=%q", req.Name, req.Args)
			err = fmt.Errorf("unknown command %q", req.Name)
		}

		if err != nil {
			srv.msg.Printf("could not run %q: %+v", name, err)
			value = nil
		}
		err = srv.reply(enc, value, err)
		if err != nil {
			return err
		}
	}
}

func (srv *Server) decode(req request, ptr interface{}) error {
	if len(req.Args) == 0 {
		return fmt.Errorf("missing %q payload", req.Name)
	}
	err := json.Unmarshal(req.Args, ptr)
	if err != nil {
		return fmt.Errorf("could not decode %q payload: %w", req.Name, err)
	}
	return nil
}

func (srv *Server) reply(enc *json.Encoder, v interface{}, err error) error {
	rep := reply{Msg: "ok"}
	if err != nil {
		rep.Msg = fmt.Sprintf("%+v", err)
	}
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("could not encode reply value: %w", err)
		}
		rep.Value = raw
	}

	err = enc.Encode(rep)
	if err != nil {
		return fmt.Errorf("could not send reply: %w", err)
	}
	return nil
}
