// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leds

import (
	"encoding/json"
	"fmt"
	"net"
)

// Client is a connection to a Server.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// Dial connects to the server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("leds: could not dial %q: %w", addr, err)
	}
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}, nil
}

// Close sends a quit request and closes the connection.
func (cli *Client) Close() error {
	_ = cli.send("quit", nil, nil)
	return cli.conn.Close()
}

func (cli *Client) send(name string, args, value interface{}) error {
	req := request{Name: name}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("leds: could not encode %q args: %w", name, err)
		}
		req.Args = raw
	}

	err := cli.enc.Encode(req)
	if err != nil {
		return fmt.Errorf("leds: could not send %q request: %w", name, err)
	}

	var rep reply
	err = cli.dec.Decode(&rep)
	if err != nil {
		return fmt.Errorf("leds: could not decode %q reply: %w", name, err)
	}
	if rep.Msg != "ok" {
		return fmt.Errorf("leds: %q failed: %s", name, rep.Msg)
	}

	if value != nil {
		err = json.Unmarshal(rep.Value, value)
		if err != nil {
			return fmt.Errorf("leds: could not decode %q value: %w", name, err)
		}
	}
	return nil
}

// Write stores color c in the register of LED i.
func (cli *Client) Write(i int, c Color) error {
	return cli.send("write", ledArgs{LED: i, Color: uint32(c)}, nil)
}

// Read returns the content of the color register of LED i.
func (cli *Client) Read(i int) (Color, error) {
	var v uint32
	err := cli.send("read", ledArgs{LED: i}, &v)
	return Color(v), err
}

// Wires returns a snapshot of the output lines.
func (cli *Client) Wires() (Wires, error) {
	var ws Wires
	err := cli.send("wires", nil, &ws)
	return ws, err
}

// Tick advances the peripheral by n ticks and returns the new counter
// phase.
func (cli *Client) Tick(n int) (uint32, error) {
	var cnt uint32
	err := cli.send("tick", tickArgs{N: n}, &cnt)
	return cnt, err
}

// Reset resets the peripheral.
func (cli *Client) Reset() error {
	return cli.send("reset", nil, nil)
}
