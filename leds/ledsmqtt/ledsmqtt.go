// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ledsmqtt publishes the state of an RGB LED peripheral to an MQTT
// broker.
//
// Each message is a JSON-encoded Status, published with QoS 0.
package ledsmqtt // import "github.com/go-lpc/arty/leds/ledsmqtt"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"github.com/go-lpc/arty/leds"
	mqtt "github.com/soypat/natiu-mqtt"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Status is a snapshot of the peripheral.
type Status struct {
	Colors  []string  `json:"colors"`
	Counter uint32    `json:"counter"`
	Wires   uint16    `json:"wires"` // bit 3*led+ch
	Time    time.Time `json:"time"`
}

// StatusOf returns the current status of ctl.
func StatusOf(ctl *leds.Controller) Status {
	colors := ctl.Colors()
	st := Status{
		Colors:  make([]string, len(colors)),
		Counter: ctl.Counter(),
		Wires:   ctl.Wires().Mask(),
		Time:    time.Now().UTC(),
	}
	for i, c := range colors {
		st.Colors[i] = c.String()
	}
	return st
}

// Publisher publishes the status of a controller on an MQTT topic.
type Publisher struct {
	ctl  *leds.Controller
	msg  *log.Logger
	conn net.Conn
	cli  *mqtt.Client
	id   string
	vars mqtt.VariablesPublish
}

// New creates a publisher sending to topic over conn, identified by id.
func New(ctl *leds.Controller, conn net.Conn, id, topic string) *Publisher {
	return &Publisher{
		ctl:  ctl,
		msg:  log.New(os.Stdout, "leds-mqtt: ", 0),
		conn: conn,
		cli: mqtt.NewClient(mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 4096)},
			OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
				return nil
			},
		}),
		id: id,
		vars: mqtt.VariablesPublish{
			TopicName:        []byte(topic),
			PacketIdentifier: 0xa471,
		},
	}
}

// Connect performs the MQTT handshake with the broker.
func (pub *Publisher) Connect(timeout time.Duration) error {
	var vc mqtt.VariablesConnect
	vc.SetDefaultMQTT([]byte(pub.id))

	err := pub.conn.SetDeadline(time.Now().Add(timeout))
	if err != nil {
		return fmt.Errorf("ledsmqtt: could not set deadline: %w", err)
	}
	defer pub.conn.SetDeadline(time.Time{})

	err = pub.cli.StartConnect(pub.conn, &vc)
	if err != nil {
		return fmt.Errorf("ledsmqtt: could not start connection: %w", err)
	}

	for !pub.cli.IsConnected() {
		err = pub.cli.HandleNext()
		if err != nil {
			return fmt.Errorf("ledsmqtt: could not connect: %w", err)
		}
	}
	pub.msg.Printf("connected to %v as %q", pub.conn.RemoteAddr(), pub.id)
	return nil
}

// Publish sends the current status of the controller.
func (pub *Publisher) Publish() error {
	payload, err := json.Marshal(StatusOf(pub.ctl))
	if err != nil {
		return fmt.Errorf("ledsmqtt: could not marshal status: %w", err)
	}

	err = pub.cli.PublishPayload(pubFlags, pub.vars, payload)
	if err != nil {
		return fmt.Errorf("ledsmqtt: could not publish status: %w", err)
	}
	return nil
}

// Run publishes the status every freq until the context is done.
func (pub *Publisher) Run(ctx context.Context, freq time.Duration) error {
	tck := time.NewTicker(freq)
	defer tck.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
			err := pub.Publish()
			if err != nil {
				return err
			}
		}
	}
}

// Close closes the connection to the broker.
func (pub *Publisher) Close() error {
	return pub.conn.Close()
}
