// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-daq starts a TDAQ process driving an RGB LED peripheral.
//
// The process publishes the wire samples on its /leds output end-point.
package main // import "github.com/go-lpc/arty/cmd/rgbled-daq"

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/arty/leds"
	"github.com/go-lpc/arty/leds/ledsdaq"
)

const (
	period = 10 * time.Millisecond
	batch  = 4096
)

func main() {
	cmd := flags.New()

	ctl := leds.New()
	dev, err := ledsdaq.New(ctl, period, batch)
	if err != nil {
		log.Panicf("could not create LED device: %+v", err)
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/leds", dev.Output)

	srv.RunHandle(dev.Run)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
