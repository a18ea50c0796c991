// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-srv runs an RGB LED peripheral and serves its control
// protocol over TCP.
//
// Usage: rgbled-srv [OPTIONS]
//
// Example:
//
//	$> rgbled-srv -addr=:8877 -csr-file=/dev/shm/rgbleds
//	rgbled-srv: version: "v0.1.0"
//	rgbled-srv: serving on "[::]:8877"...
//	leds: bridge: forwarded 1 register(s): [#ff0000 #000000 #000000 #000000]
package main // import "github.com/go-lpc/arty/cmd/rgbled-srv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/go-lpc/arty"
	"github.com/go-lpc/arty/conddb"
	"github.com/go-lpc/arty/internal/mmap"
	"github.com/go-lpc/arty/leds"
	"github.com/go-lpc/arty/leds/ledsmqtt"
	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

type config struct {
	addr   string
	bits   uint
	period time.Duration
	batch  int

	csr  string        // path to the shared-memory CSR window
	poll time.Duration // CSR window polling interval

	db     string // name of the presets DB
	preset string // name of the preset to load

	pmon  bool
	freq  time.Duration
	pfile string

	mqtt  string // [ip]:port of the MQTT broker
	topic string
	mfreq time.Duration
}

func main() {
	log.SetPrefix("rgbled-srv: ")
	log.SetFlags(0)

	var cfg config
	flag.StringVar(&cfg.addr, "addr", ":8877", "[ip]:port to listen on")
	flag.UintVar(&cfg.bits, "bits", 12, "width of the PWM counters")
	flag.DurationVar(&cfg.period, "period", 10*time.Millisecond, "clock period")
	flag.IntVar(&cfg.batch, "batch", 4096, "number of ticks per clock period")
	flag.StringVar(&cfg.csr, "csr-file", "", "path to a shared-memory CSR window")
	flag.DurationVar(&cfg.poll, "csr-freq", 10*time.Millisecond, "CSR window polling interval")
	flag.StringVar(&cfg.db, "db", "", "name of the DB holding LED presets")
	flag.StringVar(&cfg.preset, "preset", "", "name of the LED preset to load (default: last recorded)")
	flag.BoolVar(&cfg.pmon, "pmon", false, "enable pmon monitoring")
	flag.DurationVar(&cfg.freq, "freq", 1*time.Second, "pmon frequency")
	flag.StringVar(&cfg.pfile, "pmon-file", "rgbled-srv-pmon.log", "pmon output file")
	flag.StringVar(&cfg.mqtt, "mqtt", "", "[ip]:port of an MQTT broker to publish the LEDs status to")
	flag.StringVar(&cfg.topic, "mqtt-topic", "arty/rgbleds", "MQTT topic of the LEDs status")
	flag.DurationVar(&cfg.mfreq, "mqtt-freq", 1*time.Second, "MQTT publication interval")

	flag.Parse()

	version, _ := arty.Version()
	log.Printf("version: %q", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, cfg, nil)
	if err != nil {
		alert(cfg, err)
		log.Fatalf("%+v", err)
	}
}

func run(ctx context.Context, cfg config, ready func(addr string)) error {
	if cfg.bits < 8 || cfg.bits > 16 {
		return fmt.Errorf("invalid counter width %d (want 8..16)", cfg.bits)
	}

	opts := []leds.Option{leds.WithCounterBits(cfg.bits)}
	if cfg.db != "" {
		colors, err := loadPreset(ctx, cfg.db, cfg.preset)
		if err != nil {
			return fmt.Errorf("could not load LED preset: %w", err)
		}
		opts = append(opts, leds.WithResetColors(colors))
	}

	ctl := leds.New(opts...)
	clk, err := leds.NewClock(ctl, cfg.period, cfg.batch)
	if err != nil {
		return fmt.Errorf("could not create clock: %w", err)
	}

	srv, err := leds.NewServer(cfg.addr, ctl)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	if cfg.pmon {
		kill, err := monitor(cfg.pfile, cfg.freq)
		if err != nil {
			return fmt.Errorf("could not start monitoring: %w", err)
		}
		defer kill()
	}

	var br *leds.Bridge
	if cfg.csr != "" {
		h, err := mmap.Open(cfg.csr, leds.CSRSize)
		if err != nil {
			return fmt.Errorf("could not map CSR window: %w", err)
		}
		defer h.Close()

		br, err = leds.NewBridge(ctl, h)
		if err != nil {
			return fmt.Errorf("could not create CSR bridge: %w", err)
		}
		log.Printf("bridging CSR window %q (base=0x%08x)...", cfg.csr, leds.CSRBase)
	}

	var pub *ledsmqtt.Publisher
	if cfg.mqtt != "" {
		pub, err = publisher(ctl, cfg.mqtt, cfg.topic)
		if err != nil {
			return fmt.Errorf("could not create MQTT publisher: %w", err)
		}
		defer pub.Close()
	}

	grp, ctx := errgroup.WithContext(ctx)
	if br != nil {
		grp.Go(func() error {
			return br.Run(ctx, cfg.poll)
		})
	}
	if pub != nil {
		grp.Go(func() error {
			return pub.Run(ctx, cfg.mfreq)
		})
	}
	grp.Go(func() error {
		return clk.Run(ctx)
	})
	grp.Go(func() error {
		return srv.Serve()
	})
	grp.Go(func() error {
		<-ctx.Done()
		_ = srv.Close()
		return nil
	})

	log.Printf("serving on %q...", srv.Addr().String())
	if ready != nil {
		ready(srv.Addr().String())
	}

	err = grp.Wait()
	if err != nil {
		return fmt.Errorf("could not run LED peripheral: %w", err)
	}
	return nil
}

func loadPreset(ctx context.Context, dbname, preset string) ([leds.NumLEDs]leds.Color, error) {
	var colors [leds.NumLEDs]leds.Color

	db, err := conddb.Open(dbname)
	if err != nil {
		return colors, err
	}
	defer db.Close()

	if preset == "" {
		preset, err = db.LastPreset(ctx)
		if err != nil {
			return colors, err
		}
	}

	colors, err = db.Colors(ctx, preset)
	if err != nil {
		return colors, err
	}
	log.Printf("preset %q: %v", preset, colors)
	return colors, nil
}

func publisher(ctl *leds.Controller, addr, topic string) (*ledsmqtt.Publisher, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("could not dial MQTT broker %q: %w", addr, err)
	}

	host, _ := os.Hostname()
	pub := ledsmqtt.New(ctl, conn, fmt.Sprintf("rgbled-srv-%s-%d", host, os.Getpid()), topic)
	err = pub.Connect(5 * time.Second)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return pub, nil
}

func monitor(fname string, freq time.Duration) (func(), error) {
	pid := os.Getpid()
	p, err := pmon.Monitor(pid)
	if err != nil {
		return nil, fmt.Errorf("could not monitor pid=%d: %w", pid, err)
	}

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = freq

	go func() {
		log.Printf("run pmon (pid=%d)...", pid)
		err := p.Run()
		if err != nil {
			log.Printf("could not run pmon: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			log.Printf("could not stop monitoring: %+v", err)
		}
		_ = f.Close()
	}, nil
}
