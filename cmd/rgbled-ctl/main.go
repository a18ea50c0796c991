// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-ctl is an interactive console to control a remote RGB LED
// peripheral served by rgbled-srv.
//
// Usage: rgbled-ctl [OPTIONS]
//
// Example:
//
//	$> rgbled-ctl -addr=localhost:8877
//	rgbled> write 0 #ff0000
//	rgbled> read 0
//	LED=0: #ff0000
//	rgbled> tick 100
//	counter: 100
//	rgbled> wires
//	LED=0: r=1 g=0 b=0
//	LED=1: r=0 g=0 b=0
//	LED=2: r=0 g=0 b=0
//	LED=3: r=0 g=0 b=0
//	rgbled> quit
package main // import "github.com/go-lpc/arty/cmd/rgbled-ctl"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-lpc/arty/leds"
	"github.com/peterh/liner"
)

const help = `commands:
  write <led> <color>  write the color register of an LED (#rrggbb, 0x..., decimal)
  read  <led>          read back the color register of an LED
  wires                display the 12 output wires
  tick  [n]            advance the peripheral by n ticks (default: 1)
  reset                reset the peripheral
  help                 display this help
  quit                 close the connection and exit
`

var cmds = []string{"help", "quit", "read", "reset", "tick", "wires", "write"}

func main() {
	log.SetPrefix("rgbled-ctl: ")
	log.SetFlags(0)

	var (
		addr = flag.String("addr", "localhost:8877", "[ip]:port of the rgbled-srv server")
		hist = flag.String("history", historyFile(), "path to the console history file")
	)

	flag.Parse()

	err := run(*addr, *hist)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(addr, hist string) error {
	cli, err := leds.Dial(addr)
	if err != nil {
		return fmt.Errorf("could not dial %q: %w", addr, err)
	}
	defer cli.Close()

	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(complete)

	if hist != "" {
		f, err := os.Open(hist)
		if err == nil {
			_, _ = term.ReadHistory(f)
			f.Close()
		}
		defer func() {
			f, err := os.Create(hist)
			if err != nil {
				log.Printf("could not save history: %+v", err)
				return
			}
			defer f.Close()
			_, _ = term.WriteHistory(f)
		}()
	}

	for {
		line, err := term.Prompt("rgbled> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		quit, err := eval(os.Stdout, cli, line)
		if err != nil {
			log.Printf("%+v", err)
		}
		if quit {
			return nil
		}
	}
}

func historyFile() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".rgbled-ctl.history")
}

func complete(line string) []string {
	var out []string
	for _, cmd := range cmds {
		if strings.HasPrefix(cmd, strings.ToLower(line)) {
			out = append(out, cmd)
		}
	}
	return out
}

// eval runs one console command.
// eval reports whether the console should exit.
func eval(w io.Writer, cli *leds.Client, line string) (bool, error) {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return false, nil
	}
	args := toks[1:]
	switch cmd := strings.ToLower(toks[0]); cmd {
	case "write":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: write <led> <color>")
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("could not parse LED index %q: %w", args[0], err)
		}
		c, err := leds.ParseColor(args[1])
		if err != nil {
			return false, err
		}
		err = cli.Write(i, c)
		if err != nil {
			return false, fmt.Errorf("could not write LED=%d: %w", i, err)
		}

	case "read":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: read <led>")
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("could not parse LED index %q: %w", args[0], err)
		}
		c, err := cli.Read(i)
		if err != nil {
			return false, fmt.Errorf("could not read LED=%d: %w", i, err)
		}
		fmt.Fprintf(w, "LED=%d: %v\n", i, c)

	case "wires":
		ws, err := cli.Wires()
		if err != nil {
			return false, fmt.Errorf("could not read wires: %w", err)
		}
		for i := range ws {
			fmt.Fprintf(w, "LED=%d: r=%d g=%d b=%d\n", i,
				b2i(ws[i][leds.Red]), b2i(ws[i][leds.Green]), b2i(ws[i][leds.Blue]),
			)
		}

	case "tick":
		n := 1
		if len(args) > 1 {
			return false, fmt.Errorf("usage: tick [n]")
		}
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return false, fmt.Errorf("could not parse number of ticks %q: %w", args[0], err)
			}
			n = v
		}
		cnt, err := cli.Tick(n)
		if err != nil {
			return false, fmt.Errorf("could not tick: %w", err)
		}
		fmt.Fprintf(w, "counter: %d\n", cnt)

	case "reset":
		err := cli.Reset()
		if err != nil {
			return false, fmt.Errorf("could not reset: %w", err)
		}

	case "help":
		fmt.Fprint(w, help)

	case "quit", "exit":
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}
