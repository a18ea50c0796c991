// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-csr prints the CSR map of the RGB LED peripheral as CSV.
//
// Usage: rgbled-csr [-o csr.csv]
package main // import "github.com/go-lpc/arty/cmd/rgbled-csr"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/arty/leds"
)

func main() {
	log.SetPrefix("rgbled-csr: ")
	log.SetFlags(0)

	oname := flag.String("o", "", "path to the output CSV file (default: stdout)")

	flag.Parse()

	err := run(os.Stdout, *oname)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(stdout io.Writer, oname string) error {
	if oname == "" {
		return leds.WriteCSV(stdout)
	}

	f, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create CSV file: %w", err)
	}
	defer f.Close()

	err = leds.WriteCSV(f)
	if err != nil {
		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close CSV file: %w", err)
	}
	return nil
}
