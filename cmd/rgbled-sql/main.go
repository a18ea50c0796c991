// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rgbled-sql inspects the RGB LED presets stored in the
// configuration database.
package main // import "github.com/go-lpc/arty/cmd/rgbled-sql"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/arty/conddb"
)

func main() {
	log.SetPrefix("rgbled-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "arty", "name of the configuration DB")
		preset = flag.String("preset", "", "LED preset to inspect (default: last recorded)")
		list   = flag.Bool("list", false, "list all the recorded presets")
	)

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open presets db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *preset, *list)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, preset string, list bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if list {
		presets, err := db.Presets(ctx)
		if err != nil {
			return fmt.Errorf("could not list presets: %w", err)
		}
		log.Printf("presets: %d", len(presets))
		for _, name := range presets {
			log.Printf("  %s", name)
		}
	}

	if preset == "" {
		v, err := db.LastPreset(ctx)
		if err != nil {
			return fmt.Errorf("could not get last preset: %w", err)
		}
		preset = v
	}
	log.Printf("preset: %q", preset)

	colors, err := db.Colors(ctx, preset)
	if err != nil {
		return fmt.Errorf("could not get colors of preset %q: %w", preset, err)
	}
	for i, c := range colors {
		log.Printf("LED=%d: %v (r=%d, g=%d, b=%d)", i, c, c.Red(), c.Green(), c.Blue())
	}

	rows, err := db.QueryContext(ctx, "SELECT datetime FROM rgbleds WHERE preset=? ORDER BY datetime DESC LIMIT 1", preset)
	if err != nil {
		return fmt.Errorf("could not get preset timestamp: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ts string
		err = rows.Scan(&ts)
		if err != nil {
			return fmt.Errorf("could not scan preset timestamp: %w", err)
		}
		log.Printf("recorded: %s", ts)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("could not scan db for preset timestamp: %w", err)
	}

	return nil
}
