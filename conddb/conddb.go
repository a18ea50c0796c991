// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to retrieve the RGB LED presets stored in
// the configuration database.
package conddb // import "github.com/go-lpc/arty/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-lpc/arty/leds"
	_ "github.com/go-sql-driver/mysql"
)

var (
	host = "localhost"
	usr  = "username"
	pwd  = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve LED presets from
// the configuration database.
type DB struct {
	db   *sql.DB
	name string // name of the configuration database
}

// Open opens a connection to the configuration database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastPreset returns the name of the most recently recorded preset.
func (db *DB) LastPreset(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	preset := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT preset FROM rgbleds ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return preset, fmt.Errorf("conddb: could not query last preset: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&preset)
		if err != nil {
			return preset, fmt.Errorf("conddb: could not get preset value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return preset, fmt.Errorf("conddb: could not scan db for last preset: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return preset, fmt.Errorf("conddb: context error while retrieving last preset: %w", err)
	}

	if preset == "" {
		return preset, fmt.Errorf("conddb: no preset in %q db", db.name)
	}

	return preset, nil
}

// Presets returns the names of all the recorded presets.
func (db *DB) Presets(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(
		ctx,
		"SELECT DISTINCT preset FROM rgbleds ORDER BY preset",
	)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not query presets: %w", err)
	}
	defer rows.Close()

	var presets []string
	for rows.Next() {
		var preset string
		err = rows.Scan(&preset)
		if err != nil {
			return nil, fmt.Errorf("conddb: could not get preset value: %w", err)
		}
		presets = append(presets, preset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conddb: could not scan db for presets: %w", err)
	}

	return presets, nil
}

// Colors returns the colors of the four LEDs for the given preset.
// LEDs missing from the preset are switched off.
func (db *DB) Colors(ctx context.Context, preset string) ([leds.NumLEDs]leds.Color, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var colors [leds.NumLEDs]leds.Color
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT led, color FROM rgbleds WHERE preset=? ORDER BY led",
		preset,
	)
	if err != nil {
		return colors, fmt.Errorf("conddb: could not query colors of preset %q: %w", preset, err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var (
			led   int
			color uint32
		)
		err = rows.Scan(&led, &color)
		if err != nil {
			return colors, fmt.Errorf("conddb: could not scan row %d of preset %q: %w", i, preset, err)
		}
		i++

		if led < 0 || led >= leds.NumLEDs {
			return colors, fmt.Errorf(
				"conddb: preset %q: %w %d", preset, leds.ErrInvalidLED, led,
			)
		}
		colors[led] = leds.Color(color & leds.ColorMask)
	}

	if err := rows.Err(); err != nil {
		return colors, fmt.Errorf("conddb: could not scan db for preset %q: %w", preset, err)
	}

	if err := ctx.Err(); err != nil {
		return colors, fmt.Errorf("conddb: context error while retrieving preset %q: %w", preset, err)
	}

	if i == 0 {
		return colors, fmt.Errorf("conddb: unknown preset %q", preset)
	}

	return colors, nil
}
