// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"

	"github.com/go-lpc/arty/internal/fakedb"
	"github.com/go-lpc/arty/leds"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestDSN(t *testing.T) {
	if got, want := dsn("arty"), "username:s3cr3t@tcp(localhost)/arty"; got != want {
		t.Fatalf("invalid DSN: got=%q, want=%q", got, want)
	}
}

func TestLastPreset(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"preset"},
		Values: [][]driver.Value{
			{"rainbow"},
		},
	}, func(ctx context.Context) error {
		preset, err := db.LastPreset(ctx)
		if err != nil {
			t.Fatalf("could not retrieve last preset: %+v", err)
		}

		if got, want := preset, "rainbow"; got != want {
			t.Fatalf("invalid last preset: got=%q, want=%q", got, want)
		}
		return nil
	})

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"preset"},
	}, func(ctx context.Context) error {
		_, err := db.LastPreset(ctx)
		if err == nil {
			t.Fatalf("expected an error for an empty db")
		}
		return nil
	})
}

func TestPresets(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"preset"},
		Values: [][]driver.Value{
			{"rainbow"},
			{"rgb"},
			{"white"},
		},
	}, func(ctx context.Context) error {
		presets, err := db.Presets(ctx)
		if err != nil {
			t.Fatalf("could not retrieve presets: %+v", err)
		}

		if got, want := presets, []string{"rainbow", "rgb", "white"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid presets: got=%q, want=%q", got, want)
		}

		stmts, _ := fakedb.Queries()
		if got, want := len(stmts), 1; got != want {
			t.Fatalf("invalid number of queries: got=%d, want=%d", got, want)
		}
		return nil
	})

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"preset"},
	}, func(ctx context.Context) error {
		presets, err := db.Presets(ctx)
		if err != nil {
			t.Fatalf("could not retrieve presets: %+v", err)
		}
		if len(presets) != 0 {
			t.Fatalf("invalid presets: got=%q, want none", presets)
		}
		return nil
	})
}

func TestColors(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"led", "color"},
		Values: [][]driver.Value{
			{int64(0), int64(0xff0000)},
			{int64(1), int64(0x00ff00)},
			{int64(3), int64(0x7f0000ff)}, // masked to 24 bits
		},
	}, func(ctx context.Context) error {
		colors, err := db.Colors(ctx, "rgb")
		if err != nil {
			t.Fatalf("could not retrieve colors: %+v", err)
		}

		want := [leds.NumLEDs]leds.Color{0xff0000, 0x00ff00, 0, 0x0000ff}
		if colors != want {
			t.Fatalf("invalid colors:\ngot= %v\nwant=%v", colors, want)
		}

		_, args := fakedb.Queries()
		if got, want := args, [][]driver.Value{{"rgb"}}; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid query args: got=%v, want=%v", got, want)
		}
		return nil
	})
}

func TestColorsErrors(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	for _, tc := range []struct {
		name string
		rows fakedb.Rows
		want error
	}{
		{
			name: "unknown-preset",
			rows: fakedb.Rows{Names: []string{"led", "color"}},
		},
		{
			name: "invalid-led",
			rows: fakedb.Rows{
				Names: []string{"led", "color"},
				Values: [][]driver.Value{
					{int64(4), int64(0xffffff)},
				},
			},
			want: leds.ErrInvalidLED,
		},
		{
			name: "invalid-color",
			rows: fakedb.Rows{
				Names: []string{"led", "color"},
				Values: [][]driver.Value{
					{int64(0), "red"},
				},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_ = fakedb.Run(context.Background(), tc.rows, func(ctx context.Context) error {
				_, err := db.Colors(ctx, tc.name)
				if err == nil {
					t.Fatalf("expected an error")
				}
				if tc.want != nil && !errors.Is(err, tc.want) {
					t.Fatalf("invalid error: got=%+v, want=%v", err, tc.want)
				}
				return nil
			})
		})
	}
}
