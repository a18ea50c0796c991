// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory SQL driver, registered as "fakedb".
//
// Every query returns the rows installed by Run, whatever its text.
package fakedb // import "github.com/go-lpc/arty/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

var query struct {
	mu    sync.Mutex
	rows  Rows
	stmts []string
	args  [][]driver.Value
}

// Run installs rows as the result of the queries issued by f.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows
	query.stmts = query.stmts[:0]
	query.args = query.args[:0]

	return f(ctx)
}

// Queries returns the statements and arguments received during the last
// call to Run.
func Queries() ([]string, [][]driver.Value) {
	return query.stmts, query.args
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("fakedb: prepared statements not supported")
}

func (c *Conn) Close() error { return nil }

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, errors.New("fakedb: transactions not supported")
}

func (c *Conn) Ping(ctx context.Context) error { return ctx.Err() }

func (c *Conn) QueryContext(ctx context.Context, stmt string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vs := make([]driver.Value, len(args))
	for i, arg := range args {
		vs[i] = arg.Value
	}
	query.stmts = append(query.stmts, stmt)
	query.args = append(query.args, vs)

	rows := query.rows
	return &rows, nil
}

// Rows is a fixed result set.
type Rows struct {
	Names  []string
	Values [][]driver.Value
}

func (rows *Rows) Columns() []string { return rows.Names }
func (rows *Rows) Close() error      { return nil }

func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver         = (*Driver)(nil)
	_ driver.Conn           = (*Conn)(nil)
	_ driver.Pinger         = (*Conn)(nil)
	_ driver.QueryerContext = (*Conn)(nil)
	_ driver.Rows           = (*Rows)(nil)
)
