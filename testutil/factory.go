// Package testutil provides helpers for building raw results and
// mock-backed connections in tests.
package testutil

import (
	"github.com/strataform/pgclient/transport"
)

// Col builds a column descriptor.
func Col(name string, oid uint32) transport.Column {
	return transport.Column{Name: name, TypeOID: oid}
}

// Text builds a text-format cell.
func Text(s string) transport.Cell {
	return transport.Cell{Data: []byte(s)}
}

// Null builds a null cell.
func Null() transport.Cell {
	return transport.Cell{Null: true}
}

// Binary builds a binary-format cell.
func Binary(b []byte) transport.Cell {
	return transport.Cell{Data: b, Binary: true}
}

// Result builds a raw result from column descriptors and cell rows.
func Result(cols []transport.Column, rows ...[]transport.Cell) *transport.RawResult {
	r := transport.NewRawResult(cols)
	for _, row := range rows {
		if !r.AppendRow(row) {
			panic("testutil: row width does not match column count")
		}
	}
	return r
}

// UpdateResult builds a rowless result carrying an affected-row count.
func UpdateResult(affected int64) *transport.RawResult {
	r := transport.NewRawResult(nil)
	r.SetAffected(affected)
	return r
}

// ReturningResult builds a one-row, one-column result as produced by an
// INSERT ... RETURNING command, with an affected count.
func ReturningResult(oid uint32, value string, affected int64) *transport.RawResult {
	r := transport.NewRawResult([]transport.Column{{Name: "id", TypeOID: oid}})
	r.AppendRow([]transport.Cell{{Data: []byte(value)}})
	r.SetAffected(affected)
	return r
}
