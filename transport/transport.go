// Package transport defines the native-protocol collaborator the client
// layer delegates to. Implementations own the physical wire connection,
// the startup handshake and any timeout policy; the client core only sees
// Execute round trips and fully received raw results.
package transport

import (
	"context"
	"time"
)

// Transport is a single physical database connection.
type Transport interface {
	// Execute sends one command with already-serialized parameter values
	// and returns the raw result. A nil params entry is a NULL parameter.
	Execute(ctx context.Context, sql string, params [][]byte) (*RawResult, error)

	// Close closes the native handle. Implementations release the handle
	// on every exit path.
	Close() error

	// IsAlive reports whether the handle is still usable.
	IsAlive() bool

	// RemoteAddr returns the server address for logging.
	RemoteAddr() string

	// LastActivity returns the timestamp of the last successful round trip.
	LastActivity() time.Time
}

// Factory creates transports. The client's driver registry holds one
// factory per registered scheme.
type Factory func(ctx context.Context, url string, options map[string]string) (Transport, error)

// Column describes one result column as reported by the server.
type Column struct {
	Name    string
	TypeOID uint32
}

// Cell is one raw result cell. Data is the wire payload, untouched;
// Binary marks the protocol format the server chose for the column.
type Cell struct {
	Data   []byte
	Null   bool
	Binary bool
}

// RawResult is a fully received command result: column descriptors, the
// raw cell grid and the reported affected-row count. Immutable once handed
// to the client layer.
type RawResult struct {
	columns     []Column
	rows        [][]Cell
	affected    int64
	hasAffected bool
}

// NewRawResult creates a result with the given column descriptors.
func NewRawResult(columns []Column) *RawResult {
	return &RawResult{columns: columns}
}

// AppendRow adds one row. The cell count must equal the column count;
// a mismatched row is rejected and reported false.
func (r *RawResult) AppendRow(cells []Cell) bool {
	if len(cells) != len(r.columns) {
		return false
	}
	r.rows = append(r.rows, cells)
	return true
}

// SetAffected records the server-reported affected-row count.
func (r *RawResult) SetAffected(n int64) {
	r.affected = n
	r.hasAffected = true
}

// RowCount returns the number of rows received.
func (r *RawResult) RowCount() int { return len(r.rows) }

// ColumnCount returns the number of columns.
func (r *RawResult) ColumnCount() int { return len(r.columns) }

// ColumnName returns the name of column i (0-based).
func (r *RawResult) ColumnName(i int) string { return r.columns[i].Name }

// ColumnTypeOID returns the wire type identifier of column i (0-based).
func (r *RawResult) ColumnTypeOID(i int) uint32 { return r.columns[i].TypeOID }

// Cell returns the raw cell at row, col (0-based).
func (r *RawResult) Cell(row, col int) Cell { return r.rows[row][col] }

// Affected returns the server-reported affected-row count and whether the
// server reported one at all.
func (r *RawResult) Affected() (int64, bool) { return r.affected, r.hasAffected }
