package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/codec"
	"github.com/strataform/pgclient/transport"
)

// ColumnDescriptor describes one result column.
type ColumnDescriptor struct {
	Name    string
	Label   string
	TypeOID uint32
}

// resultTable is the materialized form of a raw result: immutable rows of
// decoded values plus the column descriptors and the name index.
type resultTable struct {
	columns []ColumnDescriptor
	byName  map[string]int
	rows    [][]codec.Value
}

// materialize eagerly decodes every cell of a raw result. A decode failure
// aborts the whole materialization; partial tables are never returned.
func materialize(raw *transport.RawResult) (*resultTable, error) {
	cols := raw.ColumnCount()

	table := &resultTable{
		columns: make([]ColumnDescriptor, cols),
		byName:  make(map[string]int, cols),
		rows:    make([][]codec.Value, 0, raw.RowCount()),
	}

	for i := 0; i < cols; i++ {
		name := raw.ColumnName(i)
		table.columns[i] = ColumnDescriptor{
			Name:    name,
			Label:   name,
			TypeOID: raw.ColumnTypeOID(i),
		}
		// First occurrence wins on duplicate names.
		if _, ok := table.byName[name]; !ok {
			table.byName[name] = i
		}
	}

	for r := 0; r < raw.RowCount(); r++ {
		row := make([]codec.Value, cols)
		for c := 0; c < cols; c++ {
			cell := raw.Cell(r, c)
			if cell.Null {
				row[c] = codec.NullValue()
				continue
			}
			v, err := codec.Decode(table.columns[c].TypeOID, cell.Data, cell.Binary)
			if err != nil {
				return nil, err
			}
			row[c] = v
		}
		table.rows = append(table.rows, row)
	}

	return table, nil
}

// ResultSet is a forward cursor over a materialized row table. The cursor
// starts before the first row; getters address columns by 1-based index or
// by case-sensitive name. A getter on a null cell returns the requested
// kind's zero value and raises the WasNull flag instead of failing.
type ResultSet struct {
	stmt    *Statement
	table   *resultTable
	pos     int
	wasNull bool
	closed  bool
}

// Next advances the cursor one row and reports whether a row is current.
// Once exhausted it keeps returning false; there is no wraparound.
func (rs *ResultSet) Next() (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()
	return rs.nextLockedErr()
}

// First positions the cursor on row 0 from anywhere and reports whether
// that row exists.
func (rs *ResultSet) First() (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return false, ErrResultSetClosed("First")
	}
	if len(rs.table.rows) == 0 {
		return false, nil
	}
	rs.pos = 0
	return true, nil
}

// IsFirst reports whether the cursor is on the first row.
func (rs *ResultSet) IsFirst() (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return false, ErrResultSetClosed("IsFirst")
	}
	return rs.pos == 0 && len(rs.table.rows) > 0, nil
}

// IsLast reports whether the cursor is on the last row.
func (rs *ResultSet) IsLast() (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return false, ErrResultSetClosed("IsLast")
	}
	return len(rs.table.rows) > 0 && rs.pos == len(rs.table.rows)-1, nil
}

// GetRow returns the 1-based row number, or 0 when no row is current.
func (rs *ResultSet) GetRow() (int, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return 0, ErrResultSetClosed("GetRow")
	}
	if rs.pos < 0 || rs.pos >= len(rs.table.rows) {
		return 0, nil
	}
	return rs.pos + 1, nil
}

// WasNull reports whether the most recent getter read a null cell.
func (rs *ResultSet) WasNull() (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return false, ErrResultSetClosed("WasNull")
	}
	return rs.wasNull, nil
}

// Column resolves a case-sensitive column name to its 1-based index; the
// first occurrence wins for duplicated names.
func (rs *ResultSet) Column(name string) (int, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()
	return rs.columnLocked(name)
}

// GetMetaData returns the column descriptors.
func (rs *ResultSet) GetMetaData() (*ResultSetMetaData, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return nil, ErrResultSetClosed("GetMetaData")
	}
	columns := make([]ColumnDescriptor, len(rs.table.columns))
	copy(columns, rs.table.columns)
	return &ResultSetMetaData{columns: columns}, nil
}

// Close marks the result set closed. Closing twice is harmless; the
// statement's close already invalidated it.
func (rs *ResultSet) Close() {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	if rs.closed {
		return
	}
	rs.closed = true
	if rs.stmt.rs == rs {
		rs.stmt.rs = nil
	}
}

// IsClosed reports whether the result set is closed.
func (rs *ResultSet) IsClosed() bool {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()
	return rs.closed
}

// nextLocked is the unlocked advance used internally.
func (rs *ResultSet) nextLocked() bool {
	ok, _ := rs.nextLockedErr()
	return ok
}

func (rs *ResultSet) nextLockedErr() (bool, error) {
	if rs.closed {
		return false, ErrResultSetClosed("Next")
	}
	if rs.pos >= len(rs.table.rows) {
		return false, nil
	}
	rs.pos++
	return rs.pos < len(rs.table.rows), nil
}

func (rs *ResultSet) columnLocked(name string) (int, error) {
	if rs.closed {
		return 0, ErrResultSetClosed("Column")
	}
	i, ok := rs.table.byName[name]
	if !ok {
		return 0, ErrColumnNotFound(name)
	}
	return i + 1, nil
}

// cellLocked fetches the current row's cell at a 1-based index.
func (rs *ResultSet) cellLocked(index int, operation string) (codec.Value, error) {
	if rs.closed {
		return codec.NullValue(), ErrResultSetClosed(operation)
	}
	if rs.pos < 0 || rs.pos >= len(rs.table.rows) {
		return codec.NullValue(), ErrNoCurrentRow()
	}
	if index < 1 || index > len(rs.table.columns) {
		return codec.NullValue(), &ResultError{
			Code:    CodeColumnNotFound,
			Type:    "RESULT_ERROR",
			Message: fmt.Sprintf("column index %d out of range [1, %d]", index, len(rs.table.columns)),
			Details: map[string]interface{}{
				"index":        index,
				"column_count": len(rs.table.columns),
			},
		}
	}
	return rs.table.rows[rs.pos][index-1], nil
}

// Typed getters by 1-based index.

func (rs *ResultSet) GetBool(index int) (bool, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetBool")
	if err != nil {
		return false, err
	}
	if rs.markNull(v) {
		return false, nil
	}
	return codec.AsBool(v)
}

func (rs *ResultSet) GetInt16(index int) (int16, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetInt16")
	if err != nil {
		return 0, err
	}
	if rs.markNull(v) {
		return 0, nil
	}
	return codec.AsInt16(v)
}

func (rs *ResultSet) GetInt32(index int) (int32, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetInt32")
	if err != nil {
		return 0, err
	}
	if rs.markNull(v) {
		return 0, nil
	}
	return codec.AsInt32(v)
}

func (rs *ResultSet) GetInt64(index int) (int64, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetInt64")
	if err != nil {
		return 0, err
	}
	if rs.markNull(v) {
		return 0, nil
	}
	return codec.AsInt64(v)
}

func (rs *ResultSet) GetFloat32(index int) (float32, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetFloat32")
	if err != nil {
		return 0, err
	}
	if rs.markNull(v) {
		return 0, nil
	}
	return codec.AsFloat32(v)
}

func (rs *ResultSet) GetFloat64(index int) (float64, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetFloat64")
	if err != nil {
		return 0, err
	}
	if rs.markNull(v) {
		return 0, nil
	}
	return codec.AsFloat64(v)
}

func (rs *ResultSet) GetString(index int) (string, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()
	return rs.getStringLocked(index)
}

func (rs *ResultSet) GetBytes(index int) ([]byte, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetBytes")
	if err != nil {
		return nil, err
	}
	if rs.markNull(v) {
		return nil, nil
	}
	return codec.AsBytes(v)
}

// GetDate returns the cell as a date. A null cell yields the current time,
// matching the historical getter behavior.
func (rs *ResultSet) GetDate(index int) (time.Time, error) {
	return rs.getTemporal(index, "GetDate")
}

// GetTime returns the cell as a time of day. Null yields the current time.
func (rs *ResultSet) GetTime(index int) (time.Time, error) {
	return rs.getTemporal(index, "GetTime")
}

// GetTimestamp returns the cell as a timestamp. Null yields the current
// time.
func (rs *ResultSet) GetTimestamp(index int) (time.Time, error) {
	return rs.getTemporal(index, "GetTimestamp")
}

func (rs *ResultSet) getTemporal(index int, operation string) (time.Time, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, operation)
	if err != nil {
		return time.Time{}, err
	}
	if rs.markNull(v) {
		return time.Now(), nil
	}
	return codec.AsTime(v)
}

func (rs *ResultSet) GetUUID(index int) (uuid.UUID, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetUUID")
	if err != nil {
		return uuid.Nil, err
	}
	if rs.markNull(v) {
		return uuid.Nil, nil
	}
	return codec.AsUUID(v)
}

// GetValue returns the decoded cell as-is, null marker included.
func (rs *ResultSet) GetValue(index int) (codec.Value, error) {
	rs.stmt.conn.mu.Lock()
	defer rs.stmt.conn.mu.Unlock()

	v, err := rs.cellLocked(index, "GetValue")
	if err != nil {
		return codec.NullValue(), err
	}
	rs.markNull(v)
	return v, nil
}

// Typed getters by column name.

func (rs *ResultSet) GetBoolByName(name string) (bool, error) {
	i, err := rs.Column(name)
	if err != nil {
		return false, err
	}
	return rs.GetBool(i)
}

func (rs *ResultSet) GetInt16ByName(name string) (int16, error) {
	i, err := rs.Column(name)
	if err != nil {
		return 0, err
	}
	return rs.GetInt16(i)
}

func (rs *ResultSet) GetInt32ByName(name string) (int32, error) {
	i, err := rs.Column(name)
	if err != nil {
		return 0, err
	}
	return rs.GetInt32(i)
}

func (rs *ResultSet) GetInt64ByName(name string) (int64, error) {
	i, err := rs.Column(name)
	if err != nil {
		return 0, err
	}
	return rs.GetInt64(i)
}

func (rs *ResultSet) GetFloat32ByName(name string) (float32, error) {
	i, err := rs.Column(name)
	if err != nil {
		return 0, err
	}
	return rs.GetFloat32(i)
}

func (rs *ResultSet) GetFloat64ByName(name string) (float64, error) {
	i, err := rs.Column(name)
	if err != nil {
		return 0, err
	}
	return rs.GetFloat64(i)
}

func (rs *ResultSet) GetStringByName(name string) (string, error) {
	i, err := rs.Column(name)
	if err != nil {
		return "", err
	}
	return rs.GetString(i)
}

func (rs *ResultSet) GetBytesByName(name string) ([]byte, error) {
	i, err := rs.Column(name)
	if err != nil {
		return nil, err
	}
	return rs.GetBytes(i)
}

func (rs *ResultSet) GetDateByName(name string) (time.Time, error) {
	i, err := rs.Column(name)
	if err != nil {
		return time.Time{}, err
	}
	return rs.GetDate(i)
}

func (rs *ResultSet) GetTimeByName(name string) (time.Time, error) {
	i, err := rs.Column(name)
	if err != nil {
		return time.Time{}, err
	}
	return rs.GetTime(i)
}

func (rs *ResultSet) GetTimestampByName(name string) (time.Time, error) {
	i, err := rs.Column(name)
	if err != nil {
		return time.Time{}, err
	}
	return rs.GetTimestamp(i)
}

func (rs *ResultSet) GetUUIDByName(name string) (uuid.UUID, error) {
	i, err := rs.Column(name)
	if err != nil {
		return uuid.Nil, err
	}
	return rs.GetUUID(i)
}

// markNull records whether the cell was null and returns that flag.
func (rs *ResultSet) markNull(v codec.Value) bool {
	rs.wasNull = v.IsNull()
	return rs.wasNull
}

// getStringLocked is the internal variant used while already holding the
// connection lock.
func (rs *ResultSet) getStringLocked(index int) (string, error) {
	v, err := rs.cellLocked(index, "GetString")
	if err != nil {
		return "", err
	}
	if rs.markNull(v) {
		return "", nil
	}
	return codec.AsString(v)
}

// ResultSetMetaData exposes column name, label and wire type identifier.
type ResultSetMetaData struct {
	columns []ColumnDescriptor
}

// ColumnCount returns the number of columns.
func (md *ResultSetMetaData) ColumnCount() int { return len(md.columns) }

// ColumnName returns the name of column index (1-based).
func (md *ResultSetMetaData) ColumnName(index int) string {
	return md.columns[index-1].Name
}

// ColumnLabel returns the label of column index (1-based).
func (md *ResultSetMetaData) ColumnLabel(index int) string {
	return md.columns[index-1].Label
}

// ColumnTypeOID returns the wire type identifier of column index (1-based).
func (md *ResultSetMetaData) ColumnTypeOID(index int) uint32 {
	return md.columns[index-1].TypeOID
}
