package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/codec"
)

// Statement executes SQL text against its owning connection. It holds at
// most one live result set: executing again invalidates the previous one.
// A statement is Open until closed; Close is terminal and not idempotent.
type Statement struct {
	conn   *Connection
	id     string
	closed bool
	rs     *ResultSet
}

// ExecuteQuery runs a query and returns a fresh result set wrapping the
// fully materialized rows, replacing any prior result set on this
// statement.
func (s *Statement) ExecuteQuery(ctx context.Context, sql string) (*ResultSet, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.executeQueryLocked(ctx, sql)
}

// ExecuteUpdate runs an update-style command and returns the server's
// affected-row count plus a best-effort generated key: when the raw result
// is exactly one row by one column, that cell decodes as the key.
func (s *Statement) ExecuteUpdate(ctx context.Context, sql string) (int64, codec.Value, error) {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.executeUpdateLocked(ctx, sql)
}

// Close releases the statement's result set and unregisters it from the
// connection. A second Close fails with ALREADY_CLOSED.
func (s *Statement) Close() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.closeLocked()
}

// IsClosed reports whether the statement has been closed.
func (s *Statement) IsClosed() bool {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	return s.closed
}

func (s *Statement) executeQueryLocked(ctx context.Context, sql string) (*ResultSet, error) {
	return s.executeQueryParamsLocked(ctx, sql, nil)
}

func (s *Statement) executeQueryParamsLocked(ctx context.Context, sql string, params [][]byte) (*ResultSet, error) {
	if s.closed {
		return nil, ErrStatementClosed("ExecuteQuery")
	}

	start := time.Now()
	raw, err := s.conn.executeLocked(ctx, sql, params)
	if err != nil {
		return nil, err
	}

	table, err := materialize(raw)
	if err != nil {
		return nil, err
	}

	s.invalidateResultLocked()
	s.rs = &ResultSet{stmt: s, table: table, pos: -1}

	s.conn.logger.Debug("query executed",
		String("conn_id", s.conn.id),
		String("stmt_id", s.id),
		Int("rows", len(table.rows)),
		Duration("duration", time.Since(start)))

	return s.rs, nil
}

func (s *Statement) executeUpdateLocked(ctx context.Context, sql string) (int64, codec.Value, error) {
	return s.executeUpdateParamsLocked(ctx, sql, nil)
}

func (s *Statement) executeUpdateParamsLocked(ctx context.Context, sql string, params [][]byte) (int64, codec.Value, error) {
	if s.closed {
		return 0, codec.NullValue(), ErrStatementClosed("ExecuteUpdate")
	}

	raw, err := s.conn.executeLocked(ctx, sql, params)
	if err != nil {
		return 0, codec.NullValue(), err
	}

	s.invalidateResultLocked()

	affected, ok := raw.Affected()
	if !ok {
		affected = 0
	}

	key := codec.NullValue()
	if raw.RowCount() == 1 && raw.ColumnCount() == 1 {
		cell := raw.Cell(0, 0)
		if !cell.Null {
			decoded, decodeErr := codec.Decode(raw.ColumnTypeOID(0), cell.Data, cell.Binary)
			if decodeErr != nil {
				// Generated keys are best-effort; a cell the codec cannot
				// decode simply yields no key.
				s.conn.logger.Debug("generated key decode skipped",
					String("stmt_id", s.id),
					Error("error", decodeErr))
			} else {
				key = decoded
			}
		}
	}

	return affected, key, nil
}

// closeLocked closes the statement. Caller holds the connection lock.
func (s *Statement) closeLocked() error {
	if s.closed {
		return ErrStatementAlreadyClosed()
	}
	s.closed = true
	s.invalidateResultLocked()
	s.conn.unregisterLocked(s)
	return nil
}

// closeQuietLocked closes internally created statements; already-closed is
// not an error here.
func (s *Statement) closeQuietLocked() {
	if !s.closed {
		_ = s.closeLocked()
	}
}

// invalidateResultLocked closes the statement's live result set, if any.
func (s *Statement) invalidateResultLocked() {
	if s.rs != nil {
		s.rs.closed = true
		s.rs = nil
	}
}

// PreparedStatement is a statement bound to one rewritten SQL template plus
// positional parameter slots. Rebinding a slot is allowed at any time
// before execution; each execution re-validates that every slot is set.
type PreparedStatement struct {
	*Statement
	sql    string
	binder *paramBinder
}

// SQL returns the rewritten SQL template.
func (ps *PreparedStatement) SQL() string { return ps.sql }

// ParamCount returns the number of positional parameter slots.
func (ps *PreparedStatement) ParamCount() int { return ps.binder.paramCount() }

// ExecuteQuery runs the prepared template with the bound parameters.
func (ps *PreparedStatement) ExecuteQuery(ctx context.Context) (*ResultSet, error) {
	ps.conn.mu.Lock()
	defer ps.conn.mu.Unlock()

	params, err := ps.binder.values()
	if err != nil {
		return nil, err
	}
	return ps.executeQueryParamsLocked(ctx, ps.sql, params)
}

// ExecuteUpdate runs the prepared template with the bound parameters.
func (ps *PreparedStatement) ExecuteUpdate(ctx context.Context) (int64, codec.Value, error) {
	ps.conn.mu.Lock()
	defer ps.conn.mu.Unlock()

	params, err := ps.binder.values()
	if err != nil {
		return 0, codec.NullValue(), err
	}
	return ps.executeUpdateParamsLocked(ctx, ps.sql, params)
}

// bind stores one serialized parameter, guarding index range and lifecycle.
func (ps *PreparedStatement) bind(index int, value []byte) error {
	ps.conn.mu.Lock()
	defer ps.conn.mu.Unlock()

	if ps.closed {
		return ErrStatementClosed("Set")
	}
	return ps.binder.set(index, value)
}

// SetNull binds NULL to slot index.
func (ps *PreparedStatement) SetNull(index int) error {
	return ps.bind(index, nil)
}

// SetBool binds a boolean as the literal "true"/"false".
func (ps *PreparedStatement) SetBool(index int, v bool) error {
	return ps.bind(index, serializeBool(v))
}

func (ps *PreparedStatement) SetInt16(index int, v int16) error {
	return ps.bind(index, serializeInt(int64(v)))
}

func (ps *PreparedStatement) SetInt32(index int, v int32) error {
	return ps.bind(index, serializeInt(int64(v)))
}

func (ps *PreparedStatement) SetInt64(index int, v int64) error {
	return ps.bind(index, serializeInt(v))
}

func (ps *PreparedStatement) SetFloat32(index int, v float32) error {
	return ps.bind(index, serializeFloat(float64(v), 32))
}

func (ps *PreparedStatement) SetFloat64(index int, v float64) error {
	return ps.bind(index, serializeFloat(v, 64))
}

func (ps *PreparedStatement) SetString(index int, v string) error {
	return ps.bind(index, []byte(v))
}

// SetBytes binds a byte slice through the bytea hex literal encoding.
func (ps *PreparedStatement) SetBytes(index int, v []byte) error {
	return ps.bind(index, serializeBytes(v))
}

// SetDate binds the date portion of v as an ISO-8601 date.
func (ps *PreparedStatement) SetDate(index int, v time.Time) error {
	return ps.bind(index, serializeDate(v))
}

// SetTime binds the time-of-day portion of v.
func (ps *PreparedStatement) SetTime(index int, v time.Time) error {
	return ps.bind(index, serializeTimeOfDay(v))
}

// SetTimestamp binds v as an ISO-8601 timestamp.
func (ps *PreparedStatement) SetTimestamp(index int, v time.Time) error {
	return ps.bind(index, serializeTimestamp(v))
}

func (ps *PreparedStatement) SetUUID(index int, v uuid.UUID) error {
	return ps.bind(index, []byte(v.String()))
}

// SetValue dispatches on the value's runtime type, defaulting to string
// serialization when no typed match applies. A nil value binds NULL.
func (ps *PreparedStatement) SetValue(index int, value interface{}) error {
	return ps.bind(index, serializeValue(value))
}

// ClearParameters resets every slot to unset; execution then requires
// rebinding all of them.
func (ps *PreparedStatement) ClearParameters() error {
	ps.conn.mu.Lock()
	defer ps.conn.mu.Unlock()

	if ps.closed {
		return ErrStatementClosed("ClearParameters")
	}
	ps.binder.clear()
	return nil
}
