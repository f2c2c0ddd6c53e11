package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/strataform/pgclient/client"
	"github.com/strataform/pgclient/codec"
	"github.com/strataform/pgclient/testutil"
	"github.com/strataform/pgclient/transport"
)

func queryResultSet(t *testing.T, r *transport.RawResult) (*client.ResultSet, func()) {
	t.Helper()

	conn, mt, cleanup := testutil.NewTestConnection(t)
	mt.WithResult(r)

	stmt, err := conn.CreateStatement()
	testutil.RequireNoError(t, err, "CreateStatement")

	rs, err := stmt.ExecuteQuery(context.Background(), "SELECT ...")
	testutil.RequireNoError(t, err, "ExecuteQuery")
	return rs, cleanup
}

func TestResultSetCursorProtocol(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Text("1")},
		[]transport.Cell{testutil.Text("2")},
	))
	defer cleanup()

	// Before the first Next there is no current row.
	row, err := rs.GetRow()
	testutil.RequireNoError(t, err, "GetRow")
	if row != 0 {
		t.Errorf("GetRow before Next = %d, want 0", row)
	}
	if _, err := rs.GetInt32(1); err == nil {
		t.Error("getter before Next should fail")
	}

	ok, err := rs.Next()
	testutil.RequireNoError(t, err, "Next")
	if !ok {
		t.Fatal("first Next should land on a row")
	}
	if first, _ := rs.IsFirst(); !first {
		t.Error("IsFirst should report true on row 1")
	}
	if last, _ := rs.IsLast(); last {
		t.Error("IsLast should report false on row 1")
	}
	if row, _ := rs.GetRow(); row != 1 {
		t.Errorf("GetRow = %d, want 1", row)
	}

	ok, _ = rs.Next()
	if !ok {
		t.Fatal("second Next should land on row 2")
	}
	if last, _ := rs.IsLast(); !last {
		t.Error("IsLast should report true on the last row")
	}

	// Exhaustion is sticky.
	for i := 0; i < 3; i++ {
		ok, err := rs.Next()
		testutil.RequireNoError(t, err, "Next after exhaustion")
		if ok {
			t.Fatal("Next past the end must keep returning false")
		}
	}

	// Getters past the end fail with no-current-row.
	_, err = rs.GetInt32(1)
	var resErr *client.ResultError
	if !errors.As(err, &resErr) || resErr.Code != client.CodeNoCurrentRow {
		t.Errorf("getter past end: %v", err)
	}

	// First rewinds from anywhere.
	ok, err = rs.First()
	testutil.RequireNoError(t, err, "First")
	if !ok {
		t.Fatal("First should find row 1")
	}
	n, err := rs.GetInt32(1)
	testutil.RequireNoError(t, err, "GetInt32")
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}

func TestResultSetEmpty(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
	))
	defer cleanup()

	if ok, _ := rs.Next(); ok {
		t.Error("Next on an empty result should return false")
	}
	if ok, _ := rs.First(); ok {
		t.Error("First on an empty result should return false")
	}
	if first, _ := rs.IsFirst(); first {
		t.Error("IsFirst on an empty result should be false")
	}
	if last, _ := rs.IsLast(); last {
		t.Error("IsLast on an empty result should be false")
	}
}

func TestResultSetNullGetters(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{
			testutil.Col("i", codec.OIDInt4),
			testutil.Col("s", codec.OIDText),
			testutil.Col("b", codec.OIDBool),
			testutil.Col("ts", codec.OIDTimestamp),
			testutil.Col("raw", codec.OIDBytea),
		},
		[]transport.Cell{testutil.Null(), testutil.Null(), testutil.Null(), testutil.Null(), testutil.Null()},
	))
	defer cleanup()

	ok, err := rs.Next()
	testutil.RequireNoError(t, err, "Next")
	if !ok {
		t.Fatal("expected one row")
	}

	assertWasNull := func(op string) {
		t.Helper()
		wasNull, err := rs.WasNull()
		testutil.RequireNoError(t, err, "WasNull")
		if !wasNull {
			t.Errorf("%s: WasNull should be true", op)
		}
	}

	n, err := rs.GetInt32(1)
	testutil.RequireNoError(t, err, "GetInt32")
	if n != 0 {
		t.Errorf("null int = %d, want 0", n)
	}
	assertWasNull("GetInt32")

	s, err := rs.GetString(2)
	testutil.RequireNoError(t, err, "GetString")
	if s != "" {
		t.Errorf("null string = %q", s)
	}
	assertWasNull("GetString")

	b, err := rs.GetBool(3)
	testutil.RequireNoError(t, err, "GetBool")
	if b {
		t.Error("null bool should be false")
	}
	assertWasNull("GetBool")

	// The temporal getters substitute the current time for null.
	before := time.Now().Add(-time.Minute)
	ts, err := rs.GetTimestamp(4)
	testutil.RequireNoError(t, err, "GetTimestamp")
	if ts.Before(before) {
		t.Errorf("null timestamp should be near now, got %v", ts)
	}
	assertWasNull("GetTimestamp")

	raw, err := rs.GetBytes(5)
	testutil.RequireNoError(t, err, "GetBytes")
	if raw != nil {
		t.Errorf("null bytes = %v", raw)
	}
	assertWasNull("GetBytes")

	// A non-null read lowers the flag again.
	rs2, cleanup2 := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Text("5")},
	))
	defer cleanup2()
	rs2.Next()
	if _, err := rs2.GetInt32(1); err != nil {
		t.Fatalf("GetInt32: %v", err)
	}
	if wasNull, _ := rs2.WasNull(); wasNull {
		t.Error("WasNull should be false after a non-null read")
	}
}

func TestResultSetColumnLookup(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{
			testutil.Col("id", codec.OIDInt4),
			testutil.Col("name", codec.OIDText),
			testutil.Col("name", codec.OIDText), // duplicate
		},
		[]transport.Cell{testutil.Text("1"), testutil.Text("first"), testutil.Text("second")},
	))
	defer cleanup()

	rs.Next()

	// Lookup is case-sensitive; duplicates resolve to the first occurrence.
	i, err := rs.Column("name")
	testutil.RequireNoError(t, err, "Column")
	if i != 2 {
		t.Errorf("Column(name) = %d, want 2", i)
	}
	s, err := rs.GetStringByName("name")
	testutil.RequireNoError(t, err, "GetStringByName")
	if s != "first" {
		t.Errorf("duplicate column resolved to %q, want first", s)
	}

	_, err = rs.Column("NAME")
	var resErr *client.ResultError
	if !errors.As(err, &resErr) || resErr.Code != client.CodeColumnNotFound {
		t.Errorf("case-mismatched lookup: %v", err)
	}

	_, err = rs.GetStringByName("missing")
	if !errors.As(err, &resErr) || resErr.Code != client.CodeColumnNotFound {
		t.Errorf("unknown column: %v", err)
	}
}

func TestResultSetIndexOutOfRange(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Text("1")},
	))
	defer cleanup()

	rs.Next()

	for _, idx := range []int{0, 2, -1} {
		_, err := rs.GetInt32(idx)
		var resErr *client.ResultError
		if !errors.As(err, &resErr) || resErr.Code != client.CodeColumnNotFound {
			t.Errorf("GetInt32(%d): %v", idx, err)
		}
	}
}

func TestResultSetTypedGetters(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{
			testutil.Col("i16", codec.OIDInt2),
			testutil.Col("i64", codec.OIDInt8),
			testutil.Col("f", codec.OIDFloat8),
			testutil.Col("b", codec.OIDBool),
			testutil.Col("raw", codec.OIDBytea),
			testutil.Col("d", codec.OIDDate),
		},
		[]transport.Cell{
			testutil.Text("7"),
			testutil.Text("9000000000"),
			testutil.Text("2.5"),
			testutil.Text("t"),
			testutil.Text(`\x0102`),
			testutil.Text("2024-03-09"),
		},
	))
	defer cleanup()

	rs.Next()

	if v, err := rs.GetInt16(1); err != nil || v != 7 {
		t.Errorf("GetInt16 = %d, %v", v, err)
	}
	if v, err := rs.GetInt64(2); err != nil || v != 9000000000 {
		t.Errorf("GetInt64 = %d, %v", v, err)
	}
	if v, err := rs.GetFloat64(3); err != nil || v != 2.5 {
		t.Errorf("GetFloat64 = %v, %v", v, err)
	}
	if v, err := rs.GetBool(4); err != nil || !v {
		t.Errorf("GetBool = %v, %v", v, err)
	}
	if v, err := rs.GetBytes(5); err != nil || len(v) != 2 || v[0] != 1 || v[1] != 2 {
		t.Errorf("GetBytes = %v, %v", v, err)
	}
	d, err := rs.GetDate(6)
	if err != nil || d.Year() != 2024 || d.Day() != 9 {
		t.Errorf("GetDate = %v, %v", d, err)
	}

	// Narrowing through a getter is range-checked.
	_, err = rs.GetInt16(2)
	var typeErr *codec.TypeError
	if !errors.As(err, &typeErr) || typeErr.Code != codec.CodeConversionOverflow {
		t.Errorf("GetInt16 on int8 column: %v", err)
	}

	// GetValue hands back the decoded value untouched.
	v, err := rs.GetValue(1)
	testutil.RequireNoError(t, err, "GetValue")
	if v.Tag() != codec.TagInt16 {
		t.Errorf("GetValue tag = %s", v.Tag())
	}
}

func TestResultSetMetaData(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{
			testutil.Col("id", codec.OIDInt4),
			testutil.Col("payload", codec.OIDJSONB),
		},
	))
	defer cleanup()

	md, err := rs.GetMetaData()
	testutil.RequireNoError(t, err, "GetMetaData")

	if md.ColumnCount() != 2 {
		t.Fatalf("ColumnCount = %d", md.ColumnCount())
	}
	if md.ColumnName(1) != "id" || md.ColumnLabel(1) != "id" {
		t.Errorf("column 1 = %q/%q", md.ColumnName(1), md.ColumnLabel(1))
	}
	if md.ColumnTypeOID(2) != codec.OIDJSONB {
		t.Errorf("column 2 oid = %d", md.ColumnTypeOID(2))
	}
}

func TestResultSetCloseIsLenient(t *testing.T) {
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Text("1")},
	))
	defer cleanup()

	rs.Close()
	rs.Close() // second close is harmless
	if !rs.IsClosed() {
		t.Fatal("IsClosed should report true")
	}

	_, err := rs.Next()
	var resErr *client.ResultError
	if !errors.As(err, &resErr) || resErr.Code != client.CodeResultClosed {
		t.Errorf("Next after Close: %v", err)
	}
	if _, err := rs.GetMetaData(); err == nil {
		t.Error("GetMetaData after Close should fail")
	}
}

func TestResultSetBinaryCellVerbatim(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x2A}
	rs, cleanup := queryResultSet(t, testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Binary(payload)},
	))
	defer cleanup()

	rs.Next()

	raw, err := rs.GetBytes(1)
	testutil.RequireNoError(t, err, "GetBytes")
	if len(raw) != 4 || raw[3] != 0x2A {
		t.Errorf("binary cell = %v", raw)
	}

	// The same cell is not coercible to the column's nominal kind.
	if _, err := rs.GetInt32(1); err == nil {
		t.Error("binary cell should not coerce to int32")
	}
}

func TestResultSetMaterializationFailureAbortsQuery(t *testing.T) {
	conn, mt, cleanup := testutil.NewTestConnection(t)
	defer cleanup()

	mt.WithResult(testutil.Result(
		[]transport.Column{testutil.Col("n", codec.OIDInt4)},
		[]transport.Cell{testutil.Text("1")},
		[]transport.Cell{testutil.Text("garbage")},
	))

	stmt, _ := conn.CreateStatement()
	_, err := stmt.ExecuteQuery(context.Background(), "SELECT n FROM t")
	var typeErr *codec.TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *codec.TypeError, got %v", err)
	}
	if typeErr.Code != codec.CodeParseFailed {
		t.Errorf("code = %s", typeErr.Code)
	}
}
