package testutil

import (
	"testing"

	"github.com/strataform/pgclient/codec"
	"github.com/strataform/pgclient/transport"
)

func TestResultBuilder(t *testing.T) {
	r := Result(
		[]transport.Column{Col("id", codec.OIDInt4), Col("name", codec.OIDText)},
		[]transport.Cell{Text("1"), Text("alice")},
		[]transport.Cell{Text("2"), Null()},
	)

	if r.RowCount() != 2 || r.ColumnCount() != 2 {
		t.Fatalf("rows=%d cols=%d", r.RowCount(), r.ColumnCount())
	}
	if r.ColumnName(1) != "name" {
		t.Errorf("column 1 = %q", r.ColumnName(1))
	}
	if !r.Cell(1, 1).Null {
		t.Error("cell (1,1) should be null")
	}
}

func TestResultBuilderPanicsOnWidthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on mismatched row width")
		}
	}()
	Result(
		[]transport.Column{Col("id", codec.OIDInt4)},
		[]transport.Cell{Text("1"), Text("extra")},
	)
}

func TestUpdateAndReturningResults(t *testing.T) {
	u := UpdateResult(4)
	if n, ok := u.Affected(); !ok || n != 4 {
		t.Errorf("UpdateResult affected = %d, %v", n, ok)
	}
	if u.RowCount() != 0 {
		t.Errorf("UpdateResult should carry no rows")
	}

	ret := ReturningResult(codec.OIDInt4, "42", 1)
	if ret.RowCount() != 1 || ret.ColumnCount() != 1 {
		t.Fatalf("ReturningResult shape: rows=%d cols=%d", ret.RowCount(), ret.ColumnCount())
	}
	if string(ret.Cell(0, 0).Data) != "42" {
		t.Errorf("ReturningResult cell = %q", ret.Cell(0, 0).Data)
	}
	if binary := Binary([]byte{1}); !binary.Binary {
		t.Error("Binary cell should be marked binary")
	}
}
