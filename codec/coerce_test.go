package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var typeErr *TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
	if typeErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, typeErr.Code)
	}
}

func TestCoerceIntWidening(t *testing.T) {
	v := Int16Value(123)

	if n, err := AsInt32(v); err != nil || n != 123 {
		t.Errorf("AsInt32 = %d, %v", n, err)
	}
	if n, err := AsInt64(v); err != nil || n != 123 {
		t.Errorf("AsInt64 = %d, %v", n, err)
	}
	if f, err := AsFloat64(v); err != nil || f != 123 {
		t.Errorf("AsFloat64 = %v, %v", f, err)
	}
}

func TestCoerceIntNarrowing(t *testing.T) {
	tests := []struct {
		name     string
		v        Value
		coerce   func(Value) (int64, error)
		want     int64
		overflow bool
	}{
		{"int32 fits int16", Int32Value(32767), as16, 32767, false},
		{"int32 overflows int16", Int32Value(32768), as16, 0, true},
		{"int64 fits int32", Int64Value(-2147483648), as32, -2147483648, false},
		{"int64 overflows int32", Int64Value(2147483648), as32, 0, true},
		{"int16 fits int8", Int16Value(-128), as8, -128, false},
		{"int16 overflows int8", Int16Value(128), as8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.coerce(tt.v)
			if tt.overflow {
				assertCode(t, err, CodeConversionOverflow)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func as16(v Value) (int64, error) { n, err := AsInt16(v); return int64(n), err }
func as32(v Value) (int64, error) { n, err := AsInt32(v); return int64(n), err }
func as8(v Value) (int64, error)  { n, err := AsInt8(v); return int64(n), err }

func TestCoerceFloatToInt(t *testing.T) {
	// Fractional part is truncated toward zero.
	if n, err := AsInt32(Float64Value(3.9)); err != nil || n != 3 {
		t.Errorf("AsInt32(3.9) = %d, %v", n, err)
	}
	if n, err := AsInt32(Float64Value(-3.9)); err != nil || n != -3 {
		t.Errorf("AsInt32(-3.9) = %d, %v", n, err)
	}

	_, err := AsInt16(Float64Value(1e9))
	assertCode(t, err, CodeConversionOverflow)
}

func TestCoerceTextToInt(t *testing.T) {
	if n, err := AsInt64(TextValue("-42")); err != nil || n != -42 {
		t.Errorf("AsInt64(text) = %d, %v", n, err)
	}

	// Text out of range for the requested width is overflow, not mismatch.
	_, err := AsInt16(TextValue("70000"))
	assertCode(t, err, CodeConversionOverflow)

	_, err = AsInt64(TextValue("99999999999999999999999999"))
	assertCode(t, err, CodeConversionOverflow)

	_, err = AsInt64(TextValue("abc"))
	assertCode(t, err, CodeTypeMismatch)
}

func TestCoerceFloat32Overflow(t *testing.T) {
	if f, err := AsFloat32(Float64Value(1.5)); err != nil || f != 1.5 {
		t.Errorf("AsFloat32(1.5) = %v, %v", f, err)
	}

	_, err := AsFloat32(Float64Value(1e300))
	assertCode(t, err, CodeConversionOverflow)
}

func TestCoerceBool(t *testing.T) {
	if b, err := AsBool(BoolValue(true)); err != nil || !b {
		t.Errorf("AsBool(true) = %v, %v", b, err)
	}
	if b, err := AsBool(Int32Value(0)); err != nil || b {
		t.Errorf("AsBool(0) = %v, %v", b, err)
	}
	if b, err := AsBool(Int64Value(-5)); err != nil || !b {
		t.Errorf("AsBool(-5) = %v, %v", b, err)
	}
	if b, err := AsBool(TextValue("t")); err != nil || !b {
		t.Errorf("AsBool(text t) = %v, %v", b, err)
	}

	_, err := AsBool(TextValue("maybe"))
	assertCode(t, err, CodeTypeMismatch)

	_, err = AsBool(Float64Value(1.0))
	assertCode(t, err, CodeTypeMismatch)
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"text", TextValue("hello"), "hello"},
		{"bool true", BoolValue(true), "true"},
		{"bool false", BoolValue(false), "false"},
		{"int", Int64Value(-7), "-7"},
		{"float", Float64Value(2.5), "2.5"},
		{"bytes", BytesValue([]byte{0xDE, 0xAD}), `\xDEAD`},
		{"null renders empty", NullValue(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AsString(tt.v)
			if err != nil {
				t.Fatalf("AsString failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("AsString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCoerceBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	v := BytesValue(src)

	b, err := AsBytes(v)
	if err != nil {
		t.Fatalf("AsBytes failed: %v", err)
	}
	b[0] = 99
	b2, _ := AsBytes(v)
	if b2[0] != 1 {
		t.Error("AsBytes must return a fresh copy")
	}

	if b, err := AsBytes(TextValue("hi")); err != nil || string(b) != "hi" {
		t.Errorf("AsBytes(text) = %q, %v", b, err)
	}

	_, err = AsBytes(Int64Value(1))
	assertCode(t, err, CodeTypeMismatch)
}

func TestCoerceTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	if got, err := AsTime(TimestampValue(ts)); err != nil || !got.Equal(ts) {
		t.Errorf("AsTime(timestamp) = %v, %v", got, err)
	}

	got, err := AsTime(TextValue("2024-03-09 14:30:00"))
	if err != nil {
		t.Fatalf("AsTime(text) failed: %v", err)
	}
	if got.Hour() != 14 {
		t.Errorf("AsTime(text) = %v", got)
	}

	_, err = AsTime(TextValue("not a time"))
	assertCode(t, err, CodeTypeMismatch)

	_, err = AsTime(Int64Value(0))
	assertCode(t, err, CodeTypeMismatch)
}

func TestCoerceUUID(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	if got, err := AsUUID(UUIDValue(id)); err != nil || got != id {
		t.Errorf("AsUUID(uuid) = %s, %v", got, err)
	}
	if got, err := AsUUID(TextValue(id.String())); err != nil || got != id {
		t.Errorf("AsUUID(text) = %s, %v", got, err)
	}
	if got, err := AsUUID(BytesValue(id[:])); err != nil || got != id {
		t.Errorf("AsUUID(bytes) = %s, %v", got, err)
	}

	_, err := AsUUID(BytesValue([]byte{1, 2, 3}))
	assertCode(t, err, CodeTypeMismatch)
}

func TestCoerceNullIsZeroValue(t *testing.T) {
	null := NullValue()

	if n, err := AsInt64(null); err != nil || n != 0 {
		t.Errorf("AsInt64(null) = %d, %v", n, err)
	}
	if f, err := AsFloat64(null); err != nil || f != 0 {
		t.Errorf("AsFloat64(null) = %v, %v", f, err)
	}
	if b, err := AsBool(null); err != nil || b {
		t.Errorf("AsBool(null) = %v, %v", b, err)
	}
	if s, err := AsString(null); err != nil || s != "" {
		t.Errorf("AsString(null) = %q, %v", s, err)
	}
	if b, err := AsBytes(null); err != nil || b != nil {
		t.Errorf("AsBytes(null) = %v, %v", b, err)
	}
	if ts, err := AsTime(null); err != nil || !ts.IsZero() {
		t.Errorf("AsTime(null) = %v, %v", ts, err)
	}
	if u, err := AsUUID(null); err != nil || u != uuid.Nil {
		t.Errorf("AsUUID(null) = %s, %v", u, err)
	}
}
