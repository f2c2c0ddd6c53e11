package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical layouts used for parameter serialization.
const (
	dateLayout        = "2006-01-02"
	timeLayout        = "15:04:05"
	timestampLayout   = "2006-01-02T15:04:05.999999999"
	timestamptzLayout = time.RFC3339Nano
)

// Accepted layouts per temporal tag, tried in order. Timestamps are
// normalized space->'T' before parsing so the server's default output
// matches the ISO layouts.
var (
	dateLayouts = []string{dateLayout}
	timeLayouts = []string{
		"15:04:05.999999999Z07:00",
		"15:04:05.999999999-07",
		"15:04:05.999999999",
	}
	timestampLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
	timestamptzLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999-07",
		"2006-01-02T15:04:05-07",
	}
)

// Decode converts one wire-format cell into a tagged Value. The column's
// OID must appear in the type table or decoding fails hard. Binary-format
// cells are copied verbatim into a bytes value: the format split is a
// protocol concern, not a semantic one, so no per-type decoding applies.
func Decode(oid uint32, raw []byte, binary bool) (Value, error) {
	tag, ok := TagForOID(oid)
	if !ok {
		return NullValue(), ErrUnsupportedType(oid)
	}
	if binary {
		return BytesValue(raw), nil
	}
	return decodeText(oid, tag, string(raw))
}

func decodeText(oid uint32, tag TypeTag, s string) (Value, error) {
	switch tag {
	case TagBool:
		b, err := parseBool(s)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return BoolValue(b), nil

	case TagInt16:
		n, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return Int16Value(int16(n)), nil

	case TagInt32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return Int32Value(int32(n)), nil

	case TagInt64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return Int64Value(n), nil

	case TagFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return Float32Value(float32(f)), nil

	case TagFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return Float64Value(f), nil

	case TagText:
		return TextValue(s), nil

	case TagChar:
		if len(s) == 0 {
			return CharValue(0), nil
		}
		return CharValue(s[0]), nil

	case TagJSON:
		return JSONValue(s), nil

	case TagBytes:
		b, err := DecodeBytea(s)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return BytesValue(b), nil

	case TagUUID:
		u, err := uuid.Parse(s)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return UUIDValue(u), nil

	case TagDate:
		t, err := parseTemporal(s, dateLayouts)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return DateValue(t), nil

	case TagTime:
		t, err := parseTemporal(s, timeLayouts)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return TimeValue(t), nil

	case TagTimestamp:
		t, err := parseTemporal(normalizeTimestamp(s), timestampLayouts)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return TimestampValue(t), nil

	case TagTimestampTZ:
		t, err := parseTemporal(normalizeTimestamp(s), timestamptzLayouts)
		if err != nil {
			return NullValue(), errParse(oid, s, err)
		}
		return TimestampTZValue(t), nil
	}

	return NullValue(), ErrUnsupportedType(oid)
}

// parseBool accepts the canonical textual tokens case-sensitively and falls
// back to integer parsing (nonzero is true).
func parseBool(s string) (bool, error) {
	switch s {
	case "true", "t", "1":
		return true, nil
	case "false", "f", "0":
		return false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// normalizeTimestamp rewrites the server's "date time" separator to the
// ISO 'T' form so one layout set covers both.
func normalizeTimestamp(s string) string {
	return strings.Replace(s, " ", "T", 1)
}

func parseTemporal(s string, layouts []string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
