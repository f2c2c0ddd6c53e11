// Package codec maps PostgreSQL wire type OIDs to a closed, tagged value
// model and provides the coercions used by result-set getters.
package codec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TypeTag identifies the kind of payload a Value carries.
type TypeTag int

const (
	TagNull TypeTag = iota
	TagBool
	TagInt16
	TagInt32
	TagInt64
	TagFloat32
	TagFloat64
	TagText
	TagBytes
	TagDate
	TagTime
	TagTimestamp
	TagTimestampTZ
	TagChar
	TagUUID
	TagJSON
)

// String returns the tag name used in error messages.
func (t TypeTag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt16:
		return "int16"
	case TagInt32:
		return "int32"
	case TagInt64:
		return "int64"
	case TagFloat32:
		return "float32"
	case TagFloat64:
		return "float64"
	case TagText:
		return "text"
	case TagBytes:
		return "bytes"
	case TagDate:
		return "date"
	case TagTime:
		return "time"
	case TagTimestamp:
		return "timestamp"
	case TagTimestampTZ:
		return "timestamptz"
	case TagChar:
		return "char"
	case TagUUID:
		return "uuid"
	case TagJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the decodable PostgreSQL value kinds.
// The payload field in use always matches the tag; the null value carries
// no payload and does not remember the column type it came from.
type Value struct {
	tag TypeTag
	b   bool
	i   int64
	f   float64
	s   string
	raw []byte
	t   time.Time
	u   uuid.UUID
}

// NullValue returns the null marker.
func NullValue() Value { return Value{tag: TagNull} }

func BoolValue(b bool) Value       { return Value{tag: TagBool, b: b} }
func Int16Value(i int16) Value     { return Value{tag: TagInt16, i: int64(i)} }
func Int32Value(i int32) Value     { return Value{tag: TagInt32, i: int64(i)} }
func Int64Value(i int64) Value     { return Value{tag: TagInt64, i: i} }
func Float32Value(f float32) Value { return Value{tag: TagFloat32, f: float64(f)} }
func Float64Value(f float64) Value { return Value{tag: TagFloat64, f: f} }
func TextValue(s string) Value     { return Value{tag: TagText, s: s} }
func CharValue(c byte) Value       { return Value{tag: TagChar, i: int64(c)} }
func JSONValue(s string) Value     { return Value{tag: TagJSON, s: s} }
func UUIDValue(u uuid.UUID) Value  { return Value{tag: TagUUID, u: u} }

// BytesValue copies b so the Value owns its payload.
func BytesValue(b []byte) Value {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Value{tag: TagBytes, raw: buf}
}

func DateValue(t time.Time) Value        { return Value{tag: TagDate, t: t} }
func TimeValue(t time.Time) Value        { return Value{tag: TagTime, t: t} }
func TimestampValue(t time.Time) Value   { return Value{tag: TagTimestamp, t: t} }
func TimestampTZValue(t time.Time) Value { return Value{tag: TagTimestampTZ, t: t} }

// Tag returns the value's type tag.
func (v Value) Tag() TypeTag { return v.tag }

// IsNull reports whether the value is the null marker.
func (v Value) IsNull() bool { return v.tag == TagNull }

func (v Value) isTemporal() bool {
	switch v.tag {
	case TagDate, TagTime, TagTimestamp, TagTimestampTZ:
		return true
	}
	return false
}

func (v Value) isInteger() bool {
	switch v.tag {
	case TagInt16, TagInt32, TagInt64:
		return true
	}
	return false
}

func (v Value) isFloat() bool {
	return v.tag == TagFloat32 || v.tag == TagFloat64
}

// String renders the value for logs and parameter serialization.
// The representation matches what the typed parameter setters produce.
func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "NULL"
	case TagBool:
		if v.b {
			return "true"
		}
		return "false"
	case TagInt16, TagInt32, TagInt64:
		return strconv.FormatInt(v.i, 10)
	case TagFloat32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case TagFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TagText, TagJSON:
		return v.s
	case TagChar:
		return string([]byte{byte(v.i)})
	case TagBytes:
		return EncodeBytea(v.raw)
	case TagDate:
		return v.t.Format(dateLayout)
	case TagTime:
		return v.t.Format(timeLayout)
	case TagTimestamp:
		return v.t.Format(timestampLayout)
	case TagTimestampTZ:
		return v.t.Format(timestamptzLayout)
	case TagUUID:
		return v.u.String()
	default:
		return fmt.Sprintf("<%s>", v.tag)
	}
}
