package codec

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Coercion is the inverse of decoding: a stored Value is converted to the
// kind a getter requests. Widening numeric conversions always succeed;
// narrowing is range-checked and overflow is an error rather than a silent
// truncation. A request with no defined relationship to the stored tag
// fails with a type mismatch. The null value coerces to the zero value of
// every kind; callers track nullness separately.

// AsInt64 converts the value to int64.
func AsInt64(v Value) (int64, error) {
	return coerceInt(v, "int64", math.MinInt64, math.MaxInt64)
}

// AsInt32 converts the value to int32, failing on overflow.
func AsInt32(v Value) (int32, error) {
	n, err := coerceInt(v, "int32", math.MinInt32, math.MaxInt32)
	return int32(n), err
}

// AsInt16 converts the value to int16, failing on overflow.
func AsInt16(v Value) (int16, error) {
	n, err := coerceInt(v, "int16", math.MinInt16, math.MaxInt16)
	return int16(n), err
}

// AsInt8 converts the value to int8, failing on overflow.
func AsInt8(v Value) (int8, error) {
	n, err := coerceInt(v, "int8", math.MinInt8, math.MaxInt8)
	return int8(n), err
}

func coerceInt(v Value, requested string, lo, hi int64) (int64, error) {
	switch {
	case v.IsNull():
		return 0, nil

	case v.isInteger():
		if v.i < lo || v.i > hi {
			return 0, ErrConversionOverflow(v.tag, requested, v.i)
		}
		return v.i, nil

	case v.isFloat():
		f := math.Trunc(v.f)
		if f < float64(lo) || f > float64(hi) {
			return 0, ErrConversionOverflow(v.tag, requested, v.f)
		}
		return int64(f), nil

	case v.tag == TagText || v.tag == TagChar:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, ErrConversionOverflow(v.tag, requested, v.String())
			}
			return 0, ErrTypeMismatch(v.tag, requested)
		}
		if n < lo || n > hi {
			return 0, ErrConversionOverflow(v.tag, requested, n)
		}
		return n, nil
	}
	return 0, ErrTypeMismatch(v.tag, requested)
}

// AsFloat64 converts the value to float64.
func AsFloat64(v Value) (float64, error) {
	switch {
	case v.IsNull():
		return 0, nil
	case v.isFloat():
		return v.f, nil
	case v.isInteger():
		return float64(v.i), nil
	case v.tag == TagText:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return 0, ErrTypeMismatch(v.tag, "float64")
		}
		return f, nil
	}
	return 0, ErrTypeMismatch(v.tag, "float64")
}

// AsFloat32 converts the value to float32, failing if the magnitude does
// not fit.
func AsFloat32(v Value) (float32, error) {
	f, err := AsFloat64(v)
	if err != nil {
		return 0, ErrTypeMismatch(v.tag, "float32")
	}
	narrowed := float32(f)
	if math.IsInf(float64(narrowed), 0) && !math.IsInf(f, 0) {
		return 0, ErrConversionOverflow(v.tag, "float32", f)
	}
	return narrowed, nil
}

// AsBool converts the value to bool. Integers convert as nonzero-is-true;
// text accepts the same tokens the decoder does.
func AsBool(v Value) (bool, error) {
	switch {
	case v.IsNull():
		return false, nil
	case v.tag == TagBool:
		return v.b, nil
	case v.isInteger():
		return v.i != 0, nil
	case v.tag == TagText:
		b, err := parseBool(v.s)
		if err != nil {
			return false, ErrTypeMismatch(v.tag, "bool")
		}
		return b, nil
	}
	return false, ErrTypeMismatch(v.tag, "bool")
}

// AsString renders any non-null value as text using the same representation
// the parameter setters serialize to.
func AsString(v Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	return v.String(), nil
}

// AsBytes converts the value to a byte slice. The returned slice is a copy.
func AsBytes(v Value) ([]byte, error) {
	switch v.tag {
	case TagNull:
		return nil, nil
	case TagBytes:
		out := make([]byte, len(v.raw))
		copy(out, v.raw)
		return out, nil
	case TagText, TagJSON:
		return []byte(v.s), nil
	}
	return nil, ErrTypeMismatch(v.tag, "bytes")
}

// AsTime converts any temporal value to time.Time. Text values are parsed
// with the full temporal layout set.
func AsTime(v Value) (time.Time, error) {
	switch {
	case v.IsNull():
		return time.Time{}, nil
	case v.isTemporal():
		return v.t, nil
	case v.tag == TagText:
		s := normalizeTimestamp(v.s)
		for _, layouts := range [][]string{timestamptzLayouts, timestampLayouts, dateLayouts, timeLayouts} {
			if t, err := parseTemporal(s, layouts); err == nil {
				return t, nil
			}
		}
		return time.Time{}, ErrTypeMismatch(v.tag, "time")
	}
	return time.Time{}, ErrTypeMismatch(v.tag, "time")
}

// AsUUID converts the value to a UUID. Sixteen-byte binary payloads and
// canonical text forms both convert.
func AsUUID(v Value) (uuid.UUID, error) {
	switch v.tag {
	case TagNull:
		return uuid.Nil, nil
	case TagUUID:
		return v.u, nil
	case TagText:
		u, err := uuid.Parse(v.s)
		if err != nil {
			return uuid.Nil, ErrTypeMismatch(v.tag, "uuid")
		}
		return u, nil
	case TagBytes:
		u, err := uuid.FromBytes(v.raw)
		if err != nil {
			return uuid.Nil, ErrTypeMismatch(v.tag, "uuid")
		}
		return u, nil
	}
	return uuid.Nil, ErrTypeMismatch(v.tag, "uuid")
}
