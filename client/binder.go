package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/codec"
)

// Rewrite converts portable `?` placeholders to the server's positional
// `$n` syntax and returns the substitution count. The scanner tracks
// single-quoted string regions: a quote toggles the in-string state unless
// immediately preceded by a backslash. It deliberately does not understand
// dollar quoting or comments.
func Rewrite(sql string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(sql) + 8)

	inString := false
	count := 0
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'' && (i == 0 || sql[i-1] != '\\'):
			inString = !inString
			sb.WriteByte(ch)
		case ch == '?' && !inString:
			count++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(count))
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String(), count
}

// paramSlot holds one positional parameter: its serialized value (nil for
// NULL) and whether it was ever set since statement construction.
type paramSlot struct {
	value []byte
	set   bool
}

// paramBinder owns the parameter slots of one prepared statement.
type paramBinder struct {
	slots []paramSlot
}

func newParamBinder(paramCount int) *paramBinder {
	return &paramBinder{slots: make([]paramSlot, paramCount)}
}

func (b *paramBinder) paramCount() int { return len(b.slots) }

// set stores a serialized value into slot index (1-based). A nil value
// binds NULL.
func (b *paramBinder) set(index int, value []byte) error {
	if index < 1 || index > len(b.slots) {
		return ErrParamIndexOutOfRange(index, len(b.slots))
	}
	b.slots[index-1] = paramSlot{value: value, set: true}
	return nil
}

// clear resets every slot to unset.
func (b *paramBinder) clear() {
	for i := range b.slots {
		b.slots[i] = paramSlot{}
	}
}

// values returns the serialized parameter list, failing with the lowest
// never-set 1-based index.
func (b *paramBinder) values() ([][]byte, error) {
	out := make([][]byte, len(b.slots))
	for i, slot := range b.slots {
		if !slot.set {
			return nil, ErrUnboundParameter(i + 1)
		}
		out[i] = slot.value
	}
	return out, nil
}

// Serialization for the typed setters. Every setter funnels into the one
// textual representation the transport sends; the decoder in package codec
// accepts the same forms back.

func serializeBool(v bool) []byte {
	if v {
		return []byte("true")
	}
	return []byte("false")
}

func serializeInt(v int64) []byte {
	return []byte(strconv.FormatInt(v, 10))
}

func serializeFloat(v float64, bits int) []byte {
	return []byte(strconv.FormatFloat(v, 'g', -1, bits))
}

func serializeBytes(v []byte) []byte {
	return []byte(codec.EncodeBytea(v))
}

func serializeDate(v time.Time) []byte {
	return []byte(v.Format("2006-01-02"))
}

func serializeTimeOfDay(v time.Time) []byte {
	return []byte(v.Format("15:04:05.999999999"))
}

func serializeTimestamp(v time.Time) []byte {
	return []byte(v.Format(time.RFC3339Nano))
}

// serializeValue dispatches a dynamically-typed value to the typed
// serialization matching its runtime type, defaulting to fmt's string
// rendering when nothing matches.
func serializeValue(value interface{}) []byte {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return serializeBool(v)
	case int:
		return serializeInt(int64(v))
	case int16:
		return serializeInt(int64(v))
	case int32:
		return serializeInt(int64(v))
	case int64:
		return serializeInt(v)
	case float32:
		return serializeFloat(float64(v), 32)
	case float64:
		return serializeFloat(v, 64)
	case string:
		return []byte(v)
	case []byte:
		return serializeBytes(v)
	case time.Time:
		return serializeTimestamp(v)
	case uuid.UUID:
		return []byte(v.String())
	case codec.Value:
		if v.IsNull() {
			return nil
		}
		return []byte(v.String())
	default:
		return []byte(fmt.Sprintf("%v", v))
	}
}
