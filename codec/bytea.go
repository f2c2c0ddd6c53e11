package codec

import (
	"fmt"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// EncodeBytea renders a byte slice in PostgreSQL's hex binary-literal form:
// a `\x` prefix followed by two upper-case hex digits per byte. This is the
// representation used for bytea parameter serialization.
func EncodeBytea(b []byte) string {
	var sb strings.Builder
	sb.Grow(2 + len(b)*2)
	sb.WriteString(`\x`)
	for _, c := range b {
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0f])
	}
	return sb.String()
}

// DecodeBytea parses a bytea text literal. The hex form (`\x` prefix) is
// the primary encoding; the legacy escaped form (doubled backslash, named
// escapes and three-digit octal sequences) is accepted for compatibility.
func DecodeBytea(s string) ([]byte, error) {
	if strings.HasPrefix(s, `\x`) {
		return decodeByteaHex(s[2:])
	}
	return decodeByteaEscape(s)
}

func decodeByteaHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("bytea hex literal has odd length %d", len(s))
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("bytea hex literal has invalid digit at offset %d", 2*i)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// decodeByteaEscape handles the pre-hex escape encoding: `\\` for a literal
// backslash, `\r` `\n` `\t` `\0` named escapes, and `\nnn` octal sequences.
func decodeByteaEscape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("bytea escape literal ends with bare backslash")
		}
		switch next := s[i+1]; next {
		case '\\':
			out = append(out, '\\')
			i += 2
		case 'r':
			out = append(out, '\r')
			i += 2
		case 'n':
			out = append(out, '\n')
			i += 2
		case 't':
			out = append(out, '\t')
			i += 2
		default:
			if i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
				out = append(out, octalByte(s[i+1], s[i+2], s[i+3]))
				i += 4
				break
			}
			// Short `\0` form for a NUL byte.
			if next == '0' {
				out = append(out, 0)
				i += 2
				break
			}
			return nil, fmt.Errorf("bytea escape literal has invalid sequence at offset %d", i)
		}
	}
	return out, nil
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func octalByte(a, b, c byte) byte {
	return (a-'0')<<6 | (b-'0')<<3 | (c - '0')
}
