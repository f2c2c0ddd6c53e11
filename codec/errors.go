package codec

import (
	"encoding/json"
	"fmt"
)

// TypeError represents decode- and coercion-time failures.
type TypeError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"cause,omitempty"`
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if len(e.Details) > 0 {
		detailsJSON, _ := json.Marshal(e.Details)
		return fmt.Sprintf("%s: %s (details: %s)", e.Code, e.Message, string(detailsJSON))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *TypeError) Unwrap() error {
	return e.Cause
}

// Error codes for the TypeError taxonomy.
const (
	CodeUnsupportedType    = "E_TYPE_UNSUPPORTED"
	CodeTypeMismatch       = "E_TYPE_MISMATCH"
	CodeConversionOverflow = "E_TYPE_OVERFLOW"
	CodeParseFailed        = "E_TYPE_PARSE"
)

// ErrUnsupportedType creates the hard error for an OID outside the type table.
func ErrUnsupportedType(oid uint32) *TypeError {
	return &TypeError{
		Code:    CodeUnsupportedType,
		Type:    "TYPE_ERROR",
		Message: fmt.Sprintf("unsupported wire type oid %d", oid),
		Details: map[string]interface{}{
			"oid": oid,
		},
	}
}

// ErrTypeMismatch creates the error for a coercion with no defined
// relationship between the stored tag and the requested kind.
func ErrTypeMismatch(stored TypeTag, requested string) *TypeError {
	return &TypeError{
		Code:    CodeTypeMismatch,
		Type:    "TYPE_ERROR",
		Message: fmt.Sprintf("cannot convert stored %s to %s", stored, requested),
		Details: map[string]interface{}{
			"stored":    stored.String(),
			"requested": requested,
		},
	}
}

// ErrConversionOverflow creates the error for a narrowing conversion whose
// value is out of range for the requested kind.
func ErrConversionOverflow(stored TypeTag, requested string, value interface{}) *TypeError {
	return &TypeError{
		Code:    CodeConversionOverflow,
		Type:    "TYPE_ERROR",
		Message: fmt.Sprintf("value %v overflows %s", value, requested),
		Details: map[string]interface{}{
			"stored":    stored.String(),
			"requested": requested,
			"value":     fmt.Sprintf("%v", value),
		},
	}
}

// errParse creates the error for a malformed text-format cell.
func errParse(oid uint32, raw string, cause error) *TypeError {
	return &TypeError{
		Code:    CodeParseFailed,
		Type:    "TYPE_ERROR",
		Message: fmt.Sprintf("malformed text value %q for oid %d", raw, oid),
		Details: map[string]interface{}{
			"oid":   oid,
			"value": raw,
		},
		Cause: cause,
	}
}
