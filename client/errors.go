package client

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// Error codes, grouped by taxonomy.
const (
	// Connection errors
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeConnectionClosed = "CONNECTION_CLOSED"
	CodeAlreadyClosed    = "ALREADY_CLOSED"

	// Statement errors
	CodeStatementClosed = "E_STMT_CLOSED"
	CodeParamUnbound    = "E_PARAM_UNBOUND"
	CodeParamIndex      = "E_PARAM_INDEX"

	// Execution errors
	CodeExecuteFailed = "E_EXECUTE_FAILED"

	// Result errors
	CodeResultClosed   = "E_RESULT_CLOSED"
	CodeColumnNotFound = "E_COLUMN_NOT_FOUND"
	CodeNoCurrentRow   = "E_NO_CURRENT_ROW"

	// Unsupported surface
	CodeNotImplemented = "E_NOT_IMPLEMENTED"

	// Driver registry
	CodeDriverRegistered = "E_DRIVER_REGISTERED"
	CodeDriverUnknown    = "E_DRIVER_UNKNOWN"
)

// ConnectionError represents connection lifecycle failures: handshake and
// transport errors, and use of a closed or double-closed connection.
type ConnectionError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"cause,omitempty"`
	StackTrace []string               `json:"stack_trace,omitempty"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e *ConnectionError) Error() string { return e.FormatError(false) }

// FormatError formats the error based on debug mode: a flat "CODE: message"
// line in production, full JSON with stack trace in debug mode.
func (e *ConnectionError) FormatError(debugMode bool) string {
	return formatStructured(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, e.Timestamp)
}

// Unwrap returns the underlying cause for errors.Is and errors.As.
func (e *ConnectionError) Unwrap() error { return e.Cause }

// StatementError represents statement lifecycle and binding failures.
type StatementError struct {
	Code       string                 `json:"code"`
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	// ParamIndex is the offending 1-based parameter index for binding
	// errors, 0 otherwise.
	ParamIndex int      `json:"param_index,omitempty"`
	Cause      error    `json:"cause,omitempty"`
	StackTrace []string `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *StatementError) Error() string { return e.FormatError(false) }

// FormatError formats the error based on debug mode.
func (e *StatementError) FormatError(debugMode bool) string {
	return formatStructured(debugMode, e.Code, e.Type, e.Message, e.Details, e.Cause, e.StackTrace, time.Time{})
}

// Unwrap returns the underlying cause.
func (e *StatementError) Unwrap() error { return e.Cause }

// ExecutionError represents a command the server received and rejected.
// ServerMessage carries the server's error text verbatim.
type ExecutionError struct {
	Code          string                 `json:"code"`
	Type          string                 `json:"type"`
	Message       string                 `json:"message"`
	ServerMessage string                 `json:"server_message"`
	Query         string                 `json:"query,omitempty"`
	Details       map[string]interface{} `json:"details,omitempty"`
	Cause         error                  `json:"cause,omitempty"`
	StackTrace    []string               `json:"stack_trace,omitempty"`
}

// Error implements the error interface.
func (e *ExecutionError) Error() string { return e.FormatError(false) }

// FormatError formats the error based on debug mode.
func (e *ExecutionError) FormatError(debugMode bool) string {
	if !debugMode {
		return fmt.Sprintf("%s: %s", e.Code, e.ServerMessage)
	}
	data := map[string]interface{}{
		"code":           e.Code,
		"type":           e.Type,
		"message":        e.Message,
		"server_message": e.ServerMessage,
	}
	if e.Query != "" {
		data["query"] = e.Query
	}
	if len(e.Details) > 0 {
		data["details"] = e.Details
	}
	if e.Cause != nil {
		data["cause"] = map[string]interface{}{"message": e.Cause.Error()}
	}
	if len(e.StackTrace) > 0 {
		data["stack_trace"] = e.StackTrace
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error { return e.Cause }

// ResultError represents result-set access failures.
type ResultError struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ResultError) Error() string { return e.FormatError(false) }

// FormatError formats the error based on debug mode.
func (e *ResultError) FormatError(debugMode bool) string {
	return formatStructured(debugMode, e.Code, e.Type, e.Message, e.Details, nil, nil, time.Time{})
}

// NotImplementedError marks surface the driver deliberately does not
// support. It is an explicit error, never a silent no-op.
type NotImplementedError struct {
	Operation string `json:"operation"`
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: %s is not implemented", CodeNotImplemented, e.Operation)
}

// formatStructured renders the shared Code/Type/Message/Details/Cause shape.
func formatStructured(debugMode bool, code, typ, message string, details map[string]interface{}, cause error, stack []string, ts time.Time) string {
	if !debugMode {
		if cause != nil {
			return fmt.Sprintf("%s: %s (caused by: %s)", code, message, cause.Error())
		}
		return fmt.Sprintf("%s: %s", code, message)
	}

	data := map[string]interface{}{
		"code":    code,
		"type":    typ,
		"message": message,
	}
	if len(details) > 0 {
		data["details"] = details
	}
	if cause != nil {
		data["cause"] = map[string]interface{}{"message": cause.Error()}
	}
	if len(stack) > 0 {
		data["stack_trace"] = stack
	}
	if !ts.IsZero() {
		data["timestamp"] = ts.Format(time.RFC3339Nano)
	}
	b, _ := json.MarshalIndent(data, "", "  ")
	return string(b)
}

// Constructor helpers

// ErrConnectionClosed creates the state error for operations on a closed
// connection.
func ErrConnectionClosed(operation string) *ConnectionError {
	return &ConnectionError{
		Code:    CodeConnectionClosed,
		Type:    "CONNECTION_ERROR",
		Message: fmt.Sprintf("%s called on closed connection", operation),
		Details: map[string]interface{}{
			"operation": operation,
		},
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// ErrConnectionAlreadyClosed creates the error for a second Close call.
func ErrConnectionAlreadyClosed() *ConnectionError {
	return &ConnectionError{
		Code:       CodeAlreadyClosed,
		Type:       "CONNECTION_ERROR",
		Message:    "connection is already closed",
		StackTrace: captureStackTrace(),
		Timestamp:  time.Now(),
	}
}

// ErrStatementClosed creates the error for use of a closed statement.
func ErrStatementClosed(operation string) *StatementError {
	return &StatementError{
		Code:    CodeStatementClosed,
		Type:    "STATEMENT_ERROR",
		Message: fmt.Sprintf("%s called on closed statement", operation),
		Details: map[string]interface{}{
			"operation": operation,
		},
		StackTrace: captureStackTrace(),
	}
}

// ErrStatementAlreadyClosed creates the error for a second Close call on a
// statement.
func ErrStatementAlreadyClosed() *StatementError {
	return &StatementError{
		Code:       CodeAlreadyClosed,
		Type:       "STATEMENT_ERROR",
		Message:    "statement is already closed",
		StackTrace: captureStackTrace(),
	}
}

// ErrUnboundParameter creates the error for executing with an unset slot.
// Index is 1-based and deterministic: the lowest unset slot.
func ErrUnboundParameter(index int) *StatementError {
	return &StatementError{
		Code:    CodeParamUnbound,
		Type:    "STATEMENT_ERROR",
		Message: fmt.Sprintf("parameter %d was never bound", index),
		Details: map[string]interface{}{
			"index": index,
		},
		ParamIndex: index,
		StackTrace: captureStackTrace(),
	}
}

// ErrParamIndexOutOfRange creates the error for a setter index outside
// [1, paramCount].
func ErrParamIndexOutOfRange(index, paramCount int) *StatementError {
	return &StatementError{
		Code:    CodeParamIndex,
		Type:    "STATEMENT_ERROR",
		Message: fmt.Sprintf("parameter index %d out of range [1, %d]", index, paramCount),
		Details: map[string]interface{}{
			"index":       index,
			"param_count": paramCount,
		},
		ParamIndex: index,
		StackTrace: captureStackTrace(),
	}
}

// ErrExecutionFailed wraps a server-rejected command, preserving the
// server's message verbatim.
func ErrExecutionFailed(query, serverMessage string, cause error) *ExecutionError {
	return &ExecutionError{
		Code:          CodeExecuteFailed,
		Type:          "EXECUTION_ERROR",
		Message:       "server rejected command",
		ServerMessage: serverMessage,
		Query:         query,
		Cause:         cause,
		StackTrace:    captureStackTrace(),
	}
}

// ErrResultSetClosed creates the error for use of a closed result set.
func ErrResultSetClosed(operation string) *ResultError {
	return &ResultError{
		Code:    CodeResultClosed,
		Type:    "RESULT_ERROR",
		Message: fmt.Sprintf("%s called on closed result set", operation),
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// ErrColumnNotFound creates the error for an unknown column label.
func ErrColumnNotFound(name string) *ResultError {
	return &ResultError{
		Code:    CodeColumnNotFound,
		Type:    "RESULT_ERROR",
		Message: fmt.Sprintf("no column named %q", name),
		Details: map[string]interface{}{
			"column": name,
		},
	}
}

// ErrNoCurrentRow creates the error for a getter with the cursor outside
// the row range.
func ErrNoCurrentRow() *ResultError {
	return &ResultError{
		Code:    CodeNoCurrentRow,
		Type:    "RESULT_ERROR",
		Message: "cursor is not positioned on a row",
	}
}

// ErrNotImplemented marks a deliberately unsupported operation.
func ErrNotImplemented(operation string) *NotImplementedError {
	return &NotImplementedError{Operation: operation}
}

// captureStackTrace captures the current stack trace for error reporting.
func captureStackTrace() []string {
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(3, pcs)

	frames := make([]string, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s (%s:%d)", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return frames
}

// FormatError formats any error with debug mode support.
func FormatError(err error, debugMode bool) string {
	if err == nil {
		return ""
	}

	type debugFormatter interface {
		FormatError(bool) string
	}
	if formatter, ok := err.(debugFormatter); ok {
		return formatter.FormatError(debugMode)
	}
	return err.Error()
}
