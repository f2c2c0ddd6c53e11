package transport

import "fmt"

// ServerError is a command the server received and rejected. The message
// is the server's error text, verbatim; the client layer surfaces it
// unmodified. Transport-level failures (broken pipe, handshake, timeout)
// are ordinary errors and are not wrapped in this type.
type ServerError struct {
	Message string
	// SQLState is the five-character server error code when available.
	SQLState string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("server error %s: %s", e.SQLState, e.Message)
	}
	return "server error: " + e.Message
}
