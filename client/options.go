package client

// ClientOptions configures connection behavior.
type ClientOptions struct {
	// DebugMode enables verbose error serialization with stack traces and
	// per-command trace logging.
	// Default: false
	DebugMode bool

	// Logger is the logger implementation to use.
	// If nil, a JSON logger at LogLevel is used.
	Logger Logger

	// LogLevel sets the minimum log level (DEBUG, INFO, WARN, ERROR).
	// Default: "INFO"
	LogLevel string

	// RewriteCacheSize is the maximum number of placeholder-rewrite
	// results to cache per connection.
	// Default: 100
	RewriteCacheSize int

	// TransportOptions is passed through to the transport factory
	// (e.g. sslmode, application_name). The client core does not
	// interpret these.
	TransportOptions map[string]string
}

// DefaultOptions returns ClientOptions with default values.
func DefaultOptions() ClientOptions {
	return ClientOptions{
		DebugMode:        false,
		LogLevel:         "INFO",
		RewriteCacheSize: 100,
	}
}
