package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/strataform/pgclient/transport"
)

// Driver is a handle returned by explicit registration. It carries the
// transport factory used to open physical connections for its scheme.
// There is no implicit load-time registration: callers register once
// during process setup and keep the handle (or resolve it by URL scheme).
type Driver struct {
	name    string
	factory transport.Factory
}

type driverRegistry struct {
	mu      sync.RWMutex
	drivers map[string]*Driver
}

var registry = &driverRegistry{drivers: make(map[string]*Driver)}

// Register registers a transport factory under a URL scheme and returns
// the driver handle. Registering the same scheme twice is an error.
func Register(name string, factory transport.Factory) (*Driver, error) {
	if name == "" {
		return nil, &ConnectionError{
			Code:    CodeDriverUnknown,
			Type:    "CONNECTION_ERROR",
			Message: "driver name cannot be empty",
		}
	}
	if factory == nil {
		return nil, &ConnectionError{
			Code:    CodeDriverUnknown,
			Type:    "CONNECTION_ERROR",
			Message: fmt.Sprintf("driver %q registered with nil factory", name),
		}
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.drivers[name]; exists {
		return nil, &ConnectionError{
			Code:    CodeDriverRegistered,
			Type:    "CONNECTION_ERROR",
			Message: fmt.Sprintf("driver %q is already registered", name),
			Details: map[string]interface{}{
				"driver": name,
			},
		}
	}

	d := &Driver{name: name, factory: factory}
	registry.drivers[name] = d
	return d, nil
}

// Name returns the scheme the driver was registered under.
func (d *Driver) Name() string { return d.name }

// Connect opens a physical connection through the driver's transport
// factory and wraps it in a Connection.
func (d *Driver) Connect(ctx context.Context, url string, opts *ClientOptions) (*Connection, error) {
	options := DefaultOptions()
	if opts != nil {
		options = *opts
	}

	t, err := d.factory(ctx, url, options.TransportOptions)
	if err != nil {
		return nil, &ConnectionError{
			Code:    CodeConnectionFailed,
			Type:    "CONNECTION_ERROR",
			Message: fmt.Sprintf("failed to connect via driver %q", d.name),
			Details: map[string]interface{}{
				"driver": d.name,
			},
			Cause:      err,
			StackTrace: captureStackTrace(),
		}
	}

	conn := newConnection(t, options)
	conn.logger.Info("connection established",
		String("conn_id", conn.id),
		String("driver", d.name),
		String("remoteAddr", t.RemoteAddr()))
	return conn, nil
}

// Connect resolves a registered driver by the URL's scheme prefix
// ("scheme://...") and connects through it.
func Connect(ctx context.Context, url string, opts *ClientOptions) (*Connection, error) {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return nil, &ConnectionError{
			Code:    CodeConnectionFailed,
			Type:    "CONNECTION_ERROR",
			Message: "connection URL has no scheme",
			Details: map[string]interface{}{
				"url": url,
			},
		}
	}
	scheme := url[:idx]

	registry.mu.RLock()
	d, ok := registry.drivers[scheme]
	registry.mu.RUnlock()

	if !ok {
		return nil, &ConnectionError{
			Code:    CodeDriverUnknown,
			Type:    "CONNECTION_ERROR",
			Message: fmt.Sprintf("no driver registered for scheme %q", scheme),
			Details: map[string]interface{}{
				"scheme": scheme,
			},
		}
	}
	return d.Connect(ctx, url, opts)
}
