// Package mock implements transport.Transport for testing.
package mock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strataform/pgclient/transport"
)

// Call records one Execute invocation.
type Call struct {
	SQL    string
	Params [][]byte
}

// script is a queued response for a matching command.
type script struct {
	sql    string // empty matches any command
	result *transport.RawResult
	err    error
}

// Transport is a scriptable in-memory transport. Responses are consumed
// in FIFO order; scripts with a SQL text only match that exact command.
type Transport struct {
	mu      sync.Mutex
	scripts []script
	calls   []Call

	defaultResult *transport.RawResult
	execErr       error
	alive         bool
	lastActivity  time.Time

	executeCalls atomic.Int32
	closeCalls   atomic.Int32
}

// New creates a healthy mock transport. With no scripts configured every
// Execute returns an empty zero-column result.
func New() *Transport {
	return &Transport{
		alive:        true,
		lastActivity: time.Now(),
	}
}

// WithResult queues a result for the next otherwise-unmatched Execute.
func (m *Transport) WithResult(r *transport.RawResult) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, script{result: r})
	return m
}

// WithResultFor queues a result returned only for the exact SQL text.
func (m *Transport) WithResultFor(sql string, r *transport.RawResult) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, script{sql: sql, result: r})
	return m
}

// WithDefaultResult sets the result returned when no script matches.
func (m *Transport) WithDefaultResult(r *transport.RawResult) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultResult = r
	return m
}

// WithError configures every unscripted Execute to fail with err.
func (m *Transport) WithError(err error) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execErr = err
	return m
}

// WithErrorFor queues an error returned only for the exact SQL text.
func (m *Transport) WithErrorFor(sql string, err error) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, script{sql: sql, err: err})
	return m
}

// Execute implements transport.Transport.
func (m *Transport) Execute(ctx context.Context, sql string, params [][]byte) (*transport.RawResult, error) {
	m.executeCalls.Add(1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.alive {
		return nil, fmt.Errorf("mock transport closed")
	}

	paramsCopy := make([][]byte, len(params))
	copy(paramsCopy, params)
	m.calls = append(m.calls, Call{SQL: sql, Params: paramsCopy})

	for i, sc := range m.scripts {
		if sc.sql != "" && sc.sql != sql {
			continue
		}
		m.scripts = append(m.scripts[:i], m.scripts[i+1:]...)
		if sc.err != nil {
			return nil, sc.err
		}
		m.lastActivity = time.Now()
		return sc.result, nil
	}

	if m.execErr != nil {
		return nil, m.execErr
	}

	m.lastActivity = time.Now()
	if m.defaultResult != nil {
		return m.defaultResult, nil
	}
	return transport.NewRawResult(nil), nil
}

// Close implements transport.Transport.
func (m *Transport) Close() error {
	m.closeCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alive = false
	return nil
}

// IsAlive implements transport.Transport.
func (m *Transport) IsAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive
}

// RemoteAddr implements transport.Transport.
func (m *Transport) RemoteAddr() string { return "mock:5432" }

// LastActivity implements transport.Transport.
func (m *Transport) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Calls returns a copy of the Execute history.
func (m *Transport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent Execute call and whether one was made.
func (m *Transport) LastCall() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// ExecuteCount returns how many times Execute was invoked.
func (m *Transport) ExecuteCount() int { return int(m.executeCalls.Load()) }

// CloseCount returns how many times Close was invoked.
func (m *Transport) CloseCount() int { return int(m.closeCalls.Load()) }

// Factory returns a transport.Factory handing out this mock.
func (m *Transport) Factory() transport.Factory {
	return func(ctx context.Context, url string, options map[string]string) (transport.Transport, error) {
		return m, nil
	}
}
