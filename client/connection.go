package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/transport"
)

// IsolationLevel is a transaction isolation level.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

// String returns the level's SQL keyword form.
func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ UNCOMMITTED"
	case ReadCommitted:
		return "READ COMMITTED"
	case RepeatableRead:
		return "REPEATABLE READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "UNKNOWN"
	}
}

// parseIsolationLevel maps the server's textual representation back to a
// level. Unrecognized text defaults to ReadCommitted.
func parseIsolationLevel(s string) IsolationLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "READ UNCOMMITTED":
		return ReadUncommitted
	case "READ COMMITTED":
		return ReadCommitted
	case "REPEATABLE READ":
		return RepeatableRead
	case "SERIALIZABLE":
		return Serializable
	default:
		return ReadCommitted
	}
}

// Connection owns one native handle and the set of live statements created
// from it. A single mutex serializes every state-mutating or server
// round-trip operation; nested internal calls use the *Locked helpers so
// the non-reentrant lock is never re-acquired.
type Connection struct {
	mu         sync.Mutex
	transport  transport.Transport
	logger     Logger
	opts       ClientOptions
	autoCommit bool
	closed     bool
	statements map[*Statement]struct{}
	rewrites   *rewriteCache
	id         string
}

func newConnection(t transport.Transport, opts ClientOptions) *Connection {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(opts.LogLevel, nil)
	}

	cacheSize := opts.RewriteCacheSize
	if cacheSize == 0 {
		cacheSize = 100
	}

	return &Connection{
		transport:  t,
		logger:     logger,
		opts:       opts,
		autoCommit: true,
		statements: make(map[*Statement]struct{}),
		rewrites:   newRewriteCache(cacheSize),
		id:         uuid.New().String(),
	}
}

// CreateStatement creates a statement and registers it in the live set.
func (c *Connection) CreateStatement() (*Statement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed("CreateStatement")
	}
	return c.newStatementLocked(), nil
}

// Prepare rewrites the SQL's portable placeholders and creates a prepared
// statement with one slot per substitution.
func (c *Connection) Prepare(sql string) (*PreparedStatement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectionClosed("Prepare")
	}

	rewritten, paramCount := c.rewrites.rewrite(sql)

	stmt := &PreparedStatement{
		Statement: c.newStatementLocked(),
		sql:       rewritten,
		binder:    newParamBinder(paramCount),
	}

	c.logger.Debug("prepared statement",
		String("conn_id", c.id),
		String("sql", rewritten),
		Int("param_count", paramCount))

	return stmt, nil
}

// newStatementLocked constructs and registers a statement. Caller holds mu.
func (c *Connection) newStatementLocked() *Statement {
	stmt := &Statement{
		conn: c,
		id:   uuid.New().String(),
	}
	c.statements[stmt] = struct{}{}
	return stmt
}

// Commit commits the current transaction. When autocommit is off a new
// transaction is opened immediately afterwards.
func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed("Commit")
	}
	if err := c.runCommandLocked(ctx, "COMMIT"); err != nil {
		return err
	}
	if !c.autoCommit {
		return c.runCommandLocked(ctx, "BEGIN")
	}
	return nil
}

// Rollback rolls back the current transaction. When autocommit is off a
// new transaction is opened immediately afterwards.
func (c *Connection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed("Rollback")
	}
	if err := c.runCommandLocked(ctx, "ROLLBACK"); err != nil {
		return err
	}
	if !c.autoCommit {
		return c.runCommandLocked(ctx, "BEGIN")
	}
	return nil
}

// SetAutoCommit toggles autocommit. Turning it off opens a transaction
// with BEGIN; turning it on commits the open one. The server round trip
// happens first: on failure local state is left unchanged.
func (c *Connection) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed("SetAutoCommit")
	}
	if c.autoCommit == autoCommit {
		return nil
	}

	command := "BEGIN"
	if autoCommit {
		command = "COMMIT"
	}
	if err := c.runCommandLocked(ctx, command); err != nil {
		return err
	}

	c.autoCommit = autoCommit
	c.logger.Debug("autocommit changed",
		String("conn_id", c.id),
		Bool("autocommit", autoCommit))
	return nil
}

// AutoCommit returns the current autocommit setting.
func (c *Connection) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCommit
}

// SetTransactionIsolation sets the session's isolation level.
func (c *Connection) SetTransactionIsolation(ctx context.Context, level IsolationLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed("SetTransactionIsolation")
	}
	return c.runCommandLocked(ctx,
		"SET SESSION CHARACTERISTICS AS TRANSACTION ISOLATION LEVEL "+level.String())
}

// TransactionIsolation queries the session's isolation level. Unrecognized
// server text maps to ReadCommitted.
func (c *Connection) TransactionIsolation(ctx context.Context) (IsolationLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ReadCommitted, ErrConnectionClosed("TransactionIsolation")
	}

	stmt := c.newStatementLocked()
	defer stmt.closeQuietLocked()

	rs, err := stmt.executeQueryLocked(ctx, "SHOW TRANSACTION ISOLATION LEVEL")
	if err != nil {
		return ReadCommitted, err
	}
	if !rs.nextLocked() {
		return ReadCommitted, nil
	}
	text, err := rs.getStringLocked(1)
	if err != nil {
		return ReadCommitted, err
	}
	return parseIsolationLevel(text), nil
}

// SetCatalog is deliberately unsupported: the session is bound to one
// database for its lifetime.
func (c *Connection) SetCatalog(string) error {
	return ErrNotImplemented("SetCatalog")
}

// Close force-closes every live statement (best-effort) and releases the
// native handle. A second call fails with ALREADY_CLOSED.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionAlreadyClosed()
	}
	c.closed = true

	for stmt := range c.statements {
		if err := stmt.closeLocked(); err != nil {
			c.logger.Warn("failed to close statement during connection close",
				String("conn_id", c.id),
				String("stmt_id", stmt.id),
				Error("error", err))
		}
	}
	c.statements = make(map[*Statement]struct{})

	err := c.transport.Close()
	if err != nil {
		c.logger.Error("transport close failed",
			String("conn_id", c.id),
			Error("error", err))
		return err
	}

	c.logger.Info("connection closed", String("conn_id", c.id))
	return nil
}

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// RemoteAddr returns the server address for logging.
func (c *Connection) RemoteAddr() string {
	return c.transport.RemoteAddr()
}

// runCommandLocked issues a control command (COMMIT, BEGIN, SET ...)
// through an internally created statement while the caller holds the lock.
func (c *Connection) runCommandLocked(ctx context.Context, sql string) error {
	stmt := c.newStatementLocked()
	defer stmt.closeQuietLocked()

	_, _, err := stmt.executeUpdateLocked(ctx, sql)
	return err
}

// executeLocked performs one transport round trip. Server-rejected
// commands become ExecutionErrors carrying the server text verbatim;
// transport failures propagate uninterpreted. Caller holds mu.
func (c *Connection) executeLocked(ctx context.Context, sql string, params [][]byte) (*transport.RawResult, error) {
	raw, err := c.transport.Execute(ctx, sql, params)
	if err != nil {
		var serverErr *transport.ServerError
		if errors.As(err, &serverErr) {
			return nil, ErrExecutionFailed(sql, serverErr.Message, err)
		}
		return nil, err
	}
	return raw, nil
}

// unregisterLocked removes a statement from the live set. Caller holds mu.
func (c *Connection) unregisterLocked(stmt *Statement) {
	delete(c.statements, stmt)
}
