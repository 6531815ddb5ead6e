package rpc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/walletlink/internal/litelib"
)

// Config is the server a connection was bootstrapped against.
type Config struct {
	Server    string
	Dangerous bool
}

// Options supply the collaborators of a Connection. Nil Pool and Reporter
// are replaced with fresh defaults.
type Options struct {
	Backend  litelib.Backend
	Pool     *Pool
	Reporter *ErrorReporter
}

// Connection is the single point through which commands reach the daemon.
type Connection struct {
	ctx      context.Context
	config   Config
	executor Executor
	pool     *Pool
	reporter *ErrorReporter
	shutdown atomic.Bool

	mu   sync.RWMutex
	info Reply
}

// NewConnection builds a connection for cfg. ctx bounds every request the
// connection runs.
func NewConnection(ctx context.Context, cfg Config, opts Options) *Connection {
	if ctx == nil {
		ctx = context.Background()
	}
	pool := opts.Pool
	if pool == nil {
		pool = NewPool(0)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NewErrorReporter()
	}
	return &Connection{
		ctx:      ctx,
		config:   cfg,
		executor: NewExecutor(opts.Backend),
		pool:     pool,
		reporter: reporter,
	}
}

// Config returns the server configuration.
func (c *Connection) Config() Config {
	return c.config
}

// Info returns the reply stored by SetInfo.
func (c *Connection) Info() Reply {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// SetInfo records the daemon's info reply as connection metadata.
func (c *Connection) SetInfo(info Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
}

// Issue schedules command on the worker pool. The returned tea.Cmd yields a
// Delivery that must be resolved on the event loop. After Shutdown, Issue
// returns nil and neither continuation ever runs.
func (c *Connection) Issue(command, args string, onSuccess SuccessFunc, onError ErrorFunc) tea.Cmd {
	if c.ShuttingDown() {
		return nil
	}
	req := NewRequest(command, args)
	cb := NewCallback(onSuccess, onError)
	return func() tea.Msg {
		var res Result
		if err := c.pool.Do(c.ctx, func() { res = c.executor.Run(c.ctx, req) }); err != nil {
			res = Failure(fmt.Sprintf("Error: %v", err))
		}
		return Delivery{conn: c, request: req, callback: cb, result: res}
	}
}

// IssueWithDefaultErrorHandling is Issue with failures routed to
// ReportTransactionError.
func (c *Connection) IssueWithDefaultErrorHandling(command, args string, onSuccess SuccessFunc) tea.Cmd {
	return c.Issue(command, args, onSuccess, c.ReportTransactionError)
}

// IssueIgnoringError is Issue with failures dropped.
func (c *Connection) IssueIgnoringError(command, args string, onSuccess SuccessFunc) tea.Cmd {
	return c.Issue(command, args, onSuccess, ignoreError)
}

// ReportTransactionError surfaces message through the shared reporter.
func (c *Connection) ReportTransactionError(message string) tea.Msg {
	return c.reporter.Report(message)
}

// Shutdown stops all future requests. It cannot be undone and may be called
// any number of times.
func (c *Connection) Shutdown() {
	c.shutdown.Store(true)
}

// ShuttingDown reports whether Shutdown has been called.
func (c *Connection) ShuttingDown() bool {
	return c.shutdown.Load()
}

// Delivery carries a finished request back to the event loop.
type Delivery struct {
	conn     *Connection
	request  Request
	callback *Callback
	result   Result
}

// Request returns the request this delivery answers.
func (d Delivery) Request() Request {
	return d.request
}

// Result returns the outcome carried by the delivery.
func (d Delivery) Result() Result {
	return d.result
}

// Resolve runs the request's continuation and returns its message. When the
// connection shut down after the request was dispatched the result is
// dropped and Resolve returns nil.
func (d Delivery) Resolve() tea.Msg {
	if d.callback == nil {
		return nil
	}
	if d.conn == nil || d.conn.ShuttingDown() {
		d.callback.Discard()
		return nil
	}
	return d.callback.Fire(d.result)
}
