package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorcon/rcon"

	"github.com/okian/deathboard/pkg/logger"
)

// Default RCON client configuration constants.
const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 5
)

// ErrUnavailable is returned when no RCON connection could be established.
var ErrUnavailable = errors.New("rcon unavailable")

// Executor runs one console command and returns the server's reply.
type Executor interface {
	Execute(ctx context.Context, cmd string) (string, error)
}

// Client is an Executor over a lazily dialed RCON connection. A failed
// command drops the connection; the next command redials with backoff.
// Commands themselves are never retried, since summon is not idempotent.
type Client struct {
	addr       string
	password   string
	timeout    time.Duration
	maxRetries uint64
	newBackOff func() backoff.BackOff

	mu   sync.Mutex
	conn *rcon.Conn

	logger logger.Logger
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithTimeout sets the dial and per-command deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a dial is retried before giving up.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackOff sets the dial backoff policy factory.
func WithBackOff(fn func() backoff.BackOff) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.newBackOff = fn
		}
	}
}

// WithClientLogger sets a custom logger for the client.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates an RCON client for addr. No connection is made until the
// first command.
func NewClient(addr, password string, opts ...ClientOption) *Client {
	c := &Client{
		addr:       addr,
		password:   password,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     logger.Get().Named("rcon"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute implements Executor.
func (c *Client) Execute(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return "", err
	}

	resp, err := c.conn.Execute(cmd)
	if err != nil {
		c.closeLocked()
		return "", fmt.Errorf("rcon execute: %w", err)
	}
	return resp, nil
}

// Close closes the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

// connect must be called with c.mu held.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	err := backoff.Retry(func() error {
		conn, err := rcon.Dial(c.addr, c.password,
			rcon.SetDialTimeout(c.timeout),
			rcon.SetDeadline(c.timeout),
		)
		if err != nil {
			if errors.Is(err, rcon.ErrAuthFailed) {
				return backoff.Permanent(err)
			}
			c.logger.Warn(ctx, "rcon connection failed, retrying", logger.String("addr", c.addr), logger.Error(err))
			return err
		}
		c.conn = conn
		return nil
	}, b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.logger.Info(ctx, "rcon connected", logger.String("addr", c.addr))
	return nil
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
