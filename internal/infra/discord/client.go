package discord

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrUnavailable = errors.New("discord is not running")
	ErrBackoff     = errors.New("discord reconnect backing off")
	ErrClosed      = errors.New("discord connection closed by peer")
)

const (
	minBackoff = 2 * time.Second
	maxBackoff = time.Minute
)

// DialFunc opens a raw IPC connection.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Client holds a lazily opened IPC connection.
// Failed connections are retried no sooner than an exponential backoff.
type Client struct {
	appID string
	dial  DialFunc
	clock clockwork.Clock
	pid   int

	mu          sync.Mutex
	conn        io.ReadWriteCloser
	backoff     time.Duration
	nextAttempt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the platform IPC dialer.
func WithDialer(d DialFunc) Option {
	return func(c *Client) { c.dial = d }
}

// WithClock replaces the clock used for backoff.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// NewClient creates a client for the given application ID. No connection
// is made until the first request.
func NewClient(appID string, opts ...Option) *Client {
	c := &Client{
		appID: appID,
		dial:  dialIPC,
		clock: clockwork.NewRealClock(),
		pid:   os.Getpid(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SetActivity replaces the presence. A nil activity clears it.
func (c *Client) SetActivity(ctx context.Context, a *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(ctx); err != nil {
		return err
	}

	args, err := json.Marshal(activityArgs{PID: c.pid, Activity: a})
	if err != nil {
		return errors.Wrap(err, "failed to encode activity")
	}
	nonce := uuid.New().String()
	if err := c.roundTrip(ctx, opFrame, command{Cmd: "SET_ACTIVITY", Args: args, Nonce: nonce}, nonce); err != nil {
		c.dropLocked(err)
		return err
	}
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = writeFrame(c.conn, opClose, struct{}{})
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) ensureConnected(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	now := c.clock.Now()
	if now.Before(c.nextAttempt) {
		return ErrBackoff
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.scheduleRetry(now)
		return errors.Wrap(err, "failed to connect")
	}
	c.conn = conn

	if err := c.roundTrip(ctx, opHandshake, handshake{V: 1, ClientID: c.appID}, ""); err != nil {
		c.dropLocked(err)
		return errors.Wrap(err, "handshake failed")
	}

	c.backoff = 0
	c.nextAttempt = time.Time{}
	zlog.Debug().Msgf("discord: connected app_id=%s", c.appID)
	return nil
}

// roundTrip writes one frame and reads until the matching reply.
// An empty nonce matches the READY dispatch that follows the handshake.
func (c *Client) roundTrip(ctx context.Context, op uint32, payload any, nonce string) error {
	if dl, ok := ctx.Deadline(); ok {
		if d, ok := c.conn.(interface{ SetDeadline(time.Time) error }); ok {
			_ = d.SetDeadline(dl)
			defer func() { _ = d.SetDeadline(time.Time{}) }()
		}
	}

	if err := writeFrame(c.conn, op, payload); err != nil {
		return err
	}

	for {
		rop, body, err := readFrame(c.conn)
		if err != nil {
			return err
		}
		switch rop {
		case opPing:
			if err := writeFrame(c.conn, opPong, json.RawMessage(body)); err != nil {
				return err
			}
			continue
		case opClose:
			var r response
			_ = json.Unmarshal(body, &r)
			return errors.Wrapf(ErrClosed, "code=%d message=%s", r.Code, r.Msg)
		case opFrame:
		default:
			continue
		}

		var r response
		if err := json.Unmarshal(body, &r); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
		if nonce == "" {
			if r.Evt == "READY" {
				return nil
			}
			if r.Evt == "ERROR" {
				return responseError(r)
			}
			continue
		}
		if r.Nonce != nonce {
			continue
		}
		if r.Evt == "ERROR" {
			return responseError(r)
		}
		return nil
	}
}

func responseError(r response) error {
	var d errorData
	_ = json.Unmarshal(r.Data, &d)
	return errors.Newf("discord error %d: %s", d.Code, d.Message)
}

func (c *Client) dropLocked(cause error) {
	zlog.Debug().Err(cause).Msg("discord: dropping connection")
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.scheduleRetry(c.clock.Now())
}

func (c *Client) scheduleRetry(now time.Time) {
	switch {
	case c.backoff == 0:
		c.backoff = minBackoff
	case c.backoff < maxBackoff:
		c.backoff *= 2
		if c.backoff > maxBackoff {
			c.backoff = maxBackoff
		}
	}
	c.nextAttempt = now.Add(c.backoff)
}
