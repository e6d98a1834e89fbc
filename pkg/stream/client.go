// Package stream owns the live-connection lifecycle to the orchestrator's
// telemetry endpoint: dial, read loop, reconnect with bounded backoff, and
// teardown. Every frame that parses as an envelope is handed, in arrival
// order, to a single callback — the one ingestion point for the router.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fleetdeck/pkg/telemetry"
)

// Connection states reported through OnState.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// ErrClosed is returned by Run after Close ends the client.
var ErrClosed = errors.New("stream client closed")

// reconnectBase is the first retry interval after a dropped connection.
const reconnectBase = 1 * time.Second

// reconnectCeiling caps the exponential backoff.
const reconnectCeiling = 30 * time.Second

// reconnectJitter is the maximum jitter added to each retry interval.
const reconnectJitter = 500 * time.Millisecond

// Options configures a Client.
type Options struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string

	// OnEnvelope receives every parsed envelope in arrival order. Required.
	OnEnvelope func(telemetry.Envelope)

	// OnState, if set, observes connection-state transitions. State changes
	// never mutate agent state.
	OnState func(State)

	// Quiet suppresses transport-layer log lines.
	Quiet bool

	// dial overrides the websocket dialer for tests.
	dial func(url string) (conn, error)
}

// conn is the subset of *websocket.Conn the read loop needs.
type conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

// Client maintains one live connection to the telemetry endpoint. Transport
// errors are retried with capped, jittered exponential backoff until Close.
type Client struct {
	opts    Options
	session string

	mu     sync.Mutex
	conn   conn
	closed bool
}

// New creates a Client. It does not connect; call Run.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("stream: URL required")
	}
	if opts.OnEnvelope == nil {
		return nil, fmt.Errorf("stream: OnEnvelope callback required")
	}
	if opts.dial == nil {
		opts.dial = func(url string) (conn, error) {
			c, _, err := websocket.DefaultDialer.Dial(url, nil) //nolint:bodyclose // gorilla owns the response body after upgrade
			return c, err
		}
	}
	return &Client{opts: opts, session: uuid.New().String()}, nil
}

// Session returns the id assigned to this client's connection lifetime.
func (c *Client) Session() string { return c.session }

// Run connects and pumps envelopes until ctx is cancelled or Close is called.
// It returns ErrClosed after an explicit Close, nil on context cancellation.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if stop, err := c.done(ctx); stop {
			return err
		}

		c.setState(StateConnecting)
		wc, err := c.opts.dial(c.opts.URL)
		if err != nil {
			if !c.opts.Quiet {
				log.Printf("stream %s: dial %s: %v", c.session, c.opts.URL, err)
			}
			if c.backoff(ctx, attempt) {
				continue // re-check terminal conditions at loop top
			}
			attempt++
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = wc.Close()
			return ErrClosed
		}
		c.conn = wc
		c.mu.Unlock()

		c.setState(StateOpen)
		attempt = 0

		err = c.readLoop(wc)
		c.mu.Lock()
		c.conn = nil
		closed := c.closed
		c.mu.Unlock()

		if closed {
			c.setState(StateClosed)
			return ErrClosed
		}
		if ctx.Err() != nil {
			c.setState(StateClosed)
			return nil
		}
		if !c.opts.Quiet {
			log.Printf("stream %s: connection lost: %v (reconnecting)", c.session, err)
		}
		if !c.backoff(ctx, attempt) {
			attempt++
		}
	}
}

// readLoop pumps frames from one connection until it errors. Frames that do
// not parse as envelopes are counted and skipped; they never break the loop.
func (c *Client) readLoop(wc conn) error {
	for {
		_, frame, err := wc.ReadMessage()
		if err != nil {
			return err
		}
		env, err := telemetry.ParseEnvelope(frame, time.Now())
		if err != nil {
			if !c.opts.Quiet {
				log.Printf("stream %s: dropping frame: %v", c.session, err)
			}
			continue
		}
		c.opts.OnEnvelope(env)
	}
}

// backoff sleeps for the attempt's capped, jittered interval. It returns true
// when the wait was interrupted by cancellation or Close, so the caller can
// re-check terminal conditions instead of counting the attempt.
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	wait := reconnectBase << min(attempt, 10)
	if wait > reconnectCeiling {
		wait = reconnectCeiling
	}
	wait += time.Duration(rand.Int63n(int64(reconnectJitter))) //nolint:gosec // jitter doesn't need crypto rand

	select {
	case <-ctx.Done():
		return true
	case <-time.After(wait):
		return false
	}
}

// done reports terminal conditions: an explicit Close (stop with ErrClosed)
// or context cancellation (stop with nil, the clean-shutdown result).
func (c *Client) done(ctx context.Context) (bool, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.setState(StateClosed)
		return true, ErrClosed
	}
	if ctx.Err() != nil {
		c.setState(StateClosed)
		return true, nil
	}
	return false, nil
}

// Close terminally shuts the client down, suppressing further retries.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	wc := c.conn
	c.conn = nil
	c.mu.Unlock()

	if wc != nil {
		_ = wc.Close()
	}
}

func (c *Client) setState(s State) {
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}
