// Package channel owns the live push-channel connection and its state
// machine. One Conn belongs to exactly one conversation session; it is
// never shared or reused after Close.
package channel

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"matchakit/logger"
	"matchakit/tools/errs"
	"matchakit/tools/safe"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handlers receive inbound frames and state transitions. OnFrame is
// called from the read goroutine in arrival order.
type Handlers struct {
	OnFrame func(raw []byte)
	OnState func(s State)
}

// Transport is what the session consumes; tests substitute fakes.
type Transport interface {
	Open(ctx context.Context) error
	SendJSON(v any) error
	Close()
	IsLive() bool
}

type Conf struct {
	URL         string // full ws endpoint, credential already in the handshake query
	DialTimeout time.Duration
}

func (c *Conf) norm() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

// Conn is a single logical connection to the push transport.
//
// States: Disconnected -> Connecting -> Connected -> Disconnected.
// Network-level closure or error lands back in Disconnected and is NOT
// retried here; the outbound send path's fallback covers the gap.
type Conn struct {
	conf Conf
	h    Handlers

	mu     sync.Mutex
	ws     *websocket.Conn
	state  State
	closed bool

	closeOnce sync.Once
}

var _ Transport = (*Conn)(nil)

func New(conf Conf, h Handlers) *Conn {
	conf.norm()
	return &Conn{conf: conf, h: h}
}

// Open dials the gateway. An open failure leaves the conn Disconnected
// and is returned to the caller; the session treats it as recoverable.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errs.ErrChannelDown.WithDetail("connection already closed")
	}
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return errs.ErrChannelDown.WithDetail("open already in progress")
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.emit(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.conf.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, c.conf.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		c.emit(StateDisconnected)
		return errors.Wrap(err, "dial live channel")
	}

	c.mu.Lock()
	if c.closed {
		// Torn down while the handshake was in flight.
		c.mu.Unlock()
		_ = ws.Close()
		return errs.ErrChannelDown.WithDetail("connection already closed")
	}
	c.ws = ws
	c.state = StateConnected
	c.mu.Unlock()
	c.emit(StateConnected)

	safe.Go(func() { c.readLoop(ws) })
	return nil
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("[channel] read ended: %v", err)
			}
			c.markDisconnected()
			return
		}
		if c.h.OnFrame != nil {
			c.h.OnFrame(raw)
		}
	}
}

// SendJSON writes one frame. Only valid while Connected; a write error
// drops the connection to Disconnected.
func (c *Conn) SendJSON(v any) error {
	c.mu.Lock()
	if c.state != StateConnected || c.ws == nil {
		c.mu.Unlock()
		return errs.ErrChannelDown
	}
	err := c.ws.WriteJSON(v)
	c.mu.Unlock()
	if err != nil {
		c.markDisconnected()
		return errors.Wrap(err, "write live channel")
	}
	return nil
}

// Close forcibly closes the transport regardless of state. Idempotent.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		ws := c.ws
		c.ws = nil
		was := c.state
		c.state = StateDisconnected
		c.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
		if was != StateDisconnected {
			c.emit(StateDisconnected)
		}
	})
}

func (c *Conn) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

func (c *Conn) markDisconnected() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
	c.emit(StateDisconnected)
}

func (c *Conn) emit(s State) {
	if c.h.OnState != nil {
		c.h.OnState(s)
	}
}
