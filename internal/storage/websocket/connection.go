package websocket

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/streaming"
)

const (
	outboxSize     = 10_000
	ackBufferSize  = 16
	redialAttempts = 10
	firstBackoff   = time.Second
	maxBackoff     = 30 * time.Second
	writeWait      = 10 * time.Second
	handshakeWait  = 10 * time.Second
	ackTimeout     = 10 * time.Second
)

// connection owns the socket to the consumer. Envelopes are written by one
// pump goroutine in queue order; a second goroutine reads acks. Both are
// restarted after a redial.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool
	replay []byte // start_session of the active session

	outbox chan []byte
	acks   chan streaming.AckMessage
	done   chan struct{}

	target  *url.URL
	dialer  *ws.Dialer
	dropped atomic.Uint64
	log     zerolog.Logger
}

func newConnection(log zerolog.Logger) *connection {
	return &connection{
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBufferSize),
		done:   make(chan struct{}),
		dialer: &ws.Dialer{HandshakeTimeout: handshakeWait},
		log:    log,
	}
}

// dial connects once. The shared secret travels as the "secret" query
// parameter.
func (c *connection) dial(endpoint, secret string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	c.target = u

	conn, err := c.open()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

func (c *connection) open() (*ws.Conn, error) {
	conn, _, err := c.dialer.Dial(c.target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// attach installs conn and starts both goroutines for it.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.pump(conn)
	go c.receive(conn)
}

// setReplay stores the envelope resent after every redial, or clears it.
func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

func (c *connection) pump(conn *ws.Conn) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.outbox:
			if err := writeText(conn, data); err != nil {
				c.log.Warn().Err(err).Msg("WebSocket write failed")
				// The envelope in hand is lost; everything still queued
				// goes out on the new connection.
				go c.redial(conn)
				return
			}
		}
	}
}

func writeText(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (c *connection) receive(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn().Err(err).Msg("WebSocket read failed")
				go c.redial(conn)
			}
			return
		}
		c.routeAck(message)
	}
}

// routeAck forwards acks to a waiting sendAndWait. Anything else the
// consumer sends is ignored.
func (c *connection) routeAck(message []byte) {
	var ack streaming.AckMessage
	if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
		c.log.Debug().Str("raw", string(message)).Msg("Ignoring consumer message")
		return
	}
	select {
	case c.acks <- ack:
	default:
		c.log.Debug().Str("for", ack.For).Msg("No one waiting for ack, dropping")
	}
}

// redial replaces broken with a fresh connection. Both goroutines of the
// broken connection call it; only the first one acts.
func (c *connection) redial(broken *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != broken {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	_ = broken.Close()

	wait := firstBackoff
	for attempt := 1; attempt <= redialAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, maxBackoff)

		conn, err := c.open()
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt).Msg("WebSocket redial failed")
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := writeText(conn, replay); err != nil {
				c.log.Warn().Err(err).Msg("Replaying start_session failed")
				_ = conn.Close()
				continue
			}
		}

		c.log.Info().Int("attempt", attempt).Msg("WebSocket reconnected")
		c.attach(conn)
		return
	}
	c.log.Error().Int("attempts", redialAttempts).Msg("WebSocket consumer unreachable, giving up")
}

// send queues data without blocking. A full outbox drops the envelope.
func (c *connection) send(data []byte) bool {
	select {
	case c.outbox <- data:
		return true
	default:
		c.dropped.Add(1)
		c.log.Warn().Msg("WebSocket outbox full, dropping envelope")
		return false
	}
}

// sendAndWait queues data and waits for the consumer to ack msgType.
func (c *connection) sendAndWait(data []byte, msgType string, timeout time.Duration) error {
	if !c.send(data) {
		return fmt.Errorf("outbox full, %s not sent", msgType)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.acks:
			if ack.For == msgType {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", msgType)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", msgType)
		}
	}
}

func (c *connection) droppedCount() uint64 {
	return c.dropped.Load()
}

// close says goodbye to the consumer and stops both goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
	return conn.Close()
}
