// Package htsplib implements the client side of the HTSP protocol: a
// single long-lived TCP connection multiplexing many concurrently
// outstanding request/response pairs, correlated by sequence number.
package htsplib

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"
)

const defaultTimeout = 5 * time.Second

// Conn is a single-use client connection. The zero value with a Listener,
// ClientName and ClientVersion set is ready for Open. Once closed, a Conn
// stays closed; build a new one to reconnect.
type Conn struct {
	Listener Listener
	Logger   Logger

	// Client identity advertised during the authentication handshake.
	ClientName    string
	ClientVersion string

	// DialTimeout bounds Open, AuthTimeout bounds Authenticate.
	// Both default to 5 seconds.
	DialTimeout time.Duration
	AuthTimeout time.Duration

	mu      sync.Mutex
	running bool
	closed  bool
	authed  bool
	sock    net.Conn

	seq     uint32
	pending map[uint32]ResponseHandler

	writerQueue []*pendingWrite
	writerCond  sync.Cond

	connected  chan struct{}
	dialCancel context.CancelFunc
	failOnce   sync.Once
}

// Open dials the server and blocks until the connection is established,
// the dial fails, or DialTimeout elapses. A failed dial reports
// ConnectionRefusedError and a timeout reports TimeoutError, both through
// the Listener. Calling Open on a running or closed Conn is a no-op.
func (c *Conn) Open(host string, port int) {
	c.mu.Lock()
	if c.running || c.closed {
		c.mu.Unlock()
		return
	}
	c.writerCond.L = &c.mu
	c.pending = make(map[uint32]ResponseHandler)
	c.connected = make(chan struct{})
	connected := c.connected

	ctx, cancel := context.WithCancel(context.Background())
	c.dialCancel = cancel
	c.running = true

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	go c.run(ctx, addr, connected)
	c.mu.Unlock()

	t := timerPool.acquire(c.dialTimeout())
	defer timerPool.release(t)

	select {
	case <-connected:
		// dial resolved; a refused dial has already been reported
	case <-t.C:
		if c.IsConnected() {
			return
		}
		c.listener().OnError(TimeoutError)
		c.Close()
	}
}

// Close tears the connection down: pending response handlers are dropped
// without being invoked, queued outbound messages are discarded and the
// socket is released. Safe to call multiple times. Close does not wake a
// caller blocked inside Open or Authenticate; such a caller unblocks when
// its own timeout elapses.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.running = false
	c.authed = false

	for seq := range c.pending {
		delete(c.pending, seq)
	}
	for _, pw := range c.writerQueue {
		pendingWritePool.release(pw)
	}
	c.writerQueue = nil

	if c.dialCancel != nil {
		c.dialCancel()
	}
	sock := c.sock
	c.sock = nil
	if c.writerCond.L != nil {
		c.writerCond.Broadcast()
	}
	c.mu.Unlock()

	if sock != nil {
		_ = sock.Close() // teardown, failures swallowed
	}
	c.logger().Debug("connection closed")
}

func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock != nil && c.running
}

func (c *Conn) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authed
}

func (c *Conn) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return defaultTimeout
}

func (c *Conn) authTimeout() time.Duration {
	if c.AuthTimeout > 0 {
		return c.AuthTimeout
	}
	return defaultTimeout
}

func (c *Conn) listener() Listener {
	if c.Listener != nil {
		return c.Listener
	}
	return DefaultListener
}

func (c *Conn) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger()
}
