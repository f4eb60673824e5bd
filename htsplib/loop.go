package htsplib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lugx/htsp/htsmsg"
)

// run dials the server and, on success, drives the connection's reader
// until it dies. The writer runs on its own goroutine, draining the
// outbound queue in FIFO order.
func (c *Conn) run(ctx context.Context, addr string, connected chan struct{}) {
	d := net.Dialer{KeepAlive: 30 * time.Second}
	sock, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.mu.Lock()
		closed := c.closed
		c.running = false
		c.mu.Unlock()
		if !closed && ctx.Err() == nil {
			c.logger().Error("dial failed", "addr", addr, "error", err)
			c.listener().OnError(fmt.Errorf("%w: %v", ConnectionRefusedError, err))
		}
		close(connected)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = sock.Close()
		close(connected)
		return
	}
	c.sock = sock
	c.mu.Unlock()
	close(connected)

	c.logger().Info("connected", "addr", addr)

	go c.writeLoop(sock)
	c.readLoop(sock)
}

// readLoop owns the socket's read side and the receive buffer. Bytes are
// accumulated until the codec can peel off a complete message; leftover
// bytes stay buffered for the next pass.
func (c *Conn) readLoop(sock net.Conn) {
	var recv []byte
	chunk := make([]byte, 4096)

	for {
		n, err := sock.Read(chunk)
		if n > 0 {
			recv = append(recv, chunk[:n]...)
			for {
				msg, rest, perr := htsmsg.Next(recv)
				if perr != nil {
					c.fail(fmt.Errorf("%w: %v", MessageError, perr))
					return
				}
				recv = rest
				if msg == nil {
					break
				}
				c.dispatch(msg)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("server went down")
			}
			c.fail(fmt.Errorf("%w: %v", ConnectionLostError, err))
			return
		}
	}
}

// writeLoop sleeps on the connection cond var until a frame is queued or
// the connection closes, then transmits one frame at a time. net.Conn
// writes do not return until the whole buffer is accepted, so an entry is
// either sent in full or the connection dies.
func (c *Conn) writeLoop(sock net.Conn) {
	for {
		c.mu.Lock()
		for len(c.writerQueue) == 0 && c.running {
			c.writerCond.Wait()
		}
		if !c.running {
			c.mu.Unlock()
			return
		}
		pw := c.writerQueue[0]
		c.writerQueue = c.writerQueue[1:]
		c.mu.Unlock()

		_, err := sock.Write(pw.buf.B)
		pendingWritePool.release(pw)
		if err != nil {
			c.fail(fmt.Errorf("%w: %v", ConnectionLostError, err))
			return
		}
	}
}

// fail reports a fatal fault and closes the connection, at most once for
// its lifetime. Faults observed after a deliberate Close are not reported.
func (c *Conn) fail(err error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return
	}
	c.failOnce.Do(func() {
		c.logger().Error("connection failed", "error", err)
		c.listener().OnError(err)
		c.Close()
	})
}
