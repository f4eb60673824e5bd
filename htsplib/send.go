package htsplib

import (
	"github.com/valyala/bytebufferpool"

	"github.com/lugx/htsp/htsmsg"
)

// ResponseHandler is invoked at most once, on the reader goroutine, with
// the response correlated to the request it was registered with. Handlers
// registered on a connection that closes first are dropped without being
// invoked.
type ResponseHandler func(msg *htsmsg.Message)

// SendMessage assigns the message a fresh sequence number, registers the
// optional handler under it and queues the serialized frame for the
// writer. A no-op when not connected. Concurrent senders are serialized
// by the connection lock: whoever acquires it first gets the lower
// sequence number and the earlier position on the wire.
func (c *Conn) SendMessage(msg *htsmsg.Message, handler ResponseHandler) {
	c.mu.Lock()
	if c.sock == nil || !c.running {
		c.mu.Unlock()
		return
	}

	c.seq++
	msg.Put("seq", c.seq)
	c.pending[c.seq] = handler

	buf := bytebufferpool.Get()
	buf.B = msg.AppendTo(buf.B)
	c.writerQueue = append(c.writerQueue, pendingWritePool.acquire(buf))
	c.writerCond.Signal()
	c.mu.Unlock()
}

// dispatch routes one inbound message: to its registered response handler
// when the seq matches, to the Listener as unsolicited otherwise. A late
// response whose handler was already dropped counts as unsolicited.
func (c *Conn) dispatch(msg *htsmsg.Message) {
	if msg.Has("seq") {
		seq := uint32(msg.Int("seq", 0))

		c.mu.Lock()
		handler, ok := c.pending[seq]
		if ok {
			delete(c.pending, seq)
		}
		c.mu.Unlock()

		if ok && handler != nil {
			handler(msg)
			return
		}
	}

	c.listener().OnMessage(msg)
}
