package htsplib

import (
	"sync"

	"github.com/valyala/bytebufferpool"
)

var pendingWritePool = &PendingWritePool{sp: sync.Pool{}}

// pendingWrite is an outbound queue entry: one serialized frame awaiting
// transmission. Enqueued by caller goroutines under the connection lock,
// dequeued only by the writer goroutine.
type pendingWrite struct {
	buf *bytebufferpool.ByteBuffer // serialized frame
}

type PendingWritePool struct {
	sp sync.Pool
}

func (p *PendingWritePool) acquire(buf *bytebufferpool.ByteBuffer) *pendingWrite {
	v := p.sp.Get()
	if v == nil {
		v = &pendingWrite{}
	}
	pw := v.(*pendingWrite)
	pw.buf = buf
	return pw
}

func (p *PendingWritePool) release(pw *pendingWrite) {
	bytebufferpool.Put(pw.buf)
	pw.buf = nil
	p.sp.Put(pw)
}
