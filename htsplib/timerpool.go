package htsplib

import (
	"sync"
	"time"
)

// timerPool recycles the timers that bound the Open and Authenticate waits.
var timerPool = &TimerPool{sp: sync.Pool{}}

type TimerPool struct {
	sp sync.Pool
}

func (p *TimerPool) acquire(timeout time.Duration) *time.Timer {
	v := p.sp.Get()
	if v == nil {
		return time.NewTimer(timeout)
	}
	t := v.(*time.Timer)
	t.Reset(timeout)
	return t
}

func (p *TimerPool) release(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	p.sp.Put(t)
}
