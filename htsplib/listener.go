package htsplib

import "github.com/lugx/htsp/htsmsg"

// Listener receives connection-level failures and inbound messages that were
// not matched to a pending request. Callbacks fire on the connection's
// reader goroutine; implementations must not block it.
type Listener interface {
	OnError(err error)
	OnMessage(msg *htsmsg.Message)
}

// ListenerFuncs adapts plain functions to the Listener interface. Nil
// members are ignored.
type ListenerFuncs struct {
	Error   func(err error)
	Message func(msg *htsmsg.Message)
}

func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}

func (l ListenerFuncs) OnMessage(msg *htsmsg.Message) {
	if l.Message != nil {
		l.Message(msg)
	}
}

var DefaultListener Listener = ListenerFuncs{}
