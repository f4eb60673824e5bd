package htsplib

import (
	"crypto/sha1"
	"fmt"
	"sync"

	"github.com/lugx/htsp/htsmsg"
)

// Version is the protocol revision advertised in the hello message.
const Version = 5

// Authenticate performs the two-step handshake: a hello request whose
// response carries a challenge, then an enableAsyncMetadata request
// carrying SHA-1(password || challenge). It blocks until the chain
// resolves or AuthTimeout elapses; a rejection reports AuthError and a
// timeout reports TimeoutError, exactly one of the two. A hello response
// without a challenge reports MessageError and resolves the wait instead
// of stalling the caller. A no-op when already authenticated or not
// connected.
func (c *Conn) Authenticate(username, password string) {
	if c.IsAuthenticated() || !c.IsConnected() {
		return
	}

	done := make(chan struct{})
	var once sync.Once
	resolve := func() { once.Do(func() { close(done) }) }

	auth := htsmsg.New("enableAsyncMetadata")
	auth.Put("username", username)

	authHandler := func(resp *htsmsg.Message) {
		granted := resp.Int("noaccess", 0) != 1
		c.mu.Lock()
		c.authed = granted
		c.mu.Unlock()
		if !granted {
			c.logger().Warn("authentication rejected", "username", username)
			c.listener().OnError(AuthError)
		}
		resolve()
	}

	hello := htsmsg.New("hello")
	hello.Put("clientname", c.ClientName)
	hello.Put("clientversion", c.ClientVersion)
	hello.Put("htspversion", Version)
	hello.Put("username", username)

	c.SendMessage(hello, func(resp *htsmsg.Message) {
		challenge := resp.Bytes("challenge")
		if len(challenge) == 0 {
			c.listener().OnError(fmt.Errorf("%w: hello response carries no challenge", MessageError))
			resolve()
			return
		}

		// the digest must ride a second message with its own fresh seq,
		// sent only after the challenge has been observed
		h := sha1.New()
		h.Write([]byte(password))
		h.Write(challenge)
		auth.Put("digest", h.Sum(nil))
		c.SendMessage(auth, authHandler)
	})

	t := timerPool.acquire(c.authTimeout())
	defer timerPool.release(t)

	select {
	case <-done:
	case <-t.C:
		c.listener().OnError(TimeoutError)
	}
}
