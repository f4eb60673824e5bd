package htsplib

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lugx/htsp/htsmsg"
)

// recordingListener collects every Listener callback for later assertions.
type recordingListener struct {
	mu   sync.Mutex
	errs []error
	msgs []*htsmsg.Message
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *recordingListener) OnMessage(msg *htsmsg.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *recordingListener) countCode(code ErrorCode) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, err := range l.errs {
		if errors.Is(err, code) {
			n++
		}
	}
	return n
}

func (l *recordingListener) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errs)
}

func (l *recordingListener) messageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// testServer accepts loopback connections and feeds every decoded message
// to handle, which may write replies straight to the conn.
type testServer struct {
	t      *testing.T
	ln     net.Listener
	handle func(conn net.Conn, msg *htsmsg.Message)

	wg sync.WaitGroup

	mu    sync.Mutex
	conns []net.Conn
}

func newTestServer(t *testing.T, handle func(conn net.Conn, msg *htsmsg.Message)) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &testServer{t: t, ln: ln, handle: handle}
	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

func (s *testServer) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.readLoop(conn)
	}
}

func (s *testServer) readLoop(conn net.Conn) {
	defer s.wg.Done()
	var recv []byte
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			recv = append(recv, chunk[:n]...)
			for {
				msg, rest, perr := htsmsg.Next(recv)
				if perr != nil {
					return
				}
				recv = rest
				if msg == nil {
					break
				}
				if s.handle != nil {
					s.handle(conn, msg)
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *testServer) hostPort() (string, int) {
	addr := s.ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func (s *testServer) stop() {
	_ = s.ln.Close()
	s.mu.Lock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// reply echoes the request's seq onto resp and writes it out.
func reply(t *testing.T, conn net.Conn, req, resp *htsmsg.Message) {
	t.Helper()
	resp.Put("seq", req.Int("seq", 0))
	_, err := conn.Write(resp.AppendTo(nil))
	require.NoError(t, err)
}
