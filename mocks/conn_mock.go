/*
Package mocks provides a scripted net.Conn for conversation tests. A test
feeds server lines with Send and collects client lines with Recv while the
code under test uses the Conn as a real connection, read deadlines included.
*/
package mocks

import (
	"net"
	"sync"
	"time"
)

// timeoutError satisfies net.Error for expired read deadlines.
type timeoutError struct{}

func (timeoutError) Error() string   { return "mocks: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeAddr satisfies net.Addr.
type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// Conn is a scripted bidirectional connection.
type Conn struct {
	readData chan []byte
	writes   chan []byte

	mu           sync.Mutex
	leftover     []byte
	readDeadline time.Time
	closed       chan struct{}
	closeOnce    sync.Once
}

// NewConn creates a scripted connection.
func NewConn() *Conn {
	return &Conn{
		readData: make(chan []byte, 64),
		writes:   make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

// Send queues bytes for the client side to read.
func (c *Conn) Send(s string) {
	select {
	case c.readData <- []byte(s):
	case <-c.closed:
	}
}

// Recv blocks for the next Write made by the code under test, up to the
// given wait. It returns an empty string when the connection closes or the
// wait expires first.
func (c *Conn) Recv(wait time.Duration) string {
	select {
	case b := <-c.writes:
		return string(b)
	case <-c.closed:
		// drain writes that raced with close
		select {
		case b := <-c.writes:
			return string(b)
		default:
			return ""
		}
	case <-time.After(wait):
		return ""
	}
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// WaitClosed blocks until Close is called or the wait expires, reporting
// whether the connection closed.
func (c *Conn) WaitClosed(wait time.Duration) bool {
	select {
	case <-c.closed:
		return true
	case <-time.After(wait):
		return false
	}
}

// Read serves previously Sent bytes, honoring the read deadline.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	if len(c.leftover) > 0 {
		n := copy(p, c.leftover)
		c.leftover = c.leftover[n:]
		c.mu.Unlock()
		return n, nil
	}
	deadline := c.readDeadline
	c.mu.Unlock()

	var expire <-chan time.Time
	if !deadline.IsZero() {
		wait := time.Until(deadline)
		if wait <= 0 {
			return 0, timeoutError{}
		}
		expire = time.After(wait)
	}

	select {
	case data := <-c.readData:
		n := copy(p, data)
		if n < len(data) {
			c.mu.Lock()
			c.leftover = append(c.leftover, data[n:]...)
			c.mu.Unlock()
		}
		return n, nil
	case <-c.closed:
		return 0, net.ErrClosed
	case <-expire:
		return 0, timeoutError{}
	}
}

// Write hands the written bytes to the test script.
func (c *Conn) Write(p []byte) (int, error) {
	select {
	case <-c.closed:
		return 0, net.ErrClosed
	default:
	}

	buf := make([]byte, len(p))
	copy(buf, p)
	select {
	case c.writes <- buf:
		return len(p), nil
	case <-c.closed:
		return 0, net.ErrClosed
	}
}

// Close unblocks all pending operations. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// LocalAddr returns a fixed fake address.
func (c *Conn) LocalAddr() net.Addr { return fakeAddr("127.0.0.1:0") }

// RemoteAddr returns a fixed fake address.
func (c *Conn) RemoteAddr() net.Addr { return fakeAddr("127.0.0.1:6667") }

// SetDeadline sets the read deadline; writes never block meaningfully here.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

// SetReadDeadline bounds future Reads.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

// SetWriteDeadline is accepted and ignored.
func (c *Conn) SetWriteDeadline(t time.Time) error { return nil }

// Dialer always hands out the given scripted connection.
type Dialer struct {
	Conn *Conn
	// Err, when set, makes Dial fail instead.
	Err error
	// Addr records the last address dialed.
	Addr string
}

// Dial satisfies inet.Dialer.
func (d *Dialer) Dial(network, addr string) (net.Conn, error) {
	d.Addr = addr
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Conn, nil
}
