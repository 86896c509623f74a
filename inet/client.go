/*
Package inet handles connecting to an irc server and reading and writing
protocol lines on the connection.
*/
package inet

import (
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

const (
	// readChunkSize is the size of each read from the connection.
	readChunkSize = 4096
	// maxLineLength bounds the partial-line buffer. The protocol caps lines
	// at 512 bytes but tags and sloppy servers run longer; anything past
	// this bound is a desynced or hostile peer.
	maxLineLength = 8192
	// defaultPlainPort and defaultTLSPort are used when the server address
	// carries no port.
	defaultPlainPort = "6667"
	defaultTLSPort   = "6697"
)

// ErrLineTooLong is returned by ReadLine when the peer sends a line longer
// than the partial-line bound. It is fatal for the connection.
var ErrLineTooLong = errors.New("inet: line exceeds maximum length")

// Dialer is the subset of net.Dialer used to establish connections, narrow
// so tests can substitute scripted connections.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// Config controls how Dial establishes the connection.
type Config struct {
	// TLS enables a TLS transport using this configuration. ServerName is
	// filled from the dialed host when empty.
	TLS *tls.Config
	// ProxyAddr routes the connection through a SOCKS5 proxy when non-empty.
	ProxyAddr string
	// DialTimeout bounds the TCP connect and TLS handshake.
	DialTimeout time.Duration
	// Dialer overrides the transport used to reach the server.
	Dialer Dialer
}

// Client is a sequential line-oriented connection to an irc server. It is
// owned by exactly one session and is not safe for concurrent use.
type Client struct {
	conn net.Conn

	// partial inbound data carried between reads
	buf []byte
	// complete lines extracted but not yet returned
	lines [][]byte

	scratch []byte
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:    conn,
		scratch: make([]byte, readChunkSize),
	}
}

// Dial connects to an irc server given as host or host:port, applying the
// proxy and TLS settings from cfg.
func Dial(addr string, cfg Config) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		if cfg.TLS != nil {
			port = defaultTLSPort
		} else {
			port = defaultPlainPort
		}
	}
	target := net.JoinHostPort(host, port)

	var dialer Dialer = &net.Dialer{Timeout: cfg.DialTimeout}
	if cfg.Dialer != nil {
		dialer = cfg.Dialer
	}
	if cfg.ProxyAddr != "" {
		dialer, err = proxy.SOCKS5("tcp", cfg.ProxyAddr, nil,
			dialer.(proxy.Dialer))
		if err != nil {
			return nil, errors.Wrap(err, "inet: failed to create proxy dialer")
		}
	}

	conn, err := dialer.Dial("tcp", target)
	if err != nil {
		return nil, errors.Wrapf(err, "inet: failed to connect to %s", target)
	}

	if cfg.TLS != nil {
		tlsConf := cfg.TLS.Clone()
		if tlsConf.ServerName == "" {
			tlsConf.ServerName = host
		}
		tlsConn := tls.Client(conn, tlsConf)
		if cfg.DialTimeout > 0 {
			tlsConn.SetDeadline(time.Now().Add(cfg.DialTimeout))
		}
		if err = tlsConn.Handshake(); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "inet: tls handshake with %s failed",
				target)
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	return NewClient(conn), nil
}

// ReadLine returns the next protocol line without its terminator, blocking
// until one arrives, the deadline passes, or the connection dies. A timeout
// surfaces as a net.Error with Timeout() true. Exceeding the partial-line
// bound returns ErrLineTooLong.
func (c *Client) ReadLine(deadline time.Time) ([]byte, error) {
	for {
		if len(c.lines) > 0 {
			line := c.lines[0]
			c.lines = c.lines[1:]
			return line, nil
		}

		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		n, err := c.conn.Read(c.scratch)
		if n > 0 {
			c.buf = append(c.buf, c.scratch[:n]...)
			c.extractLines()
			if len(c.buf) > maxLineLength {
				return nil, ErrLineTooLong
			}
		}
		if err != nil && len(c.lines) == 0 {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// extractLines splits c.buf on line terminators, appending each complete
// line to c.lines and retaining the unterminated remainder. Lines are split
// on \n with an optional preceding \r so that servers sending bare newlines
// still decode.
func (c *Client) extractLines() {
	start := 0
	for i := 0; i < len(c.buf); i++ {
		if c.buf[i] != '\n' {
			continue
		}
		end := i
		if end > start && c.buf[end-1] == '\r' {
			end--
		}
		if end == start {
			start = i + 1
			continue
		}
		line := make([]byte, end-start)
		copy(line, c.buf[start:end])
		c.lines = append(c.lines, line)
		start = i + 1
	}
	if start > 0 {
		c.buf = append(c.buf[:0], c.buf[start:]...)
	}
}

// WriteLine writes a line followed by CRLF, bounded by the deadline.
func (c *Client) WriteLine(line string, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	buf := make([]byte, 0, len(line)+2)
	buf = append(buf, line...)
	buf = append(buf, '\r', '\n')
	for len(buf) > 0 {
		n, err := c.conn.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Client) Close() error {
	return c.conn.Close()
}
