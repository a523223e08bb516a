// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/tictactoe/internal/frontend/telnet"
)

// TelnetClient is a minimal Telnet client for integration tests. Output is
// compared with ANSI styling and IAC negotiation removed.
type TelnetClient struct {
	conn    net.Conn
	t       *testing.T
	raw     []byte
	pending string
}

// NewTelnetClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected TelnetClient or fails the test.
func NewTelnetClient(t *testing.T, addr string) *TelnetClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() { _ = conn.Close() })

	t.Logf("telnet client connected to %s [%s]", addr, time.Since(start))
	return &TelnetClient{conn: conn, t: t}
}

// ReadUntil returns plain text up to and including the first occurrence of
// substr. Output after the match is kept for the next call.
//
// Precondition: substr must be non-empty.
// Postcondition: Returns the consumed output ending with substr, or fails on timeout.
func (c *TelnetClient) ReadUntil(substr string, timeout time.Duration) string {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	tmp := make([]byte, 1024)
	for {
		if i := strings.Index(c.pending, substr); i >= 0 {
			end := i + len(substr)
			out := c.pending[:end]
			c.pending = c.pending[end:]
			return out
		}
		n, err := c.conn.Read(tmp)
		if n > 0 {
			c.raw = append(c.raw, tmp[:n]...)
			ready := complete(c.raw)
			c.pending += plain(c.raw[:ready])
			c.raw = append(c.raw[:0], c.raw[ready:]...)
		}
		if err != nil {
			c.t.Fatalf("reading until %q: got %q, error: %v", substr, c.pending, err)
		}
	}
}

// complete returns the length of the prefix of data that does not end in
// the middle of an escape or Telnet command.
func complete(data []byte) int {
	for i := len(data) - 1; i >= 0 && i >= len(data)-2; i-- {
		if data[i] == telnet.IAC {
			return i
		}
	}
	for i := len(data) - 1; i >= 0 && i >= len(data)-16; i-- {
		switch data[i] {
		case 'm':
			return len(data)
		case '\033':
			return i
		}
	}
	return len(data)
}

// plain drops Telnet commands and ANSI styling. Negotiation from the server
// is always three bytes long.
func plain(data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i++ {
		if data[i] == telnet.IAC {
			i += 2
			continue
		}
		b.WriteByte(data[i])
	}
	return telnet.StripANSI(b.String())
}

// Send writes a line of text to the server, appending \r\n.
//
// Postcondition: text + \r\n is written to the connection.
func (c *TelnetClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", text); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Close closes the underlying connection.
func (c *TelnetClient) Close() {
	_ = c.conn.Close()
}
