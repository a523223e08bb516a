package telnet

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Telnet command bytes per RFC 854.
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Sub-negotiation Begin
	SE   byte = 240 // Sub-negotiation End

	OptSuppressGoAhead byte = 3
)

// maxLineLength bounds a single input line; longer input is truncated.
const maxLineLength = 1024

// Conn wraps a TCP connection with Telnet protocol handling.
// Reads strip IAC sequences and return whole lines; writes are serialized
// so the command loop and the event forwarder can share one Conn.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection with Telnet protocol handling.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Negotiate offers to suppress go-ahead. The client keeps local echo and
// line editing so commands arrive a whole line at a time.
func (c *Conn) Negotiate() error {
	return c.write([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine reads one line of input without its terminator. CR, LF, CR LF
// and CR NUL all end a line. Control bytes other than tab are dropped.
//
// Postcondition: Returns the next line of text input, or an error (including io.EOF).
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}

		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return line.String(), err
			}
		case b == '\n':
			return line.String(), nil
		case b == '\r':
			// Only consume a pending LF or NUL; never block waiting for one.
			if c.reader.Buffered() > 0 {
				if next, _ := c.reader.Peek(1); next[0] == '\n' || next[0] == 0 {
					_, _ = c.reader.ReadByte()
				}
			}
			return line.String(), nil
		case b < 32 && b != '\t':
		default:
			if line.Len() < maxLineLength {
				line.WriteByte(b)
			}
		}
	}
}

// skipCommand consumes the rest of an IAC sequence.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}

	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err := c.reader.ReadByte()
		return err
	case SB:
		for {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if b != IAC {
				continue
			}
			next, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if next == SE {
				return nil
			}
		}
	default:
		// NOP, GA, escaped 0xFF and the rest carry no payload.
		return nil
	}
}

// WriteLine sends text followed by \r\n. Embedded \n line breaks are
// rewritten to \r\n so multi-line renders display correctly.
func (c *Conn) WriteLine(text string) error {
	return c.write([]byte(crlf(text) + "\r\n"))
}

// WritePrompt sends a prompt string without a trailing newline.
func (c *Conn) WritePrompt(prompt string) error {
	return c.write([]byte(prompt))
}

func (c *Conn) write(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.raw.Write(p); err != nil {
		return fmt.Errorf("telnet write: %w", err)
	}
	return nil
}

// crlf normalizes bare \n to \r\n.
func crlf(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")
}

// Close closes the underlying TCP connection.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}
