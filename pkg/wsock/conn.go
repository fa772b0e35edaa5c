package wsock

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrHandshake reports a refused or malformed HTTP upgrade.
var ErrHandshake = errors.New("wsock: handshake failed")

// Conn is one upgraded client connection.
//
// The handshake is deliberately lenient for trusted test targets: the upgrade
// is accepted as soon as the status line contains "101", and the server's
// Sec-WebSocket-Accept digest is never validated against the sent key. That
// is a known weakening of protocol conformance, kept so the client behaves
// identically against non-conforming gateways.
type Conn struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
	closed  bool
}

// Dial opens a TCP connection to addr and upgrades it to a WebSocket on path.
// The timeout applies to the connect, the handshake, and every write.
func Dial(addr, path string, timeout time.Duration) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("wsock: connect %s: %w", addr, err)
	}

	c := &Conn{conn: conn, br: bufio.NewReader(conn), timeout: timeout}
	if err := c.handshake(addr, path); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) handshake(addr, path string) error {
	var keyBytes [16]byte
	if _, err := rand.Read(keyBytes[:]); err != nil {
		return fmt.Errorf("wsock: handshake key: %w", err)
	}
	key := base64.StdEncoding.EncodeToString(keyBytes[:])

	request := "GET " + path + " HTTP/1.1\r\n" +
		"Host: " + addr + "\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + key + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"\r\n"

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	if _, err := c.conn.Write([]byte(request)); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}

	statusLine, err := c.br.ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: reading status line: %v", ErrHandshake, err)
	}
	if !strings.Contains(statusLine, "101") {
		return fmt.Errorf("%w: %s", ErrHandshake, strings.TrimSpace(statusLine))
	}

	// Discard the remaining headers up to the blank line.
	for {
		line, err := c.br.ReadString('\n')
		if err != nil {
			return fmt.Errorf("%w: reading headers: %v", ErrHandshake, err)
		}
		if line == "\r\n" || line == "\n" {
			return nil
		}
	}
}

// SendText sends one text frame.
func (c *Conn) SendText(message string) error {
	return c.SendFrame(OpText, []byte(message))
}

// SendFrame masks and sends one frame with the given opcode.
func (c *Conn) SendFrame(op Opcode, payload []byte) error {
	frame, err := EncodeFrame(op, payload)
	if err != nil {
		return err
	}
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return err
		}
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("wsock: write %s frame: %w", op, err)
	}
	return nil
}

// Recv reads one message within the given timeout.
//
// It returns (message, true, nil) for a data frame, ("", false, nil) when the
// read timed out or the peer sent a close frame — both are "no message", not
// errors — and a non-nil error only for hard transport failures.
func (c *Conn) Recv(timeout time.Duration) (string, bool, error) {
	if c.closed {
		return "", false, net.ErrClosed
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return "", false, err
	}

	f, err := ReadFrame(c.br)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return "", false, nil
		}
		return "", false, err
	}

	switch f.Opcode {
	case OpText:
		return string(f.Payload), true, nil
	case OpClose:
		return "", false, nil
	default:
		if len(f.Payload) == 0 {
			return "", false, nil
		}
		return string(f.Payload), true, nil
	}
}

// Close sends a best-effort close frame and tears down the connection.
// Errors from the close frame are swallowed; the connection is going away
// regardless.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.SendFrame(OpClose, nil)
	return c.conn.Close()
}
