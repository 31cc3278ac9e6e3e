// Package network implements the client/server transport: length-prefixed
// frames carrying signed protocol envelopes over TCP, the lobby server with
// its rooms, and the client side of the game loop.
package network

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perudo-net/perudo/game"
	"github.com/perudo-net/perudo/protocol"
)

const (
	// MaxMessageLen bounds a single frame. Checked before any allocation.
	MaxMessageLen = 10_000_000

	lenPrefixLen = 4
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrMessageTooLarge  = errors.New("message exceeds maximum length")
	ErrBadHandshake     = errors.New("handshake failed")
)

// Connection is one framed, authenticated link to a peer. After the
// handshake the peer's signing key is pinned: every later envelope must be
// signed by it.
//
// Frame layout: a big-endian uint32 length followed by that many bytes of
// signed envelope JSON.
type Connection struct {
	conn    net.Conn
	keeper  *protocol.EnvelopeKeeper
	timeout time.Duration
	log     *slog.Logger

	peerName string
	peerKey  ed25519.PublicKey

	// mu serializes whole request/response exchanges so concurrent callers
	// cannot interleave their replies. writeMu keeps a frame's bytes
	// contiguous when a ping races a game message.
	mu      sync.Mutex
	writeMu sync.Mutex
	closed  atomic.Bool
}

func newConnection(conn net.Conn, keeper *protocol.EnvelopeKeeper, timeout time.Duration, log *slog.Logger) *Connection {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Connection{
		conn:    conn,
		keeper:  keeper,
		timeout: timeout,
		log:     log,
	}
}

// ServerHandshake greets a fresh inbound connection and learns the client's
// name and signing key from its reply.
func ServerHandshake(conn net.Conn, keeper *protocol.EnvelopeKeeper, timeout time.Duration, log *slog.Logger) (*Connection, error) {
	c := newConnection(conn, keeper, timeout, log)
	if err := c.Send(protocol.ServerHello{Message: protocol.ServerGreeting}); err != nil {
		return nil, fmt.Errorf("%w: sending hello: %v", ErrBadHandshake, err)
	}
	rec, pub, err := c.receiveFrom(nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHandshake, err)
	}
	hello, ok := rec.(protocol.ClientHello)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("%w: expected ClientHello, got %s", ErrBadHandshake, rec.Tag())
	}
	c.peerName = hello.Name
	c.peerKey = pub
	return c, nil
}

// ClientHandshake answers a server's greeting with our display name and pins
// the server's signing key.
func ClientHandshake(conn net.Conn, keeper *protocol.EnvelopeKeeper, name string, timeout time.Duration, log *slog.Logger) (*Connection, error) {
	c := newConnection(conn, keeper, timeout, log)
	rec, pub, err := c.receiveFrom(nil)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", ErrBadHandshake, err)
	}
	hello, ok := rec.(protocol.ServerHello)
	if !ok || hello.Message != protocol.ServerGreeting {
		c.Close()
		return nil, fmt.Errorf("%w: unexpected greeting", ErrBadHandshake)
	}
	c.peerName = "server"
	c.peerKey = pub
	if err := c.Send(protocol.ClientHello{Name: name}); err != nil {
		return nil, fmt.Errorf("%w: sending hello: %v", ErrBadHandshake, err)
	}
	return c, nil
}

// Name is the peer's display name as declared during the handshake.
func (c *Connection) Name() string { return c.peerName }

// PeerKey is the signing key pinned at handshake time.
func (c *Connection) PeerKey() ed25519.PublicKey { return c.peerKey }

func (c *Connection) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}

func (c *Connection) IsClosed() bool { return c.closed.Load() }

// Close is idempotent and safe from any goroutine.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// deadline is the absolute I/O deadline for the next operation. A zero
// timeout means no deadline, and must clear any deadline armed earlier on
// the socket.
func (c *Connection) deadline() time.Time {
	if c.timeout > 0 {
		return time.Now().Add(c.timeout)
	}
	return time.Time{}
}

// Send seals a record and writes it as one frame. A write failure closes the
// connection.
func (c *Connection) Send(r protocol.Record) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	b, err := c.keeper.Seal(r)
	if err != nil {
		return fmt.Errorf("sealing %s: %w", r.Tag(), err)
	}
	if len(b) > MaxMessageLen {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(b))
	}
	frame := make([]byte, lenPrefixLen+len(b))
	binary.BigEndian.PutUint32(frame, uint32(len(b)))
	copy(frame[lenPrefixLen:], b)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(c.deadline())
	if _, err := c.conn.Write(frame); err != nil {
		c.Close()
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Receive reads one record from the pinned peer. Transport failures close
// the connection and return an error. A frame that arrives intact but fails
// envelope verification is reported as a Corrupted record with a nil error,
// since the stream itself is still aligned.
func (c *Connection) Receive() (protocol.Record, error) {
	rec, _, err := c.receiveFrom(c.peerKey)
	return rec, err
}

func (c *Connection) receiveFrom(expectKey ed25519.PublicKey) (protocol.Record, ed25519.PublicKey, error) {
	if c.IsClosed() {
		return nil, nil, ErrConnectionClosed
	}
	_ = c.conn.SetReadDeadline(c.deadline())
	var prefix [lenPrefixLen]byte
	if _, err := io.ReadFull(c.conn, prefix[:]); err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("reading frame length: %w", err)
	}
	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxMessageLen {
		// The stream cannot be resynchronized after a bogus length.
		c.Close()
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		c.Close()
		return nil, nil, fmt.Errorf("reading frame body: %w", err)
	}

	rec, pub, err := c.keeper.Open(body, expectKey)
	if err != nil {
		c.log.Warn("rejected envelope", "peer", c.peerName, "err", err)
		return protocol.Corrupted{Details: err.Error()}, nil, nil
	}
	return rec, pub, nil
}

// Exchange sends a request and waits for the single reply, holding the
// exchange lock so concurrent requests cannot interleave.
func (c *Connection) Exchange(r protocol.Record) (protocol.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Send(r); err != nil {
		return nil, err
	}
	return c.Receive()
}

// Ping sends a no-op and reports whether the peer link still accepts writes.
func (c *Connection) Ping() bool {
	return c.Send(game.NoOp{}) == nil
}
