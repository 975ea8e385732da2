package hub

import (
	"sync"

	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Writer is the part of a websocket connection a client writes through.
type Writer interface {
	WriteMessage(opcode gws.Opcode, payload []byte) error
	WriteClose(code uint16, reason []byte) error
}

// Client is a connected status page.
type Client struct {
	conn   Writer
	logger *zap.SugaredLogger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(conn Writer, logger *zap.SugaredLogger) *Client {
	return &Client{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
	}
}

// WritePump writes queued messages until the hub drops the client.
func (c *Client) WritePump() {
	defer func() {
		if err := c.conn.WriteClose(1000, nil); err != nil {
			c.logger.Debugw("closing websocket", "error", err)
		}
	}()

	for msg := range c.send {
		if err := c.conn.WriteMessage(gws.OpcodeText, msg); err != nil {
			c.logger.Debugw("writing websocket", "error", err)
			// Keep draining so the hub never blocks on this client.
			for range c.send {
			}
			return
		}
	}
}

// enqueue reports false when the client's buffer is full or the client has
// been dropped.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// shutdown ends the send queue. It may be called more than once.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
