package broadcast

import (
	"sync"

	"github.com/mcoot/friendlytable/internal/model"
)

// Buffer size for outgoing messages
const sendBufferSize = 256

// Client is one subscribed connection. The transport owns its lifetime and
// drains Send; hubs only enqueue.
type Client struct {
	connectionID model.PlayerID
	send         chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new client for a connection
func NewClient(connectionID model.PlayerID) *Client {
	return &Client{
		connectionID: connectionID,
		send:         make(chan []byte, sendBufferSize),
	}
}

// ConnectionID returns the connection this client belongs to
func (c *Client) ConnectionID() model.PlayerID {
	return c.connectionID
}

// Send returns the outgoing message channel. It is closed by Close.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Enqueue queues a message without blocking.
// Returns false if the client is closed or its buffer is full.
func (c *Client) Enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close closes the send channel. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
