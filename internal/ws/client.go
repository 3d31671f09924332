package ws

import (
	"sync"

	"github.com/google/uuid"
)

// conn is the subset of *websocket.Conn the hub needs. Narrowed so tests can
// substitute an in-memory implementation.
type conn interface {
	WriteJSON(v any) error
	Close() error
}

// Client is one live authenticated connection.
type Client struct {
	ID     string
	UserID int64
	Email  string

	mu   sync.Mutex
	conn conn
}

func NewClient(userID int64, email string, c conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Email:  email,
		conn:   c,
	}
}

// Send writes one JSON payload. gorilla/websocket allows a single concurrent
// writer, so writes are serialized per client.
func (c *Client) Send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
