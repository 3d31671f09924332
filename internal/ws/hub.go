package ws

import (
	"sync"
)

// Hub is the session registry and room membership controller: a process-wide
// mapping from user id to the user's single live connection, plus one room
// per conversation to which participant connections subscribe. A later
// connect for the same user replaces (and closes) the earlier connection.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int64]*Client
	rooms    map[int64]map[*Client]struct{}
	joined   map[*Client]map[int64]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[int64]*Client),
		rooms:    make(map[int64]map[*Client]struct{}),
		joined:   make(map[*Client]map[int64]struct{}),
	}
}

// Register records the client as its user's live connection. If the user
// already had one, the previous connection is dropped from all rooms and
// closed (last writer wins).
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	prev := h.sessions[c.UserID]
	h.sessions[c.UserID] = c
	if prev != nil {
		h.removeLocked(prev)
	}
	h.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// Unregister removes the client's session and room memberships. It reports
// whether the client was still the user's current connection; a stale
// connection replaced by a newer one must not tear down its successor.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[c.UserID] != c {
		h.removeLocked(c)
		return false
	}
	delete(h.sessions, c.UserID)
	h.removeLocked(c)
	return true
}

func (h *Hub) removeLocked(c *Client) {
	for convID := range h.joined[c] {
		if room := h.rooms[convID]; room != nil {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, convID)
			}
		}
	}
	delete(h.joined, c)
}

// Subscribe adds the client to a conversation's room.
func (h *Hub) Subscribe(c *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][c] = struct{}{}
	if h.joined[c] == nil {
		h.joined[c] = make(map[int64]struct{})
	}
	h.joined[c][conversationID] = struct{}{}
}

// SubscribeUser subscribes the user's live connection to a room, if the user
// is online. Reports whether a connection was subscribed.
func (h *Hub) SubscribeUser(userID, conversationID int64) bool {
	h.mu.RLock()
	c, ok := h.sessions[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	h.Subscribe(c, conversationID)
	return true
}

// Session returns the user's live connection, if any.
func (h *Hub) Session(userID int64) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.sessions[userID]
	return c, ok
}

// SendToUser delivers a payload to the user's live connection. Reports
// whether the user was online.
func (h *Hub) SendToUser(userID int64, payload any) bool {
	c, ok := h.Session(userID)
	if !ok {
		return false
	}
	if err := c.Send(payload); err != nil {
		c.Close()
	}
	return true
}

// BroadcastRoom delivers a payload to every connection subscribed to the
// conversation's room, the sender's included.
func (h *Hub) BroadcastRoom(conversationID int64, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(payload); err != nil {
			c.Close()
			// stale conn; it is removed when its read loop unregisters
		}
	}
}

// BroadcastOthers delivers a payload to every live connection except the
// given user's.
func (h *Hub) BroadcastOthers(exceptUserID int64, payload any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions))
	for uid, c := range h.sessions {
		if uid == exceptUserID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(payload); err != nil {
			c.Close()
		}
	}
}

// OnlineUserIDs returns a snapshot of user ids with a live connection.
func (h *Hub) OnlineUserIDs() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]int64, 0, len(h.sessions))
	for uid := range h.sessions {
		ids = append(ids, uid)
	}
	return ids
}
