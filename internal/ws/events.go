package ws

import (
	"github.com/Lucianoottor/message-app/internal/service"
)

// Client-to-server event names.
const (
	EventNewConversation  = "new conversation"
	EventChatMessage      = "chat message"
	EventJoinConversation = "join conversation"
)

// Server-to-client event names.
const (
	EventUserOnline  = "user online"
	EventUserOffline = "user offline"
	EventOnlineUsers = "online users"
)

// clientEvent is the tagged wire frame for every client-to-server event.
// Which fields are required depends on Type and is checked per event by the
// dispatcher. AckID, when present, requests an acknowledgment frame.
type clientEvent struct {
	Type           string  `json:"type"`
	AckID          *int64  `json:"ack_id,omitempty"`
	ConversationID int64   `json:"conversation_id,omitempty"`
	Content        string  `json:"content,omitempty"`
	ParticipantIDs []int64 `json:"participant_ids,omitempty"`
	Title          *string `json:"title,omitempty"`
}

// ackFrame answers a client event that carried an ack_id.
type ackFrame struct {
	Type         string                    `json:"type"`
	AckID        int64                     `json:"ack_id"`
	Status       string                    `json:"status"`
	Message      string                    `json:"message,omitempty"`
	Conversation *service.ConversationView `json:"conversation,omitempty"`
	MessageID    int64                     `json:"message_id,omitempty"`
}

type messageEvent struct {
	Type    string               `json:"type"`
	Message *service.MessageView `json:"message"`
}

type conversationEvent struct {
	Type         string                    `json:"type"`
	Conversation *service.ConversationView `json:"conversation"`
}

type presenceEvent struct {
	Type   string `json:"type"`
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type onlineUsersEvent struct {
	Type    string  `json:"type"`
	UserIDs []int64 `json:"user_ids"`
}
