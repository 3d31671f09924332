package domain

import "time"

// User represents an application user. The email doubles as the login
// identity and is the only piece of profile data exposed to other users.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Credential holds the salted password hash for a user, one-to-one.
// Never serialized outward.
type Credential struct {
	ID           int64  `db:"id" json:"-"`
	UserID       int64  `db:"user_id" json:"-"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Conversation represents a direct or group conversation. Title is
// required for groups (3+ participants) and nil for direct chats.
// ParticipantKey is the sorted participant-id list joined with ':' and is
// unique per conversation, which makes the participant-set dedup invariant
// hold even under concurrent identical create requests.
type Conversation struct {
	ID             int64     `db:"id" json:"id"`
	Title          *string   `db:"title" json:"title"`
	ParticipantKey string    `db:"participant_key" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Message delivery statuses. Only StatusSent is produced today; the other
// transitions are schema-level placeholders.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message represents a single chat message. Messages are immutable after
// creation except for the soft-delete flag.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	Content        string    `db:"content" json:"content"`
	SenderID       int64     `db:"sender_id" json:"sender_id"`
	ConversationID int64     `db:"conversation_id" json:"conversation_id"`
	Status         string    `db:"status" json:"status"`
	IsDeleted      bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
