package domain

import "context"

// UserRepository defines persistence operations for users and their
// credentials. Create inserts the user row and its credential row in a
// single transaction.
type UserRepository interface {
	Create(ctx context.Context, u *User, passwordHash string) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetCredential(ctx context.Context, userID int64) (*Credential, error)
	List(ctx context.Context) ([]*User, error)
	SearchByEmail(ctx context.Context, query string, excludeID int64, limit int) ([]*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// Create inserts the conversation and one participant row per id in a
	// single transaction and sets c.ID. Returns ErrConflict if another
	// conversation with the same participant key already exists.
	Create(ctx context.Context, c *Conversation, participantIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	// CandidateIDsByParticipantCount returns ids of conversations whose
	// participant-row count equals n. A cheap prefilter only; callers must
	// confirm set equality themselves.
	CandidateIDsByParticipantCount(ctx context.Context, n int) ([]int64, error)
	// UpdateTitle returns the number of affected rows.
	UpdateTitle(ctx context.Context, id int64, title string) (int64, error)
	// Delete removes the conversation's messages, participant rows, and the
	// conversation itself in that order, in a single transaction.
	Delete(ctx context.Context, id int64) error
}

// ParticipantRepository defines operations around conversation membership.
type ParticipantRepository interface {
	ListParticipants(ctx context.Context, conversationID int64) ([]*User, error)
	ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error)
	ConversationIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create inserts the message and bumps the parent conversation's
	// updated_at in the same transaction, then sets m.ID.
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	// ListForConversation returns messages in ascending creation order.
	ListForConversation(ctx context.Context, conversationID int64) ([]*Message, error)
	// LatestForConversation returns the newest message, or nil if none.
	LatestForConversation(ctx context.Context, conversationID int64) (*Message, error)
}
