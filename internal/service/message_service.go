package service

import (
	"context"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

// MessageService validates and persists chat messages. Membership in the
// target conversation is a hard precondition here, not a caller courtesy.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		users:         users,
	}
}

// MessageView is a message enriched with its sender's public identity.
type MessageView struct {
	*domain.Message
	Sender UserRef `json:"sender"`
}

// Create persists one message and returns it enriched with the sender
// identity for broadcast.
func (s *MessageService) Create(ctx context.Context, content string, senderID, conversationID int64) (*MessageView, error) {
	if content == "" {
		return nil, fmt.Errorf("message content must not be empty: %w", domain.ErrInvalidInput)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	ok, err := s.participants.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("you are not a participant in this conversation: %w", domain.ErrForbidden)
	}

	msg := &domain.Message{
		Content:        content,
		SenderID:       senderID,
		ConversationID: conversationID,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// Re-read joined with the sender; its absence right after a successful
	// insert is an invariant violation.
	stored, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("reload message: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("message %d missing after creation: %w", msg.ID, domain.ErrInternal)
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}
	if sender == nil {
		return nil, fmt.Errorf("sender %d missing after creation: %w", senderID, domain.ErrInternal)
	}

	return &MessageView{
		Message: stored,
		Sender:  UserRef{ID: sender.ID, Email: sender.Email},
	}, nil
}
