package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Lucianoottor/message-app/internal/domain"
)

// ConversationService is the conversation directory: it resolves or creates
// conversations for exact participant sets, lists a user's conversations with
// previews, and guards title updates and deletion behind membership.
type ConversationService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
}

func NewConversationService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
	}
}

// UserRef is the public identity of a user: id and email only.
type UserRef struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// ConversationView is a conversation together with participant identities
// and, optionally, its most recent message.
type ConversationView struct {
	*domain.Conversation
	Participants []UserRef       `json:"participants"`
	LastMessage  *domain.Message `json:"last_message,omitempty"`
}

// effectiveSet returns the deduplicated union of the initiator and the
// supplied participant ids, sorted ascending.
func effectiveSet(initiatorID int64, participantIDs []int64) []int64 {
	ids := lo.Uniq(append([]int64{initiatorID}, participantIDs...))
	slices.Sort(ids)
	return ids
}

// participantKey renders a sorted id set as "1:2:3". It is stored with the
// conversation and carries a unique constraint, so two conversations can
// never share an exact participant set.
func participantKey(sorted []int64) string {
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ":")
}

// ResolveOrCreate returns the existing conversation for the exact participant
// set formed by the initiator plus participantIDs, or creates it atomically.
// Conversations with more than two effective participants require a title.
func (s *ConversationService) ResolveOrCreate(
	ctx context.Context,
	initiatorID int64,
	participantIDs []int64,
	title *string,
) (*ConversationView, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("participant ids are required: %w", domain.ErrInvalidInput)
	}

	ids := effectiveSet(initiatorID, participantIDs)
	if len(ids) > 2 && (title == nil || *title == "") {
		return nil, fmt.Errorf("group conversation needs a title: %w", domain.ErrInvalidInput)
	}

	if existing, err := s.findByExactSet(ctx, ids); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		Title:          title,
		ParticipantKey: participantKey(ids),
	}
	err := s.conversations.Create(ctx, conv, ids)
	if errors.Is(err, domain.ErrConflict) {
		// Lost a creation race for the same participant set; the winner's
		// conversation satisfies the request.
		if existing, ferr := s.findByExactSet(ctx, ids); ferr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("could not create conversation: %w", domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return s.withParticipants(ctx, conv)
}

// findByExactSet performs the two-phase dedup lookup: a cardinality prefilter
// over participant-row counts, then an authoritative sorted-set comparison per
// candidate. Subset or superset matches are never treated as equivalent.
func (s *ConversationService) findByExactSet(ctx context.Context, sorted []int64) (*ConversationView, error) {
	candidates, err := s.conversations.CandidateIDsByParticipantCount(ctx, len(sorted))
	if err != nil {
		return nil, fmt.Errorf("candidate lookup: %w", err)
	}

	for _, id := range candidates {
		memberIDs, err := s.participants.ParticipantIDs(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load participant set: %w", err)
		}
		slices.Sort(memberIDs)
		if !slices.Equal(memberIDs, sorted) {
			continue
		}
		conv, err := s.conversations.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		if conv == nil {
			continue
		}
		return s.withParticipants(ctx, conv)
	}
	return nil, nil
}

// ListForUser returns the user's conversations ordered by last activity, each
// annotated with the other participants and its most recent message.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*ConversationView, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	views := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		participants, err := s.participants.ListParticipants(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		last, err := s.messages.LatestForConversation(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("latest message: %w", err)
		}
		view := &ConversationView{
			Conversation: conv,
			Participants: toRefs(lo.Filter(participants, func(u *domain.User, _ int) bool {
				return u.ID != userID
			})),
			LastMessage: last,
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateTitle changes a conversation's title on behalf of a participant.
func (s *ConversationService) UpdateTitle(
	ctx context.Context,
	conversationID int64,
	title string,
	requesterID int64,
) (*ConversationView, error) {
	if title == "" {
		return nil, fmt.Errorf("title must not be empty: %w", domain.ErrInvalidInput)
	}
	if err := s.requireMembership(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}

	affected, err := s.conversations.UpdateTitle(ctx, conversationID, title)
	if err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}
	return s.withParticipants(ctx, conv)
}

// DeleteByID deletes a conversation with all its messages and participant
// rows, on behalf of a participant.
func (s *ConversationService) DeleteByID(ctx context.Context, conversationID, requesterID int64) error {
	if err := s.requireMembership(ctx, conversationID, requesterID); err != nil {
		return err
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// GetMessages returns a conversation's messages in chronological order, each
// carrying its sender's public identity.
func (s *ConversationService) GetMessages(ctx context.Context, conversationID, userID int64) ([]*MessageView, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}
	if err := s.requireMembership(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	participants, err := s.participants.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	byID := lo.KeyBy(participants, func(u *domain.User) int64 { return u.ID })

	views := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := &MessageView{Message: m}
		if sender, ok := byID[m.SenderID]; ok {
			view.Sender = UserRef{ID: sender.ID, Email: sender.Email}
		} else {
			view.Sender = UserRef{ID: m.SenderID}
		}
		views = append(views, view)
	}
	return views, nil
}

// ConversationIDs returns the ids of every conversation the user belongs
// to, used to re-derive room membership on connect.
func (s *ConversationService) ConversationIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.participants.ConversationIDsForUser(ctx, userID)
}

// ParticipantIDs exposes a conversation's member ids for realtime fan-out.
func (s *ConversationService) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	return s.participants.ParticipantIDs(ctx, conversationID)
}

// IsParticipant reports whether a user belongs to a conversation.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	return s.participants.IsParticipant(ctx, conversationID, userID)
}

func (s *ConversationService) requireMembership(ctx context.Context, conversationID, userID int64) error {
	ok, err := s.participants.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return fmt.Errorf("you are not a participant in this conversation: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *ConversationService) withParticipants(ctx context.Context, conv *domain.Conversation) (*ConversationView, error) {
	participants, err := s.participants.ListParticipants(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return &ConversationView{
		Conversation: conv,
		Participants: toRefs(participants),
	}, nil
}

func toRefs(users []*domain.User) []UserRef {
	refs := make([]UserRef, len(users))
	for i, u := range users {
		refs[i] = UserRef{ID: u.ID, Email: u.Email}
	}
	return refs
}
