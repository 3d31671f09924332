package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Lucianoottor/message-app/internal/domain"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	args := m.Called(ctx, u, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetCredential(ctx context.Context, userID int64) (*domain.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Credential), args.Error(1)
}

func (m *MockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepo) SearchByEmail(ctx context.Context, query string, excludeID int64, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, query, excludeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Create(ctx context.Context, c *domain.Conversation, participantIDs []int64) error {
	args := m.Called(ctx, c, participantIDs)
	return args.Error(0)
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) CandidateIDsByParticipantCount(ctx context.Context, n int) ([]int64, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockConversationRepo) UpdateTitle(ctx context.Context, id int64, title string) (int64, error) {
	args := m.Called(ctx, id, title)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConversationRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) ListParticipants(ctx context.Context, conversationID int64) ([]*domain.User, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockParticipantRepo) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockParticipantRepo) ConversationIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}
