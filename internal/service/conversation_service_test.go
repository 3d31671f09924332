package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/service"
)

func strPtr(s string) *string { return &s }

func newConvService() (*service.ConversationService, *MockConversationRepo, *MockParticipantRepo, *MockMessageRepo) {
	convs := new(MockConversationRepo)
	parts := new(MockParticipantRepo)
	msgs := new(MockMessageRepo)
	return service.NewConversationService(convs, parts, msgs), convs, parts, msgs
}

func TestResolveOrCreateCreatesWhenNoMatch(t *testing.T) {
	svc, convs, parts, _ := newConvService()

	convs.On("CandidateIDsByParticipantCount", mock.Anything, 2).Return([]int64{}, nil)
	convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.ParticipantKey == "1:2" && c.Title == nil
	}), []int64{1, 2}).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Conversation).ID = 5
	}).Return(nil)
	parts.On("ListParticipants", mock.Anything, int64(5)).Return([]*domain.User{
		{ID: 1, Email: "u1@example.com"},
		{ID: 2, Email: "u2@example.com"},
	}, nil)

	view, err := svc.ResolveOrCreate(context.Background(), 1, []int64{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.ID)
	assert.Nil(t, view.Title)
	assert.Len(t, view.Participants, 2)
	convs.AssertExpectations(t)
}

func TestResolveOrCreateReturnsExisting(t *testing.T) {
	svc, convs, parts, _ := newConvService()

	existing := &domain.Conversation{ID: 10, ParticipantKey: "1:2"}
	convs.On("CandidateIDsByParticipantCount", mock.Anything, 2).Return([]int64{10}, nil)
	parts.On("ParticipantIDs", mock.Anything, int64(10)).Return([]int64{2, 1}, nil)
	convs.On("GetByID", mock.Anything, int64(10)).Return(existing, nil)
	parts.On("ListParticipants", mock.Anything, int64(10)).Return([]*domain.User{
		{ID: 1, Email: "u1@example.com"},
		{ID: 2, Email: "u2@example.com"},
	}, nil)

	view, err := svc.ResolveOrCreate(context.Background(), 1, []int64{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.ID)
	convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// A third party resolving the same set must get the original conversation,
// regardless of who initiates or in what order the ids arrive.
func TestResolveOrCreateOrderIndependent(t *testing.T) {
	svc, convs, parts, _ := newConvService()

	existing := &domain.Conversation{ID: 10, ParticipantKey: "1:2:3", Title: strPtr("Trip")}
	convs.On("CandidateIDsByParticipantCount", mock.Anything, 3).Return([]int64{10}, nil)
	parts.On("ParticipantIDs", mock.Anything, int64(10)).Return([]int64{3, 1, 2}, nil)
	convs.On("GetByID", mock.Anything, int64(10)).Return(existing, nil)
	parts.On("ListParticipants", mock.Anything, int64(10)).Return([]*domain.User{
		{ID: 1}, {ID: 2}, {ID: 3},
	}, nil)

	a, err := svc.ResolveOrCreate(context.Background(), 2, []int64{3, 1}, strPtr("Trip"))
	require.NoError(t, err)
	b, err := svc.ResolveOrCreate(context.Background(), 3, []int64{1, 2, 2}, strPtr("Trip"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// The cardinality prefilter may return false positives; a candidate with the
// same participant count but a different membership must be rejected.
func TestResolveOrCreateRejectsFalsePositiveCandidate(t *testing.T) {
	svc, convs, parts, _ := newConvService()

	convs.On("CandidateIDsByParticipantCount", mock.Anything, 2).Return([]int64{7}, nil)
	parts.On("ParticipantIDs", mock.Anything, int64(7)).Return([]int64{1, 9}, nil)
	convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.ParticipantKey == "1:2"
	}), []int64{1, 2}).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Conversation).ID = 8
	}).Return(nil)
	parts.On("ListParticipants", mock.Anything, int64(8)).Return([]*domain.User{{ID: 1}, {ID: 2}}, nil)

	view, err := svc.ResolveOrCreate(context.Background(), 1, []int64{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), view.ID)
}

func TestResolveOrCreateGroupNeedsTitle(t *testing.T) {
	svc, convs, _, _ := newConvService()

	_, err := svc.ResolveOrCreate(context.Background(), 1, []int64{2, 3}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.ResolveOrCreate(context.Background(), 1, []int64{2, 3}, strPtr(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveOrCreateEmptyParticipants(t *testing.T) {
	svc, _, _, _ := newConvService()

	_, err := svc.ResolveOrCreate(context.Background(), 1, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Losing the creation race to an identical concurrent request must surface
// the winner's conversation, not an error.
func TestResolveOrCreateConflictRetriesLookup(t *testing.T) {
	svc, convs, parts, _ := newConvService()

	winner := &domain.Conversation{ID: 12, ParticipantKey: "1:2"}
	convs.On("CandidateIDsByParticipantCount", mock.Anything, 2).Return([]int64{}, nil).Once()
	convs.On("Create", mock.Anything, mock.Anything, []int64{1, 2}).Return(domain.ErrConflict)
	convs.On("CandidateIDsByParticipantCount", mock.Anything, 2).Return([]int64{12}, nil).Once()
	parts.On("ParticipantIDs", mock.Anything, int64(12)).Return([]int64{1, 2}, nil)
	convs.On("GetByID", mock.Anything, int64(12)).Return(winner, nil)
	parts.On("ListParticipants", mock.Anything, int64(12)).Return([]*domain.User{{ID: 1}, {ID: 2}}, nil)

	view, err := svc.ResolveOrCreate(context.Background(), 1, []int64{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(12), view.ID)
}

func TestListForUserExcludesSelfAndAddsPreview(t *testing.T) {
	svc, convs, parts, msgs := newConvService()

	convs.On("ListForUser", mock.Anything, int64(1)).Return([]*domain.Conversation{
		{ID: 4, ParticipantKey: "1:2"},
	}, nil)
	parts.On("ListParticipants", mock.Anything, int64(4)).Return([]*domain.User{
		{ID: 1, Email: "me@example.com"},
		{ID: 2, Email: "them@example.com"},
	}, nil)
	last := &domain.Message{ID: 99, ConversationID: 4, SenderID: 2, Content: "hey"}
	msgs.On("LatestForConversation", mock.Anything, int64(4)).Return(last, nil)

	views, err := svc.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Participants, 1)
	assert.Equal(t, int64(2), views[0].Participants[0].ID)
	assert.Equal(t, last, views[0].LastMessage)
}

func TestListForUserEmpty(t *testing.T) {
	svc, convs, _, _ := newConvService()

	convs.On("ListForUser", mock.Anything, int64(1)).Return([]*domain.Conversation{}, nil)

	views, err := svc.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestUpdateTitle(t *testing.T) {
	t.Run("Forbidden", func(t *testing.T) {
		svc, _, parts, _ := newConvService()
		parts.On("IsParticipant", mock.Anything, int64(4), int64(9)).Return(false, nil)

		_, err := svc.UpdateTitle(context.Background(), 4, "New", 9)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("EmptyTitle", func(t *testing.T) {
		svc, _, _, _ := newConvService()
		_, err := svc.UpdateTitle(context.Background(), 4, "", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, convs, parts, _ := newConvService()
		parts.On("IsParticipant", mock.Anything, int64(4), int64(1)).Return(true, nil)
		convs.On("UpdateTitle", mock.Anything, int64(4), "New").Return(int64(0), nil)

		_, err := svc.UpdateTitle(context.Background(), 4, "New", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		svc, convs, parts, _ := newConvService()
		parts.On("IsParticipant", mock.Anything, int64(4), int64(1)).Return(true, nil)
		convs.On("UpdateTitle", mock.Anything, int64(4), "New").Return(int64(1), nil)
		convs.On("GetByID", mock.Anything, int64(4)).Return(&domain.Conversation{ID: 4, Title: strPtr("New")}, nil)
		parts.On("ListParticipants", mock.Anything, int64(4)).Return([]*domain.User{{ID: 1}, {ID: 2}}, nil)

		view, err := svc.UpdateTitle(context.Background(), 4, "New", 1)
		require.NoError(t, err)
		assert.Equal(t, "New", *view.Title)
	})
}

func TestDeleteByID(t *testing.T) {
	t.Run("Forbidden", func(t *testing.T) {
		svc, convs, parts, _ := newConvService()
		parts.On("IsParticipant", mock.Anything, int64(4), int64(9)).Return(false, nil)

		err := svc.DeleteByID(context.Background(), 4, 9)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		convs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		svc, convs, parts, _ := newConvService()
		parts.On("IsParticipant", mock.Anything, int64(4), int64(1)).Return(true, nil)
		convs.On("Delete", mock.Anything, int64(4)).Return(nil)

		require.NoError(t, svc.DeleteByID(context.Background(), 4, 1))
		convs.AssertExpectations(t)
	})
}

func TestGetMessages(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		svc, convs, _, _ := newConvService()
		convs.On("GetByID", mock.Anything, int64(4)).Return(nil, nil)

		_, err := svc.GetMessages(context.Background(), 4, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, convs, parts, _ := newConvService()
		convs.On("GetByID", mock.Anything, int64(4)).Return(&domain.Conversation{ID: 4}, nil)
		parts.On("IsParticipant", mock.Anything, int64(4), int64(9)).Return(false, nil)

		_, err := svc.GetMessages(context.Background(), 4, 9)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("SendersAttached", func(t *testing.T) {
		svc, convs, parts, msgs := newConvService()
		convs.On("GetByID", mock.Anything, int64(4)).Return(&domain.Conversation{ID: 4}, nil)
		parts.On("IsParticipant", mock.Anything, int64(4), int64(1)).Return(true, nil)
		msgs.On("ListForConversation", mock.Anything, int64(4)).Return([]*domain.Message{
			{ID: 1, SenderID: 2, Content: "hi"},
			{ID: 2, SenderID: 1, Content: "hello"},
		}, nil)
		parts.On("ListParticipants", mock.Anything, int64(4)).Return([]*domain.User{
			{ID: 1, Email: "me@example.com"},
			{ID: 2, Email: "them@example.com"},
		}, nil)

		views, err := svc.GetMessages(context.Background(), 4, 1)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "them@example.com", views[0].Sender.Email)
		assert.Equal(t, "me@example.com", views[1].Sender.Email)
	})
}
