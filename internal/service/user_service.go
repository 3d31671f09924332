package service

import (
	"context"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

// UserService provides user lookup and discovery operations.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// Search finds users by email substring, excluding the caller.
func (s *UserService) Search(ctx context.Context, query string, currentUserID int64) ([]UserRef, error) {
	if query == "" {
		return nil, fmt.Errorf("a search term is required: %w", domain.ErrInvalidInput)
	}
	users, err := s.users.SearchByEmail(ctx, query, currentUserID, 10)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return toRefs(users), nil
}
