package service

import (
	"context"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/security"
)

// AuthService handles registration and login.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// Register creates a user and its credential row transactionally.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	hashed, err := s.hash.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Email: email}
	if err := s.users.Create(ctx, user, hashed); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("incorrect email or password: %w", domain.ErrUnauthorized)
	}

	cred, err := s.users.GetCredential(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("incorrect email or password: %w", domain.ErrUnauthorized)
	}
	if err := s.hash.Verify(password, cred.PasswordHash); err != nil {
		return nil, fmt.Errorf("incorrect email or password: %w", domain.ErrUnauthorized)
	}

	token, err := s.tokens.CreateForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
