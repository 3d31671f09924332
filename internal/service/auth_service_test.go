package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/security"
	"github.com/Lucianoottor/message-app/internal/service"
)

func newAuthService(users *MockUserRepo) *service.AuthService {
	tokens := security.NewTokenService("test-secret", time.Minute)
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	return service.NewAuthService(users, tokens, hasher)
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new@example.com"
		}), mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")) == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.User).ID = 1
		}).Return(nil)

		user, err := svc.Register(context.Background(), "new@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		users.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "dup@example.com").Return(&domain.User{ID: 7, Email: "dup@example.com"}, nil)

		_, err := svc.Register(context.Background(), "dup@example.com", "secret123")
		assert.ErrorIs(t, err, domain.ErrConflict)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingFields", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		_, err := svc.Register(context.Background(), "", "secret123")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "me@example.com").Return(&domain.User{ID: 3, Email: "me@example.com"}, nil)
		users.On("GetCredential", mock.Anything, int64(3)).Return(&domain.Credential{UserID: 3, PasswordHash: string(hash)}, nil)

		resp, err := svc.Login(context.Background(), "me@example.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, int64(3), resp.User.ID)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

		_, err := svc.Login(context.Background(), "ghost@example.com", "secret123")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := newAuthService(users)

		users.On("GetByEmail", mock.Anything, "me@example.com").Return(&domain.User{ID: 3, Email: "me@example.com"}, nil)
		users.On("GetCredential", mock.Anything, int64(3)).Return(&domain.Credential{UserID: 3, PasswordHash: string(hash)}, nil)

		_, err := svc.Login(context.Background(), "me@example.com", "nope")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
