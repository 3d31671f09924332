package httpserver

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/security"
)

type contextKey string

const userContextKey contextKey = "currentUser"

// WithUser returns a new context carrying the current user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// CurrentUser extracts the current user from context, if any.
func CurrentUser(r *http.Request) *domain.User {
	if v := r.Context().Value(userContextKey); v != nil {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// AuthMiddleware validates the Bearer token and attaches the user to the
// request context.
func AuthMiddleware(tokens *security.TokenService, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

			userID, err := tokens.ParseUserID(tokenStr)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				log.Printf("AuthMiddleware: GetByID error for user %d: %v", userID, err)
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}
			if user == nil {
				http.Error(w, "user not found", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
