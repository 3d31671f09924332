package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lucianoottor/message-app/internal/config"
	"github.com/Lucianoottor/message-app/internal/domain"
	"github.com/Lucianoottor/message-app/internal/security"
	"github.com/Lucianoottor/message-app/internal/service"
	"github.com/Lucianoottor/message-app/internal/ws"
)

// Repos bundles the store implementations handed to the router; the concrete
// driver (sqlite or postgres) is chosen in main.
type Repos struct {
	Users         domain.UserRepository
	Conversations domain.ConversationRepository
	Participants  domain.ParticipantRepository
	Messages      domain.MessageRepository
}

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware.
func NewRouter(cfg *config.Config, repos Repos, hub *ws.Hub, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authSvc := service.NewAuthService(repos.Users, tokenSvc, passwordHasher)
	userSvc := service.NewUserService(repos.Users)
	convSvc := service.NewConversationService(repos.Conversations, repos.Participants, repos.Messages)
	msgSvc := service.NewMessageService(repos.Conversations, repos.Participants, repos.Messages, repos.Users)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.Users))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(userSvc))
				r.Get("/search", handleSearchUsers(userSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(convSvc))
				r.Get("/", handleListConversations(convSvc))
				r.Get("/{conversationID}/messages", handleGetMessages(convSvc))
				r.Patch("/{conversationID}", handleUpdateTitle(convSvc))
				r.Delete("/{conversationID}", handleDeleteConversation(convSvc))
			})
		})
	})

	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, repos.Users, convSvc, msgSvc, cfg.CORSOrigins))

	return r
}
