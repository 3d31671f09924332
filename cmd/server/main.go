package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Lucianoottor/message-app/internal/config"
	"github.com/Lucianoottor/message-app/internal/httpserver"
	"github.com/Lucianoottor/message-app/internal/security"
	"github.com/Lucianoottor/message-app/internal/store/postgres"
	"github.com/Lucianoottor/message-app/internal/store/sqlite"
	"github.com/Lucianoottor/message-app/internal/ws"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, repos, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	hub := ws.NewHub()

	router := httpserver.NewRouter(cfg, repos, hub, tokenSvc, passwordHasher)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting %s on %s (%s store)", cfg.AppName, cfg.HTTPAddr(), cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func openStore(cfg *config.Config) (*sql.DB, httpserver.Repos, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, httpserver.Repos{}, err
		}
		if err := postgres.Migrate(db); err != nil {
			return nil, httpserver.Repos{}, err
		}
		return db, httpserver.Repos{
			Users:         postgres.NewUserRepo(db),
			Conversations: postgres.NewConversationRepo(db),
			Participants:  postgres.NewParticipantRepo(db),
			Messages:      postgres.NewMessageRepo(db),
		}, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, httpserver.Repos{}, err
		}
		if err := sqlite.Migrate(db); err != nil {
			return nil, httpserver.Repos{}, err
		}
		return db, httpserver.Repos{
			Users:         sqlite.NewUserRepo(db),
			Conversations: sqlite.NewConversationRepo(db),
			Participants:  sqlite.NewParticipantRepo(db),
			Messages:      sqlite.NewMessageRepo(db),
		}, nil
	}
}
