package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the message-app schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL    PRIMARY KEY,
			email      VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS credentials (
			id            BIGSERIAL    PRIMARY KEY,
			user_id       BIGINT       UNIQUE NOT NULL REFERENCES users(id),
			password_hash VARCHAR(255) NOT NULL
		)`,

		// participant_key is the sorted participant-id list joined with ':'.
		// The unique constraint enforces one conversation per exact
		// participant set even under concurrent identical create requests.
		`CREATE TABLE IF NOT EXISTS conversations (
			id              BIGSERIAL    PRIMARY KEY,
			title           VARCHAR(100),
			participant_key TEXT         UNIQUE NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS participants (
			user_id         BIGINT NOT NULL REFERENCES users(id),
			conversation_id BIGINT NOT NULL REFERENCES conversations(id),
			PRIMARY KEY (user_id, conversation_id)
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			content         TEXT        NOT NULL,
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			status          TEXT        NOT NULL DEFAULT 'sent',
			is_deleted      BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_user ON participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_participants_conv ON participants(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
