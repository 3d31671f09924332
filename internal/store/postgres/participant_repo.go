package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

var _ domain.ParticipantRepository = (*ParticipantRepo)(nil)

func (r *ParticipantRepo) ListParticipants(ctx context.Context, conversationID int64) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.created_at
		FROM users u
		JOIN participants p ON p.user_id = u.id
		WHERE p.conversation_id = $1
		ORDER BY u.id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *ParticipantRepo) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM participants WHERE conversation_id = $1 ORDER BY user_id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("participant ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (r *ParticipantRepo) ConversationIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id FROM participants WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("conversation ids: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (r *ParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM participants WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return true, nil
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
