package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation, participantIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO conversations (title, participant_key)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, c.Title, c.ParticipantKey).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, uid := range participantIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO participants (user_id, conversation_id) VALUES ($1, $2)
		`, uid, c.ID); err != nil {
			return fmt.Errorf("insert participant %d: %w", uid, err)
		}
	}

	return tx.Commit()
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, participant_key, created_at, updated_at
		FROM conversations WHERE id = $1
	`, id).Scan(&c.ID, &c.Title, &c.ParticipantKey, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.participant_key, c.created_at, c.updated_at
		FROM conversations c
		JOIN participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(&c.ID, &c.Title, &c.ParticipantKey, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ConversationRepo) CandidateIDsByParticipantCount(ctx context.Context, n int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id
		FROM participants
		GROUP BY conversation_id
		HAVING COUNT(*) = $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("candidate conversations: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (r *ConversationRepo) UpdateTitle(ctx context.Context, id int64, title string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET title = $1, updated_at = NOW()
		WHERE id = $2
	`, title, id)
	if err != nil {
		return 0, fmt.Errorf("update title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes messages, participant rows, and the conversation itself in
// that order so no row is ever left referencing a missing conversation.
func (r *ConversationRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	return tx.Commit()
}
