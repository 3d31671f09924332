package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Create inserts the message and bumps the parent conversation's updated_at
// in the same transaction, so conversation ordering follows message arrival.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (content, sender_id, conversation_id, status, is_deleted, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, m.Content, m.SenderID, m.ConversationID, domain.StatusSent, false)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id
	m.Status = domain.StatusSent

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, m.ConversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, content, sender_id, conversation_id, status, is_deleted, created_at
		FROM messages
		WHERE id = ?
	`, id).Scan(&m.ID, &m.Content, &m.SenderID, &m.ConversationID, &m.Status, &m.IsDeleted, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content, sender_id, conversation_id, status, is_deleted, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.Content, &m.SenderID, &m.ConversationID, &m.Status, &m.IsDeleted, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, content, sender_id, conversation_id, status, is_deleted, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, conversationID).Scan(&m.ID, &m.Content, &m.SenderID, &m.ConversationID, &m.Status, &m.IsDeleted, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest message: %w", err)
	}
	return m, nil
}
