package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Lucianoottor/message-app/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO users (email) VALUES ($1)
		RETURNING id, created_at
	`, u.Email).Scan(&u.ID, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash) VALUES ($1, $2)
	`, u.ID, passwordHash); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}

	return tx.Commit()
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT id, email, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT id, email, created_at FROM users WHERE email = $1`, email)
}

func (r *UserRepo) GetCredential(ctx context.Context, userID int64) (*domain.Credential, error) {
	c := &domain.Credential{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, password_hash FROM credentials WHERE user_id = $1
	`, userID).Scan(&c.ID, &c.UserID, &c.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, created_at FROM users ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepo) SearchByEmail(ctx context.Context, query string, excludeID int64, limit int) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, created_at
		FROM users
		WHERE email ILIKE $1 AND id <> $2
		ORDER BY email ASC
		LIMIT $3
	`, "%"+query+"%", excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
