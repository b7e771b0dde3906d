package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// MessageRepository stores contact-form submissions. There is no update or delete.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListRecent(ctx context.Context, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (name, email, message)
        VALUES ($1,$2,$3)
        RETURNING id, submitted_at`
	return r.pool.QueryRow(ctx, query,
		msg.Name,
		msg.Email,
		msg.Body,
	).Scan(&msg.ID, &msg.SubmittedAt)
}

// ListRecent returns messages newest first; limit <= 0 returns all of them.
func (r *messageRepository) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
        SELECT id, name, email, message, submitted_at
        FROM messages ORDER BY submitted_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Name,
			&msg.Email,
			&msg.Body,
			&msg.SubmittedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
