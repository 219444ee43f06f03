package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/digkill/wallify/internal/models"
)

type GenerationRepository struct {
	db *sql.DB
}

func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Reservation is a pending generation row holding a slot of the daily quota.
type Reservation struct {
	ID        int64
	Premium   bool
	UsedToday int
}

// Reserve locks the user row, checks the daily quota and inserts a pending
// generation in one transaction. Premium users are never limited.
func (r *GenerationRepository) Reserve(ctx context.Context, gen models.AIGeneration, dailyLimit int) (*Reservation, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var premium bool
	row := tx.QueryRowContext(ctx, `SELECT premium FROM wallify_users WHERE username = ? FOR UPDATE`, gen.Username)
	if err := row.Scan(&premium); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	start, end := dayBounds(gen.CreatedAt)
	var used int
	row = tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM ai_generations
WHERE username = ? AND created_at >= ? AND created_at < ?`, gen.Username, start, end)
	if err := row.Scan(&used); err != nil {
		return nil, fmt.Errorf("count daily generations: %w", err)
	}
	if !premium && used >= dailyLimit {
		return nil, ErrQuotaExceeded
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO ai_generations (username, prompt, image_url, aspect_ratio, created_at)
VALUES (?, ?, '', ?, ?)`, gen.Username, gen.Prompt, gen.AspectRatio, gen.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit generation tx: %w", err)
	}
	return &Reservation{ID: id, Premium: premium, UsedToday: used + 1}, nil
}

func (r *GenerationRepository) Complete(ctx context.Context, id int64, imageURL string) error {
	const query = `UPDATE ai_generations SET image_url = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, imageURL, id); err != nil {
		return fmt.Errorf("complete generation: %w", err)
	}
	return nil
}

// Release gives a reserved slot back after a failed generation.
func (r *GenerationRepository) Release(ctx context.Context, id int64) error {
	const query = `DELETE FROM ai_generations WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("release generation: %w", err)
	}
	return nil
}

func (r *GenerationRepository) CountForDay(ctx context.Context, username string, day time.Time) (int, error) {
	start, end := dayBounds(day)
	const query = `
SELECT COUNT(*) FROM ai_generations
WHERE username = ? AND created_at >= ? AND created_at < ?`
	row := r.db.QueryRowContext(ctx, query, username, start, end)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count daily generations: %w", err)
	}
	return count, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
