package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is a no-op when the pair already exists.
func (r *FavoriteRepository) Add(ctx context.Context, username, imageKey string) error {
	const query = `INSERT IGNORE INTO favorites (username, image_key) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, query, username, imageKey); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, username, imageKey string) (bool, error) {
	const query = `DELETE FROM favorites WHERE username = ? AND image_key = ?`
	res, err := r.db.ExecContext(ctx, query, username, imageKey)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("favorite rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *FavoriteRepository) ListKeys(ctx context.Context, username string) ([]string, error) {
	const query = `SELECT image_key FROM favorites WHERE username = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
