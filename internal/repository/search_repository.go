package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digkill/wallify/internal/models"
)

type SearchLogRepository struct {
	db *sql.DB
}

func NewSearchLogRepository(db *sql.DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

func (r *SearchLogRepository) Increment(ctx context.Context, term string) error {
	const query = `
INSERT INTO search_logs (search_term, search_count) VALUES (?, 1)
ON DUPLICATE KEY UPDATE search_count = search_count + 1`
	if _, err := r.db.ExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("increment search term: %w", err)
	}
	return nil
}

func (r *SearchLogRepository) Top(ctx context.Context, limit int) ([]models.SearchTerm, error) {
	const query = `SELECT search_term, search_count FROM search_logs ORDER BY search_count DESC, search_term ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top search terms: %w", err)
	}
	defer rows.Close()

	var terms []models.SearchTerm
	for rows.Next() {
		var t models.SearchTerm
		if err := rows.Scan(&t.Term, &t.Count); err != nil {
			return nil, fmt.Errorf("scan search term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}
