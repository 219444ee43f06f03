package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/digkill/wallify/internal/models"
)

type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, img models.Image) error {
	const query = "INSERT INTO images_table (image_key, description, `user`) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, img.Key, img.Description, img.Username); err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM images_table WHERE image_key = ?", key); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

// Search returns images whose description contains every keyword, ignoring case.
func (r *ImageRepository) Search(ctx context.Context, keywords []string) ([]models.Image, error) {
	query, args := buildSearchQuery(keywords)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}
	defer rows.Close()
	return scanImages(rows)
}

func (r *ImageRepository) ListByUser(ctx context.Context, username string) ([]models.Image, error) {
	const query = "SELECT image_key, COALESCE(description, ''), `user` FROM images_table WHERE `user` = ? ORDER BY created_at DESC, image_key"
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list user images: %w", err)
	}
	defer rows.Close()
	return scanImages(rows)
}

func buildSearchQuery(keywords []string) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT image_key, COALESCE(description, ''), `user` FROM images_table")
	args := make([]any, 0, len(keywords))
	for i, kw := range keywords {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString("LOWER(description) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(kw))+"%")
	}
	b.WriteString(" ORDER BY created_at DESC, image_key")
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanImages(rows *sql.Rows) ([]models.Image, error) {
	var images []models.Image
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.Key, &img.Description, &img.Username); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
