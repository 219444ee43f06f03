package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/digkill/wallify/internal/models"
)

type SupportRepository struct {
	db *sql.DB
}

func NewSupportRepository(db *sql.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// CreateThread inserts the thread and its opening message atomically.
func (r *SupportRepository) CreateThread(ctx context.Context, thread *models.SupportThread, first *models.ThreadMessage) (*models.SupportThread, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO support_threads (title, author_username, created_at, status, category)
VALUES (?, ?, ?, ?, ?)`, thread.Title, thread.AuthorUsername, thread.CreatedAt, thread.Status, thread.Category)
	if err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("thread last insert id: %w", err)
	}

	res, err = tx.ExecContext(ctx, `
INSERT INTO thread_messages (thread_id, author_username, content, created_at, is_admin_reply)
VALUES (?, ?, ?, ?, ?)`, id, first.AuthorUsername, first.Content, first.CreatedAt, first.IsAdminReply)
	if err != nil {
		return nil, fmt.Errorf("insert first message: %w", err)
	}
	msgID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit thread tx: %w", err)
	}
	thread.ID = id
	first.ID = msgID
	first.ThreadID = id
	return thread, nil
}

func (r *SupportRepository) GetThread(ctx context.Context, id int64) (*models.SupportThread, error) {
	const query = `
SELECT id, title, author_username, category, status, created_at
FROM support_threads WHERE id = ?`
	var t models.SupportThread
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.AuthorUsername, &t.Category, &t.Status, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &t, nil
}

func (r *SupportRepository) ListThreads(ctx context.Context, filter models.ThreadFilter, limit, offset int) ([]models.SupportThread, error) {
	where, args := threadFilterClause(filter)
	query := `
SELECT t.id, t.title, t.author_username, t.category, t.status, t.created_at
FROM support_threads t` + where + `
ORDER BY t.created_at DESC, t.id DESC
LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var threads []models.SupportThread
	for rows.Next() {
		var t models.SupportThread
		if err := rows.Scan(&t.ID, &t.Title, &t.AuthorUsername, &t.Category, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func (r *SupportRepository) CountThreads(ctx context.Context, filter models.ThreadFilter) (int, error) {
	where, args := threadFilterClause(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM support_threads t`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count threads: %w", err)
	}
	return count, nil
}

func threadFilterClause(filter models.ThreadFilter) (string, []any) {
	var conds []string
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		conds = append(conds, `(LOWER(t.title) LIKE ? OR EXISTS (
    SELECT 1 FROM thread_messages m WHERE m.thread_id = t.id AND LOWER(m.content) LIKE ?))`)
		args = append(args, pattern, pattern)
	}
	if filter.Category != "" {
		conds = append(conds, "t.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "t.status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func (r *SupportRepository) Messages(ctx context.Context, threadID int64) ([]models.ThreadMessage, error) {
	const query = `
SELECT id, thread_id, author_username, content, is_admin_reply, created_at
FROM thread_messages WHERE thread_id = ?
ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ThreadMessage
	for rows.Next() {
		var m models.ThreadMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.AuthorUsername, &m.Content, &m.IsAdminReply, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *SupportRepository) AddMessage(ctx context.Context, msg *models.ThreadMessage) error {
	const query = `
INSERT INTO thread_messages (thread_id, author_username, content, created_at, is_admin_reply)
VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, msg.ThreadID, msg.AuthorUsername, msg.Content, msg.CreatedAt, msg.IsAdminReply)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("message last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

func (r *SupportRepository) UpdateStatus(ctx context.Context, id int64, status models.ThreadStatus) error {
	const query = `UPDATE support_threads SET status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("update thread status: %w", err)
	}
	return nil
}

// DeleteThread removes the thread; messages go with it via ON DELETE CASCADE.
func (r *SupportRepository) DeleteThread(ctx context.Context, id int64) error {
	const query = `DELETE FROM support_threads WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}
