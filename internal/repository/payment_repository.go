package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digkill/wallify/internal/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Record stores a checkout observation, updating the row when the same
// session is reported again (webhook after return, or a redelivery).
func (r *PaymentRepository) Record(ctx context.Context, payment *models.Payment) error {
	const query = `
INSERT INTO payments (username, provider, checkout_session_id, status, source, raw_payload)
VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE status = VALUES(status), source = VALUES(source), raw_payload = VALUES(raw_payload), updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, payment.Username, payment.Provider, payment.CheckoutSessionID, payment.Status, payment.Source, payment.RawPayload); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindBySession(ctx context.Context, provider, sessionID string) (*models.Payment, error) {
	const query = `
SELECT id, username, provider, checkout_session_id, status, source, COALESCE(raw_payload, ''), created_at, COALESCE(updated_at, created_at)
FROM payments WHERE provider = ? AND checkout_session_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, provider, sessionID)
	var p models.Payment
	if err := row.Scan(&p.ID, &p.Username, &p.Provider, &p.CheckoutSessionID, &p.Status, &p.Source, &p.RawPayload, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}
