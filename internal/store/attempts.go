package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/models"
)

var ErrAttemptNotFound = errors.New("store: checkout attempt not found")

func (s *Store) CreateCheckoutAttempt(a *models.CheckoutAttempt) error {
	itemsJSON, err := json.Marshal(a.Items)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	_, err = s.DB.Exec(`
		INSERT INTO checkout_attempts (checkout_request_id, user_email, phone_number, amount, items, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, a.CheckoutRequestID, a.UserEmail, a.PhoneNumber, a.Amount, string(itemsJSON), a.State)
	return err
}

func (s *Store) GetCheckoutAttempt(checkoutRequestID string) (*models.CheckoutAttempt, error) {
	query := `
		SELECT checkout_request_id, user_email, phone_number, amount, items, state, COALESCE(order_ref, '') as order_ref, created_at, completed_at
		FROM checkout_attempts WHERE checkout_request_id = ?
	`
	var a models.CheckoutAttempt
	var itemsJSON string
	var completedAt sql.NullTime
	err := s.DB.QueryRow(query, checkoutRequestID).Scan(
		&a.CheckoutRequestID, &a.UserEmail, &a.PhoneNumber, &a.Amount,
		&itemsJSON, &a.State, &a.OrderRef, &a.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &a.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	if completedAt.Valid {
		a.CompletedAt = completedAt.Time
	}
	return &a, nil
}

// MarkAttemptTerminal records the poller's outcome. The completed timestamp
// drives the cart-clearing delay on the status endpoint.
func (s *Store) MarkAttemptTerminal(checkoutRequestID, state, orderRef string) error {
	res, err := s.DB.Exec(`
		UPDATE checkout_attempts
		SET state = ?, order_ref = NULLIF(?, ''), completed_at = CURRENT_TIMESTAMP
		WHERE checkout_request_id = ? AND state = ?
	`, state, orderRef, checkoutRequestID, models.AttemptStatePolling)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// PruneAttempts drops terminal attempts older than the retention window.
func (s *Store) PruneAttempts(olderThan time.Duration) (int64, error) {
	res, err := s.DB.Exec(`
		DELETE FROM checkout_attempts
		WHERE state != ? AND created_at < datetime('now', ?)
	`, models.AttemptStatePolling, fmt.Sprintf("-%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
