// Package order records confirmed purchases: the order row, the stock
// adjustment, and the receipt artifact.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/cache"
	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/receipt"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
)

var ErrEmptyAttempt = errors.New("order: checkout attempt has no items")

type Service struct {
	Store    *store.Store
	Receipts *receipt.Generator
	Attempts *cache.AttemptCache
	// Now feeds the ORD-<epoch-millis> reference; tests pin it.
	Now func() time.Time
}

func NewService(st *store.Store, gen *receipt.Generator, attempts *cache.AttemptCache) *Service {
	return &Service{Store: st, Receipts: gen, Attempts: attempts, Now: time.Now}
}

// NewOrderRef generates the public order identifier.
func (s *Service) NewOrderRef() string {
	return fmt.Sprintf("ORD-%d", s.Now().UnixMilli())
}

// RecordOrder runs when the poller confirms payment. The order row, its line
// items, and every stock decrement commit in one transaction; a sold-out or
// deleted product aborts the whole order. The receipt is generated after the
// commit, and a receipt failure leaves the order standing without a link
// rather than unwinding the sale.
func (s *Service) RecordOrder(ctx context.Context, attempt *models.CheckoutAttempt) (*models.Order, error) {
	if len(attempt.Items) == 0 {
		return nil, ErrEmptyAttempt
	}

	order := &models.Order{
		OrderRef:    s.NewOrderRef(),
		UserEmail:   attempt.UserEmail,
		PhoneNumber: attempt.PhoneNumber,
		TotalAmount: attempt.Amount,
		Status:      models.OrderStatusCompleted,
	}
	for _, item := range attempt.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	if err := s.Store.CreateOrder(order); err != nil {
		s.markTerminal(ctx, attempt.CheckoutRequestID, models.AttemptStateFailed, "")
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	receiptURL, err := s.Receipts.GenerateAndUpload(ctx, order)
	if err != nil {
		// The order exists and the payment went through; losing the receipt
		// link is reported, not rolled back.
		slog.Error("Failed to generate receipt", "order_ref", order.OrderRef, "error", err)
	} else {
		if err := s.Store.AttachReceipt(order.OrderRef, receiptURL); err != nil {
			slog.Error("Failed to attach receipt to order", "order_ref", order.OrderRef, "error", err)
		} else {
			order.ReceiptURL = receiptURL
		}
	}

	s.markTerminal(ctx, attempt.CheckoutRequestID, models.AttemptStateCompleted, order.OrderRef)
	slog.Info("Order recorded", "order_ref", order.OrderRef, "total", order.TotalAmount, "items", len(order.Items))
	return order, nil
}

// MarkFailed closes an attempt whose payment the gateway rejected. The cart
// is left untouched for another try.
func (s *Service) MarkFailed(ctx context.Context, checkoutRequestID string) error {
	s.markTerminal(ctx, checkoutRequestID, models.AttemptStateFailed, "")
	return nil
}

// MarkTimedOut closes an attempt whose polling budget ran out with no
// terminal answer from the gateway.
func (s *Service) MarkTimedOut(ctx context.Context, checkoutRequestID string) error {
	s.markTerminal(ctx, checkoutRequestID, models.AttemptStateTimedOut, "")
	return nil
}

func (s *Service) markTerminal(ctx context.Context, checkoutRequestID, state, orderRef string) {
	if err := s.Store.MarkAttemptTerminal(checkoutRequestID, state, orderRef); err != nil {
		slog.Error("Failed to mark checkout attempt terminal", "checkout_request_id", checkoutRequestID, "state", state, "error", err)
	}
	// Drop the cache mirror; status reads fall through to the store from
	// here on.
	if err := s.Attempts.DeleteAttempt(ctx, checkoutRequestID); err != nil {
		slog.Warn("Failed to drop checkout attempt from cache", "checkout_request_id", checkoutRequestID, "error", err)
	}
}
