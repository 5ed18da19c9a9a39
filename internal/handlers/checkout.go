package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Math3wsl3vi/beehives-website/internal/cache"
	"github.com/Math3wsl3vi/beehives-website/internal/cart"
	"github.com/Math3wsl3vi/beehives-website/internal/models"
	"github.com/Math3wsl3vi/beehives-website/internal/order"
	"github.com/Math3wsl3vi/beehives-website/internal/payment"
	"github.com/Math3wsl3vi/beehives-website/internal/receipt"
	"github.com/Math3wsl3vi/beehives-website/internal/store"
	"github.com/shopspring/decimal"
)

// PaymentGateway is what checkout needs from the payment API.
// *mpesa.Client satisfies it.
type PaymentGateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal) (string, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (string, error)
}

type CheckoutHandler struct {
	Store    *store.Store
	Carts    cart.Persister
	Gateway  PaymentGateway
	Flow     *payment.Manager
	Orders   *order.Service
	Attempts *cache.AttemptCache
	Receipts *receipt.Generator

	// BaseCtx outlives individual requests; poll loops hang off it so they
	// survive the initiating request and die with the server.
	BaseCtx context.Context

	// ConfirmDelay keeps the confirmation visible before the cart clears.
	ConfirmDelay time.Duration
	// AttemptTTL bounds the cache mirror; a bit longer than the poll window.
	AttemptTTL time.Duration
}

type initiateRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type initiateResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	State             string `json:"state"`
	Message           string `json:"message"`
}

// Initiate validates the checkout, submits the payment request, and starts
// the status poller for the returned reference. Validation failures never
// reach the gateway; gateway failures are reported and not retried.
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Carts.Load(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error loading cart")
		return
	}
	if c.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Cart is empty. Please add items before checking out.")
		return
	}
	if req.Email == "" || !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	phone, err := payment.NormalizePhone(req.Phone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid phone number format. Use 07XXXXXXXX or 01XXXXXXXX.")
		return
	}

	total := c.Total()
	checkoutRequestID, err := h.Gateway.InitiateSTKPush(r.Context(), phone, total)
	if err != nil {
		slog.Error("Payment initiation failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to initiate payment.")
		return
	}

	attempt := &models.CheckoutAttempt{
		CheckoutRequestID: checkoutRequestID,
		UserEmail:         req.Email,
		PhoneNumber:       phone,
		Amount:            total.String(),
		Items:             c.Items,
		State:             models.AttemptStatePolling,
		CreatedAt:         time.Now(),
	}
	if err := h.Store.CreateCheckoutAttempt(attempt); err != nil {
		slog.Error("Failed to persist checkout attempt", "checkout_request_id", checkoutRequestID, "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Try again.")
		return
	}
	if err := h.Attempts.StoreAttempt(r.Context(), attempt, h.AttemptTTL); err != nil {
		slog.Warn("Failed to cache checkout attempt", "checkout_request_id", checkoutRequestID, "error", err)
	}

	h.Flow.Start(h.BaseCtx, checkoutRequestID, payment.Callbacks{
		OnSuccess: func(ctx context.Context) error {
			saved, err := h.Store.GetCheckoutAttempt(checkoutRequestID)
			if err != nil {
				return fmt.Errorf("failed to load attempt for recording: %w", err)
			}
			_, err = h.Orders.RecordOrder(ctx, saved)
			return err
		},
		OnFailure: func(ctx context.Context) error {
			return h.Orders.MarkFailed(ctx, checkoutRequestID)
		},
		OnTimeout: func(ctx context.Context) error {
			return h.Orders.MarkTimedOut(ctx, checkoutRequestID)
		},
	})

	writeJSON(w, http.StatusAccepted, initiateResponse{
		CheckoutRequestID: checkoutRequestID,
		State:             models.AttemptStatePolling,
		Message:           "Payment initiated. Waiting for confirmation...",
	})
}

type statusResponse struct {
	State       string `json:"state"`
	OrderRef    string `json:"order_ref,omitempty"`
	ReceiptURL  string `json:"receipt_url,omitempty"`
	CartCleared bool   `json:"cart_cleared"`
	Message     string `json:"message"`
}

// Status answers the browser's poll. Once an attempt has been completed for
// longer than the confirmation delay, observing it clears the session cart.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	checkoutRequestID := r.URL.Query().Get("ref")
	if checkoutRequestID == "" {
		writeError(w, http.StatusBadRequest, "Missing checkout reference")
		return
	}

	attempt, err := h.Attempts.GetAttempt(r.Context(), checkoutRequestID)
	if err != nil {
		slog.Warn("Cache lookup failed, falling back to store", "checkout_request_id", checkoutRequestID, "error", err)
	}
	if attempt == nil {
		attempt, err = h.Store.GetCheckoutAttempt(checkoutRequestID)
		if err != nil {
			if errors.Is(err, store.ErrAttemptNotFound) {
				writeError(w, http.StatusNotFound, "Unknown checkout reference")
				return
			}
			writeError(w, http.StatusInternalServerError, "Error fetching payment status")
			return
		}
	}

	resp := statusResponse{State: attempt.State}
	switch attempt.State {
	case models.AttemptStatePolling:
		resp.Message = "Waiting for payment confirmation..."
	case models.AttemptStateFailed:
		resp.Message = "Payment failed. Please try again."
	case models.AttemptStateTimedOut:
		resp.Message = "Payment verification timed out. Try again."
	case models.AttemptStateCompleted:
		resp.Message = "Order and receipt saved successfully!"
		resp.OrderRef = attempt.OrderRef
		if o, err := h.Store.GetOrderByRef(attempt.OrderRef); err == nil {
			resp.ReceiptURL = o.ReceiptURL
		}
		if !attempt.CompletedAt.IsZero() && time.Since(attempt.CompletedAt) >= h.ConfirmDelay {
			if c, err := h.Carts.Load(r); err == nil && !c.IsEmpty() {
				c.Clear()
				if err := h.Carts.Save(r, w, c); err != nil {
					slog.Error("Failed to clear cart after completed order", "error", err)
				} else {
					resp.CartCleared = true
				}
			} else if err == nil {
				resp.CartCleared = true
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// DownloadReceipt renders the receipt for a saved order on demand. The PDF
// always carries the order's stored reference, never a fresh one.
func (h *CheckoutHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	orderRef := r.PathValue("ref")

	o, err := h.Store.GetOrderByRef(orderRef)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching order")
		return
	}

	pdfBytes, err := h.Receipts.Render(o)
	if err != nil {
		slog.Error("Failed to render receipt", "order_ref", orderRef, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=Receipt_%s.pdf", orderRef))
	w.Write(pdfBytes)
}
