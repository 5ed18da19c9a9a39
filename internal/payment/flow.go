// Package payment holds the checkout payment flow: phone validation up front
// and the status-polling state machine that decides how a checkout ends.
// There is exactly one implementation of the poll loop; every call site
// parameterizes it with its own side-effect callbacks.
package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type State string

const (
	StateIdle      State = "IDLE"
	StatePolling   State = "POLLING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateTimedOut  State = "TIMED_OUT"
)

// StatusQuerier asks the gateway what became of one checkout reference.
// *mpesa.Client satisfies it.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, checkoutRequestID string) (string, error)
}

// Callbacks are the side effects a poll cycle can trigger. Each fires at most
// once, and at most one of them fires per cycle.
type Callbacks struct {
	OnSuccess func(ctx context.Context) error
	OnFailure func(ctx context.Context) error
	OnTimeout func(ctx context.Context) error
}

// Terminal gateway statuses. Mirrored here so the flow does not import the
// client package.
const (
	gatewayCompleted = "COMPLETED"
	gatewayFailed    = "FAILED"
)

// Manager runs at most one poll cycle per checkout reference. A second Start
// for a reference that is already polling is ignored.
type Manager struct {
	querier     StatusQuerier
	interval    time.Duration
	maxAttempts int

	mu     sync.Mutex
	active map[string]State
}

func NewManager(querier StatusQuerier, interval time.Duration, maxAttempts int) *Manager {
	return &Manager{
		querier:     querier,
		interval:    interval,
		maxAttempts: maxAttempts,
		active:      make(map[string]State),
	}
}

// Start launches the poll loop for checkoutRequestID in a goroutine. Returns
// false if a loop for that reference is already running. ctx cancellation
// (server shutdown) is the only external way to stop a running loop.
func (m *Manager) Start(ctx context.Context, checkoutRequestID string, cb Callbacks) bool {
	m.mu.Lock()
	if state, ok := m.active[checkoutRequestID]; ok && state == StatePolling {
		m.mu.Unlock()
		slog.Warn("Poll cycle already active, ignoring duplicate start", "checkout_request_id", checkoutRequestID)
		return false
	}
	m.active[checkoutRequestID] = StatePolling
	m.mu.Unlock()

	go m.poll(ctx, checkoutRequestID, cb)
	return true
}

// StateOf reports the flow state for a reference, or StateIdle if the manager
// has never seen it.
func (m *Manager) StateOf(checkoutRequestID string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.active[checkoutRequestID]; ok {
		return state
	}
	return StateIdle
}

func (m *Manager) setState(checkoutRequestID string, state State) {
	m.mu.Lock()
	m.active[checkoutRequestID] = state
	m.mu.Unlock()
}

func (m *Manager) poll(ctx context.Context, checkoutRequestID string, cb Callbacks) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	retries := 0
	resultHandled := false // guards against double-firing a terminal callback

	for {
		select {
		case <-ctx.Done():
			slog.Info("Poll cycle cancelled", "checkout_request_id", checkoutRequestID, "reason", ctx.Err())
			m.mu.Lock()
			delete(m.active, checkoutRequestID)
			m.mu.Unlock()
			return
		case <-ticker.C:
			if retries >= m.maxAttempts {
				m.setState(checkoutRequestID, StateTimedOut)
				slog.Info("Payment verification timed out", "checkout_request_id", checkoutRequestID, "attempts", retries)
				if !resultHandled && cb.OnTimeout != nil {
					resultHandled = true
					if err := cb.OnTimeout(ctx); err != nil {
						slog.Error("Timeout callback failed", "checkout_request_id", checkoutRequestID, "error", err)
					}
				}
				return
			}

			status, err := m.querier.QueryStatus(ctx, checkoutRequestID)
			if err != nil {
				// Transient failures just let the next scheduled attempt
				// happen; they still consume retry budget.
				slog.Warn("Status query failed", "checkout_request_id", checkoutRequestID, "attempt", retries+1, "error", err)
				retries++
				continue
			}

			switch status {
			case gatewayCompleted:
				m.setState(checkoutRequestID, StateCompleted)
				if !resultHandled && cb.OnSuccess != nil {
					resultHandled = true
					if err := cb.OnSuccess(ctx); err != nil {
						slog.Error("Success callback failed", "checkout_request_id", checkoutRequestID, "error", err)
					}
				}
				return
			case gatewayFailed:
				m.setState(checkoutRequestID, StateFailed)
				slog.Info("Payment failed", "checkout_request_id", checkoutRequestID)
				if !resultHandled && cb.OnFailure != nil {
					resultHandled = true
					if err := cb.OnFailure(ctx); err != nil {
						slog.Error("Failure callback failed", "checkout_request_id", checkoutRequestID, "error", err)
					}
				}
				return
			default:
				// Anything that is not COMPLETED or FAILED means keep polling.
				retries++
			}
		}
	}
}
