package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedQuerier returns its responses in order, repeating the last one once
// the script runs out.
type scriptedQuerier struct {
	mu        sync.Mutex
	responses []queryResponse
	calls     int
}

type queryResponse struct {
	status string
	err    error
}

func (q *scriptedQuerier) QueryStatus(ctx context.Context, checkoutRequestID string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.calls
	q.calls++
	if i >= len(q.responses) {
		i = len(q.responses) - 1
	}
	r := q.responses[i]
	return r.status, r.err
}

func (q *scriptedQuerier) callCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

// callbackRecorder counts terminal callback invocations and closes done on the
// first one.
type callbackRecorder struct {
	mu                        sync.Mutex
	success, failure, timeout int
	done                      chan struct{}
	once                      sync.Once
}

func newCallbackRecorder() *callbackRecorder {
	return &callbackRecorder{done: make(chan struct{})}
}

func (c *callbackRecorder) callbacks() Callbacks {
	return Callbacks{
		OnSuccess: func(ctx context.Context) error {
			c.mu.Lock()
			c.success++
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
			return nil
		},
		OnFailure: func(ctx context.Context) error {
			c.mu.Lock()
			c.failure++
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
			return nil
		},
		OnTimeout: func(ctx context.Context) error {
			c.mu.Lock()
			c.timeout++
			c.mu.Unlock()
			c.once.Do(func() { close(c.done) })
			return nil
		},
	}
}

func (c *callbackRecorder) counts() (success, failure, timeout int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success, c.failure, c.timeout
}

func (c *callbackRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal callback")
	}
}

func TestManagerCompletesAfterPendingPolls(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{status: "PENDING"},
		{status: "PENDING"},
		{status: "PENDING"},
		{status: "COMPLETED"},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, time.Millisecond, 10)

	require.True(t, m.Start(context.Background(), "ws_CO_001", rec.callbacks()))
	rec.wait(t)

	success, failure, timeout := rec.counts()
	assert.Equal(t, 1, success)
	assert.Zero(t, failure)
	assert.Zero(t, timeout)
	assert.Equal(t, 4, querier.callCount())
	assert.Equal(t, StateCompleted, m.StateOf("ws_CO_001"))
}

func TestManagerFailure(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{status: "PENDING"},
		{status: "FAILED"},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, time.Millisecond, 10)

	require.True(t, m.Start(context.Background(), "ws_CO_002", rec.callbacks()))
	rec.wait(t)

	success, failure, timeout := rec.counts()
	assert.Zero(t, success)
	assert.Equal(t, 1, failure)
	assert.Zero(t, timeout)
	assert.Equal(t, StateFailed, m.StateOf("ws_CO_002"))
}

func TestManagerTimesOutAfterBudget(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{status: "PENDING"},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, time.Millisecond, 10)

	require.True(t, m.Start(context.Background(), "ws_CO_003", rec.callbacks()))
	rec.wait(t)

	success, failure, timeout := rec.counts()
	assert.Zero(t, success)
	assert.Zero(t, failure)
	assert.Equal(t, 1, timeout)
	// The budget allows exactly maxAttempts gateway queries.
	assert.Equal(t, 10, querier.callCount())
	assert.Equal(t, StateTimedOut, m.StateOf("ws_CO_003"))
}

func TestManagerTransientErrorsConsumeBudget(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{err: errors.New("gateway unreachable")},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, time.Millisecond, 3)

	require.True(t, m.Start(context.Background(), "ws_CO_004", rec.callbacks()))
	rec.wait(t)

	_, _, timeout := rec.counts()
	assert.Equal(t, 1, timeout)
	assert.Equal(t, 3, querier.callCount())
}

func TestManagerSingleFlightPerReference(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{status: "PENDING"},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, 50*time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, m.Start(ctx, "ws_CO_005", rec.callbacks()))
	assert.False(t, m.Start(ctx, "ws_CO_005", rec.callbacks()))
	// A different reference is unaffected.
	assert.True(t, m.Start(ctx, "ws_CO_006", rec.callbacks()))
}

func TestManagerCancellationForgetsReference(t *testing.T) {
	querier := &scriptedQuerier{responses: []queryResponse{
		{status: "PENDING"},
	}}
	rec := newCallbackRecorder()
	m := NewManager(querier, time.Millisecond, 100)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, m.Start(ctx, "ws_CO_007", rec.callbacks()))
	cancel()

	assert.Eventually(t, func() bool {
		return m.StateOf("ws_CO_007") == StateIdle
	}, time.Second, 5*time.Millisecond)

	success, failure, timeout := rec.counts()
	assert.Zero(t, success+failure+timeout)
}
