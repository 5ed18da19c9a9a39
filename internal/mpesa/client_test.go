package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiateSTKPush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/stkpush", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "254712345678", req["phone"])

		json.NewEncoder(w).Encode(map[string]string{"CheckoutRequestID": "ws_CO_291120250001"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	ref, err := c.InitiateSTKPush(context.Background(), "254712345678", decimal.NewFromInt(4500))
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_291120250001", ref)
}

func TestInitiateSTKPushGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broke", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.InitiateSTKPush(context.Background(), "254712345678", decimal.NewFromInt(4500))
	assert.ErrorIs(t, err, ErrInitiationFailed)
}

func TestInitiateSTKPushMissingReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.InitiateSTKPush(context.Background(), "254712345678", decimal.NewFromInt(4500))
	assert.ErrorIs(t, err, ErrInitiationFailed)
}

func TestQueryStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ws_CO_291120250001", req["checkoutRequestID"])

		json.NewEncoder(w).Encode(map[string]string{"status": StatusCompleted})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	status, err := c.QueryStatus(context.Background(), "ws_CO_291120250001")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestQueryStatusGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.QueryStatus(context.Background(), "ws_CO_291120250001")
	assert.Error(t, err)
}
