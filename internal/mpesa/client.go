// Package mpesa is the HTTP client for the payment gateway's STK push API.
// The gateway is an opaque collaborator: we send an initiation request, get
// back a checkout reference, and later ask what became of it.
package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Terminal statuses as the gateway reports them. Anything else means the
// payment is still in flight and the caller should keep polling.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

var ErrInitiationFailed = errors.New("mpesa: payment initiation failed")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type stkPushRequest struct {
	Phone  string          `json:"phone"`
	Amount decimal.Decimal `json:"amount"`
}

type stkPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type statusRequest struct {
	CheckoutRequestID string `json:"checkoutRequestID"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// InitiateSTKPush asks the gateway to push a payment prompt to the phone.
// The returned reference is the key for all later status queries. Callers
// must not retry a failure automatically.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(stkPushRequest{Phone: phone, Amount: amount})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, c.BaseURL+"/stkpush", body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInitiationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: gateway returned %s", ErrInitiationFailed, resp.Status)
	}

	var out stkPushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: bad response body: %v", ErrInitiationFailed, err)
	}
	if out.CheckoutRequestID == "" {
		return "", fmt.Errorf("%w: response missing CheckoutRequestID", ErrInitiationFailed)
	}
	return out.CheckoutRequestID, nil
}

// QueryStatus returns the gateway's view of one checkout reference. Only
// StatusCompleted and StatusFailed are terminal.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (string, error) {
	body, err := json.Marshal(statusRequest{CheckoutRequestID: checkoutRequestID})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, c.BaseURL+"/status", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("mpesa: status query returned %s", resp.Status)
	}

	var out statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("mpesa: bad status response body: %w", err)
	}
	return out.Status, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.HTTPClient.Do(req)
}
