package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.paystack.co"

var (
	ErrNotConfigured = errors.New("paystack: secret key not configured")
	ErrRequest       = errors.New("paystack: request failed")
)

type Config struct {
	SecretKey string
	PublicKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the Paystack transaction API. It holds credentials only.
type Client struct {
	secretKey  string
	publicKey  string
	baseURL    string
	HTTPClient *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey: strings.TrimSpace(cfg.SecretKey),
		publicKey: strings.TrimSpace(cfg.PublicKey),
		baseURL:   base,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) IsConfigured() bool { return c.secretKey != "" }

func (c *Client) PublicKey() string { return c.publicKey }

type Metadata struct {
	PlanID   string `json:"planId,omitempty"`
	PlanName string `json:"planName,omitempty"`
	Email    string `json:"email,omitempty"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type InitializeResponse struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Data    InitializeData `json:"data"`
}

// VerifyResponse keeps the transaction body raw so it can be handed back to
// callers untouched. Use Transaction to read the fields the service needs.
type VerifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Transaction struct {
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	RawMeta   json.RawMessage `json:"metadata"`
}

// Transaction decodes the verify payload. Missing or non-object metadata
// yields an empty Metadata.
func (r *VerifyResponse) Transaction() (Transaction, Metadata) {
	var tx Transaction
	var meta Metadata
	if len(r.Data) == 0 {
		return tx, meta
	}
	_ = json.Unmarshal(r.Data, &tx)
	if len(tx.RawMeta) > 0 {
		_ = json.Unmarshal(tx.RawMeta, &meta)
	}
	return tx, meta
}

// Succeeded reports whether the gateway accepted the call and the charge settled.
func (r *VerifyResponse) Succeeded() bool {
	if !r.Status {
		return false
	}
	tx, _ := r.Transaction()
	return tx.Status == "success"
}

func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("paystack: encode initialize: %w", err)
	}

	var out InitializeResponse
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var out VerifyResponse
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrRequest, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequest, err)
	}
	return nil
}
