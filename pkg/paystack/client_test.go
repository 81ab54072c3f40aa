package paystack_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rightmycv/pkg/paystack"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *paystack.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return paystack.NewClient(paystack.Config{SecretKey: "sk_test", PublicKey: "pk_test", BaseURL: srv.URL})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ref_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{
			"status":"success","reference":"ref_123","amount":999900,"currency":"NGN",
			"paid_at":"2024-03-01T00:00:00.000Z",
			"metadata":{"planId":"p1","planName":"Premium","email":"a@x.io"}}}`))
	})

	resp, err := c.Verify(context.Background(), "ref_123")
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())

	tx, meta := resp.Transaction()
	assert.Equal(t, int64(999900), tx.Amount)
	assert.Equal(t, "NGN", tx.Currency)
	assert.Equal(t, "2024-03-01T00:00:00.000Z", tx.PaidAt)
	assert.Equal(t, paystack.Metadata{PlanID: "p1", PlanName: "Premium", Email: "a@x.io"}, meta)
}

func TestVerifyFailedCharge(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"status":"abandoned","metadata":""}}`))
	})

	resp, err := c.Verify(context.Background(), "ref_1")
	require.NoError(t, err)
	assert.False(t, resp.Succeeded())

	_, meta := resp.Transaction()
	assert.Equal(t, paystack.Metadata{}, meta)
}

func TestVerifyNon2xx(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	_, err := c.Verify(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, paystack.ErrRequest))
}

func TestVerifyTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	c := paystack.NewClient(paystack.Config{SecretKey: "sk", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Verify(context.Background(), "slow")
	assert.ErrorIs(t, err, paystack.ErrRequest)
}

func TestUnconfigured(t *testing.T) {
	t.Parallel()

	c := paystack.NewClient(paystack.Config{})
	assert.False(t, c.IsConfigured())

	_, err := c.Verify(context.Background(), "ref")
	assert.ErrorIs(t, err, paystack.ErrNotConfigured)

	_, err = c.Initialize(context.Background(), paystack.InitializeRequest{})
	assert.ErrorIs(t, err, paystack.ErrNotConfigured)
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)

		var body paystack.InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(999900), body.Amount)
		assert.Equal(t, "Premium", body.Metadata.PlanName)

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{
			"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_9"}}`))
	})

	resp, err := c.Initialize(context.Background(), paystack.InitializeRequest{
		Email:    "a@x.io",
		Amount:   999900,
		Metadata: paystack.Metadata{PlanID: "p1", PlanName: "Premium", Email: "a@x.io"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ref_9", resp.Data.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp.Data.AuthorizationURL)
}
