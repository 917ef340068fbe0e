package ratefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

func TestFetchRates_DecodesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exchange-rates", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("currency"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"currency":"USD","rates":{"JPY":"147.5","EUR":"0.92"}}}`))
	}))
	defer server.Close()

	client := New(server.URL, nil)
	rates, err := client.FetchRates(context.Background(), domain.USD)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates[domain.JPY].Equal(decimal.RequireFromString("147.5")))
	assert.True(t, rates[domain.EUR].Equal(decimal.RequireFromString("0.92")))
}

func TestFetchRates_EmptyRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"currency":"USD","rates":{}}}`))
	}))
	defer server.Close()

	rates, err := New(server.URL, nil).FetchRates(context.Background(), domain.USD)
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestFetchRates_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, nil).FetchRates(context.Background(), domain.USD)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFetchRates_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).FetchRates(context.Background(), domain.USD)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding feed response")
}

func TestFetchRates_BadRateValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"currency":"USD","rates":{"JPY":"not-a-number"}}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, nil).FetchRates(context.Background(), domain.USD)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad rate value")
}

func TestFetchRates_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"data":{"currency":"USD","rates":{}}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL, nil).FetchRates(ctx, domain.USD)
	require.Error(t, err)
}

func TestFetchRates_ServerUnreachable(t *testing.T) {
	client := NewWithTimeout("http://127.0.0.1:1", 200*time.Millisecond, nil)
	_, err := client.FetchRates(context.Background(), domain.USD)
	require.Error(t, err)
}
