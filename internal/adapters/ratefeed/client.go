package ratefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvcfund/exchange-platform/internal/core/domain"
)

// DefaultTimeout bounds every feed request; the resolver must never hang on
// market data.
const DefaultTimeout = 5 * time.Second

// Client fetches live quotes from a public rate-quote service. The response
// is a JSON object mapping target currency codes to string-valued rates.
// Best-effort only: every failure degrades the resolver chain, never the caller.
type Client struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// New constructs a feed client with the default timeout.
func New(baseURL string, logger *slog.Logger) *Client {
	return NewWithTimeout(baseURL, DefaultTimeout, logger)
}

// NewWithTimeout constructs a feed client with an explicit timeout.
func NewWithTimeout(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchRates loads the current quotes for all targets of one base currency.
func (c *Client) FetchRates(ctx context.Context, base domain.Currency) (map[domain.Currency]decimal.Decimal, error) {
	type response struct {
		Data struct {
			Currency string            `json:"currency"`
			Rates    map[string]string `json:"rates"`
		} `json:"data"`
	}

	url := fmt.Sprintf("%s/exchange-rates?currency=%s", c.baseURL, base)

	c.logger.Debug("Fetching external rates", slog.String("currency", base.String()), slog.String("url", url))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	httpResponse, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed responded with status %d", httpResponse.StatusCode)
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed response: %w", err)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding feed response: %w", err)
	}

	rates := make(map[domain.Currency]decimal.Decimal, len(resp.Data.Rates))
	for code, value := range resp.Data.Rates {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("bad rate value %q for %s: %w", value, code, err)
		}
		rates[domain.Currency(code)] = rate
	}

	return rates, nil
}
