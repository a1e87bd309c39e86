// Package rates implements the client for the external exchange-rate
// service used by currency form calculations.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/config"
)

// ErrRateNotFound is returned when the provider has no rate for a code.
var ErrRateNotFound = errors.New("rates: no rate for currency code")

// Client fetches euro exchange rates. The provider quotes foreign units
// per EUR; RateToEuro returns the inverse (euros per one foreign unit)
// rounded to six decimals, which is what the storefront stores.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a rates Client. A missing API key is logged but not
// fatal; lookups will fail with provider errors.
func NewClient(cfg config.RatesConfig, logger *zap.Logger) *Client {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("exchange-rate API key not configured",
			zap.String("api_key_env", cfg.APIKeyEnv))
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// providerResponse is the shape returned by the rate provider's /latest
// endpoint. Rates are foreign units per one EUR.
type providerResponse struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *providerError     `json:"error"`
}

type providerError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// RateToEuro returns euros per one unit of the given currency, rounded to
// six decimal places. Returns ErrRateNotFound when the provider does not
// quote the code.
func (c *Client) RateToEuro(ctx context.Context, code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrRateNotFound
	}
	if code == "EUR" {
		return 1, nil
	}

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("symbols", code)
	reqURL := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("rates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rates: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("rates: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rates: provider returned status %d", resp.StatusCode)
	}

	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, fmt.Errorf("rates: decode response: %w", err)
	}
	if pr.Error != nil {
		return 0, fmt.Errorf("rates: provider error %s: %s", pr.Error.Type, pr.Error.Info)
	}

	perEuro, ok := pr.Rates[code]
	if !ok || perEuro <= 0 {
		return 0, ErrRateNotFound
	}

	return RoundRate(1 / perEuro), nil
}

// Calculate adapts the client to the form engine's calculator contract.
// The trigger value is the currency code from the matched connection row.
func (c *Client) Calculate(ctx context.Context, trigger any) (any, error) {
	code, ok := trigger.(string)
	if !ok {
		return nil, fmt.Errorf("rates: trigger value %v is not a currency code", trigger)
	}
	rate, err := c.RateToEuro(ctx, code)
	if err != nil {
		return nil, err
	}
	return rate, nil
}
