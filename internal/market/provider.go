// Package market fetches and caches Bitcoin/COP market data. Current
// prices come from CoinGecko, historical exchange rates from
// exchangerate.host; every fetch degrades to the most recent known-good
// value instead of failing the caller.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultUSDCOPRate is the hardcoded fallback used when no exchange
// rate can be fetched at all.
const DefaultUSDCOPRate = 4000

const (
	coinGeckoBaseURL      = "https://api.coingecko.com/api/v3"
	exchangeRateHostURL   = "https://api.exchangerate.host"
	defaultRequestTimeout = 10 * time.Second
)

// Provider supplies current and historical Bitcoin prices (USD) and
// USD/COP exchange rates.
type Provider interface {
	CurrentPrice(ctx context.Context) (float64, error)
	CurrentRate(ctx context.Context) (float64, error)
	HistoricalPrice(ctx context.Context, date time.Time) (float64, error)
	HistoricalRate(ctx context.Context, date time.Time) (float64, error)
}

// Client is the HTTP-backed Provider.
type Client struct {
	httpClient      *http.Client
	coinGeckoURL    string
	exchangeRateURL string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURLs overrides the upstream API endpoints, mainly for tests.
func WithBaseURLs(coinGecko, exchangeRate string) ClientOption {
	return func(c *Client) {
		c.coinGeckoURL = coinGecko
		c.exchangeRateURL = exchangeRate
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: defaultRequestTimeout},
		coinGeckoURL:    coinGeckoBaseURL,
		exchangeRateURL: exchangeRateHostURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentPrice returns the current Bitcoin price in USD.
func (c *Client) CurrentPrice(ctx context.Context) (float64, error) {
	var out map[string]map[string]float64
	u := c.coinGeckoURL + "/simple/price?ids=bitcoin&vs_currencies=usd"
	if err := c.getJSON(ctx, u, &out); err != nil {
		return 0, fmt.Errorf("fetch bitcoin price: %w", err)
	}
	price := out["bitcoin"]["usd"]
	if price == 0 {
		return 0, fmt.Errorf("fetch bitcoin price: empty response")
	}
	return price, nil
}

// CurrentRate returns the current USD/COP exchange rate. A missing
// value in the response degrades to DefaultUSDCOPRate rather than an
// error, matching how the rest of the system treats the rate as
// best-effort.
func (c *Client) CurrentRate(ctx context.Context) (float64, error) {
	var out map[string]map[string]float64
	u := c.coinGeckoURL + "/simple/price?ids=usd&vs_currencies=cop"
	if err := c.getJSON(ctx, u, &out); err != nil {
		return 0, fmt.Errorf("fetch usd/cop rate: %w", err)
	}
	rate := out["usd"]["cop"]
	if rate == 0 {
		rate = DefaultUSDCOPRate
	}
	return rate, nil
}

// HistoricalPrice returns the Bitcoin price in USD on the given date,
// falling back to the current price when history is unavailable.
func (c *Client) HistoricalPrice(ctx context.Context, date time.Time) (float64, error) {
	// CoinGecko wants DD-MM-YYYY.
	u := fmt.Sprintf("%s/coins/bitcoin/history?date=%s", c.coinGeckoURL, date.Format("02-01-2006"))
	var out struct {
		MarketData struct {
			CurrentPrice map[string]float64 `json:"current_price"`
		} `json:"market_data"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return c.CurrentPrice(ctx)
	}
	price := out.MarketData.CurrentPrice["usd"]
	if price == 0 {
		return c.CurrentPrice(ctx)
	}
	return price, nil
}

// HistoricalRate returns the USD/COP rate on the given date, falling
// back to the current rate when history is unavailable.
func (c *Client) HistoricalRate(ctx context.Context, date time.Time) (float64, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	q.Set("base", "USD")
	q.Set("symbols", "COP")
	u := c.exchangeRateURL + "/historical?" + q.Encode()
	var out struct {
		Success bool               `json:"success"`
		Rates   map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return c.CurrentRate(ctx)
	}
	if !out.Success || out.Rates["COP"] == 0 {
		return c.CurrentRate(ctx)
	}
	return out.Rates["COP"], nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
