package brapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps the brapi.dev quote API for B3 tickers.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://brapi.dev/api"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type quoteResponse struct {
	Results []QuoteResult `json:"results"`
	Error   bool          `json:"error"`
	Message string        `json:"message"`
}

type QuoteResult struct {
	Symbol                     string           `json:"symbol"`
	RegularMarketPrice         float64          `json:"regularMarketPrice"`
	RegularMarketChangePercent float64          `json:"regularMarketChangePercent"`
	LogoURL                    string           `json:"logourl"`
	HistoricalDataPrice        []HistoricalBar  `json:"historicalDataPrice"`
	DividendsData              *DividendsData   `json:"dividendsData"`
}

type HistoricalBar struct {
	Date  int64   `json:"date"`
	Close float64 `json:"close"`
}

type DividendsData struct {
	CashDividends []CashDividend `json:"cashDividends"`
}

type CashDividend struct {
	Rate        float64 `json:"rate"`
	PaymentDate string  `json:"paymentDate"`
}

// GetQuote fetches price, three months of daily closes and the dividend
// history for one ticker.
func (c *Client) GetQuote(ctx context.Context, symbol string) (QuoteResult, error) {
	params := url.Values{}
	params.Set("range", "3mo")
	params.Set("interval", "1d")
	params.Set("dividends", "true")
	if c.token != "" {
		params.Set("token", c.token)
	}

	fullURL := fmt.Sprintf("%s/quote/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return QuoteResult{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return QuoteResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return QuoteResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return QuoteResult{}, fmt.Errorf("brapi api error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return QuoteResult{}, fmt.Errorf("decode brapi response: %w", err)
	}
	if parsed.Error {
		return QuoteResult{}, fmt.Errorf("brapi error: %s", parsed.Message)
	}
	if len(parsed.Results) == 0 {
		return QuoteResult{}, fmt.Errorf("brapi: no results for %s", symbol)
	}
	return parsed.Results[0], nil
}
