// Package finnhub provides a client for the Finnhub market data API
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

const (
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// ErrNoData indicates the provider answered but had no data for the symbol
// (the zero/zero quote sentinel or a "no_data" candle status).
var ErrNoData = errors.New("finnhub: no data for symbol")

// Client implements the MarketFeedClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// quoteResponse is the raw Finnhub quote payload.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePct     float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// GetQuote retrieves a live quote for a symbol.
// A current/previous-close of zero/zero is the provider's "no data" sentinel
// and is returned as ErrNoData.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var raw quoteResponse
	if err := c.get(ctx, "/quote", params, &raw); err != nil {
		return nil, err
	}

	if raw.Current == 0 && raw.PreviousClose == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	ts := time.Now()
	if raw.Timestamp > 0 {
		ts = time.Unix(raw.Timestamp, 0).UTC()
	}

	return &models.Quote{
		Symbol:        symbol,
		Current:       raw.Current,
		Change:        raw.Change,
		ChangePct:     raw.ChangePct,
		Open:          raw.Open,
		High:          raw.High,
		Low:           raw.Low,
		PreviousClose: raw.PreviousClose,
		Timestamp:     ts,
		Source:        models.SourceFinnhub,
	}, nil
}

// profileResponse is the raw Finnhub company profile payload.
type profileResponse struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Industry string `json:"finnhubIndustry"`
	Currency string `json:"currency"`
	Logo     string `json:"logo"`
}

// GetProfile retrieves descriptive company data. Finnhub answers an unknown
// symbol with an empty object, which is returned as ErrNoData.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var raw profileResponse
	if err := c.get(ctx, "/stock/profile2", params, &raw); err != nil {
		return nil, err
	}

	if raw.Name == "" && raw.Ticker == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	return &models.CompanyProfile{
		Symbol:   symbol,
		Name:     raw.Name,
		Industry: raw.Industry,
		Currency: raw.Currency,
		LogoURL:  raw.Logo,
		Source:   models.SourceFinnhub,
	}, nil
}

// candleResponse is the raw Finnhub candle payload.
type candleResponse struct {
	Closes     []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
	Status     string    `json:"s"`
}

// GetCandles retrieves a historical close-price series, oldest first.
// A "no_data" status is returned as ErrNoData.
func (c *Client) GetCandles(ctx context.Context, symbol, resolution string, from, to time.Time) (*models.CandleSeries, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("resolution", resolution)
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	var raw candleResponse
	if err := c.get(ctx, "/stock/candle", params, &raw); err != nil {
		return nil, err
	}

	if raw.Status == "no_data" {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if len(raw.Closes) != len(raw.Timestamps) {
		return nil, fmt.Errorf("finnhub: mismatched candle arrays for %s (%d closes, %d timestamps)",
			symbol, len(raw.Closes), len(raw.Timestamps))
	}

	series := &models.CandleSeries{
		Symbol:     symbol,
		Resolution: resolution,
		Candles:    make([]models.Candle, len(raw.Closes)),
		Source:     models.SourceFinnhub,
	}
	for i := range raw.Closes {
		series.Candles[i] = models.Candle{
			Timestamp: time.Unix(raw.Timestamps[i], 0).UTC(),
			Close:     raw.Closes[i],
		}
	}

	return series, nil
}

// Ensure Client implements MarketFeedClient
var _ interfaces.MarketFeedClient = (*Client)(nil)
