/**
 * @description
 * HTTP Client for the CoinGecko public API.
 * Fetches the ranked coin market list the ingestion pipeline samples.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - golang.org/x/time/rate: client-side limiter, the public API is rate limited
 * - backend/internal/config
 */

package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coinpulse-project/backend/internal/config"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second

	apiKeyHeader = "x-cg-demo-api-key"
	maxBodyBytes = 4 << 20
)

var (
	// ErrUnavailable covers network failures, timeouts and non-2xx responses
	ErrUnavailable = errors.New("coingecko unavailable")
	// ErrMalformed is returned when the body cannot be decoded into the expected shape
	ErrMalformed = errors.New("coingecko response malformed")
)

// StatusError carries the HTTP status of a rejected request
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("coingecko api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("coingecko api error: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewClient(cfg *config.Config) *Client {
	perMin := cfg.CoinGecko.RatePerMin
	if perMin <= 0 {
		perMin = 30
	}

	return &Client{
		BaseURL: cfg.CoinGecko.BaseURL,
		APIKey:  cfg.CoinGecko.APIKey,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
	}
}

// MarketsParams holds query parameters for /coins/markets
type MarketsParams struct {
	VsCurrency string
	Order      string // "market_cap_desc", "volume_desc", ...
	PerPage    int
	Page       int
}

// TopByMarketCap is the fixed query the ingestion pipeline runs
func TopByMarketCap(vsCurrency string, n int) MarketsParams {
	return MarketsParams{
		VsCurrency: vsCurrency,
		Order:      "market_cap_desc",
		PerPage:    n,
		Page:       1,
	}
}

// GetMarkets fetches one page of coin market data
func (c *Client) GetMarkets(ctx context.Context, params MarketsParams) ([]CoinMarket, error) {
	u, err := url.Parse(fmt.Sprintf("%s/coins/markets", c.BaseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	vs := params.VsCurrency
	if vs == "" {
		vs = "usd"
	}
	q.Set("vs_currency", vs)
	if params.Order != "" {
		q.Set("order", params.Order)
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	u.RawQuery = q.Encode()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		})
	}

	var markets []CoinMarket
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&markets); err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
			(errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return markets, nil
}
