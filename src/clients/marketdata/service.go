// Package marketdata fetches the latest market price for a symbol from the Yahoo chart endpoint.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio/src/config"
	"portfolio/src/utils"
	"portfolio/src/utils/requests"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var (
	ErrNoPrice       = errors.New("marketdata: no price for symbol")
	ErrUnknownSymbol = errors.New("marketdata: unknown symbol")
)

// PriceFetcher returns the latest positive market price for a symbol.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type MarketDataClient struct {
	API        *requests.ExternalAPIService
	BaseURL    string
	limiter    *rate.Limiter
	maxRetries uint64
}

// NewClient creates a new instance of MarketDataClient
func NewClient(cfg *config.Config) *MarketDataClient {
	mdc := cfg.ExternalClients.MarketData
	timeout := mdc.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	rps := mdc.RateLimit
	if rps <= 0 {
		rps = 5
	}
	return &MarketDataClient{
		API:        requests.NewExternalAPIService(timeout, "portfolio-server/1.0"),
		BaseURL:    strings.TrimRight(mdc.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		maxRetries: mdc.MaxRetries,
	}
}

// FetchPrice returns the regular market price, falling back to the last non-empty close.
// Transient failures are retried while ctx allows it.
func (c *MarketDataClient) FetchPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, ErrUnknownSymbol
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(200*time.Millisecond))

	var price decimal.Decimal
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		p, err := c.fetchOnce(ctx, symbol)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (c *MarketDataClient) fetchOnce(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.BaseURL, url.PathEscape(symbol))
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "5d")

	var raw chartResponse
	if err := c.API.GetJSON(ctx, endpoint, "", params, &raw); err != nil {
		var httpErr *utils.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
		}
		return decimal.Zero, err
	}
	if raw.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %s", ErrUnknownSymbol, symbol, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}

	return latestPrice(raw.Chart.Result[0], symbol)
}

func latestPrice(r chartResult, symbol string) (decimal.Decimal, error) {
	if r.Meta.RegularMarketPrice > 0 {
		return decimal.NewFromFloat(r.Meta.RegularMarketPrice), nil
	}
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				return decimal.NewFromFloat(*closes[i]), nil
			}
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
}

func isTransient(err error) bool {
	if errors.Is(err, ErrUnknownSymbol) || errors.Is(err, ErrNoPrice) {
		return false
	}
	// a body that does not decode will not decode on the next attempt either
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	var httpErr *utils.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusTooManyRequests || httpErr.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
