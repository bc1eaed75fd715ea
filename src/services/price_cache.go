package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"portfolio/src/clients/marketdata"
	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// maxSharedRefresh bounds a shared fetch that has outlived every caller waiting on it.
const maxSharedRefresh = 30 * time.Second

// QuoteStore persists quotes beyond the process. Get returns repositories.ErrNotFound for unknown symbols.
type QuoteStore interface {
	Get(ctx context.Context, symbol string) (*models.PriceQuote, error)
	Put(ctx context.Context, q *models.PriceQuote) error
	List(ctx context.Context) ([]models.PriceQuote, error)
}

// PriceResolver is the price lookup the ledger stamps lots with.
type PriceResolver interface {
	Resolve(ctx context.Context, symbol string, timeout time.Duration) (decimal.NullDecimal, error)
}

type PriceCacheI interface {
	PriceResolver
	Get(ctx context.Context, symbol string) (*models.PriceQuote, bool)
	Put(ctx context.Context, symbol string, price decimal.Decimal) (*models.PriceQuote, error)
	Refresh(ctx context.Context, symbol string) (*models.PriceQuote, error)
	List(ctx context.Context) ([]models.PriceQuote, error)
}

// PriceCache keeps the latest quote per symbol in memory, backed by an optional QuoteStore.
// Entries never expire; only Refresh contacts the market data source.
type PriceCache struct {
	mu      sync.RWMutex
	quotes  map[string]models.PriceQuote
	store   QuoteStore
	fetcher marketdata.PriceFetcher
	group   singleflight.Group
	now     func() time.Time
}

func NewPriceCache(store QuoteStore, fetcher marketdata.PriceFetcher) *PriceCache {
	return &PriceCache{
		quotes:  make(map[string]models.PriceQuote),
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Get returns the cached quote, falling back to the store on a memory miss.
func (c *PriceCache) Get(ctx context.Context, symbol string) (*models.PriceQuote, bool) {
	symbol = normalizeSymbol(symbol)

	c.mu.RLock()
	q, ok := c.quotes[symbol]
	c.mu.RUnlock()
	if ok {
		return &q, true
	}
	if c.store == nil {
		return nil, false
	}

	stored, err := c.store.Get(ctx, symbol)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			utils.LoggerFromContext(ctx).WithError(err).WithField("symbol", symbol).Warn("Failed to read stored quote")
		}
		return nil, false
	}

	c.mu.Lock()
	// A concurrent Put may have landed while the store was read.
	if current, ok := c.quotes[symbol]; ok && current.LastUpdated.After(stored.LastUpdated) {
		stored = &current
	} else {
		c.quotes[symbol] = *stored
	}
	c.mu.Unlock()
	return stored, true
}

// Put overwrites the quote for symbol.
func (c *PriceCache) Put(ctx context.Context, symbol string, price decimal.Decimal) (*models.PriceQuote, error) {
	q := models.PriceQuote{
		Symbol:      normalizeSymbol(symbol),
		Price:       price.Round(models.PriceScale),
		LastUpdated: c.now().UTC(),
	}
	if c.store != nil {
		if err := c.store.Put(ctx, &q); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.quotes[q.Symbol] = q
	c.mu.Unlock()
	return &q, nil
}

// Refresh fetches a new price and stores it. On failure the prior quote is left untouched.
// Concurrent refreshes of one symbol share a single fetch. The fetch is not bound to any one
// caller's ctx; each caller stops waiting when its own ctx is done.
func (c *PriceCache) Refresh(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	symbol = normalizeSymbol(symbol)

	ch := c.group.DoChan(symbol, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), maxSharedRefresh)
		defer cancel()

		price, err := c.fetcher.FetchPrice(fetchCtx, symbol)
		if err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			return nil, marketdata.ErrNoPrice
		}
		return c.Put(fetchCtx, symbol, price)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, &PriceUnavailableError{Symbol: symbol, Err: res.Err}
		}
		return res.Val.(*models.PriceQuote), nil
	case <-ctx.Done():
		return nil, &PriceUnavailableError{Symbol: symbol, Err: ctx.Err()}
	}
}

// Resolve returns the cached price, refreshing within timeout when none is cached.
// A failed refresh yields an invalid price and a PriceUnavailableError.
func (c *PriceCache) Resolve(ctx context.Context, symbol string, timeout time.Duration) (decimal.NullDecimal, error) {
	if q, ok := c.Get(ctx, symbol); ok {
		return decimal.NewNullDecimal(q.Price), nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	q, err := c.Refresh(ctx, symbol)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(q.Price), nil
}

// List returns every known quote ordered by symbol.
func (c *PriceCache) List(ctx context.Context) ([]models.PriceQuote, error) {
	if c.store != nil {
		return c.store.List(ctx)
	}

	c.mu.RLock()
	quotes := make([]models.PriceQuote, 0, len(c.quotes))
	for _, q := range c.quotes {
		quotes = append(quotes, q)
	}
	c.mu.RUnlock()

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
	return quotes, nil
}
