package services

import (
	"context"
	"time"

	"portfolio/src/database"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

type PriceRefreshServiceI interface {
	RefreshAll(ctx context.Context) (*RefreshSummary, error)
}

type RefreshSummary struct {
	Symbols       int               `json:"symbols"`
	Refreshed     []string          `json:"refreshed"`
	Failed        map[string]string `json:"failed"`
	LotsRestamped int               `json:"lots_restamped"`
	Portfolios    int               `json:"portfolios_recomputed"`
}

type symbolOutcome struct {
	symbol     string
	err        error
	lots       int
	portfolios int
}

// PriceRefreshService refreshes every held symbol and pushes the new prices into the lots and
// portfolios that hold it.
type PriceRefreshService struct {
	db           database.TxBeginner
	lotRepo      repositories.LotRepository
	cache        PriceCacheI
	ledger       LedgerI
	aggregator   AggregatorI
	locks        *utils.KeyedMutex
	workers      int
	fetchTimeout time.Duration
}

func NewPriceRefreshService(
	db database.TxBeginner,
	lotRepo repositories.LotRepository,
	cache PriceCacheI,
	ledger LedgerI,
	aggregator AggregatorI,
	locks *utils.KeyedMutex,
	workers int,
	fetchTimeout time.Duration,
) *PriceRefreshService {
	if workers <= 0 {
		workers = 1
	}
	return &PriceRefreshService{
		db:           db,
		lotRepo:      lotRepo,
		cache:        cache,
		ledger:       ledger,
		aggregator:   aggregator,
		locks:        locks,
		workers:      workers,
		fetchTimeout: fetchTimeout,
	}
}

// RefreshAll refreshes the distinct symbols held across all portfolios. A symbol whose fetch fails
// keeps its previous quote and its lots are left alone.
func (s *PriceRefreshService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	symbols, err := s.lotRepo.ListDistinctSymbols(ctx)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[symbolOutcome]().WithMaxGoroutines(s.workers)
	for _, symbol := range symbols {
		p.Go(func() symbolOutcome {
			return s.refreshSymbol(ctx, symbol)
		})
	}
	outcomes := p.Wait()

	summary := &RefreshSummary{
		Symbols:   len(symbols),
		Refreshed: []string{},
		Failed:    map[string]string{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			summary.Failed[o.symbol] = o.err.Error()
		} else {
			summary.Refreshed = append(summary.Refreshed, o.symbol)
		}
		summary.LotsRestamped += o.lots
		summary.Portfolios += o.portfolios
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"symbols":    summary.Symbols,
		"refreshed":  len(summary.Refreshed),
		"failed":     len(summary.Failed),
		"lots":       summary.LotsRestamped,
		"portfolios": summary.Portfolios,
	}).Info("Price refresh finished")
	return summary, nil
}

func (s *PriceRefreshService) refreshSymbol(ctx context.Context, symbol string) symbolOutcome {
	out := symbolOutcome{symbol: symbol}
	logger := utils.LoggerFromContext(ctx).WithField("symbol", symbol)

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	quote, err := s.cache.Refresh(fetchCtx, symbol)
	if err != nil {
		logger.WithError(err).Warn("Price refresh failed, keeping previous quote")
		out.err = err
		return out
	}

	portfolioIDs, err := s.lotRepo.ListPortfolioIDsBySymbol(ctx, symbol)
	if err != nil {
		logger.WithError(err).Error("Failed to list portfolios holding symbol")
		out.err = err
		return out
	}

	for _, portfolioID := range portfolioIDs {
		n, err := s.restamp(ctx, portfolioID, symbol, quote.Price)
		if err != nil {
			logger.WithError(err).WithField("portfolio_id", portfolioID).Error("Failed to restamp lots")
			out.err = err
			continue
		}
		out.lots += n
		out.portfolios++
	}
	return out
}

// restamp takes the same key lock as a transaction so it never interleaves with one.
func (s *PriceRefreshService) restamp(ctx context.Context, portfolioID, symbol string, price decimal.Decimal) (int, error) {
	unlock := s.locks.Lock(lotKey(portfolioID, symbol))
	defer unlock()

	var n int
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		n, err = s.ledger.Restamp(ctx, portfolioID, symbol, price, tx)
		if err != nil {
			return err
		}
		_, err = s.aggregator.Recompute(ctx, portfolioID, tx)
		return err
	})
	return n, err
}
