package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type LedgerI interface {
	Apply(ctx context.Context, t *models.Transaction, tx pgx.Tx) (*LedgerResult, error)
	Restamp(ctx context.Context, portfolioID, symbol string, price decimal.Decimal, tx pgx.Tx) (int, error)
}

type LedgerResult struct {
	Changes []LotChange
	// RealizedGain is set for sells only.
	RealizedGain decimal.NullDecimal
	Warnings     []Warning
}

// Ledger owns the open lots of every (portfolio, symbol) key.
// Every method expects the caller to hold the key lock and pass the surrounding transaction.
type Ledger struct {
	lots              repositories.LotRepository
	prices            PriceResolver
	priceFetchTimeout time.Duration
}

func NewLedger(lots repositories.LotRepository, prices PriceResolver, priceFetchTimeout time.Duration) *Ledger {
	return &Ledger{
		lots:              lots,
		prices:            prices,
		priceFetchTimeout: priceFetchTimeout,
	}
}

// Apply turns a validated transaction into lot changes. A sell larger than the open quantity
// fails with InsufficientQuantityError before any lot is written.
func (l *Ledger) Apply(ctx context.Context, t *models.Transaction, tx pgx.Tx) (*LedgerResult, error) {
	if err := l.lots.LockKey(ctx, t.PortfolioID, t.Symbol, tx); err != nil {
		return nil, fmt.Errorf("lock %s/%s: %w", t.PortfolioID, t.Symbol, err)
	}

	lots, err := l.lots.ListByPortfolioAndSymbol(ctx, t.PortfolioID, t.Symbol, tx)
	if err != nil {
		return nil, err
	}

	switch t.TransactionType {
	case models.TransactionTypeBuy:
		return l.buy(ctx, t, lots, tx)
	case models.TransactionTypeSell:
		return l.sell(ctx, t, lots, tx)
	default:
		return nil, newValidationError("transaction_type", "unsupported type %q", t.TransactionType)
	}
}

func (l *Ledger) buy(ctx context.Context, t *models.Transaction, lots []models.Lot, tx pgx.Tx) (*LedgerResult, error) {
	var (
		lot    models.Lot
		change LotChange
	)
	if i := findMatchingLot(lots, t.Price, t.Date); i >= 0 {
		lot = lots[i]
		lot.Quantity += t.Quantity
		change.Kind = LotIncreased
	} else {
		lot = models.Lot{
			PortfolioID:   t.PortfolioID,
			Symbol:        t.Symbol,
			Quantity:      t.Quantity,
			PurchasePrice: t.Price,
			PurchaseDate:  t.Date,
		}
		change.Kind = LotCreated
	}

	result := &LedgerResult{}
	price, warning := l.resolvePrice(ctx, t.Symbol, lot.CurrentPrice)
	if warning != nil {
		result.Warnings = append(result.Warnings, *warning)
	}
	revalue(&lot, price)

	if err := l.lots.Upsert(ctx, &lot, tx); err != nil {
		return nil, err
	}

	change.LotID = lot.ID
	change.Symbol = lot.Symbol
	change.PurchasePrice = lot.PurchasePrice
	change.Delta = t.Quantity
	change.Remaining = lot.Quantity
	result.Changes = append(result.Changes, change)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id": t.PortfolioID,
		"symbol":       t.Symbol,
		"lot_id":       lot.ID,
		"kind":         change.Kind,
		"quantity":     lot.Quantity,
	}).Debug("Applied buy")
	return result, nil
}

func (l *Ledger) sell(ctx context.Context, t *models.Transaction, lots []models.Lot, tx pgx.Tx) (*LedgerResult, error) {
	plan, err := planSell(lots, t.Symbol, t.Quantity, t.Price)
	if err != nil {
		return nil, err
	}

	result := &LedgerResult{
		Changes:      plan.changes,
		RealizedGain: decimal.NewNullDecimal(plan.realizedGain.Round(models.PriceScale)),
	}

	for _, lot := range plan.closed {
		if err := l.lots.Delete(ctx, lot.ID, tx); err != nil {
			return nil, err
		}
	}

	if len(plan.reduced) > 0 {
		price, warning := l.resolvePrice(ctx, t.Symbol, plan.reduced[0].CurrentPrice)
		if warning != nil {
			result.Warnings = append(result.Warnings, *warning)
		}
		for i := range plan.reduced {
			lot := plan.reduced[i]
			p := price
			if !p.Valid {
				p = lot.CurrentPrice
			}
			revalue(&lot, p)
			if err := l.lots.Upsert(ctx, &lot, tx); err != nil {
				return nil, err
			}
		}
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id":  t.PortfolioID,
		"symbol":        t.Symbol,
		"closed":        len(plan.closed),
		"reduced":       len(plan.reduced),
		"realized_gain": result.RealizedGain.Decimal.String(),
	}).Debug("Applied sell")
	return result, nil
}

// resolvePrice asks the cache for the symbol's price. On failure the known price, if any, is kept
// and a warning is returned instead of an error.
func (l *Ledger) resolvePrice(ctx context.Context, symbol string, known decimal.NullDecimal) (decimal.NullDecimal, *Warning) {
	price, err := l.prices.Resolve(ctx, symbol, l.priceFetchTimeout)
	if err == nil && price.Valid {
		return price, nil
	}
	if err == nil {
		err = errors.New("no price returned")
	}

	var stale *decimal.Decimal
	if known.Valid {
		stale = &known.Decimal
	}
	utils.LoggerFromContext(ctx).WithError(err).WithField("symbol", symbol).Warn("Price unavailable, lot left with stale or empty price")
	w := priceWarning(symbol, err, stale)
	return known, &w
}

// Restamp sets price on every open lot of the key and recomputes their gains.
func (l *Ledger) Restamp(ctx context.Context, portfolioID, symbol string, price decimal.Decimal, tx pgx.Tx) (int, error) {
	if err := l.lots.LockKey(ctx, portfolioID, symbol, tx); err != nil {
		return 0, fmt.Errorf("lock %s/%s: %w", portfolioID, symbol, err)
	}

	lots, err := l.lots.ListByPortfolioAndSymbol(ctx, portfolioID, symbol, tx)
	if err != nil {
		return 0, err
	}
	for i := range lots {
		revalue(&lots[i], decimal.NewNullDecimal(price))
		if err := l.lots.Upsert(ctx, &lots[i], tx); err != nil {
			return 0, err
		}
	}
	return len(lots), nil
}
