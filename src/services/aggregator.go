package services

import (
	"context"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AggregatorI interface {
	Recompute(ctx context.Context, portfolioID string, tx pgx.Tx) (*models.Portfolio, error)
}

// Aggregator projects the open lots of a portfolio onto its cached value, gain and performance.
type Aggregator struct {
	portfolios repositories.PortfolioRepository
	lots       repositories.LotRepository
}

func NewAggregator(portfolios repositories.PortfolioRepository, lots repositories.LotRepository) *Aggregator {
	return &Aggregator{
		portfolios: portfolios,
		lots:       lots,
	}
}

type valuation struct {
	invested    decimal.Decimal
	value       decimal.Decimal
	capitalGain decimal.Decimal
	performance decimal.Decimal
}

// summarize values a set of lots. ok is false when nothing is invested, in which case
// the cached figures must be left as they are.
func summarize(lots []models.Lot) (valuation, bool) {
	v := valuation{invested: decimal.Zero, value: decimal.Zero}
	for _, lot := range lots {
		v.invested = v.invested.Add(lot.CostBasis())
		v.value = v.value.Add(lot.MarketValue())
	}
	if len(lots) == 0 || v.invested.IsZero() {
		return v, false
	}

	v.capitalGain = v.value.Sub(v.invested)
	v.performance = v.capitalGain.Mul(decimal.NewFromInt(100)).Div(v.invested).Round(models.PriceScale)
	return v, true
}

// Recompute locks the portfolio row, reads its lots in the same transaction and stores the projection.
// It is idempotent.
func (a *Aggregator) Recompute(ctx context.Context, portfolioID string, tx pgx.Tx) (*models.Portfolio, error) {
	portfolio, err := a.portfolios.GetByIDForUpdate(ctx, portfolioID, tx)
	if err != nil {
		return nil, err
	}

	lots, err := a.lots.ListByPortfolio(ctx, portfolioID, tx)
	if err != nil {
		return nil, err
	}

	v, ok := summarize(lots)
	if !ok {
		utils.LoggerFromContext(ctx).WithField("portfolio_id", portfolioID).Debug("Nothing invested, keeping cached valuation")
		return portfolio, nil
	}

	portfolio.CurrentValue = v.value.Round(models.PriceScale)
	portfolio.CapitalGain = v.capitalGain.Round(models.PriceScale)
	portfolio.Performance = v.performance
	if err := a.portfolios.UpdateValuation(ctx, portfolio, tx); err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id": portfolioID,
		"value":        portfolio.CurrentValue.String(),
		"capital_gain": portfolio.CapitalGain.String(),
		"performance":  portfolio.Performance.String(),
	}).Debug("Recomputed portfolio")
	return portfolio, nil
}
