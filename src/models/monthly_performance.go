package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthlyPerformance struct {
	ID          int64           `db:"id"`
	PortfolioID string          `db:"portfolio_id"`
	Month       int             `db:"month"`
	Year        int             `db:"year"`
	Value       decimal.Decimal `db:"value"`
	CapitalGain decimal.Decimal `db:"capital_gain"`
	Performance decimal.Decimal `db:"performance"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
