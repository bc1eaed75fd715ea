package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places prices are stored with.
const PriceScale = 4

// Lot is a batch of shares bought at one price on one date. Quantity is always positive.
type Lot struct {
	ID            int64               `db:"id"`
	PortfolioID   string              `db:"portfolio_id"`
	Symbol        string              `db:"symbol"`
	Quantity      int64               `db:"quantity"`
	PurchasePrice decimal.Decimal     `db:"purchase_price"`
	PurchaseDate  time.Time           `db:"purchase_date"`
	CurrentPrice  decimal.NullDecimal `db:"current_price"`
	CapitalGain   decimal.NullDecimal `db:"capital_gain"`
	Performance   decimal.NullDecimal `db:"performance"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

// CostBasis is quantity times purchase price.
func (l Lot) CostBasis() decimal.Decimal {
	return l.PurchasePrice.Mul(decimal.NewFromInt(l.Quantity))
}

// MarketValue is quantity times current price, zero while the lot is unvalued.
func (l Lot) MarketValue() decimal.Decimal {
	if !l.CurrentPrice.Valid {
		return decimal.Zero
	}
	return l.CurrentPrice.Decimal.Mul(decimal.NewFromInt(l.Quantity))
}
