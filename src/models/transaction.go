package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "Buy"
	TransactionTypeSell TransactionType = "Sell"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}

// Transaction is an append-only record of an accepted trade.
type Transaction struct {
	ID              string              `db:"id"`
	PortfolioID     string              `db:"portfolio_id"`
	Symbol          string              `db:"symbol"`
	Quantity        int64               `db:"quantity"`
	TransactionType TransactionType     `db:"transaction_type"`
	Date            time.Time           `db:"date"`
	Price           decimal.Decimal     `db:"price"`
	Currency        string              `db:"currency"`
	RealizedGain    decimal.NullDecimal `db:"realized_gain"`
	CreatedAt       time.Time           `db:"created_at"`
}
