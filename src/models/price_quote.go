package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceQuote struct {
	Symbol      string          `db:"symbol" json:"symbol"`
	Price       decimal.Decimal `db:"price" json:"price"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
}
