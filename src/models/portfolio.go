package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	ID           string          `db:"id"`
	OwnerID      string          `db:"owner_id"`
	Name         string          `db:"name"`
	CurrentValue decimal.Decimal `db:"current_value"`
	CapitalGain  decimal.Decimal `db:"capital_gain"`
	Performance  decimal.Decimal `db:"performance"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}
