package services

import (
	"sort"
	"time"

	"portfolio/src/models"

	"github.com/shopspring/decimal"
)

// LotChangeKind describes what a transaction did to a lot.
type LotChangeKind string

const (
	LotCreated   LotChangeKind = "created"
	LotIncreased LotChangeKind = "increased"
	LotReduced   LotChangeKind = "reduced"
	LotClosed    LotChangeKind = "closed"
)

type LotChange struct {
	Kind          LotChangeKind   `json:"kind"`
	LotID         int64           `json:"lot_id"`
	Symbol        string          `json:"symbol"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Delta         int64           `json:"delta"`
	Remaining     int64           `json:"remaining"`
}

// sellPlan is the outcome of matching a sell against open lots, computed before anything is written.
type sellPlan struct {
	reduced      []models.Lot
	closed       []models.Lot
	changes      []LotChange
	realizedGain decimal.Decimal
}

// sortFIFO orders lots oldest purchase first; ties fall back to insertion order.
func sortFIFO(lots []models.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].PurchaseDate.Equal(lots[j].PurchaseDate) {
			return lots[i].PurchaseDate.Before(lots[j].PurchaseDate)
		}
		return lots[i].ID < lots[j].ID
	})
}

func totalQuantity(lots []models.Lot) int64 {
	var total int64
	for _, l := range lots {
		total += l.Quantity
	}
	return total
}

// findMatchingLot returns the index of the lot with the same purchase price and date, or -1.
func findMatchingLot(lots []models.Lot, price decimal.Decimal, date time.Time) int {
	for i := range lots {
		if lots[i].PurchasePrice.Equal(price) && lots[i].PurchaseDate.Equal(date) {
			return i
		}
	}
	return -1
}

// planSell consumes qty shares from lots in FIFO order. The input slice is not modified.
// If the lots cannot cover qty an InsufficientQuantityError is returned and the plan is empty.
func planSell(lots []models.Lot, symbol string, qty int64, sellPrice decimal.Decimal) (*sellPlan, error) {
	available := totalQuantity(lots)
	if available < qty {
		return nil, &InsufficientQuantityError{Symbol: symbol, Requested: qty, Available: available}
	}

	ordered := make([]models.Lot, len(lots))
	copy(ordered, lots)
	sortFIFO(ordered)

	plan := &sellPlan{realizedGain: decimal.Zero}
	remaining := qty
	for _, lot := range ordered {
		if remaining == 0 {
			break
		}
		consumed := min(lot.Quantity, remaining)
		remaining -= consumed
		plan.realizedGain = plan.realizedGain.Add(
			sellPrice.Sub(lot.PurchasePrice).Mul(decimal.NewFromInt(consumed)))

		change := LotChange{
			LotID:         lot.ID,
			Symbol:        lot.Symbol,
			PurchasePrice: lot.PurchasePrice,
			Delta:         -consumed,
			Remaining:     lot.Quantity - consumed,
		}
		if consumed == lot.Quantity {
			change.Kind = LotClosed
			plan.closed = append(plan.closed, lot)
		} else {
			change.Kind = LotReduced
			lot.Quantity -= consumed
			plan.reduced = append(plan.reduced, lot)
		}
		plan.changes = append(plan.changes, change)
	}
	return plan, nil
}

// revalue stamps a lot with the given price and recomputes its gain and performance.
// A missing price leaves the lot unvalued; a zero purchase price leaves performance undefined.
func revalue(lot *models.Lot, price decimal.NullDecimal) {
	lot.CurrentPrice = price
	if !price.Valid {
		lot.CapitalGain = decimal.NullDecimal{}
		lot.Performance = decimal.NullDecimal{}
		return
	}

	diff := price.Decimal.Sub(lot.PurchasePrice)
	lot.CapitalGain = decimal.NewNullDecimal(diff.Mul(decimal.NewFromInt(lot.Quantity)).Round(models.PriceScale))
	if lot.PurchasePrice.IsZero() {
		lot.Performance = decimal.NullDecimal{}
		return
	}
	lot.Performance = decimal.NewNullDecimal(diff.Mul(decimal.NewFromInt(100)).Div(lot.PurchasePrice).Round(models.PriceScale))
}
