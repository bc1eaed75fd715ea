package schemas

import (
	"portfolio/src/models"

	"github.com/shopspring/decimal"
)

type LotResponse struct {
	ID            int64               `json:"id"`
	Symbol        string              `json:"symbol"`
	Quantity      int64               `json:"quantity"`
	PurchasePrice decimal.Decimal     `json:"purchase_price"`
	PurchaseDate  Date                `json:"purchase_date"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	CapitalGain   decimal.NullDecimal `json:"capital_gain"`
	Performance   decimal.NullDecimal `json:"performance"`
}

type HoldingsResponse struct {
	PortfolioID string          `json:"portfolio_id"`
	Lots        []*LotResponse  `json:"lots"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MarketValue decimal.Decimal `json:"market_value"`
}

func NewHoldingsResponse(portfolioID string, lots []models.Lot) *HoldingsResponse {
	res := &HoldingsResponse{
		PortfolioID: portfolioID,
		Lots:        make([]*LotResponse, 0, len(lots)),
		CostBasis:   decimal.Zero,
		MarketValue: decimal.Zero,
	}
	for _, l := range lots {
		res.Lots = append(res.Lots, &LotResponse{
			ID:            l.ID,
			Symbol:        l.Symbol,
			Quantity:      l.Quantity,
			PurchasePrice: l.PurchasePrice,
			PurchaseDate:  NewDate(l.PurchaseDate),
			CurrentPrice:  l.CurrentPrice,
			CapitalGain:   l.CapitalGain,
			Performance:   l.Performance,
		})
		res.CostBasis = res.CostBasis.Add(l.CostBasis())
		res.MarketValue = res.MarketValue.Add(l.MarketValue())
	}
	return res
}
