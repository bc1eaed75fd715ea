package schemas

import (
	"time"

	"portfolio/src/models"

	"github.com/shopspring/decimal"
)

type CreatePortfolioRequest struct {
	Name string `json:"name"`
}

type PortfolioResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"current_value"`
	CapitalGain  decimal.Decimal `json:"capital_gain"`
	Performance  decimal.Decimal `json:"performance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewPortfolioResponse(p *models.Portfolio) *PortfolioResponse {
	return &PortfolioResponse{
		ID:           p.ID,
		Name:         p.Name,
		CurrentValue: p.CurrentValue,
		CapitalGain:  p.CapitalGain,
		Performance:  p.Performance,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type MonthlyPerformanceResponse struct {
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Value       decimal.Decimal `json:"value"`
	CapitalGain decimal.Decimal `json:"capital_gain"`
	Performance decimal.Decimal `json:"performance"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewMonthlyPerformanceResponse(mp *models.MonthlyPerformance) *MonthlyPerformanceResponse {
	return &MonthlyPerformanceResponse{
		Month:       mp.Month,
		Year:        mp.Year,
		Value:       mp.Value,
		CapitalGain: mp.CapitalGain,
		Performance: mp.Performance,
		UpdatedAt:   mp.UpdatedAt,
	}
}
