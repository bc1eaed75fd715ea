package schemas

import (
	"time"

	"portfolio/src/models"
	"portfolio/src/services"

	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	Symbol          string                 `json:"symbol"`
	Quantity        int64                  `json:"quantity"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Date            Date                   `json:"date"`
	Price           decimal.Decimal        `json:"price"`
	Currency        string                 `json:"currency"`
}

// ToServiceRequest binds the body to the portfolio taken from the URL.
func (r *CreateTransactionRequest) ToServiceRequest(portfolioID string) services.TransactionRequest {
	return services.TransactionRequest{
		PortfolioID:     portfolioID,
		Symbol:          r.Symbol,
		Quantity:        r.Quantity,
		TransactionType: r.TransactionType,
		Date:            r.Date.ToTime(),
		Price:           r.Price,
		Currency:        r.Currency,
	}
}

type TransactionResponse struct {
	ID              string                 `json:"id"`
	PortfolioID     string                 `json:"portfolio_id"`
	Symbol          string                 `json:"symbol"`
	Quantity        int64                  `json:"quantity"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Date            Date                   `json:"date"`
	Price           decimal.Decimal        `json:"price"`
	Currency        string                 `json:"currency"`
	RealizedGain    decimal.NullDecimal    `json:"realized_gain"`
	CreatedAt       time.Time              `json:"created_at"`
}

func NewTransactionResponse(t *models.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		PortfolioID:     t.PortfolioID,
		Symbol:          t.Symbol,
		Quantity:        t.Quantity,
		TransactionType: t.TransactionType,
		Date:            NewDate(t.Date),
		Price:           t.Price,
		Currency:        t.Currency,
		RealizedGain:    t.RealizedGain,
		CreatedAt:       t.CreatedAt,
	}
}

type TransactionResultResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Portfolio   *PortfolioResponse   `json:"portfolio,omitempty"`
	LotChanges  []services.LotChange `json:"lot_changes"`
	Warnings    []services.Warning   `json:"warnings"`
}

func NewTransactionResultResponse(res *services.ProcessResult) *TransactionResultResponse {
	out := &TransactionResultResponse{
		Transaction: NewTransactionResponse(res.Transaction),
		LotChanges:  res.Changes,
		Warnings:    res.Warnings,
	}
	if res.Portfolio != nil {
		out.Portfolio = NewPortfolioResponse(res.Portfolio)
	}
	if out.LotChanges == nil {
		out.LotChanges = []services.LotChange{}
	}
	if out.Warnings == nil {
		out.Warnings = []services.Warning{}
	}
	return out
}
