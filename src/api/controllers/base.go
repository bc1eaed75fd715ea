package controllers

import (
	"context"
	"time"

	"portfolio/src/models"
	"portfolio/src/schemas"
	"portfolio/src/services"
)

type IController interface {
	CreatePortfolio(ctx context.Context, principal string, req *schemas.CreatePortfolioRequest) (*schemas.PortfolioResponse, error)
	ListPortfolios(ctx context.Context, principal string) ([]*schemas.PortfolioResponse, error)
	GetPortfolio(ctx context.Context, principal, id string) (*schemas.PortfolioResponse, error)
	DeletePortfolio(ctx context.Context, principal, id string) error
	GetHoldings(ctx context.Context, principal, id string) (*schemas.HoldingsResponse, error)
	GetPerformance(ctx context.Context, principal, id string, since time.Time) ([]*schemas.MonthlyPerformanceResponse, error)

	CreateTransaction(ctx context.Context, principal, portfolioID string, req *schemas.CreateTransactionRequest) (*schemas.TransactionResultResponse, error)
	ListTransactions(ctx context.Context, principal, portfolioID string) ([]*schemas.TransactionResponse, error)

	ListPrices(ctx context.Context) ([]models.PriceQuote, error)
	GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error)
	RefreshPrices(ctx context.Context) (*services.RefreshSummary, error)
}

type Controller struct {
	PortfolioService   services.PortfolioServiceI
	TransactionService services.TransactionServiceI
	PriceCache         services.PriceCacheI
	PriceRefresh       services.PriceRefreshServiceI
}

func NewController(
	portfolioService services.PortfolioServiceI,
	transactionService services.TransactionServiceI,
	priceCache services.PriceCacheI,
	priceRefresh services.PriceRefreshServiceI,
) *Controller {
	return &Controller{
		PortfolioService:   portfolioService,
		TransactionService: transactionService,
		PriceCache:         priceCache,
		PriceRefresh:       priceRefresh,
	}
}
