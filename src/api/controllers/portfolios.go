package controllers

import (
	"context"
	"time"

	"portfolio/src/schemas"
)

func (c *Controller) CreatePortfolio(ctx context.Context, principal string, req *schemas.CreatePortfolioRequest) (*schemas.PortfolioResponse, error) {
	p, err := c.PortfolioService.Create(ctx, principal, req.Name)
	if err != nil {
		return nil, err
	}
	return schemas.NewPortfolioResponse(p), nil
}

func (c *Controller) ListPortfolios(ctx context.Context, principal string) ([]*schemas.PortfolioResponse, error) {
	portfolios, err := c.PortfolioService.List(ctx, principal)
	if err != nil {
		return nil, err
	}
	res := make([]*schemas.PortfolioResponse, 0, len(portfolios))
	for i := range portfolios {
		res = append(res, schemas.NewPortfolioResponse(&portfolios[i]))
	}
	return res, nil
}

func (c *Controller) GetPortfolio(ctx context.Context, principal, id string) (*schemas.PortfolioResponse, error) {
	p, err := c.PortfolioService.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return schemas.NewPortfolioResponse(p), nil
}

func (c *Controller) DeletePortfolio(ctx context.Context, principal, id string) error {
	return c.PortfolioService.Delete(ctx, principal, id)
}

func (c *Controller) GetHoldings(ctx context.Context, principal, id string) (*schemas.HoldingsResponse, error) {
	lots, err := c.PortfolioService.Holdings(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return schemas.NewHoldingsResponse(id, lots), nil
}

// GetPerformance returns the monthly history; a non-zero since drops the months that ended before it.
func (c *Controller) GetPerformance(ctx context.Context, principal, id string, since time.Time) ([]*schemas.MonthlyPerformanceResponse, error) {
	history, err := c.PortfolioService.PerformanceHistory(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	res := make([]*schemas.MonthlyPerformanceResponse, 0, len(history))
	for i := range history {
		mp := &history[i]
		if !since.IsZero() && (mp.Year < since.Year() || (mp.Year == since.Year() && mp.Month < int(since.Month()))) {
			continue
		}
		res = append(res, schemas.NewMonthlyPerformanceResponse(mp))
	}
	return res, nil
}
