package controllers

import (
	"context"
	"fmt"

	"portfolio/src/models"
	"portfolio/src/services"
	"portfolio/src/utils"
)

func (c *Controller) ListPrices(ctx context.Context) ([]models.PriceQuote, error) {
	quotes, err := c.PriceCache.List(ctx)
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []models.PriceQuote{}
	}
	return quotes, nil
}

func (c *Controller) GetPrice(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	q, ok := c.PriceCache.Get(ctx, symbol)
	if !ok {
		return nil, utils.NotFound(fmt.Sprintf("no quote for %s", symbol))
	}
	return q, nil
}

func (c *Controller) RefreshPrices(ctx context.Context) (*services.RefreshSummary, error) {
	return c.PriceRefresh.RefreshAll(ctx)
}
