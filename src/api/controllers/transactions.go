package controllers

import (
	"context"

	"portfolio/src/schemas"
)

func (c *Controller) CreateTransaction(ctx context.Context, principal, portfolioID string, req *schemas.CreateTransactionRequest) (*schemas.TransactionResultResponse, error) {
	res, err := c.TransactionService.Process(ctx, principal, req.ToServiceRequest(portfolioID))
	if err != nil {
		return nil, err
	}
	return schemas.NewTransactionResultResponse(res), nil
}

func (c *Controller) ListTransactions(ctx context.Context, principal, portfolioID string) ([]*schemas.TransactionResponse, error) {
	transactions, err := c.TransactionService.ListByPortfolio(ctx, principal, portfolioID)
	if err != nil {
		return nil, err
	}
	res := make([]*schemas.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		res = append(res, schemas.NewTransactionResponse(&transactions[i]))
	}
	return res, nil
}
