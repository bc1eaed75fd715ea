package repositories

import (
	"context"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)
	Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, portfolio_id, symbol, quantity, transaction_type, date, price, currency, realized_gain, created_at
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY date ASC, created_at ASC`,
		portfolioID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Symbol, &t.Quantity, &t.TransactionType, &t.Date,
			&t.Price, &t.Currency, &t.RealizedGain, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *transactionRepo) Create(ctx context.Context, t *models.Transaction, tx pgx.Tx) error {
	query := `
		INSERT INTO transactions (id, portfolio_id, symbol, quantity, transaction_type, date, price, currency, realized_gain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	var err error
	if tx == nil {
		// If no transaction is provided, create a new one
		tx, err = r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		err = tx.QueryRow(ctx, query,
			t.ID, t.PortfolioID, t.Symbol, t.Quantity, t.TransactionType, t.Date, t.Price, t.Currency, t.RealizedGain,
		).Scan(&t.CreatedAt)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	return tx.QueryRow(ctx, query,
		t.ID, t.PortfolioID, t.Symbol, t.Quantity, t.TransactionType, t.Date, t.Price, t.Currency, t.RealizedGain,
	).Scan(&t.CreatedAt)
}
