package repositories

import (
	"context"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PriceQuoteRepository interface {
	Get(ctx context.Context, symbol string) (*models.PriceQuote, error)
	Put(ctx context.Context, q *models.PriceQuote) error
	List(ctx context.Context) ([]models.PriceQuote, error)
}

type priceQuoteRepo struct {
	db *pgxpool.Pool
}

func NewPriceQuoteRepository(db *pgxpool.Pool) PriceQuoteRepository {
	return &priceQuoteRepo{db: db}
}

func (r *priceQuoteRepo) Get(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	var q models.PriceQuote
	err := r.db.QueryRow(ctx,
		`SELECT symbol, price, last_updated FROM price_quotes WHERE symbol = $1`, symbol,
	).Scan(&q.Symbol, &q.Price, &q.LastUpdated)
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// Put overwrites the quote for the symbol unconditionally.
func (r *priceQuoteRepo) Put(ctx context.Context, q *models.PriceQuote) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO price_quotes (symbol, price, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			price = EXCLUDED.price,
			last_updated = EXCLUDED.last_updated`,
		q.Symbol, q.Price, q.LastUpdated)
	return err
}

func (r *priceQuoteRepo) List(ctx context.Context) ([]models.PriceQuote, error) {
	rows, err := r.db.Query(ctx, `SELECT symbol, price, last_updated FROM price_quotes ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.PriceQuote
	for rows.Next() {
		var q models.PriceQuote
		if err := rows.Scan(&q.Symbol, &q.Price, &q.LastUpdated); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
