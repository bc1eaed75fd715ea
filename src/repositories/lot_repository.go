package repositories

import (
	"context"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LotRepository interface {
	LockKey(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) error
	ListByPortfolioAndSymbol(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) ([]models.Lot, error)
	ListByPortfolio(ctx context.Context, portfolioID string, tx pgx.Tx) ([]models.Lot, error)
	Upsert(ctx context.Context, l *models.Lot, tx pgx.Tx) error
	Delete(ctx context.Context, id int64, tx pgx.Tx) error
	ListDistinctSymbols(ctx context.Context) ([]string, error)
	ListPortfolioIDsBySymbol(ctx context.Context, symbol string) ([]string, error)
}

type lotRepo struct {
	db *pgxpool.Pool
}

func NewLotRepository(db *pgxpool.Pool) LotRepository {
	return &lotRepo{db: db}
}

const lotColumns = `id, portfolio_id, symbol, quantity, purchase_price, purchase_date,
	current_price, capital_gain, performance, created_at, updated_at`

// LockKey takes a transaction-scoped advisory lock on (portfolio, symbol) so that
// concurrent writers on other instances queue behind this transaction.
func (r *lotRepo) LockKey(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) error {
	_, err := conn(r.db, tx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		portfolioID+"|"+symbol)
	return err
}

// ListByPortfolioAndSymbol returns the open lots oldest first; ties keep insertion order.
func (r *lotRepo) ListByPortfolioAndSymbol(ctx context.Context, portfolioID, symbol string, tx pgx.Tx) ([]models.Lot, error) {
	return r.list(ctx, tx, `
		SELECT `+lotColumns+`
		FROM lots
		WHERE portfolio_id = $1 AND symbol = $2
		ORDER BY purchase_date ASC, id ASC
		FOR UPDATE`,
		portfolioID, symbol)
}

func (r *lotRepo) ListByPortfolio(ctx context.Context, portfolioID string, tx pgx.Tx) ([]models.Lot, error) {
	return r.list(ctx, tx, `
		SELECT `+lotColumns+`
		FROM lots
		WHERE portfolio_id = $1
		ORDER BY symbol ASC, purchase_date ASC, id ASC`,
		portfolioID)
}

func (r *lotRepo) list(ctx context.Context, tx pgx.Tx, query string, args ...any) ([]models.Lot, error) {
	rows, err := conn(r.db, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var l models.Lot
		if err := rows.Scan(&l.ID, &l.PortfolioID, &l.Symbol, &l.Quantity, &l.PurchasePrice, &l.PurchaseDate,
			&l.CurrentPrice, &l.CapitalGain, &l.Performance, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// Upsert inserts a lot without an ID and updates it otherwise.
func (r *lotRepo) Upsert(ctx context.Context, l *models.Lot, tx pgx.Tx) error {
	q := conn(r.db, tx)
	if l.ID == 0 {
		return q.QueryRow(ctx, `
			INSERT INTO lots (portfolio_id, symbol, quantity, purchase_price, purchase_date,
				current_price, capital_gain, performance)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`,
			l.PortfolioID, l.Symbol, l.Quantity, l.PurchasePrice, l.PurchaseDate,
			l.CurrentPrice, l.CapitalGain, l.Performance,
		).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	}

	err := q.QueryRow(ctx, `
		UPDATE lots
		SET quantity = $2, current_price = $3, capital_gain = $4, performance = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		l.ID, l.Quantity, l.CurrentPrice, l.CapitalGain, l.Performance,
	).Scan(&l.UpdatedAt)
	return notFound(err)
}

func (r *lotRepo) Delete(ctx context.Context, id int64, tx pgx.Tx) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lotRepo) ListDistinctSymbols(ctx context.Context) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT symbol FROM lots ORDER BY symbol`)
}

func (r *lotRepo) ListPortfolioIDsBySymbol(ctx context.Context, symbol string) ([]string, error) {
	return r.strings(ctx, `SELECT DISTINCT portfolio_id::text FROM lots WHERE symbol = $1`, symbol)
}

func (r *lotRepo) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
