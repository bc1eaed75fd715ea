package repositories

import (
	"context"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PortfolioRepository interface {
	Create(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error
	GetByID(ctx context.Context, id string) (*models.Portfolio, error)
	GetByIDForUpdate(ctx context.Context, id string, tx pgx.Tx) (*models.Portfolio, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Portfolio, error)
	ListAll(ctx context.Context) ([]models.Portfolio, error)
	UpdateValuation(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error
	Delete(ctx context.Context, id string, tx pgx.Tx) error
}

type portfolioRepo struct {
	db *pgxpool.Pool
}

func NewPortfolioRepository(db *pgxpool.Pool) PortfolioRepository {
	return &portfolioRepo{db: db}
}

const portfolioColumns = `id, owner_id, name, current_value, capital_gain, performance, created_at, updated_at`

func scanPortfolio(row pgx.Row) (*models.Portfolio, error) {
	var p models.Portfolio
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CurrentValue, &p.CapitalGain, &p.Performance, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *portfolioRepo) Create(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error {
	return conn(r.db, tx).QueryRow(ctx, `
		INSERT INTO portfolios (id, owner_id, name, current_value, capital_gain, performance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.CurrentValue, p.CapitalGain, p.Performance,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *portfolioRepo) GetByID(ctx context.Context, id string) (*models.Portfolio, error) {
	return scanPortfolio(r.db.QueryRow(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1`, id))
}

// GetByIDForUpdate row-locks the portfolio until tx ends, serialising concurrent recomputes.
func (r *portfolioRepo) GetByIDForUpdate(ctx context.Context, id string, tx pgx.Tx) (*models.Portfolio, error) {
	return scanPortfolio(conn(r.db, tx).QueryRow(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE id = $1 FOR UPDATE`, id))
}

func (r *portfolioRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Portfolio, error) {
	return r.list(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

func (r *portfolioRepo) ListAll(ctx context.Context) ([]models.Portfolio, error) {
	return r.list(ctx, `SELECT `+portfolioColumns+` FROM portfolios ORDER BY created_at`)
}

func (r *portfolioRepo) list(ctx context.Context, query string, args ...any) ([]models.Portfolio, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, *p)
	}
	return portfolios, rows.Err()
}

func (r *portfolioRepo) UpdateValuation(ctx context.Context, p *models.Portfolio, tx pgx.Tx) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE portfolios
		SET current_value = $2, capital_gain = $3, performance = $4, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.CurrentValue, p.CapitalGain, p.Performance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *portfolioRepo) Delete(ctx context.Context, id string, tx pgx.Tx) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
