package repositories

import (
	"context"

	"portfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MonthlyPerformanceRepository interface {
	// Create inserts the row unless the period already exists.
	Create(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error
	Upsert(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.MonthlyPerformance, error)
}

type monthlyPerformanceRepo struct {
	db *pgxpool.Pool
}

func NewMonthlyPerformanceRepository(db *pgxpool.Pool) MonthlyPerformanceRepository {
	return &monthlyPerformanceRepo{db: db}
}

func (r *monthlyPerformanceRepo) Create(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO monthly_performances (portfolio_id, month, year, value, capital_gain, performance)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (portfolio_id, month, year) DO NOTHING`,
		mp.PortfolioID, mp.Month, mp.Year, mp.Value, mp.CapitalGain, mp.Performance)
	return err
}

func (r *monthlyPerformanceRepo) Upsert(ctx context.Context, mp *models.MonthlyPerformance, tx pgx.Tx) error {
	return conn(r.db, tx).QueryRow(ctx, `
		INSERT INTO monthly_performances (portfolio_id, month, year, value, capital_gain, performance)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (portfolio_id, month, year) DO UPDATE SET
			value = EXCLUDED.value,
			capital_gain = EXCLUDED.capital_gain,
			performance = EXCLUDED.performance,
			updated_at = NOW()
		RETURNING id, updated_at`,
		mp.PortfolioID, mp.Month, mp.Year, mp.Value, mp.CapitalGain, mp.Performance,
	).Scan(&mp.ID, &mp.UpdatedAt)
}

func (r *monthlyPerformanceRepo) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.MonthlyPerformance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, portfolio_id, month, year, value, capital_gain, performance, updated_at
		FROM monthly_performances
		WHERE portfolio_id = $1
		ORDER BY year ASC, month ASC`,
		portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.MonthlyPerformance
	for rows.Next() {
		var mp models.MonthlyPerformance
		if err := rows.Scan(&mp.ID, &mp.PortfolioID, &mp.Month, &mp.Year, &mp.Value, &mp.CapitalGain,
			&mp.Performance, &mp.UpdatedAt); err != nil {
			return nil, err
		}
		history = append(history, mp)
	}
	return history, rows.Err()
}
