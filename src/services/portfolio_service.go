package services

import (
	"context"
	"strings"
	"time"

	"portfolio/src/database"
	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const maxPortfolioNameLength = 100

type PortfolioServiceI interface {
	Create(ctx context.Context, principal, name string) (*models.Portfolio, error)
	Get(ctx context.Context, principal, id string) (*models.Portfolio, error)
	List(ctx context.Context, principal string) ([]models.Portfolio, error)
	Delete(ctx context.Context, principal, id string) error
	Holdings(ctx context.Context, principal, id string) ([]models.Lot, error)
	PerformanceHistory(ctx context.Context, principal, id string) ([]models.MonthlyPerformance, error)
}

type PortfolioService struct {
	db              database.TxBeginner
	portfolioRepo   repositories.PortfolioRepository
	lotRepo         repositories.LotRepository
	performanceRepo repositories.MonthlyPerformanceRepository
	now             func() time.Time
}

func NewPortfolioService(
	db database.TxBeginner,
	portfolioRepo repositories.PortfolioRepository,
	lotRepo repositories.LotRepository,
	performanceRepo repositories.MonthlyPerformanceRepository,
) *PortfolioService {
	return &PortfolioService{
		db:              db,
		portfolioRepo:   portfolioRepo,
		lotRepo:         lotRepo,
		performanceRepo: performanceRepo,
		now:             time.Now,
	}
}

// ownedPortfolio loads a portfolio and hides it from anyone but its owner.
func ownedPortfolio(ctx context.Context, repo repositories.PortfolioRepository, principal, id string) (*models.Portfolio, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if principal == "" || p.OwnerID != principal {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create stores an empty portfolio together with its first monthly snapshot.
func (s *PortfolioService) Create(ctx context.Context, principal, name string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("name", "is required")
	}
	if len(name) > maxPortfolioNameLength {
		return nil, newValidationError("name", "must be at most %d characters", maxPortfolioNameLength)
	}
	if principal == "" {
		return nil, newValidationError("owner", "is required")
	}

	p := &models.Portfolio{
		ID:           uuid.NewString(),
		OwnerID:      principal,
		Name:         name,
		CurrentValue: decimal.Zero,
		CapitalGain:  decimal.Zero,
		Performance:  decimal.Zero,
	}
	month, year := utils.MonthYear(s.now())

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.portfolioRepo.Create(ctx, p, tx); err != nil {
			return err
		}
		return s.performanceRepo.Create(ctx, &models.MonthlyPerformance{
			PortfolioID: p.ID,
			Month:       month,
			Year:        year,
			Value:       decimal.Zero,
			CapitalGain: decimal.Zero,
			Performance: decimal.Zero,
		}, tx)
	})
	if err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithField("portfolio_id", p.ID).Info("Portfolio created")
	return p, nil
}

func (s *PortfolioService) Get(ctx context.Context, principal, id string) (*models.Portfolio, error) {
	return ownedPortfolio(ctx, s.portfolioRepo, principal, id)
}

func (s *PortfolioService) List(ctx context.Context, principal string) ([]models.Portfolio, error) {
	return s.portfolioRepo.ListByOwner(ctx, principal)
}

// Delete removes the portfolio; lots, transactions and snapshots go with it.
func (s *PortfolioService) Delete(ctx context.Context, principal, id string) error {
	if _, err := ownedPortfolio(ctx, s.portfolioRepo, principal, id); err != nil {
		return err
	}
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return s.portfolioRepo.Delete(ctx, id, tx)
	})
	if err != nil {
		return err
	}
	utils.LoggerFromContext(ctx).WithField("portfolio_id", id).Info("Portfolio deleted")
	return nil
}

// Holdings lists the open lots, grouped by symbol and in FIFO order within a symbol.
func (s *PortfolioService) Holdings(ctx context.Context, principal, id string) ([]models.Lot, error) {
	if _, err := ownedPortfolio(ctx, s.portfolioRepo, principal, id); err != nil {
		return nil, err
	}
	return s.lotRepo.ListByPortfolio(ctx, id, nil)
}

func (s *PortfolioService) PerformanceHistory(ctx context.Context, principal, id string) ([]models.MonthlyPerformance, error) {
	if _, err := ownedPortfolio(ctx, s.portfolioRepo, principal, id); err != nil {
		return nil, err
	}
	return s.performanceRepo.ListByPortfolio(ctx, id)
}
