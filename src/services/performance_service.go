package services

import (
	"context"
	"time"

	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/sirupsen/logrus"
)

type PerformanceServiceI interface {
	SnapshotAll(ctx context.Context, now time.Time) (*SnapshotSummary, error)
}

type SnapshotSummary struct {
	Month    int `json:"month"`
	Year     int `json:"year"`
	Upserted int `json:"upserted"`
	Failed   int `json:"failed"`
}

// PerformanceService copies every portfolio's cached valuation into its monthly history.
type PerformanceService struct {
	portfolioRepo   repositories.PortfolioRepository
	performanceRepo repositories.MonthlyPerformanceRepository
}

func NewPerformanceService(
	portfolioRepo repositories.PortfolioRepository,
	performanceRepo repositories.MonthlyPerformanceRepository,
) *PerformanceService {
	return &PerformanceService{
		portfolioRepo:   portfolioRepo,
		performanceRepo: performanceRepo,
	}
}

// SnapshotAll upserts one row per portfolio for the period containing now. Running it twice
// in the same period overwrites the first run.
func (s *PerformanceService) SnapshotAll(ctx context.Context, now time.Time) (*SnapshotSummary, error) {
	portfolios, err := s.portfolioRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	month, year := utils.MonthYear(now)
	summary := &SnapshotSummary{Month: month, Year: year}
	logger := utils.LoggerFromContext(ctx)

	for _, p := range portfolios {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		err := s.performanceRepo.Upsert(ctx, &models.MonthlyPerformance{
			PortfolioID: p.ID,
			Month:       month,
			Year:        year,
			Value:       p.CurrentValue,
			CapitalGain: p.CapitalGain,
			Performance: p.Performance,
		}, nil)
		if err != nil {
			summary.Failed++
			logger.WithError(err).WithField("portfolio_id", p.ID).Error("Failed to snapshot portfolio performance")
			continue
		}
		summary.Upserted++
	}

	logger.WithFields(logrus.Fields{
		"month":    month,
		"year":     year,
		"upserted": summary.Upserted,
		"failed":   summary.Failed,
	}).Info("Performance snapshot finished")
	return summary, nil
}
