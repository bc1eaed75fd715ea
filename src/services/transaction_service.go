package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"portfolio/src/database"
	"portfolio/src/models"
	"portfolio/src/repositories"
	"portfolio/src/utils"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxSymbolLength = 10

type TransactionRequest struct {
	PortfolioID     string
	Symbol          string
	Quantity        int64
	TransactionType models.TransactionType
	Date            time.Time
	Price           decimal.Decimal
	Currency        string
}

type ProcessResult struct {
	Transaction *models.Transaction
	Portfolio   *models.Portfolio
	Changes     []LotChange
	Warnings    []Warning
}

type TransactionServiceI interface {
	Process(ctx context.Context, principal string, req TransactionRequest) (*ProcessResult, error)
	ListByPortfolio(ctx context.Context, principal, portfolioID string) ([]models.Transaction, error)
}

// TransactionService accepts trades. Each trade is one unit of work: the ledger update, the
// transaction record and the portfolio recompute commit together or not at all.
type TransactionService struct {
	db              database.TxBeginner
	portfolioRepo   repositories.PortfolioRepository
	transactionRepo repositories.TransactionRepository
	ledger          LedgerI
	aggregator      AggregatorI
	locks           *utils.KeyedMutex
}

func NewTransactionService(
	db database.TxBeginner,
	portfolioRepo repositories.PortfolioRepository,
	transactionRepo repositories.TransactionRepository,
	ledger LedgerI,
	aggregator AggregatorI,
	locks *utils.KeyedMutex,
) *TransactionService {
	return &TransactionService{
		db:              db,
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		aggregator:      aggregator,
		locks:           locks,
	}
}

// lotKey identifies the lots of one symbol inside one portfolio.
func lotKey(portfolioID, symbol string) string {
	return portfolioID + "|" + symbol
}

// validate normalises the request in place and rejects malformed fields.
func (req *TransactionRequest) validate() error {
	if req.Quantity <= 0 {
		return newValidationError("quantity", "must be a positive integer, got %d", req.Quantity)
	}
	if !req.TransactionType.Valid() {
		return newValidationError("transaction_type", "must be %s or %s", models.TransactionTypeBuy, models.TransactionTypeSell)
	}

	req.Symbol = normalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		return newValidationError("symbol", "is required")
	}
	if len(req.Symbol) > maxSymbolLength {
		return newValidationError("symbol", "must be at most %d characters", maxSymbolLength)
	}

	if req.Price.IsNegative() {
		return newValidationError("price", "must not be negative")
	}
	req.Price = req.Price.Round(models.PriceScale)

	if req.Date.IsZero() {
		return newValidationError("date", "is required")
	}
	req.Date = utils.TruncateToDay(req.Date)

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = utils.DefaultCurrency
	}
	if money.GetCurrency(req.Currency) == nil {
		return newValidationError("currency", "unknown currency code %q", req.Currency)
	}
	return nil
}

// Process validates the request, applies it to the ledger and recomputes the portfolio.
// Price lookups that fail are reported as warnings; the trade still commits.
func (s *TransactionService) Process(ctx context.Context, principal string, req TransactionRequest) (*ProcessResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := ownedPortfolio(ctx, s.portfolioRepo, principal, req.PortfolioID); err != nil {
		return nil, err
	}

	logger := utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id":     req.PortfolioID,
		"symbol":           req.Symbol,
		"transaction_type": req.TransactionType,
		"quantity":         req.Quantity,
	})

	t := &models.Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     req.PortfolioID,
		Symbol:          req.Symbol,
		Quantity:        req.Quantity,
		TransactionType: req.TransactionType,
		Date:            req.Date,
		Price:           req.Price,
		Currency:        req.Currency,
	}
	result := &ProcessResult{Transaction: t}

	unlock := s.locks.Lock(lotKey(req.PortfolioID, req.Symbol))
	defer unlock()

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		applied, err := s.ledger.Apply(ctx, t, tx)
		if err != nil {
			return err
		}
		t.RealizedGain = applied.RealizedGain

		if err := s.transactionRepo.Create(ctx, t, tx); err != nil {
			return err
		}

		portfolio, err := s.aggregator.Recompute(ctx, req.PortfolioID, tx)
		if err != nil {
			return err
		}

		result.Portfolio = portfolio
		result.Changes = applied.Changes
		result.Warnings = applied.Warnings
		return nil
	})
	if err != nil {
		var insufficient *InsufficientQuantityError
		if errors.As(err, &insufficient) {
			logger.WithField("deficit", insufficient.Deficit()).Info("Rejected sell: insufficient quantity")
		} else {
			logger.WithError(err).Error("Failed to process transaction")
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"lot_changes":    len(result.Changes),
		"warnings":       len(result.Warnings),
	}).Info("Transaction processed")
	return result, nil
}

func (s *TransactionService) ListByPortfolio(ctx context.Context, principal, portfolioID string) ([]models.Transaction, error) {
	if _, err := ownedPortfolio(ctx, s.portfolioRepo, principal, portfolioID); err != nil {
		return nil, err
	}
	return s.transactionRepo.ListByPortfolio(ctx, portfolioID)
}
