package services

import (
	"errors"
	"fmt"

	"portfolio/src/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound             = repositories.ErrNotFound
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrPriceUnavailable     = errors.New("price unavailable")
)

// ValidationError reports a malformed request field. Nothing is mutated when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientQuantityError is returned when a sell exceeds the shares held.
type InsufficientQuantityError struct {
	Symbol    string
	Requested int64
	Available int64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cannot sell %d %s: only %d held", e.Requested, e.Symbol, e.Available)
}

func (e *InsufficientQuantityError) Unwrap() error { return ErrInsufficientQuantity }

// Deficit is how many shares are missing to fill the sell.
func (e *InsufficientQuantityError) Deficit() int64 {
	return e.Requested - e.Available
}

// PriceUnavailableError wraps a failed market price lookup.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("price unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *PriceUnavailableError) Unwrap() []error { return []error{ErrPriceUnavailable, e.Err} }

// Warning is a non-fatal condition attached to an accepted transaction.
type Warning struct {
	Code    string `json:"code"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

const WarningPriceUnavailable = "price_unavailable"

func priceWarning(symbol string, err error, stale *decimal.Decimal) Warning {
	msg := err.Error()
	if stale != nil {
		msg = fmt.Sprintf("%s; keeping last known price %s", msg, stale.String())
	}
	return Warning{Code: WarningPriceUnavailable, Symbol: symbol, Message: msg}
}
