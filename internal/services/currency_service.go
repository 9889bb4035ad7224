package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"pocketledger/internal/db"
	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"
	"pocketledger/internal/validator"

	"github.com/jmoiron/sqlx"
)

// CurrencyService manages the currency catalog and its exchange-rate
// history. Rates are append-only: a new observation never rewrites an
// old one, so lines that snapshotted a rate stay reproducible.
type CurrencyService struct {
	txRunner   db.TxRunner
	q          store.DB
	currencies CurrencyStore
	rates      RateStore
	sync       SyncStore
}

func NewCurrencyService(txRunner db.TxRunner, q store.DB, currencies CurrencyStore, rates RateStore, syncStore SyncStore) *CurrencyService {
	return &CurrencyService{
		txRunner:   txRunner,
		q:          q,
		currencies: currencies,
		rates:      rates,
		sync:       syncStore,
	}
}

type CurrencyRequest struct {
	Code          string
	Name          string
	Symbol        string
	DecimalPlaces int
	IsDefault     bool
	IsFiat        bool
	IsCrypto      bool
}

func (s *CurrencyService) CreateCurrency(ctx context.Context, req CurrencyRequest) (int64, error) {
	if err := validateCurrencyRequest(req); err != nil {
		return 0, err
	}
	var currencyID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.currencies.GetByCode(ctx, tx, req.Code); err == nil {
			return DuplicateNameError{Entity: "currency", Name: req.Code}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		id, err := s.currencies.Create(ctx, tx, store.CurrencyInput{
			Code:          req.Code,
			Name:          req.Name,
			Symbol:        req.Symbol,
			DecimalPlaces: req.DecimalPlaces,
			IsFiat:        req.IsFiat,
			IsCrypto:      req.IsCrypto,
		})
		if err != nil {
			return err
		}
		currencyID = id
		if req.IsDefault {
			return s.currencies.SetDefault(ctx, tx, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return currencyID, nil
}

func (s *CurrencyService) UpdateCurrency(ctx context.Context, currencyID int64, req CurrencyRequest) error {
	if err := validateCurrencyRequest(req); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.currencies.GetByID(ctx, tx, currencyID)
		if err != nil {
			return notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
		}
		if current.IsSystem {
			return ProtectedEntityError{Entity: "currency", Name: current.Code}
		}
		if current.Code != req.Code {
			if _, err := s.currencies.GetByCode(ctx, tx, req.Code); err == nil {
				return DuplicateNameError{Entity: "currency", Name: req.Code}
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		return s.currencies.Update(ctx, tx, currencyID, store.CurrencyInput{
			Code:          req.Code,
			Name:          req.Name,
			Symbol:        req.Symbol,
			DecimalPlaces: req.DecimalPlaces,
			IsFiat:        req.IsFiat,
			IsCrypto:      req.IsCrypto,
		})
	})
}

// SetDefaultCurrency moves the default flag. Existing lines keep the
// rates they snapshotted; only freshly resolved rates follow the new
// default, so historic reports do not shift.
func (s *CurrencyService) SetDefaultCurrency(ctx context.Context, currencyID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.currencies.GetByID(ctx, tx, currencyID); err != nil {
			return notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
		}
		return s.currencies.SetDefault(ctx, tx, currencyID)
	})
}

func (s *CurrencyService) DeleteCurrency(ctx context.Context, currencyID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.currencies.GetByID(ctx, tx, currencyID)
		if err != nil {
			return notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
		}
		if current.IsSystem || current.IsDefault {
			return ProtectedEntityError{Entity: "currency", Name: current.Code}
		}
		count, err := s.currencies.CountAccountRefs(ctx, tx, currencyID)
		if err != nil {
			return err
		}
		if count > 0 {
			return EntityInUseError{Entity: "currency", Name: current.Code, Count: count}
		}
		if err := s.currencies.Delete(ctx, tx, currencyID); err != nil {
			return err
		}
		return s.sync.RecordDeletion(ctx, tx, store.TableCurrency, tombstoneKey(currencyID))
	})
}

// RecordRate appends a rate observation: units of the currency per one
// default-currency unit, in the currency's own fixed point.
func (s *CurrencyService) RecordRate(ctx context.Context, currencyID int64, rate fixedpoint.FixedPoint, observedAt time.Time) error {
	if rate.IsZero() || rate.IsNegative() {
		return ValidationError{Message: "exchange rate must be positive"}
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		currency, err := s.currencies.GetByID(ctx, tx, currencyID)
		if err != nil {
			return notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
		}
		if currency.IsDefault || currency.IsSystem {
			return ValidationError{Message: "default currency rate is fixed at 1"}
		}
		return s.rates.Append(ctx, tx, currencyID, rate, observedAt)
	})
}

// CurrentRate returns the latest observation, or the identity rate for
// the default and system currencies and for currencies with no history
// yet. Callers always get a usable rate, never a null.
func (s *CurrencyService) CurrentRate(ctx context.Context, currencyID int64) (fixedpoint.FixedPoint, error) {
	currency, err := s.currencies.GetByID(ctx, s.q, currencyID)
	if err != nil {
		return fixedpoint.Zero, notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
	}
	if currency.IsDefault || currency.IsSystem {
		return fixedpoint.One(), nil
	}
	latest, err := s.rates.Latest(ctx, s.q, currencyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fixedpoint.One(), nil
		}
		return fixedpoint.Zero, err
	}
	return latest.Rate(), nil
}

func validateCurrencyRequest(req CurrencyRequest) error {
	if err := validator.ValidateCurrencyCode(req.Code); err != nil {
		return ValidationError{Message: "currency code must be 2-10 uppercase letters or digits"}
	}
	if err := validator.ValidateName(req.Name); err != nil {
		return ValidationError{Message: "currency name required"}
	}
	if req.DecimalPlaces < 0 || req.DecimalPlaces > 8 {
		return ValidationError{Message: "decimal places must be between 0 and 8"}
	}
	return nil
}
