package store

import (
	"context"
	"time"
)

type CurrencyStore struct {
	db DB
}

type Currency struct {
	ID            int64     `db:"id"`
	Code          string    `db:"code"`
	Name          string    `db:"name"`
	Symbol        string    `db:"symbol"`
	DecimalPlaces int       `db:"decimal_places"`
	IsDefault     bool      `db:"is_default"`
	IsSystem      bool      `db:"is_system"`
	IsFiat        bool      `db:"is_fiat"`
	IsCrypto      bool      `db:"is_crypto"`
	CreatedAt     time.Time `db:"created_at"`
}

type CurrencyInput struct {
	Code          string
	Name          string
	Symbol        string
	DecimalPlaces int
	IsFiat        bool
	IsCrypto      bool
}

func NewCurrencyStore(db DB) *CurrencyStore {
	return &CurrencyStore{db: db}
}

func (s *CurrencyStore) Create(ctx context.Context, tx Getter, input CurrencyInput) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO currency (code, name, symbol, decimal_places, is_fiat, is_crypto)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, input.Code, input.Name, input.Symbol, input.DecimalPlaces, input.IsFiat, input.IsCrypto)
	return id, err
}

func (s *CurrencyStore) GetByID(ctx context.Context, q Getter, currencyID int64) (Currency, error) {
	var row Currency
	err := q.GetContext(ctx, &row, `
		SELECT id, code, name, symbol, decimal_places, is_default, is_system, is_fiat, is_crypto, created_at
		FROM currency
		WHERE id = $1
	`, currencyID)
	return row, err
}

func (s *CurrencyStore) GetByCode(ctx context.Context, q Getter, code string) (Currency, error) {
	var row Currency
	err := q.GetContext(ctx, &row, `
		SELECT id, code, name, symbol, decimal_places, is_default, is_system, is_fiat, is_crypto, created_at
		FROM currency
		WHERE code = $1
	`, code)
	return row, err
}

func (s *CurrencyStore) GetDefault(ctx context.Context, q Getter) (Currency, error) {
	var row Currency
	err := q.GetContext(ctx, &row, `
		SELECT id, code, name, symbol, decimal_places, is_default, is_system, is_fiat, is_crypto, created_at
		FROM currency
		WHERE is_default = TRUE
	`)
	return row, err
}

func (s *CurrencyStore) List(ctx context.Context) ([]Currency, error) {
	var rows []Currency
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, code, name, symbol, decimal_places, is_default, is_system, is_fiat, is_crypto, created_at
		FROM currency
		ORDER BY code
	`)
	return rows, err
}

func (s *CurrencyStore) Update(ctx context.Context, tx Execer, currencyID int64, input CurrencyInput) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE currency
		SET code = $1, name = $2, symbol = $3, decimal_places = $4, is_fiat = $5, is_crypto = $6
		WHERE id = $7
	`, input.Code, input.Name, input.Symbol, input.DecimalPlaces, input.IsFiat, input.IsCrypto, currencyID)
	return err
}

// SetDefault clears the previous holder and marks the new one. Both statements
// must run inside the same transaction so exactly one default is ever visible.
func (s *CurrencyStore) SetDefault(ctx context.Context, tx Execer, currencyID int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE currency SET is_default = FALSE WHERE is_default = TRUE AND id <> $1
	`, currencyID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE currency SET is_default = TRUE WHERE id = $1`, currencyID)
	return err
}

func (s *CurrencyStore) Delete(ctx context.Context, tx Execer, currencyID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM exchange_rate WHERE currency_id = $1`, currencyID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM currency WHERE id = $1`, currencyID)
	return err
}

func (s *CurrencyStore) CountAccountRefs(ctx context.Context, q Getter, currencyID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM account WHERE currency_id = $1`, currencyID)
	return count, err
}
