package store

import (
	"context"
	"time"

	"pocketledger/internal/fixedpoint"
)

// RateStore keeps the append-only exchange-rate history. The newest row per
// currency is the current rate; older rows stay untouched so historical
// snapshots remain reproducible.
type RateStore struct {
	db DB
}

type ExchangeRate struct {
	ID         int64     `db:"id"`
	CurrencyID int64     `db:"currency_id"`
	RateInt    int64     `db:"rate_int"`
	RateFrac   int64     `db:"rate_frac"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r ExchangeRate) Rate() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: r.RateInt, Frac: r.RateFrac}
}

func NewRateStore(db DB) *RateStore {
	return &RateStore{db: db}
}

func (s *RateStore) Append(ctx context.Context, tx Execer, currencyID int64, rate fixedpoint.FixedPoint, updatedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO exchange_rate (currency_id, rate_int, rate_frac, updated_at)
		VALUES ($1, $2, $3, $4)
	`, currencyID, rate.Int, rate.Frac, updatedAt)
	return err
}

func (s *RateStore) Latest(ctx context.Context, q Getter, currencyID int64) (ExchangeRate, error) {
	var row ExchangeRate
	err := q.GetContext(ctx, &row, `
		SELECT id, currency_id, rate_int, rate_frac, updated_at
		FROM exchange_rate
		WHERE currency_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`, currencyID)
	return row, err
}

func (s *RateStore) History(ctx context.Context, currencyID int64, limit int) ([]ExchangeRate, error) {
	var rows []ExchangeRate
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, currency_id, rate_int, rate_frac, updated_at
		FROM exchange_rate
		WHERE currency_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2
	`, currencyID, limit)
	return rows, err
}
