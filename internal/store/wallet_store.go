package store

import (
	"context"
	"time"
)

type WalletStore struct {
	db DB
}

type Wallet struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Color     string    `db:"color"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

func (s *WalletStore) Create(ctx context.Context, tx Getter, name, color string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO wallet (name, color)
		VALUES ($1, $2)
		RETURNING id
	`, name, color)
	return id, err
}

func (s *WalletStore) GetByID(ctx context.Context, q Getter, walletID int64) (Wallet, error) {
	var row Wallet
	err := q.GetContext(ctx, &row, `
		SELECT id, name, color, is_default, created_at
		FROM wallet
		WHERE id = $1
	`, walletID)
	return row, err
}

func (s *WalletStore) GetByName(ctx context.Context, q Getter, name string) (Wallet, error) {
	var row Wallet
	err := q.GetContext(ctx, &row, `
		SELECT id, name, color, is_default, created_at
		FROM wallet
		WHERE name = $1
	`, name)
	return row, err
}

func (s *WalletStore) List(ctx context.Context) ([]Wallet, error) {
	var rows []Wallet
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, color, is_default, created_at
		FROM wallet
		ORDER BY name
	`)
	return rows, err
}

func (s *WalletStore) Update(ctx context.Context, tx Execer, walletID int64, name, color string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallet SET name = $1, color = $2 WHERE id = $3
	`, name, color, walletID)
	return err
}

// SetDefault follows the same clear-then-set shape as the currency default so
// at most one wallet carries the flag.
func (s *WalletStore) SetDefault(ctx context.Context, tx Execer, walletID int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE wallet SET is_default = FALSE WHERE is_default = TRUE AND id <> $1
	`, walletID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE wallet SET is_default = TRUE WHERE id = $1`, walletID)
	return err
}

func (s *WalletStore) Delete(ctx context.Context, tx Execer, walletID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM wallet WHERE id = $1`, walletID)
	return err
}
