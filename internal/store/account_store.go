package store

import (
	"context"
	"time"

	"pocketledger/internal/fixedpoint"
)

type AccountStore struct {
	db DB
}

type Account struct {
	ID          int64     `db:"id"`
	WalletID    int64     `db:"wallet_id"`
	CurrencyID  int64     `db:"currency_id"`
	BalanceInt  int64     `db:"balance_int"`
	BalanceFrac int64     `db:"balance_frac"`
	IsDefault   bool      `db:"is_default"`
	CreatedAt   time.Time `db:"created_at"`
}

func (a Account) Balance() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: a.BalanceInt, Frac: a.BalanceFrac}
}

// AccountDetail joins the wallet and currency dimensions for read surfaces.
type AccountDetail struct {
	ID            int64  `db:"id"`
	WalletID      int64  `db:"wallet_id"`
	WalletName    string `db:"wallet_name"`
	CurrencyID    int64  `db:"currency_id"`
	CurrencyCode  string `db:"currency_code"`
	DecimalPlaces int    `db:"decimal_places"`
	BalanceInt    int64  `db:"balance_int"`
	BalanceFrac   int64  `db:"balance_frac"`
	IsDefault     bool   `db:"is_default"`
}

func (a AccountDetail) Balance() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: a.BalanceInt, Frac: a.BalanceFrac}
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Getter, walletID, currencyID int64) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO account (wallet_id, currency_id, balance_int, balance_frac)
		VALUES ($1, $2, 0, 0)
		RETURNING id
	`, walletID, currencyID)
	return id, err
}

func (s *AccountStore) GetByID(ctx context.Context, q Getter, accountID int64) (Account, error) {
	var row Account
	err := q.GetContext(ctx, &row, `
		SELECT id, wallet_id, currency_id, balance_int, balance_frac, is_default, created_at
		FROM account
		WHERE id = $1
	`, accountID)
	return row, err
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID int64) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, wallet_id, currency_id, balance_int, balance_frac, is_default, created_at
		FROM account
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	return row, err
}

func (s *AccountStore) GetByWalletAndCurrency(ctx context.Context, q Getter, walletID, currencyID int64) (Account, error) {
	var row Account
	err := q.GetContext(ctx, &row, `
		SELECT id, wallet_id, currency_id, balance_int, balance_frac, is_default, created_at
		FROM account
		WHERE wallet_id = $1 AND currency_id = $2
	`, walletID, currencyID)
	return row, err
}

func (s *AccountStore) ListByWallet(ctx context.Context, walletID int64) ([]AccountDetail, error) {
	var rows []AccountDetail
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.wallet_id, w.name AS wallet_name, a.currency_id, c.code AS currency_code,
		       c.decimal_places, a.balance_int, a.balance_frac, a.is_default
		FROM account a
		JOIN wallet w ON w.id = a.wallet_id
		JOIN currency c ON c.id = a.currency_id
		WHERE a.wallet_id = $1
		ORDER BY c.code
	`, walletID)
	return rows, err
}

// IDsByWallet runs against the caller's querier so a wallet deletion can read
// its member accounts inside the same transaction that removes them.
func (s *AccountStore) IDsByWallet(ctx context.Context, q Selecter, walletID int64) ([]int64, error) {
	var ids []int64
	err := q.SelectContext(ctx, &ids, `
		SELECT id FROM account WHERE wallet_id = $1 ORDER BY id
	`, walletID)
	return ids, err
}

func (s *AccountStore) ListAll(ctx context.Context) ([]AccountDetail, error) {
	var rows []AccountDetail
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.wallet_id, w.name AS wallet_name, a.currency_id, c.code AS currency_code,
		       c.decimal_places, a.balance_int, a.balance_frac, a.is_default
		FROM account a
		JOIN wallet w ON w.id = a.wallet_id
		JOIN currency c ON c.id = a.currency_id
		ORDER BY w.name, c.code
	`)
	return rows, err
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID int64, balance fixedpoint.FixedPoint) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE account
		SET balance_int = $1, balance_frac = $2
		WHERE id = $3
	`, balance.Int, balance.Frac, accountID)
	return err
}

// SetWalletDefault marks the wallet's default account, clearing the flag from
// sibling accounts in the same statement pair.
func (s *AccountStore) SetWalletDefault(ctx context.Context, tx Execer, walletID, accountID int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE account SET is_default = FALSE WHERE wallet_id = $1 AND is_default = TRUE AND id <> $2
	`, walletID, accountID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `UPDATE account SET is_default = TRUE WHERE id = $1`, accountID)
	return err
}

func (s *AccountStore) Delete(ctx context.Context, tx Execer, accountID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM account WHERE id = $1`, accountID)
	return err
}

func (s *AccountStore) CountByWallet(ctx context.Context, q Getter, walletID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM account WHERE wallet_id = $1`, walletID)
	return count, err
}
