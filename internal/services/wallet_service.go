package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"pocketledger/internal/db"
	"pocketledger/internal/store"
	"pocketledger/internal/validator"

	"github.com/jmoiron/sqlx"
)

// WalletService manages wallets and their per-currency accounts. A wallet
// holds at most one account per currency; the first account created in a
// wallet becomes its default.
type WalletService struct {
	txRunner   db.TxRunner
	wallets    WalletStore
	accounts   AccountStore
	currencies CurrencyStore
	sync       SyncStore
	ledger     *LedgerService
}

func NewWalletService(txRunner db.TxRunner, wallets WalletStore, accounts AccountStore, currencies CurrencyStore, syncStore SyncStore, ledger *LedgerService) *WalletService {
	return &WalletService{
		txRunner:   txRunner,
		wallets:    wallets,
		accounts:   accounts,
		currencies: currencies,
		sync:       syncStore,
		ledger:     ledger,
	}
}

type WalletRequest struct {
	Name  string
	Color string
}

func (s *WalletService) CreateWallet(ctx context.Context, req WalletRequest) (int64, error) {
	if err := validateWalletRequest(req); err != nil {
		return 0, err
	}
	var walletID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.wallets.GetByName(ctx, tx, req.Name); err == nil {
			return DuplicateNameError{Entity: "wallet", Name: req.Name}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		id, err := s.wallets.Create(ctx, tx, req.Name, req.Color)
		if err != nil {
			return err
		}
		walletID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return walletID, nil
}

func (s *WalletService) UpdateWallet(ctx context.Context, walletID int64, req WalletRequest) error {
	if err := validateWalletRequest(req); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.wallets.GetByID(ctx, tx, walletID)
		if err != nil {
			return notFoundOr(err, "wallet", strconv.FormatInt(walletID, 10))
		}
		if current.Name != req.Name {
			if _, err := s.wallets.GetByName(ctx, tx, req.Name); err == nil {
				return DuplicateNameError{Entity: "wallet", Name: req.Name}
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		return s.wallets.Update(ctx, tx, walletID, req.Name, req.Color)
	})
}

func (s *WalletService) SetDefaultWallet(ctx context.Context, walletID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.wallets.GetByID(ctx, tx, walletID); err != nil {
			return notFoundOr(err, "wallet", strconv.FormatInt(walletID, 10))
		}
		return s.wallets.SetDefault(ctx, tx, walletID)
	})
}

// DeleteWallet removes the wallet and its accounts in one transaction. Each
// account must pass the same deletability check as a direct account deletion,
// so one account with real history blocks the whole wallet and nothing is
// left half-removed.
func (s *WalletService) DeleteWallet(ctx context.Context, walletID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.wallets.GetByID(ctx, tx, walletID); err != nil {
			return notFoundOr(err, "wallet", strconv.FormatInt(walletID, 10))
		}
		accountIDs, err := s.accounts.IDsByWallet(ctx, tx, walletID)
		if err != nil {
			return err
		}
		for _, accountID := range accountIDs {
			if err := s.ledger.deleteAccountInTx(ctx, tx, accountID); err != nil {
				return err
			}
		}
		if err := s.wallets.Delete(ctx, tx, walletID); err != nil {
			return err
		}
		return s.sync.RecordDeletion(ctx, tx, store.TableWallet, tombstoneKey(walletID))
	})
}

// CreateAccount opens the wallet's account for one currency. The first
// account in a wallet becomes its default.
func (s *WalletService) CreateAccount(ctx context.Context, walletID, currencyID int64) (int64, error) {
	var accountID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.wallets.GetByID(ctx, tx, walletID); err != nil {
			return notFoundOr(err, "wallet", strconv.FormatInt(walletID, 10))
		}
		if _, err := s.currencies.GetByID(ctx, tx, currencyID); err != nil {
			return notFoundOr(err, "currency", strconv.FormatInt(currencyID, 10))
		}
		if _, err := s.accounts.GetByWalletAndCurrency(ctx, tx, walletID, currencyID); err == nil {
			return ValidationError{Message: "wallet already holds an account in this currency"}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		id, err := s.accounts.Create(ctx, tx, walletID, currencyID)
		if err != nil {
			return err
		}
		accountID = id
		existing, err := s.accounts.CountByWallet(ctx, tx, walletID)
		if err != nil {
			return err
		}
		if existing == 1 {
			return s.accounts.SetWalletDefault(ctx, tx, walletID, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return accountID, nil
}

// SetDefaultAccount marks one of the wallet's accounts as the default used
// when composing new transactions.
func (s *WalletService) SetDefaultAccount(ctx context.Context, walletID, accountID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetByID(ctx, tx, accountID)
		if err != nil {
			return notFoundOr(err, "account", strconv.FormatInt(accountID, 10))
		}
		if account.WalletID != walletID {
			return ValidationError{Message: "account does not belong to this wallet"}
		}
		return s.accounts.SetWalletDefault(ctx, tx, walletID, accountID)
	})
}

func validateWalletRequest(req WalletRequest) error {
	if err := validator.ValidateName(req.Name); err != nil {
		return ValidationError{Message: "wallet name required"}
	}
	if err := validator.ValidateColor(req.Color); err != nil {
		return ValidationError{Message: "wallet color must be a #rrggbb value"}
	}
	return nil
}
