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
	"pocketledger/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	SignCredit = "+"
	SignDebit  = "-"
)

// LedgerService owns the balance-maintenance algorithm: every line insert,
// update or delete mutates its account balance inside the same transaction,
// so Account.balance always equals the signed sum of its lines.
type LedgerService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	currencies   CurrencyStore
	rates        RateStore
	transactions TransactionStore
	sync         SyncStore
	hub          BalanceHub
}

func NewLedgerService(txRunner db.TxRunner, accounts AccountStore, currencies CurrencyStore, rates RateStore, transactions TransactionStore, syncStore SyncStore, hub BalanceHub) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		accounts:     accounts,
		currencies:   currencies,
		rates:        rates,
		transactions: transactions,
		sync:         syncStore,
		hub:          hub,
	}
}

// LineInput describes one line of a transaction to be written. When PctValue
// is set the amount is derived from the first non-percentage line at entry
// time; Rate zero means "snapshot the current rate".
type LineInput struct {
	AccountID int64
	TagID     int64
	Sign      string
	Amount    fixedpoint.FixedPoint
	Rate      fixedpoint.FixedPoint
	PctValue  *decimal.Decimal
}

type TransactionRequest struct {
	Timestamp      int64
	CounterpartyID *int64
	Note           string
	Lines          []LineInput
}

type balanceUpdate struct {
	accountID int64
	balance   string
	currency  string
}

func (s *LedgerService) CreateTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	trxID := newOpaqueID()
	var updates []balanceUpdate
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transactions.CreateTrx(ctx, tx, store.TrxInput{
			ID:             trxID,
			Timestamp:      req.Timestamp,
			CounterpartyID: req.CounterpartyID,
			Note:           req.Note,
		}); err != nil {
			return err
		}
		changed := make(map[int64]balanceUpdate)
		if err := s.insertLines(ctx, tx, trxID, req.Lines, changed); err != nil {
			return err
		}
		updates = flattenUpdates(changed)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.broadcast(updates)
	return trxID, nil
}

// UpdateTransaction replaces the whole transaction: all existing lines are
// reversed and deleted, then the new lines are inserted. Rewriting unchanged
// lines is the price of never diffing, and the unit stays atomic end to end.
func (s *LedgerService) UpdateTransaction(ctx context.Context, trxID string, req TransactionRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	var updates []balanceUpdate
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.transactions.GetTrx(ctx, tx, trxID); err != nil {
			return notFoundOr(err, "transaction", trxID)
		}
		changed := make(map[int64]balanceUpdate)
		if err := s.removeLines(ctx, tx, trxID, changed); err != nil {
			return err
		}
		if err := s.transactions.UpdateTrxHeader(ctx, tx, trxID, req.Timestamp, req.CounterpartyID, req.Note); err != nil {
			return err
		}
		if err := s.insertLines(ctx, tx, trxID, req.Lines, changed); err != nil {
			return err
		}
		updates = flattenUpdates(changed)
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcast(updates)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, trxID string) error {
	var updates []balanceUpdate
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.transactions.GetTrx(ctx, tx, trxID); err != nil {
			return notFoundOr(err, "transaction", trxID)
		}
		changed := make(map[int64]balanceUpdate)
		if err := s.removeLines(ctx, tx, trxID, changed); err != nil {
			return err
		}
		if err := s.transactions.DeleteTrx(ctx, tx, trxID); err != nil {
			return err
		}
		if err := s.sync.RecordDeletion(ctx, tx, store.TableTrx, trxID); err != nil {
			return err
		}
		updates = flattenUpdates(changed)
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcast(updates)
	return nil
}

// AdjustBalance reconciles the account to targetBalance with one synthetic
// line. The first adjustment of an account reads as its opening balance: it
// is tagged INITIAL and back-dated to the account's first transaction day.
func (s *LedgerService) AdjustBalance(ctx context.Context, accountID int64, target fixedpoint.FixedPoint) (string, error) {
	trxID := newOpaqueID()
	var update balanceUpdate
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
		if err != nil {
			return notFoundOr(err, "account", strconv.FormatInt(accountID, 10))
		}
		diff := fixedpoint.Sub(target, account.Balance())
		if diff.IsZero() {
			return ValidationError{Message: "no adjustment needed: balance already matches"}
		}
		sign := SignCredit
		amount := diff
		if diff.IsNegative() {
			sign = SignDebit
			amount = fixedpoint.Neg(diff)
		}
		currency, err := s.currencies.GetByID(ctx, tx, account.CurrencyID)
		if err != nil {
			return err
		}
		rate, err := s.resolveRate(ctx, tx, currency)
		if err != nil {
			return err
		}
		hasInitial, err := s.transactions.HasLineWithTag(ctx, tx, accountID, store.TagInitial)
		if err != nil {
			return err
		}
		tagID := store.TagAdjustment
		timestamp := time.Now().Unix()
		if !hasInitial {
			tagID = store.TagInitial
			first, err := s.transactions.FirstTimestampForAccount(ctx, tx, accountID)
			if err != nil {
				return err
			}
			if first > 0 {
				timestamp = startOfDay(first)
			}
		}
		if err := s.transactions.CreateTrx(ctx, tx, store.TrxInput{ID: trxID, Timestamp: timestamp}); err != nil {
			return err
		}
		if err := s.transactions.InsertLine(ctx, tx, store.TrxLineInput{
			ID:        newOpaqueID(),
			TrxID:     trxID,
			AccountID: accountID,
			TagID:     tagID,
			Sign:      sign,
			Amount:    amount,
			Rate:      rate,
		}); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, accountID, target); err != nil {
			return err
		}
		update = balanceUpdate{accountID: accountID, balance: target.DisplayString(currency.DecimalPlaces), currency: currency.Code}
		return nil
	})
	if err != nil {
		return "", err
	}
	s.broadcast([]balanceUpdate{update})
	return trxID, nil
}

// DeleteAccount removes an account that carries nothing but INITIAL lines.
// Those lines are reversed and deleted implicitly; any other line blocks the
// deletion.
func (s *LedgerService) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.deleteAccountInTx(ctx, tx, accountID)
	})
}

// deleteAccountInTx is the transaction-scoped body of DeleteAccount. Wallet
// deletion composes it so that removing several accounts and the wallet row
// stays one atomic unit.
func (s *LedgerService) deleteAccountInTx(ctx context.Context, tx *sqlx.Tx, accountID int64) error {
	account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return notFoundOr(err, "account", strconv.FormatInt(accountID, 10))
	}
	count, err := s.transactions.CountLinesByAccountExcludingTag(ctx, tx, accountID, store.TagInitial)
	if err != nil {
		return err
	}
	if count > 0 {
		return EntityInUseError{Entity: "account", Name: strconv.FormatInt(accountID, 10), Count: count}
	}
	lines, err := s.transactions.ListLinesByAccount(ctx, tx, accountID)
	if err != nil {
		return err
	}
	balance := account.Balance()
	for _, line := range lines {
		balance = reverseEffect(balance, line.Sign, line.Amount())
		if err := s.transactions.DeleteLine(ctx, tx, line.ID); err != nil {
			return err
		}
		if err := s.sync.RecordDeletion(ctx, tx, store.TableTrxLine, line.ID); err != nil {
			return err
		}
		remaining, err := s.transactions.ListLinesByTrx(ctx, tx, line.TrxID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := s.transactions.DeleteTrx(ctx, tx, line.TrxID); err != nil {
				return err
			}
			if err := s.sync.RecordDeletion(ctx, tx, store.TableTrx, line.TrxID); err != nil {
				return err
			}
		}
	}
	if !balance.IsZero() {
		logrus.WithField("account_id", accountID).Warn("residual balance on account deletion")
	}
	if err := s.accounts.Delete(ctx, tx, accountID); err != nil {
		return err
	}
	return s.sync.RecordDeletion(ctx, tx, store.TableAccount, tombstoneKey(accountID))
}

// ReconcileRow reports stored versus recomputed balance for one account.
type ReconcileRow struct {
	AccountID  int64
	Currency   string
	Stored     fixedpoint.FixedPoint
	Recomputed fixedpoint.FixedPoint
}

func (r ReconcileRow) InBalance() bool {
	return fixedpoint.Compare(r.Stored, r.Recomputed) == 0
}

// Reconcile recomputes each account balance from its lines in fixed point.
// A mismatch means the incremental algorithm and the stored rows diverged.
func (s *LedgerService) Reconcile(ctx context.Context, q store.DB, accountIDs []int64) ([]ReconcileRow, error) {
	rows := make([]ReconcileRow, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		account, err := s.accounts.GetByID(ctx, q, accountID)
		if err != nil {
			return nil, notFoundOr(err, "account", strconv.FormatInt(accountID, 10))
		}
		currency, err := s.currencies.GetByID(ctx, q, account.CurrencyID)
		if err != nil {
			return nil, err
		}
		lines, err := s.transactions.ListLinesByAccount(ctx, q, accountID)
		if err != nil {
			return nil, err
		}
		recomputed := fixedpoint.Zero
		for _, line := range lines {
			recomputed = applyEffect(recomputed, line.Sign, line.Amount())
		}
		rows = append(rows, ReconcileRow{
			AccountID:  accountID,
			Currency:   currency.Code,
			Stored:     account.Balance(),
			Recomputed: recomputed,
		})
	}
	return rows, nil
}

// insertLines writes each line and applies its balance effect. Percentage
// lines derive their amount from the first non-percentage line, rounded to
// the add-on account currency's decimal places, then behave as typed lines.
func (s *LedgerService) insertLines(ctx context.Context, tx *sqlx.Tx, trxID string, lines []LineInput, updates map[int64]balanceUpdate) error {
	var primary *fixedpoint.FixedPoint
	for i := range lines {
		if lines[i].PctValue == nil {
			amount := lines[i].Amount
			primary = &amount
			break
		}
	}
	for _, line := range lines {
		account, err := s.accounts.GetForUpdate(ctx, tx, line.AccountID)
		if err != nil {
			return notFoundOr(err, "account", strconv.FormatInt(line.AccountID, 10))
		}
		currency, err := s.currencies.GetByID(ctx, tx, account.CurrencyID)
		if err != nil {
			return err
		}
		amount := line.Amount
		var pctValue *string
		if line.PctValue != nil {
			if primary == nil {
				return ValidationError{Message: "percentage line requires a base line in the same transaction"}
			}
			derived, err := fixedpoint.FromDecimal(line.PctValue.Mul(primary.Decimal()).Round(int32(currency.DecimalPlaces)))
			if err != nil {
				return ValidationError{Message: "percentage value out of range"}
			}
			amount = derived
			rendered := line.PctValue.String()
			pctValue = &rendered
		}
		if amount.IsNegative() {
			return ValidationError{Message: "line amount must not be negative"}
		}
		rate := line.Rate
		if rate.IsZero() {
			rate, err = s.resolveRate(ctx, tx, currency)
			if err != nil {
				return err
			}
		}
		if err := s.transactions.InsertLine(ctx, tx, store.TrxLineInput{
			ID:        newOpaqueID(),
			TrxID:     trxID,
			AccountID: line.AccountID,
			TagID:     line.TagID,
			Sign:      line.Sign,
			Amount:    amount,
			Rate:      rate,
			PctValue:  pctValue,
		}); err != nil {
			return err
		}
		balance := applyEffect(account.Balance(), line.Sign, amount)
		if err := s.accounts.UpdateBalance(ctx, tx, line.AccountID, balance); err != nil {
			return err
		}
		updates[line.AccountID] = balanceUpdate{
			accountID: line.AccountID,
			balance:   balance.DisplayString(currency.DecimalPlaces),
			currency:  currency.Code,
		}
	}
	return nil
}

// removeLines reverses and deletes every line of the transaction, recording
// a tombstone per removed line.
func (s *LedgerService) removeLines(ctx context.Context, tx *sqlx.Tx, trxID string, updates map[int64]balanceUpdate) error {
	lines, err := s.transactions.ListLinesByTrx(ctx, tx, trxID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		account, err := s.accounts.GetForUpdate(ctx, tx, line.AccountID)
		if err != nil {
			return err
		}
		currency, err := s.currencies.GetByID(ctx, tx, account.CurrencyID)
		if err != nil {
			return err
		}
		balance := reverseEffect(account.Balance(), line.Sign, line.Amount())
		if err := s.accounts.UpdateBalance(ctx, tx, line.AccountID, balance); err != nil {
			return err
		}
		if err := s.transactions.DeleteLine(ctx, tx, line.ID); err != nil {
			return err
		}
		if err := s.sync.RecordDeletion(ctx, tx, store.TableTrxLine, line.ID); err != nil {
			return err
		}
		updates[line.AccountID] = balanceUpdate{
			accountID: line.AccountID,
			balance:   balance.DisplayString(currency.DecimalPlaces),
			currency:  currency.Code,
		}
	}
	return nil
}

func flattenUpdates(updates map[int64]balanceUpdate) []balanceUpdate {
	result := make([]balanceUpdate, 0, len(updates))
	for _, update := range updates {
		result = append(result, update)
	}
	return result
}

func (s *LedgerService) resolveRate(ctx context.Context, tx store.Getter, currency store.Currency) (fixedpoint.FixedPoint, error) {
	if currency.IsDefault || currency.IsSystem {
		return fixedpoint.One(), nil
	}
	latest, err := s.rates.Latest(ctx, tx, currency.ID)
	if err != nil {
		// No observation yet: fall back to the identity rate so the
		// engine never records a null-rate line.
		if errors.Is(err, sql.ErrNoRows) {
			return fixedpoint.One(), nil
		}
		return fixedpoint.Zero, err
	}
	return latest.Rate(), nil
}

func (s *LedgerService) broadcast(updates []balanceUpdate) {
	if s.hub == nil {
		return
	}
	for _, update := range updates {
		s.hub.BroadcastBalance(websocket.BalanceUpdate{
			AccountID: update.accountID,
			Balance:   update.balance,
			Currency:  update.currency,
		})
	}
}

func validateRequest(req TransactionRequest) error {
	if len(req.Lines) == 0 {
		return ValidationError{Message: "transaction requires at least one line"}
	}
	if req.Timestamp <= 0 {
		return ValidationError{Message: "transaction timestamp required"}
	}
	for _, line := range req.Lines {
		if line.Sign != SignCredit && line.Sign != SignDebit {
			return ValidationError{Message: "line sign must be + or -"}
		}
		if line.PctValue == nil && line.Amount.IsNegative() {
			return ValidationError{Message: "line amount must not be negative"}
		}
	}
	return nil
}

func applyEffect(balance fixedpoint.FixedPoint, sign string, amount fixedpoint.FixedPoint) fixedpoint.FixedPoint {
	if sign == SignCredit {
		return fixedpoint.Add(balance, amount)
	}
	return fixedpoint.Sub(balance, amount)
}

func reverseEffect(balance fixedpoint.FixedPoint, sign string, amount fixedpoint.FixedPoint) fixedpoint.FixedPoint {
	if sign == SignCredit {
		return fixedpoint.Sub(balance, amount)
	}
	return fixedpoint.Add(balance, amount)
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func startOfDay(timestamp int64) int64 {
	t := time.Unix(timestamp, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
