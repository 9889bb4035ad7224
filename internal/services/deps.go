package services

import (
	"context"
	"time"

	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"
)

type CurrencyStore interface {
	Create(ctx context.Context, tx store.Getter, input store.CurrencyInput) (int64, error)
	GetByID(ctx context.Context, q store.Getter, currencyID int64) (store.Currency, error)
	GetByCode(ctx context.Context, q store.Getter, code string) (store.Currency, error)
	GetDefault(ctx context.Context, q store.Getter) (store.Currency, error)
	Update(ctx context.Context, tx store.Execer, currencyID int64, input store.CurrencyInput) error
	SetDefault(ctx context.Context, tx store.Execer, currencyID int64) error
	Delete(ctx context.Context, tx store.Execer, currencyID int64) error
	CountAccountRefs(ctx context.Context, q store.Getter, currencyID int64) (int64, error)
}

type RateStore interface {
	Append(ctx context.Context, tx store.Execer, currencyID int64, rate fixedpoint.FixedPoint, updatedAt time.Time) error
	Latest(ctx context.Context, q store.Getter, currencyID int64) (store.ExchangeRate, error)
}

type WalletStore interface {
	Create(ctx context.Context, tx store.Getter, name, color string) (int64, error)
	GetByID(ctx context.Context, q store.Getter, walletID int64) (store.Wallet, error)
	GetByName(ctx context.Context, q store.Getter, name string) (store.Wallet, error)
	Update(ctx context.Context, tx store.Execer, walletID int64, name, color string) error
	SetDefault(ctx context.Context, tx store.Execer, walletID int64) error
	Delete(ctx context.Context, tx store.Execer, walletID int64) error
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Getter, walletID, currencyID int64) (int64, error)
	GetByID(ctx context.Context, q store.Getter, accountID int64) (store.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID int64) (store.Account, error)
	GetByWalletAndCurrency(ctx context.Context, q store.Getter, walletID, currencyID int64) (store.Account, error)
	IDsByWallet(ctx context.Context, q store.Selecter, walletID int64) ([]int64, error)
	CountByWallet(ctx context.Context, q store.Getter, walletID int64) (int64, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID int64, balance fixedpoint.FixedPoint) error
	SetWalletDefault(ctx context.Context, tx store.Execer, walletID, accountID int64) error
	Delete(ctx context.Context, tx store.Execer, accountID int64) error
}

type TagStore interface {
	Create(ctx context.Context, tx store.Getter, name string, isCommon bool, sortOrder int) (int64, error)
	GetByID(ctx context.Context, q store.Getter, tagID int64) (store.Tag, error)
	GetByName(ctx context.Context, q store.Getter, name string) (store.Tag, error)
	List(ctx context.Context) ([]store.Tag, error)
	Update(ctx context.Context, tx store.Execer, tagID int64, name string, isCommon bool, sortOrder int) error
	Delete(ctx context.Context, tx store.Execer, tagID int64) error
	ListEdges(ctx context.Context, q store.Selecter) ([]store.TagEdge, error)
	InsertEdge(ctx context.Context, tx store.Execer, childID, parentID int64) error
	DeleteEdgesForChild(ctx context.Context, tx store.Execer, childID int64) error
	CountLineRefs(ctx context.Context, q store.Getter, tagID int64) (int64, error)
	CountBudgetRefs(ctx context.Context, q store.Getter, tagID int64) (int64, error)
}

type CounterpartyStore interface {
	Create(ctx context.Context, tx store.Getter, name, note string) (int64, error)
	GetByID(ctx context.Context, q store.Getter, counterpartyID int64) (store.Counterparty, error)
	GetByName(ctx context.Context, q store.Getter, name string) (store.Counterparty, error)
	Update(ctx context.Context, tx store.Execer, counterpartyID int64, name, note string) error
	Delete(ctx context.Context, tx store.Execer, counterpartyID int64) error
	SetTags(ctx context.Context, tx store.Execer, counterpartyID int64, tagIDs []int64) error
	CountTrxRefs(ctx context.Context, q store.Getter, counterpartyID int64) (int64, error)
}

type TransactionStore interface {
	CreateTrx(ctx context.Context, tx store.Execer, input store.TrxInput) error
	UpdateTrxHeader(ctx context.Context, tx store.Execer, trxID string, timestamp int64, counterpartyID *int64, note string) error
	DeleteTrx(ctx context.Context, tx store.Execer, trxID string) error
	GetTrx(ctx context.Context, q store.Getter, trxID string) (store.Trx, error)
	TrxExists(ctx context.Context, q store.Getter, trxID string) (bool, error)
	InsertLine(ctx context.Context, tx store.Execer, input store.TrxLineInput) error
	DeleteLine(ctx context.Context, tx store.Execer, lineID string) error
	ListLinesByTrx(ctx context.Context, q store.Selecter, trxID string) ([]store.TrxLine, error)
	ListLinesByAccount(ctx context.Context, q store.Selecter, accountID int64) ([]store.TrxLine, error)
	CountLinesByAccountExcludingTag(ctx context.Context, q store.Getter, accountID, tagID int64) (int64, error)
	HasLineWithTag(ctx context.Context, q store.Getter, accountID, tagID int64) (bool, error)
	FirstTimestampForAccount(ctx context.Context, q store.Getter, accountID int64) (int64, error)
	ListLinesInPeriod(ctx context.Context, from, to int64) ([]store.ReportLine, error)
	ListForExport(ctx context.Context, filter store.ExportFilter) ([]store.ExportRow, error)
}

type BudgetStore interface {
	Create(ctx context.Context, tx store.Getter, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) (int64, error)
	GetByID(ctx context.Context, q store.Getter, budgetID int64) (store.Budget, error)
	List(ctx context.Context) ([]store.Budget, error)
	Update(ctx context.Context, tx store.Execer, budgetID, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) error
	Delete(ctx context.Context, tx store.Execer, budgetID int64) error
	SetIncludedTags(ctx context.Context, tx store.Execer, budgetID int64, tagIDs []int64) error
	ListIncludedTags(ctx context.Context, q store.Selecter, budgetID int64) ([]int64, error)
}

type SyncStore interface {
	RecordDeletion(ctx context.Context, tx store.Execer, tableName, entityID string) error
}

type BalanceHub interface {
	BroadcastBalance(update websocket.BalanceUpdate)
}
