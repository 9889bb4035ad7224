package handlers

import (
	"context"
	"io"
	"time"

	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/services"
	"pocketledger/internal/store"

	"github.com/shopspring/decimal"
)

// Read-side store interfaces. Handlers query these directly; mutations go
// through the services below.

type CurrencyReader interface {
	List(ctx context.Context) ([]store.Currency, error)
}

type RateReader interface {
	History(ctx context.Context, currencyID int64, limit int) ([]store.ExchangeRate, error)
}

type WalletReader interface {
	List(ctx context.Context) ([]store.Wallet, error)
}

type AccountReader interface {
	ListAll(ctx context.Context) ([]store.AccountDetail, error)
	ListByWallet(ctx context.Context, walletID int64) ([]store.AccountDetail, error)
}

type TagReader interface {
	List(ctx context.Context) ([]store.Tag, error)
	ListEdges(ctx context.Context, q store.Selecter) ([]store.TagEdge, error)
}

type CounterpartyReader interface {
	List(ctx context.Context) ([]store.Counterparty, error)
	ListTags(ctx context.Context, q store.Selecter, counterpartyID int64) ([]int64, error)
}

type TransactionReader interface {
	GetTrx(ctx context.Context, q store.Getter, trxID string) (store.Trx, error)
	ListLinesByTrx(ctx context.Context, q store.Selecter, trxID string) ([]store.TrxLine, error)
}

type BudgetReader interface {
	List(ctx context.Context) ([]store.Budget, error)
	ListIncludedTags(ctx context.Context, q store.Selecter, budgetID int64) ([]int64, error)
}

type SyncReader interface {
	ListDeletionsSince(ctx context.Context, since time.Time) ([]store.SyncDeletion, error)
	ListStates(ctx context.Context) ([]store.SyncState, error)
	UpsertState(ctx context.Context, tx store.Execer, installationID string, lastSyncAt, lastPushAt time.Time) error
}

// Mutation-side service interfaces.

type LedgerService interface {
	CreateTransaction(ctx context.Context, req services.TransactionRequest) (string, error)
	UpdateTransaction(ctx context.Context, trxID string, req services.TransactionRequest) error
	DeleteTransaction(ctx context.Context, trxID string) error
	AdjustBalance(ctx context.Context, accountID int64, target fixedpoint.FixedPoint) (string, error)
	DeleteAccount(ctx context.Context, accountID int64) error
	Reconcile(ctx context.Context, q store.DB, accountIDs []int64) ([]services.ReconcileRow, error)
}

type CurrencyService interface {
	CreateCurrency(ctx context.Context, req services.CurrencyRequest) (int64, error)
	UpdateCurrency(ctx context.Context, currencyID int64, req services.CurrencyRequest) error
	SetDefaultCurrency(ctx context.Context, currencyID int64) error
	DeleteCurrency(ctx context.Context, currencyID int64) error
	RecordRate(ctx context.Context, currencyID int64, rate fixedpoint.FixedPoint, observedAt time.Time) error
	CurrentRate(ctx context.Context, currencyID int64) (fixedpoint.FixedPoint, error)
}

type WalletService interface {
	CreateWallet(ctx context.Context, req services.WalletRequest) (int64, error)
	UpdateWallet(ctx context.Context, walletID int64, req services.WalletRequest) error
	SetDefaultWallet(ctx context.Context, walletID int64) error
	DeleteWallet(ctx context.Context, walletID int64) error
	CreateAccount(ctx context.Context, walletID, currencyID int64) (int64, error)
	SetDefaultAccount(ctx context.Context, walletID, accountID int64) error
}

type TagService interface {
	CreateTag(ctx context.Context, req services.TagRequest) (int64, error)
	UpdateTag(ctx context.Context, tagID int64, req services.TagRequest) error
	DeleteTag(ctx context.Context, tagID int64) error
	FindByAncestor(ctx context.Context, ancestorID int64) ([]int64, error)
	CommonTags(ctx context.Context) ([]store.Tag, error)
}

type CounterpartyService interface {
	CreateCounterparty(ctx context.Context, req services.CounterpartyRequest) (int64, error)
	UpdateCounterparty(ctx context.Context, counterpartyID int64, req services.CounterpartyRequest) error
	DeleteCounterparty(ctx context.Context, counterpartyID int64) error
}

type BudgetService interface {
	CreateBudget(ctx context.Context, req services.BudgetRequest) (int64, error)
	UpdateBudget(ctx context.Context, budgetID int64, req services.BudgetRequest) error
	DeleteBudget(ctx context.Context, budgetID int64) error
	BudgetsSummary(ctx context.Context) ([]services.BudgetStatus, error)
}

type ReportService interface {
	MonthSummary(ctx context.Context, from, to int64) ([]services.MonthBucket, error)
	TagsSummary(ctx context.Context, from, to int64) ([]services.TagSummary, error)
	CounterpartiesSummary(ctx context.Context, from, to int64) ([]services.CounterpartySummary, error)
	CategoryBreakdown(ctx context.Context, from, to int64) ([]services.CategorySlice, error)
}

type CsvService interface {
	Export(ctx context.Context, w io.Writer, filter store.ExportFilter) error
	Import(ctx context.Context, r io.Reader) (*services.ImportResult, error)
}

// lineRequest is the wire form of one transaction line.
type lineRequest struct {
	AccountID int64  `json:"account_id"`
	TagID     int64  `json:"tag_id"`
	Sign      string `json:"sign"`
	Amount    string `json:"amount"`
	Rate      string `json:"rate,omitempty"`
	PctValue  string `json:"pct_value,omitempty"`
}

func (l lineRequest) toInput() (services.LineInput, error) {
	input := services.LineInput{AccountID: l.AccountID, TagID: l.TagID, Sign: l.Sign}
	if l.PctValue != "" {
		pct, err := decimal.NewFromString(l.PctValue)
		if err != nil {
			return input, err
		}
		input.PctValue = &pct
	} else {
		amount, err := parseAmount(l.Amount)
		if err != nil {
			return input, err
		}
		input.Amount = amount
	}
	if l.Rate != "" {
		rate, err := parseAmount(l.Rate)
		if err != nil {
			return input, err
		}
		input.Rate = rate
	}
	return input, nil
}
