package handlers

import (
	"context"
	"database/sql"
	"io"
	"time"

	"pocketledger/internal/config"
	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/services"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"
)

type stubDB struct {
	execFn   func(ctx context.Context, query string, args ...any) error
	getFn    func(ctx context.Context, dest any, query string, args ...any) error
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.execFn != nil {
		return nil, s.execFn(ctx, query, args...)
	}
	return nil, nil
}

func (s stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.getFn == nil {
		return nil
	}
	return s.getFn(ctx, dest, query, args...)
}

func (s stubDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

type stubCurrencyReader struct {
	listFn func(ctx context.Context) ([]store.Currency, error)
}

func (s stubCurrencyReader) List(ctx context.Context) ([]store.Currency, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

type stubRateReader struct {
	historyFn func(ctx context.Context, currencyID int64, limit int) ([]store.ExchangeRate, error)
}

func (s stubRateReader) History(ctx context.Context, currencyID int64, limit int) ([]store.ExchangeRate, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, currencyID, limit)
}

type stubWalletReader struct {
	listFn func(ctx context.Context) ([]store.Wallet, error)
}

func (s stubWalletReader) List(ctx context.Context) ([]store.Wallet, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

type stubAccountReader struct {
	listAllFn      func(ctx context.Context) ([]store.AccountDetail, error)
	listByWalletFn func(ctx context.Context, walletID int64) ([]store.AccountDetail, error)
}

func (s stubAccountReader) ListAll(ctx context.Context) ([]store.AccountDetail, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx)
}

func (s stubAccountReader) ListByWallet(ctx context.Context, walletID int64) ([]store.AccountDetail, error) {
	if s.listByWalletFn == nil {
		return nil, nil
	}
	return s.listByWalletFn(ctx, walletID)
}

type stubTagReader struct {
	listFn      func(ctx context.Context) ([]store.Tag, error)
	listEdgesFn func(ctx context.Context, q store.Selecter) ([]store.TagEdge, error)
}

func (s stubTagReader) List(ctx context.Context) ([]store.Tag, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubTagReader) ListEdges(ctx context.Context, q store.Selecter) ([]store.TagEdge, error) {
	if s.listEdgesFn == nil {
		return nil, nil
	}
	return s.listEdgesFn(ctx, q)
}

type stubCounterpartyReader struct {
	listFn     func(ctx context.Context) ([]store.Counterparty, error)
	listTagsFn func(ctx context.Context, q store.Selecter, counterpartyID int64) ([]int64, error)
}

func (s stubCounterpartyReader) List(ctx context.Context) ([]store.Counterparty, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubCounterpartyReader) ListTags(ctx context.Context, q store.Selecter, counterpartyID int64) ([]int64, error) {
	if s.listTagsFn == nil {
		return nil, nil
	}
	return s.listTagsFn(ctx, q, counterpartyID)
}

type stubTransactionReader struct {
	getTrxFn         func(ctx context.Context, q store.Getter, trxID string) (store.Trx, error)
	listLinesByTrxFn func(ctx context.Context, q store.Selecter, trxID string) ([]store.TrxLine, error)
}

func (s stubTransactionReader) GetTrx(ctx context.Context, q store.Getter, trxID string) (store.Trx, error) {
	if s.getTrxFn == nil {
		return store.Trx{}, nil
	}
	return s.getTrxFn(ctx, q, trxID)
}

func (s stubTransactionReader) ListLinesByTrx(ctx context.Context, q store.Selecter, trxID string) ([]store.TrxLine, error) {
	if s.listLinesByTrxFn == nil {
		return nil, nil
	}
	return s.listLinesByTrxFn(ctx, q, trxID)
}

type stubBudgetReader struct {
	listFn             func(ctx context.Context) ([]store.Budget, error)
	listIncludedTagsFn func(ctx context.Context, q store.Selecter, budgetID int64) ([]int64, error)
}

func (s stubBudgetReader) List(ctx context.Context) ([]store.Budget, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubBudgetReader) ListIncludedTags(ctx context.Context, q store.Selecter, budgetID int64) ([]int64, error) {
	if s.listIncludedTagsFn == nil {
		return nil, nil
	}
	return s.listIncludedTagsFn(ctx, q, budgetID)
}

type stubSyncReader struct {
	listDeletionsFn func(ctx context.Context, since time.Time) ([]store.SyncDeletion, error)
	listStatesFn    func(ctx context.Context) ([]store.SyncState, error)
	upsertStateFn   func(ctx context.Context, tx store.Execer, installationID string, lastSyncAt, lastPushAt time.Time) error
}

func (s stubSyncReader) ListDeletionsSince(ctx context.Context, since time.Time) ([]store.SyncDeletion, error) {
	if s.listDeletionsFn == nil {
		return nil, nil
	}
	return s.listDeletionsFn(ctx, since)
}

func (s stubSyncReader) ListStates(ctx context.Context) ([]store.SyncState, error) {
	if s.listStatesFn == nil {
		return nil, nil
	}
	return s.listStatesFn(ctx)
}

func (s stubSyncReader) UpsertState(ctx context.Context, tx store.Execer, installationID string, lastSyncAt, lastPushAt time.Time) error {
	if s.upsertStateFn == nil {
		return nil
	}
	return s.upsertStateFn(ctx, tx, installationID, lastSyncAt, lastPushAt)
}

type stubLedgerService struct {
	createFn    func(ctx context.Context, req services.TransactionRequest) (string, error)
	updateFn    func(ctx context.Context, trxID string, req services.TransactionRequest) error
	deleteFn    func(ctx context.Context, trxID string) error
	adjustFn    func(ctx context.Context, accountID int64, target fixedpoint.FixedPoint) (string, error)
	deleteAccFn func(ctx context.Context, accountID int64) error
	reconcileFn func(ctx context.Context, q store.DB, accountIDs []int64) ([]services.ReconcileRow, error)
}

func (s stubLedgerService) CreateTransaction(ctx context.Context, req services.TransactionRequest) (string, error) {
	if s.createFn == nil {
		return "", nil
	}
	return s.createFn(ctx, req)
}

func (s stubLedgerService) UpdateTransaction(ctx context.Context, trxID string, req services.TransactionRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, trxID, req)
}

func (s stubLedgerService) DeleteTransaction(ctx context.Context, trxID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, trxID)
}

func (s stubLedgerService) AdjustBalance(ctx context.Context, accountID int64, target fixedpoint.FixedPoint) (string, error) {
	if s.adjustFn == nil {
		return "", nil
	}
	return s.adjustFn(ctx, accountID, target)
}

func (s stubLedgerService) DeleteAccount(ctx context.Context, accountID int64) error {
	if s.deleteAccFn == nil {
		return nil
	}
	return s.deleteAccFn(ctx, accountID)
}

func (s stubLedgerService) Reconcile(ctx context.Context, q store.DB, accountIDs []int64) ([]services.ReconcileRow, error) {
	if s.reconcileFn == nil {
		return nil, nil
	}
	return s.reconcileFn(ctx, q, accountIDs)
}

type stubCurrencyService struct {
	createFn      func(ctx context.Context, req services.CurrencyRequest) (int64, error)
	updateFn      func(ctx context.Context, currencyID int64, req services.CurrencyRequest) error
	setDefaultFn  func(ctx context.Context, currencyID int64) error
	deleteFn      func(ctx context.Context, currencyID int64) error
	recordRateFn  func(ctx context.Context, currencyID int64, rate fixedpoint.FixedPoint, observedAt time.Time) error
	currentRateFn func(ctx context.Context, currencyID int64) (fixedpoint.FixedPoint, error)
}

func (s stubCurrencyService) CreateCurrency(ctx context.Context, req services.CurrencyRequest) (int64, error) {
	if s.createFn == nil {
		return 0, nil
	}
	return s.createFn(ctx, req)
}

func (s stubCurrencyService) UpdateCurrency(ctx context.Context, currencyID int64, req services.CurrencyRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, currencyID, req)
}

func (s stubCurrencyService) SetDefaultCurrency(ctx context.Context, currencyID int64) error {
	if s.setDefaultFn == nil {
		return nil
	}
	return s.setDefaultFn(ctx, currencyID)
}

func (s stubCurrencyService) DeleteCurrency(ctx context.Context, currencyID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, currencyID)
}

func (s stubCurrencyService) RecordRate(ctx context.Context, currencyID int64, rate fixedpoint.FixedPoint, observedAt time.Time) error {
	if s.recordRateFn == nil {
		return nil
	}
	return s.recordRateFn(ctx, currencyID, rate, observedAt)
}

func (s stubCurrencyService) CurrentRate(ctx context.Context, currencyID int64) (fixedpoint.FixedPoint, error) {
	if s.currentRateFn == nil {
		return fixedpoint.One(), nil
	}
	return s.currentRateFn(ctx, currencyID)
}

type stubWalletService struct {
	createFn        func(ctx context.Context, req services.WalletRequest) (int64, error)
	updateFn        func(ctx context.Context, walletID int64, req services.WalletRequest) error
	setDefaultFn    func(ctx context.Context, walletID int64) error
	deleteFn        func(ctx context.Context, walletID int64) error
	createAccFn     func(ctx context.Context, walletID, currencyID int64) (int64, error)
	setDefaultAccFn func(ctx context.Context, walletID, accountID int64) error
}

func (s stubWalletService) CreateWallet(ctx context.Context, req services.WalletRequest) (int64, error) {
	if s.createFn == nil {
		return 0, nil
	}
	return s.createFn(ctx, req)
}

func (s stubWalletService) UpdateWallet(ctx context.Context, walletID int64, req services.WalletRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, walletID, req)
}

func (s stubWalletService) SetDefaultWallet(ctx context.Context, walletID int64) error {
	if s.setDefaultFn == nil {
		return nil
	}
	return s.setDefaultFn(ctx, walletID)
}

func (s stubWalletService) DeleteWallet(ctx context.Context, walletID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, walletID)
}

func (s stubWalletService) CreateAccount(ctx context.Context, walletID, currencyID int64) (int64, error) {
	if s.createAccFn == nil {
		return 0, nil
	}
	return s.createAccFn(ctx, walletID, currencyID)
}

func (s stubWalletService) SetDefaultAccount(ctx context.Context, walletID, accountID int64) error {
	if s.setDefaultAccFn == nil {
		return nil
	}
	return s.setDefaultAccFn(ctx, walletID, accountID)
}

type stubTagService struct {
	createFn         func(ctx context.Context, req services.TagRequest) (int64, error)
	updateFn         func(ctx context.Context, tagID int64, req services.TagRequest) error
	deleteFn         func(ctx context.Context, tagID int64) error
	findByAncestorFn func(ctx context.Context, ancestorID int64) ([]int64, error)
	commonTagsFn     func(ctx context.Context) ([]store.Tag, error)
}

func (s stubTagService) CreateTag(ctx context.Context, req services.TagRequest) (int64, error) {
	if s.createFn == nil {
		return 0, nil
	}
	return s.createFn(ctx, req)
}

func (s stubTagService) UpdateTag(ctx context.Context, tagID int64, req services.TagRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, tagID, req)
}

func (s stubTagService) DeleteTag(ctx context.Context, tagID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, tagID)
}

func (s stubTagService) FindByAncestor(ctx context.Context, ancestorID int64) ([]int64, error) {
	if s.findByAncestorFn == nil {
		return nil, nil
	}
	return s.findByAncestorFn(ctx, ancestorID)
}

func (s stubTagService) CommonTags(ctx context.Context) ([]store.Tag, error) {
	if s.commonTagsFn == nil {
		return nil, nil
	}
	return s.commonTagsFn(ctx)
}

type stubCounterpartyService struct {
	createFn func(ctx context.Context, req services.CounterpartyRequest) (int64, error)
	updateFn func(ctx context.Context, counterpartyID int64, req services.CounterpartyRequest) error
	deleteFn func(ctx context.Context, counterpartyID int64) error
}

func (s stubCounterpartyService) CreateCounterparty(ctx context.Context, req services.CounterpartyRequest) (int64, error) {
	if s.createFn == nil {
		return 0, nil
	}
	return s.createFn(ctx, req)
}

func (s stubCounterpartyService) UpdateCounterparty(ctx context.Context, counterpartyID int64, req services.CounterpartyRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, counterpartyID, req)
}

func (s stubCounterpartyService) DeleteCounterparty(ctx context.Context, counterpartyID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, counterpartyID)
}

type stubBudgetService struct {
	createFn  func(ctx context.Context, req services.BudgetRequest) (int64, error)
	updateFn  func(ctx context.Context, budgetID int64, req services.BudgetRequest) error
	deleteFn  func(ctx context.Context, budgetID int64) error
	summaryFn func(ctx context.Context) ([]services.BudgetStatus, error)
}

func (s stubBudgetService) CreateBudget(ctx context.Context, req services.BudgetRequest) (int64, error) {
	if s.createFn == nil {
		return 0, nil
	}
	return s.createFn(ctx, req)
}

func (s stubBudgetService) UpdateBudget(ctx context.Context, budgetID int64, req services.BudgetRequest) error {
	if s.updateFn == nil {
		return nil
	}
	return s.updateFn(ctx, budgetID, req)
}

func (s stubBudgetService) DeleteBudget(ctx context.Context, budgetID int64) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, budgetID)
}

func (s stubBudgetService) BudgetsSummary(ctx context.Context) ([]services.BudgetStatus, error) {
	if s.summaryFn == nil {
		return nil, nil
	}
	return s.summaryFn(ctx)
}

type stubReportService struct {
	monthsFn         func(ctx context.Context, from, to int64) ([]services.MonthBucket, error)
	tagsFn           func(ctx context.Context, from, to int64) ([]services.TagSummary, error)
	counterpartiesFn func(ctx context.Context, from, to int64) ([]services.CounterpartySummary, error)
	categoriesFn     func(ctx context.Context, from, to int64) ([]services.CategorySlice, error)
}

func (s stubReportService) MonthSummary(ctx context.Context, from, to int64) ([]services.MonthBucket, error) {
	if s.monthsFn == nil {
		return nil, nil
	}
	return s.monthsFn(ctx, from, to)
}

func (s stubReportService) TagsSummary(ctx context.Context, from, to int64) ([]services.TagSummary, error) {
	if s.tagsFn == nil {
		return nil, nil
	}
	return s.tagsFn(ctx, from, to)
}

func (s stubReportService) CounterpartiesSummary(ctx context.Context, from, to int64) ([]services.CounterpartySummary, error) {
	if s.counterpartiesFn == nil {
		return nil, nil
	}
	return s.counterpartiesFn(ctx, from, to)
}

func (s stubReportService) CategoryBreakdown(ctx context.Context, from, to int64) ([]services.CategorySlice, error) {
	if s.categoriesFn == nil {
		return nil, nil
	}
	return s.categoriesFn(ctx, from, to)
}

type stubCsvService struct {
	exportFn func(ctx context.Context, w io.Writer, filter store.ExportFilter) error
	importFn func(ctx context.Context, r io.Reader) (*services.ImportResult, error)
}

func (s stubCsvService) Export(ctx context.Context, w io.Writer, filter store.ExportFilter) error {
	if s.exportFn == nil {
		return nil
	}
	return s.exportFn(ctx, w, filter)
}

func (s stubCsvService) Import(ctx context.Context, r io.Reader) (*services.ImportResult, error) {
	if s.importFn == nil {
		return &services.ImportResult{}, nil
	}
	return s.importFn(ctx, r)
}

// newTestHandler builds a handler with inert stubs. Tests overwrite the
// fields they exercise before calling Routes().
func newTestHandler() *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		AllowedOrigins: "*",
		InstallationID: "test",
	}
	return New(
		stubDB{},
		cfg,
		stubCurrencyReader{},
		stubRateReader{},
		stubWalletReader{},
		stubAccountReader{},
		stubTagReader{},
		stubCounterpartyReader{},
		stubTransactionReader{},
		stubBudgetReader{},
		stubSyncReader{},
		stubLedgerService{},
		stubCurrencyService{},
		stubWalletService{},
		stubTagService{},
		stubCounterpartyService{},
		stubBudgetService{},
		stubReportService{},
		stubCsvService{},
		websocket.NewHub(),
	)
}
