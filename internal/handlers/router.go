package handlers

import (
	"net/http"

	"pocketledger/internal/config"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	db             store.DB
	cfg            config.Config
	currencies     CurrencyReader
	rates          RateReader
	wallets        WalletReader
	accounts       AccountReader
	tags           TagReader
	counterparties CounterpartyReader
	transactions   TransactionReader
	budgets        BudgetReader
	sync           SyncReader
	ledger         LedgerService
	currencySvc    CurrencyService
	walletSvc      WalletService
	tagSvc         TagService
	cptySvc        CounterpartyService
	budgetSvc      BudgetService
	reports        ReportService
	csv            CsvService
	hub            *websocket.Hub
}

func New(db store.DB, cfg config.Config, currencies CurrencyReader, rates RateReader, wallets WalletReader, accounts AccountReader, tags TagReader, counterparties CounterpartyReader, transactions TransactionReader, budgets BudgetReader, sync SyncReader, ledger LedgerService, currencySvc CurrencyService, walletSvc WalletService, tagSvc TagService, cptySvc CounterpartyService, budgetSvc BudgetService, reports ReportService, csv CsvService, hub *websocket.Hub) *Handler {
	return &Handler{
		db:             db,
		cfg:            cfg,
		currencies:     currencies,
		rates:          rates,
		wallets:        wallets,
		accounts:       accounts,
		tags:           tags,
		counterparties: counterparties,
		transactions:   transactions,
		budgets:        budgets,
		sync:           sync,
		ledger:         ledger,
		currencySvc:    currencySvc,
		walletSvc:      walletSvc,
		tagSvc:         tagSvc,
		cptySvc:        cptySvc,
		budgetSvc:      budgetSvc,
		reports:        reports,
		csv:            csv,
		hub:            hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/currencies", func(r chi.Router) {
		r.Get("/", h.ListCurrencies)
		r.Post("/", h.CreateCurrency)
		r.Put("/{id}", h.UpdateCurrency)
		r.Delete("/{id}", h.DeleteCurrency)
		r.Post("/{id}/default", h.SetDefaultCurrency)
		r.Get("/{id}/rates", h.ListRates)
		r.Post("/{id}/rates", h.RecordRate)
		r.Get("/{id}/rates/current", h.CurrentRate)
	})

	router.Route("/wallets", func(r chi.Router) {
		r.Get("/", h.ListWallets)
		r.Post("/", h.CreateWallet)
		r.Put("/{id}", h.UpdateWallet)
		r.Delete("/{id}", h.DeleteWallet)
		r.Post("/{id}/default", h.SetDefaultWallet)
		r.Get("/{id}/accounts", h.ListWalletAccounts)
		r.Post("/{id}/accounts", h.CreateAccount)
		r.Post("/{id}/accounts/{accountID}/default", h.SetDefaultAccount)
	})

	router.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Get("/self-check", h.SelfCheck)
		r.Post("/{id}/adjust", h.AdjustBalance)
		r.Delete("/{id}", h.DeleteAccount)
	})

	router.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Put("/{id}", h.UpdateTag)
		r.Delete("/{id}", h.DeleteTag)
		r.Get("/{id}/descendants", h.TagDescendants)
		r.Get("/common", h.CommonTags)
	})

	router.Route("/counterparties", func(r chi.Router) {
		r.Get("/", h.ListCounterparties)
		r.Post("/", h.CreateCounterparty)
		r.Put("/{id}", h.UpdateCounterparty)
		r.Delete("/{id}", h.DeleteCounterparty)
	})

	router.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.CreateTransaction)
		r.Get("/{id}", h.GetTransaction)
		r.Put("/{id}", h.UpdateTransaction)
		r.Delete("/{id}", h.DeleteTransaction)
	})

	router.Route("/reports", func(r chi.Router) {
		r.Get("/months", h.ReportMonths)
		r.Get("/tags", h.ReportTags)
		r.Get("/counterparties", h.ReportCounterparties)
		r.Get("/categories", h.ReportCategories)
	})

	router.Route("/budgets", func(r chi.Router) {
		r.Get("/summary", h.BudgetsSummary)
		r.Post("/", h.CreateBudget)
		r.Put("/{id}", h.UpdateBudget)
		r.Delete("/{id}", h.DeleteBudget)
	})

	router.Get("/csv/export", h.ExportCSV)
	router.Post("/csv/import", h.ImportCSV)

	router.Route("/sync", func(r chi.Router) {
		r.Get("/deletions", h.ListDeletions)
		r.Get("/state", h.ListSyncStates)
		r.Post("/state", h.UpsertSyncState)
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
