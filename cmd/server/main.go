package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pocketledger/internal/config"
	"pocketledger/internal/db"
	"pocketledger/internal/handlers"
	"pocketledger/internal/services"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	currencies := store.NewCurrencyStore(database)
	rates := store.NewRateStore(database)
	wallets := store.NewWalletStore(database)
	accounts := store.NewAccountStore(database)
	tags := store.NewTagStore(database)
	counterparties := store.NewCounterpartyStore(database)
	transactions := store.NewTransactionStore(database)
	budgets := store.NewBudgetStore(database)
	syncStore := store.NewSyncStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	ledger := services.NewLedgerService(txRunner, accounts, currencies, rates, transactions, syncStore, hub)
	currencySvc := services.NewCurrencyService(txRunner, database, currencies, rates, syncStore)
	tagSvc := services.NewTagService(txRunner, database, tags, syncStore)
	cptySvc := services.NewCounterpartyService(txRunner, counterparties, syncStore)
	walletSvc := services.NewWalletService(txRunner, wallets, accounts, currencies, syncStore, ledger)
	reports := services.NewReportService(database, transactions, tags)
	budgetSvc := services.NewBudgetService(txRunner, database, budgets, tags, syncStore, reports)
	csvSvc := services.NewCsvService(txRunner, database, wallets, accounts, currencies, tags, counterparties, transactions)

	handler := handlers.New(
		database, cfg,
		currencies, rates, wallets, accounts, tags, counterparties, transactions, budgets, syncStore,
		ledger, currencySvc, walletSvc, tagSvc, cptySvc, budgetSvc, reports, csvSvc,
		hub,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("ledger API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}
