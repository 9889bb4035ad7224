package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"
	"time"

	"pocketledger/internal/config"
	"pocketledger/internal/db"
	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/services"
	"pocketledger/internal/store"
	"pocketledger/internal/websocket"

	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"
)

// env bundles the connected stores and services a command needs.
type env struct {
	database    *sqlx.DB
	currencies  *store.CurrencyStore
	accounts    *store.AccountStore
	currencySvc *services.CurrencyService
	csvSvc      *services.CsvService
	ledger      *services.LedgerService
}

func connect() (*env, error) {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	currencies := store.NewCurrencyStore(database)
	rates := store.NewRateStore(database)
	wallets := store.NewWalletStore(database)
	accounts := store.NewAccountStore(database)
	tags := store.NewTagStore(database)
	counterparties := store.NewCounterpartyStore(database)
	transactions := store.NewTransactionStore(database)
	syncStore := store.NewSyncStore(database)
	txRunner := db.NewTxRunner(database)
	return &env{
		database:    database,
		currencies:  currencies,
		accounts:    accounts,
		currencySvc: services.NewCurrencyService(txRunner, database, currencies, rates, syncStore),
		csvSvc:      services.NewCsvService(txRunner, database, wallets, accounts, currencies, tags, counterparties, transactions),
		ledger:      services.NewLedgerService(txRunner, accounts, currencies, rates, transactions, syncStore, nopHub{}),
	}, nil
}

type nopHub struct{}

func (nopHub) BroadcastBalance(update websocket.BalanceUpdate) {}

type exportCmd struct {
	from   int64
	to     int64
	wallet int64
	out    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the ledger as CSV" }
func (*exportCmd) Usage() string {
	return `ledgercli export [-from <unix>] [-to <unix>] [-wallet <id>] [-out <file>]

  Writes every transaction line, joined with its dimensions, as CSV.
  Without -out the CSV goes to stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.from, "from", 0, "Lower timestamp bound (unix seconds).")
	f.Int64Var(&c.to, "to", 0, "Upper timestamp bound (unix seconds).")
	f.Int64Var(&c.wallet, "wallet", 0, "Restrict to one wallet.")
	f.StringVar(&c.out, "out", "", "Output file (default stdout).")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.database.Close()

	out := os.Stdout
	if c.out != "" {
		file, err := os.Create(c.out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		out = file
	}
	filter := store.ExportFilter{From: c.from, To: c.to, WalletID: c.wallet}
	if err := e.csvSvc.Export(ctx, out, filter); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `ledgercli import <file.csv>

  Imports transaction lines from a CSV export. Rows whose transaction
  already exists are skipped, and missing wallets, currencies, tags and
  counterparties are created on the fly.
`
}

func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import needs exactly one CSV file argument")
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	e, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.database.Close()

	result, err := e.csvSvc.Import(ctx, file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("rows: %d, imported: %d, duplicates skipped: %d\n",
		result.TotalRows, result.ImportedRows, result.SkippedDuplicates)
	for _, created := range result.CreatedCurrencies {
		fmt.Printf("created currency %s\n", created)
	}
	for _, created := range result.CreatedWallets {
		fmt.Printf("created wallet %s\n", created)
	}
	for _, importErr := range result.Errors {
		fmt.Fprintf(os.Stderr, "row %d: %s\n", importErr.Row, importErr.Message)
	}
	if len(result.Errors) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type rateCmd struct {
	code string
	rate string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "record an exchange-rate observation" }
func (*rateCmd) Usage() string {
	return `ledgercli rate -currency <code> -value <rate>

  Appends a rate observation for the currency, expressed as units of the
  currency per one unit of the default currency.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "currency", "", "Currency code, e.g. EUR.")
	f.StringVar(&c.rate, "value", "", "Observed rate.")
}

func (c *rateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || c.rate == "" {
		fmt.Fprintln(os.Stderr, "both -currency and -value are required")
		return subcommands.ExitUsageError
	}
	e, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.database.Close()

	currency, err := e.currencies.GetByCode(ctx, e.database, c.code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown currency %q\n", c.code)
		return subcommands.ExitFailure
	}
	rate, err := fixedpoint.FromDecimalString(c.rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid rate %q\n", c.rate)
		return subcommands.ExitFailure
	}
	if err := e.currencySvc.RecordRate(ctx, currency.ID, rate, time.Now().UTC()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type selfCheckCmd struct{}

func (*selfCheckCmd) Name() string     { return "selfcheck" }
func (*selfCheckCmd) Synopsis() string { return "recompute balances and report drift" }
func (*selfCheckCmd) Usage() string {
	return `ledgercli selfcheck

  Recomputes every account balance from its transaction lines and compares
  it with the stored value.
`
}

func (*selfCheckCmd) SetFlags(f *flag.FlagSet) {}

func (c *selfCheckCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer e.database.Close()

	accounts, err := e.accounts.ListAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ids := make([]int64, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	rows, err := e.ledger.Reconcile(ctx, e.database, ids)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	drift := false
	for _, row := range rows {
		if row.InBalance() {
			continue
		}
		drift = true
		fmt.Printf("account %d (%s): stored %s, recomputed %s\n",
			row.AccountID, row.Currency, row.Stored.Decimal().String(), row.Recomputed.Decimal().String())
	}
	if drift {
		return subcommands.ExitFailure
	}
	fmt.Println("all accounts in balance")
	return subcommands.ExitSuccess
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&exportCmd{}, "")
	commander.Register(&importCmd{}, "")
	commander.Register(&rateCmd{}, "")
	commander.Register(&selfCheckCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
