package services

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"pocketledger/internal/db"
	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"

	"github.com/Rhymond/go-money"
	"github.com/jmoiron/sqlx"
)

// csvHeader is the column layout of the flat interchange format, one row
// per transaction line. Amounts and rates are written at full precision so
// a round trip reproduces the stored values exactly.
var csvHeader = []string{
	"trx_id", "line_id", "timestamp", "wallet", "currency",
	"tag", "sign", "amount", "rate", "counterparty", "note",
}

// CsvService translates between the ledger's row shape and the flat CSV
// shape. Import is duplicate-safe: rows whose transaction id already exists
// are skipped, and missing dimension entities are provisioned on the fly.
type CsvService struct {
	txRunner       db.TxRunner
	q              store.DB
	wallets        WalletStore
	accounts       AccountStore
	currencies     CurrencyStore
	tags           TagStore
	counterparties CounterpartyStore
	transactions   TransactionStore
}

func NewCsvService(txRunner db.TxRunner, q store.DB, wallets WalletStore, accounts AccountStore, currencies CurrencyStore, tags TagStore, counterparties CounterpartyStore, transactions TransactionStore) *CsvService {
	return &CsvService{
		txRunner:       txRunner,
		q:              q,
		wallets:        wallets,
		accounts:       accounts,
		currencies:     currencies,
		tags:           tags,
		counterparties: counterparties,
		transactions:   transactions,
	}
}

// Export writes the filtered lines as CSV. Timestamps are RFC 3339 UTC;
// amount and rate carry their full fixed-point precision.
func (s *CsvService) Export(ctx context.Context, w io.Writer, filter store.ExportFilter) error {
	rows, err := s.transactions.ListForExport(ctx, filter)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		counterparty := ""
		if row.Counterparty != nil {
			counterparty = *row.Counterparty
		}
		record := []string{
			row.TrxID,
			row.LineID,
			time.Unix(row.Timestamp, 0).UTC().Format(time.RFC3339),
			row.WalletName,
			row.CurrencyCode,
			row.TagName,
			row.Sign,
			row.Amount().Decimal().String(),
			row.Rate().Decimal().String(),
			counterparty,
			row.Note,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

type ImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows             int           `json:"total_rows"`
	ImportedRows          int           `json:"imported_rows"`
	SkippedDuplicates     int           `json:"skipped_duplicates"`
	CreatedWallets        []string      `json:"created_wallets"`
	CreatedAccounts       []string      `json:"created_accounts"`
	CreatedCurrencies     []string      `json:"created_currencies"`
	CreatedTags           []string      `json:"created_tags"`
	CreatedCounterparties []string      `json:"created_counterparties"`
	Errors                []ImportError `json:"errors"`
}

// csvRow is one parsed data row, carrying its 1-based position for error
// reporting.
type csvRow struct {
	position     int
	trxID        string
	lineID       string
	timestamp    int64
	wallet       string
	currency     string
	tag          string
	sign         string
	amount       fixedpoint.FixedPoint
	rate         fixedpoint.FixedPoint
	counterparty string
	note         string
}

// Import reads the CSV and replays it into the ledger. Rows sharing a
// transaction id form one atomic unit; a failed unit is recorded per row
// and does not abort the rest. The rate column is written to the line
// verbatim, never re-resolved, so historical conversions survive the round
// trip. Cancelling the context stops between units with partial progress
// kept.
func (s *CsvService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	header, err := reader.Read()
	if err != nil {
		return nil, ValidationError{Message: "empty or unreadable CSV input"}
	}
	if !sameHeader(header, csvHeader) {
		return nil, ValidationError{Message: "unexpected CSV header"}
	}
	result := &ImportResult{
		CreatedWallets:        []string{},
		CreatedAccounts:       []string{},
		CreatedCurrencies:     []string{},
		CreatedTags:           []string{},
		CreatedCounterparties: []string{},
		Errors:                []ImportError{},
	}
	groups := make(map[string][]csvRow)
	order := []string{}
	position := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		position++
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Row: position, Message: err.Error()})
			continue
		}
		row, err := parseCSVRow(position, record)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Row: position, Message: err.Error()})
			continue
		}
		if _, seen := groups[row.trxID]; !seen {
			order = append(order, row.trxID)
		}
		groups[row.trxID] = append(groups[row.trxID], row)
	}
	for _, trxID := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rows := groups[trxID]
		exists, err := s.transactions.TrxExists(ctx, s.q, trxID)
		if err != nil {
			return result, err
		}
		if exists {
			result.SkippedDuplicates += len(rows)
			continue
		}
		if err := s.importGroup(ctx, rows, result); err != nil {
			for _, row := range rows {
				result.Errors = append(result.Errors, ImportError{Row: row.position, Message: err.Error()})
			}
			continue
		}
		result.ImportedRows += len(rows)
	}
	return result, nil
}

// importGroup writes one transaction and its lines atomically, provisioning
// any missing dimensions inside the same unit so a failure leaves nothing
// behind.
func (s *CsvService) importGroup(ctx context.Context, rows []csvRow, result *ImportResult) error {
	created := &ImportResult{}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		head := rows[0]
		var counterpartyID *int64
		if head.counterparty != "" {
			id, err := s.resolveCounterparty(ctx, tx, head.counterparty, created)
			if err != nil {
				return err
			}
			counterpartyID = &id
		}
		if err := s.transactions.CreateTrx(ctx, tx, store.TrxInput{
			ID:             head.trxID,
			Timestamp:      head.timestamp,
			CounterpartyID: counterpartyID,
			Note:           head.note,
		}); err != nil {
			return err
		}
		for _, row := range rows {
			accountID, err := s.resolveAccount(ctx, tx, row.wallet, row.currency, created)
			if err != nil {
				return err
			}
			tagID, err := s.resolveTag(ctx, tx, row.tag, created)
			if err != nil {
				return err
			}
			account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
			if err != nil {
				return err
			}
			lineID := row.lineID
			if lineID == "" {
				lineID = newOpaqueID()
			}
			if err := s.transactions.InsertLine(ctx, tx, store.TrxLineInput{
				ID:        lineID,
				TrxID:     row.trxID,
				AccountID: accountID,
				TagID:     tagID,
				Sign:      row.sign,
				Amount:    row.amount,
				Rate:      row.rate,
			}); err != nil {
				return err
			}
			balance := applyEffect(account.Balance(), row.sign, row.amount)
			if err := s.accounts.UpdateBalance(ctx, tx, accountID, balance); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	result.CreatedWallets = append(result.CreatedWallets, created.CreatedWallets...)
	result.CreatedAccounts = append(result.CreatedAccounts, created.CreatedAccounts...)
	result.CreatedCurrencies = append(result.CreatedCurrencies, created.CreatedCurrencies...)
	result.CreatedTags = append(result.CreatedTags, created.CreatedTags...)
	result.CreatedCounterparties = append(result.CreatedCounterparties, created.CreatedCounterparties...)
	return nil
}

func (s *CsvService) resolveAccount(ctx context.Context, tx *sqlx.Tx, walletName, currencyCode string, created *ImportResult) (int64, error) {
	wallet, err := s.wallets.GetByName(ctx, tx, walletName)
	walletID := wallet.ID
	if errors.Is(err, sql.ErrNoRows) {
		walletID, err = s.wallets.Create(ctx, tx, walletName, "")
		if err != nil {
			return 0, err
		}
		created.CreatedWallets = append(created.CreatedWallets, walletName)
	} else if err != nil {
		return 0, err
	}
	currency, err := s.currencies.GetByCode(ctx, tx, currencyCode)
	currencyID := currency.ID
	if errors.Is(err, sql.ErrNoRows) {
		currencyID, err = s.provisionCurrency(ctx, tx, currencyCode)
		if err != nil {
			return 0, err
		}
		created.CreatedCurrencies = append(created.CreatedCurrencies, currencyCode)
	} else if err != nil {
		return 0, err
	}
	account, err := s.accounts.GetByWalletAndCurrency(ctx, tx, walletID, currencyID)
	if errors.Is(err, sql.ErrNoRows) {
		accountID, err := s.accounts.Create(ctx, tx, walletID, currencyID)
		if err != nil {
			return 0, err
		}
		created.CreatedAccounts = append(created.CreatedAccounts, walletName+"/"+currencyCode)
		return accountID, nil
	} else if err != nil {
		return 0, err
	}
	return account.ID, nil
}

// provisionCurrency fills in metadata from the ISO registry when the code
// is known there, and falls back to two decimal places otherwise.
func (s *CsvService) provisionCurrency(ctx context.Context, tx *sqlx.Tx, code string) (int64, error) {
	input := store.CurrencyInput{Code: code, Name: code, Symbol: code, DecimalPlaces: 2, IsFiat: true}
	if known := money.GetCurrency(code); known != nil {
		input.Symbol = known.Grapheme
		input.DecimalPlaces = known.Fraction
	}
	return s.currencies.Create(ctx, tx, input)
}

func (s *CsvService) resolveTag(ctx context.Context, tx *sqlx.Tx, name string, created *ImportResult) (int64, error) {
	tag, err := s.tags.GetByName(ctx, tx, name)
	if err == nil {
		return tag.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	tagID, err := s.tags.Create(ctx, tx, name, false, 0)
	if err != nil {
		return 0, err
	}
	if err := s.tags.InsertEdge(ctx, tx, tagID, store.TagDefault); err != nil {
		return 0, err
	}
	created.CreatedTags = append(created.CreatedTags, name)
	return tagID, nil
}

func (s *CsvService) resolveCounterparty(ctx context.Context, tx *sqlx.Tx, name string, created *ImportResult) (int64, error) {
	counterparty, err := s.counterparties.GetByName(ctx, tx, name)
	if err == nil {
		return counterparty.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	id, err := s.counterparties.Create(ctx, tx, name, "")
	if err != nil {
		return 0, err
	}
	created.CreatedCounterparties = append(created.CreatedCounterparties, name)
	return id, nil
}

func parseCSVRow(position int, record []string) (csvRow, error) {
	row := csvRow{
		position:     position,
		trxID:        record[0],
		lineID:       record[1],
		wallet:       record[3],
		currency:     record[4],
		tag:          record[5],
		sign:         record[6],
		counterparty: record[9],
		note:         record[10],
	}
	if row.trxID == "" {
		return row, fmt.Errorf("missing transaction id")
	}
	if row.wallet == "" || row.currency == "" || row.tag == "" {
		return row, fmt.Errorf("wallet, currency and tag are required")
	}
	if row.sign != SignCredit && row.sign != SignDebit {
		return row, fmt.Errorf("sign must be + or -")
	}
	timestamp, err := parseCSVTimestamp(record[2])
	if err != nil {
		return row, err
	}
	row.timestamp = timestamp
	amount, err := fixedpoint.FromDecimalString(record[7])
	if err != nil {
		return row, fmt.Errorf("bad amount %q", record[7])
	}
	if amount.IsNegative() {
		return row, fmt.Errorf("amount must not be negative")
	}
	row.amount = amount
	rate, err := fixedpoint.FromDecimalString(record[8])
	if err != nil {
		return row, fmt.Errorf("bad rate %q", record[8])
	}
	row.rate = rate
	return row, nil
}

// parseCSVTimestamp accepts RFC 3339 (what Export writes) or a raw Unix
// timestamp.
func parseCSVTimestamp(value string) (int64, error) {
	if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
		return unix, nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return 0, fmt.Errorf("bad timestamp %q", value)
	}
	return at.Unix(), nil
}

func sameHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
