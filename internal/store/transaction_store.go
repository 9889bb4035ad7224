package store

import (
	"context"
	"fmt"

	"pocketledger/internal/fixedpoint"
)

// TransactionStore persists transaction headers and their lines. Balance
// effects are applied by the ledger service inside the same transaction as
// these writes, never by store-level rules.
type TransactionStore struct {
	db DB
}

type Trx struct {
	ID             string  `db:"id"`
	Timestamp      int64   `db:"timestamp"`
	CounterpartyID *int64  `db:"counterparty_id"`
	Note           string  `db:"note"`
}

type TrxLine struct {
	ID         string  `db:"id"`
	TrxID      string  `db:"trx_id"`
	AccountID  int64   `db:"account_id"`
	TagID      int64   `db:"tag_id"`
	Sign       string  `db:"sign"`
	AmountInt  int64   `db:"amount_int"`
	AmountFrac int64   `db:"amount_frac"`
	RateInt    int64   `db:"rate_int"`
	RateFrac   int64   `db:"rate_frac"`
	PctValue   *string `db:"pct_value"`
}

func (l TrxLine) Amount() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: l.AmountInt, Frac: l.AmountFrac}
}

func (l TrxLine) Rate() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: l.RateInt, Frac: l.RateFrac}
}

type TrxInput struct {
	ID             string
	Timestamp      int64
	CounterpartyID *int64
	Note           string
}

type TrxLineInput struct {
	ID        string
	TrxID     string
	AccountID int64
	TagID     int64
	Sign      string
	Amount    fixedpoint.FixedPoint
	Rate      fixedpoint.FixedPoint
	PctValue  *string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) CreateTrx(ctx context.Context, tx Execer, input TrxInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trx (id, timestamp, counterparty_id, note)
		VALUES ($1, $2, $3, $4)
	`, input.ID, input.Timestamp, input.CounterpartyID, input.Note)
	return err
}

func (s *TransactionStore) UpdateTrxHeader(ctx context.Context, tx Execer, trxID string, timestamp int64, counterpartyID *int64, note string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE trx SET timestamp = $1, counterparty_id = $2, note = $3 WHERE id = $4
	`, timestamp, counterpartyID, note, trxID)
	return err
}

func (s *TransactionStore) DeleteTrx(ctx context.Context, tx Execer, trxID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM trx WHERE id = $1`, trxID)
	return err
}

func (s *TransactionStore) GetTrx(ctx context.Context, q Getter, trxID string) (Trx, error) {
	var row Trx
	err := q.GetContext(ctx, &row, `
		SELECT id, timestamp, counterparty_id, note
		FROM trx
		WHERE id = $1
	`, trxID)
	return row, err
}

func (s *TransactionStore) TrxExists(ctx context.Context, q Getter, trxID string) (bool, error) {
	var exists bool
	err := q.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM trx WHERE id = $1)`, trxID)
	return exists, err
}

func (s *TransactionStore) InsertLine(ctx context.Context, tx Execer, input TrxLineInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trx_line (id, trx_id, account_id, tag_id, sign, amount_int, amount_frac, rate_int, rate_frac, pct_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, input.ID, input.TrxID, input.AccountID, input.TagID, input.Sign,
		input.Amount.Int, input.Amount.Frac, input.Rate.Int, input.Rate.Frac, input.PctValue)
	return err
}

func (s *TransactionStore) DeleteLine(ctx context.Context, tx Execer, lineID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM trx_line WHERE id = $1`, lineID)
	return err
}

func (s *TransactionStore) ListLinesByTrx(ctx context.Context, q Selecter, trxID string) ([]TrxLine, error) {
	var rows []TrxLine
	err := q.SelectContext(ctx, &rows, `
		SELECT id, trx_id, account_id, tag_id, sign, amount_int, amount_frac, rate_int, rate_frac, pct_value
		FROM trx_line
		WHERE trx_id = $1
		ORDER BY id
	`, trxID)
	return rows, err
}

func (s *TransactionStore) ListLinesByAccount(ctx context.Context, q Selecter, accountID int64) ([]TrxLine, error) {
	var rows []TrxLine
	err := q.SelectContext(ctx, &rows, `
		SELECT id, trx_id, account_id, tag_id, sign, amount_int, amount_frac, rate_int, rate_frac, pct_value
		FROM trx_line
		WHERE account_id = $1
		ORDER BY id
	`, accountID)
	return rows, err
}

func (s *TransactionStore) CountLinesByAccountExcludingTag(ctx context.Context, q Getter, accountID, tagID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM trx_line WHERE account_id = $1 AND tag_id <> $2
	`, accountID, tagID)
	return count, err
}

func (s *TransactionStore) HasLineWithTag(ctx context.Context, q Getter, accountID, tagID int64) (bool, error) {
	var exists bool
	err := q.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM trx_line WHERE account_id = $1 AND tag_id = $2)
	`, accountID, tagID)
	return exists, err
}

// FirstTimestampForAccount returns the earliest transaction timestamp touching
// the account, used to back-date synthetic INITIAL lines. Zero when the
// account has no lines yet.
func (s *TransactionStore) FirstTimestampForAccount(ctx context.Context, q Getter, accountID int64) (int64, error) {
	var ts int64
	err := q.GetContext(ctx, &ts, `
		SELECT COALESCE(MIN(t.timestamp), 0)
		FROM trx t
		JOIN trx_line l ON l.trx_id = t.id
		WHERE l.account_id = $1
	`, accountID)
	return ts, err
}

// ReportLine carries one line joined with the dimensions reporting needs.
type ReportLine struct {
	LineID         string  `db:"line_id"`
	TrxID          string  `db:"trx_id"`
	Timestamp      int64   `db:"timestamp"`
	AccountID      int64   `db:"account_id"`
	CurrencyID     int64   `db:"currency_id"`
	DecimalPlaces  int     `db:"decimal_places"`
	TagID          int64   `db:"tag_id"`
	TagName        string  `db:"tag_name"`
	CounterpartyID *int64  `db:"counterparty_id"`
	Counterparty   *string `db:"counterparty_name"`
	Sign           string  `db:"sign"`
	AmountInt      int64   `db:"amount_int"`
	AmountFrac     int64   `db:"amount_frac"`
	RateInt        int64   `db:"rate_int"`
	RateFrac       int64   `db:"rate_frac"`
}

func (l ReportLine) Amount() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: l.AmountInt, Frac: l.AmountFrac}
}

func (l ReportLine) Rate() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: l.RateInt, Frac: l.RateFrac}
}

func (s *TransactionStore) ListLinesInPeriod(ctx context.Context, from, to int64) ([]ReportLine, error) {
	var rows []ReportLine
	err := s.db.SelectContext(ctx, &rows, `
		SELECT l.id AS line_id, t.id AS trx_id, t.timestamp, l.account_id,
		       a.currency_id, c.decimal_places, l.tag_id, g.name AS tag_name,
		       t.counterparty_id, cp.name AS counterparty_name,
		       l.sign, l.amount_int, l.amount_frac, l.rate_int, l.rate_frac
		FROM trx_line l
		JOIN trx t ON t.id = l.trx_id
		JOIN account a ON a.id = l.account_id
		JOIN currency c ON c.id = a.currency_id
		JOIN tag g ON g.id = l.tag_id
		LEFT JOIN counterparty cp ON cp.id = t.counterparty_id
		WHERE t.timestamp >= $1 AND t.timestamp < $2
		ORDER BY t.timestamp, t.id, l.id
	`, from, to)
	return rows, err
}

// ExportFilter narrows ListForExport. Zero values mean "no filter".
type ExportFilter struct {
	From           int64
	To             int64
	WalletID       int64
	AccountID      int64
	TagID          int64
	CounterpartyID int64
}

// ExportRow flattens a line with every joined dimension the CSV bridge emits.
type ExportRow struct {
	TrxID          string  `db:"trx_id"`
	LineID         string  `db:"line_id"`
	Timestamp      int64   `db:"timestamp"`
	WalletName     string  `db:"wallet_name"`
	CurrencyCode   string  `db:"currency_code"`
	DecimalPlaces  int     `db:"decimal_places"`
	TagName        string  `db:"tag_name"`
	Sign           string  `db:"sign"`
	AmountInt      int64   `db:"amount_int"`
	AmountFrac     int64   `db:"amount_frac"`
	RateInt        int64   `db:"rate_int"`
	RateFrac       int64   `db:"rate_frac"`
	Counterparty   *string `db:"counterparty_name"`
	Note           string  `db:"note"`
}

func (r ExportRow) Amount() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: r.AmountInt, Frac: r.AmountFrac}
}

func (r ExportRow) Rate() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: r.RateInt, Frac: r.RateFrac}
}

func (s *TransactionStore) ListForExport(ctx context.Context, filter ExportFilter) ([]ExportRow, error) {
	query := `
		SELECT t.id AS trx_id, l.id AS line_id, t.timestamp,
		       w.name AS wallet_name, c.code AS currency_code, c.decimal_places,
		       g.name AS tag_name, l.sign, l.amount_int, l.amount_frac,
		       l.rate_int, l.rate_frac, cp.name AS counterparty_name, t.note
		FROM trx_line l
		JOIN trx t ON t.id = l.trx_id
		JOIN account a ON a.id = l.account_id
		JOIN wallet w ON w.id = a.wallet_id
		JOIN currency c ON c.id = a.currency_id
		JOIN tag g ON g.id = l.tag_id
		LEFT JOIN counterparty cp ON cp.id = t.counterparty_id
		WHERE 1 = 1
	`
	args := []any{}
	param := 1
	appendClause := func(clause string, value any) {
		query += " AND " + clause + " $" + itoa(param)
		args = append(args, value)
		param++
	}
	if filter.From != 0 {
		appendClause("t.timestamp >=", filter.From)
	}
	if filter.To != 0 {
		appendClause("t.timestamp <", filter.To)
	}
	if filter.WalletID != 0 {
		appendClause("a.wallet_id =", filter.WalletID)
	}
	if filter.AccountID != 0 {
		appendClause("l.account_id =", filter.AccountID)
	}
	if filter.TagID != 0 {
		appendClause("l.tag_id =", filter.TagID)
	}
	if filter.CounterpartyID != 0 {
		appendClause("t.counterparty_id =", filter.CounterpartyID)
	}
	query += " ORDER BY t.timestamp, t.id, l.id"
	var rows []ExportRow
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
