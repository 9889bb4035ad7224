package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"pocketledger/internal/fixedpoint"
)

func TestTransactionStoreInsertLine(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO trx_line") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 10 {
				t.Fatalf("expected 10 args, got %d", len(args))
			}
			if args[4] != "-" || args[5] != int64(35) || args[6] != int64(0) {
				t.Fatalf("unexpected sign/amount args: %#v", args)
			}
			if args[7] != int64(1) || args[8] != int64(0) {
				t.Fatalf("unexpected rate args: %#v", args)
			}
			if args[9] != (*string)(nil) {
				t.Fatalf("unexpected pct arg: %#v", args[9])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.InsertLine(ctx, execer, TrxLineInput{
		ID:        "aa11",
		TrxID:     "bb22",
		AccountID: 11,
		TagID:     TagExpense,
		Sign:      "-",
		Amount:    fixedpoint.FixedPoint{Int: 35},
		Rate:      fixedpoint.One(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreTrxExists(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SELECT EXISTS") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "bb22" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*bool) = true
			return nil
		},
	}
	store := NewTransactionStore(stubDB{})
	exists, err := store.TrxExists(ctx, getter, "bb22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists")
	}
}

func TestTransactionStoreListLinesByTrx(t *testing.T) {
	ctx := context.Background()
	selecter := stubSelecter{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE trx_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*[]TrxLine) = []TrxLine{{ID: "aa11", Sign: "+", AmountInt: 100}}
			return nil
		},
	}
	store := NewTransactionStore(stubDB{})
	rows, err := store.ListLinesByTrx(ctx, selecter, "bb22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Amount() != (fixedpoint.FixedPoint{Int: 100}) {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreListForExportFilters(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "t.timestamp >= $1") || !strings.Contains(query, "a.wallet_id = $3") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 3 || args[0] != int64(100) || args[1] != int64(200) || args[2] != int64(1) {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]ExportRow) = []ExportRow{{TrxID: "bb22"}}
			return nil
		},
	})
	rows, err := store.ListForExport(ctx, ExportFilter{From: 100, To: 200, WalletID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].TrxID != "bb22" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreFirstTimestampForAccount(t *testing.T) {
	ctx := context.Background()
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "COALESCE(MIN(t.timestamp), 0)") {
				t.Fatalf("unexpected query: %s", query)
			}
			*dest.(*int64) = 1700000000
			return nil
		},
	}
	store := NewTransactionStore(stubDB{})
	ts, err := store.FirstTimestampForAccount(ctx, getter, 11)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != 1700000000 {
		t.Fatalf("unexpected timestamp: %d", ts)
	}
}
