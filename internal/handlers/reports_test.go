package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"pocketledger/internal/services"

	"github.com/shopspring/decimal"
)

func TestReportMonthsWindow(t *testing.T) {
	h := newTestHandler()
	var gotFrom, gotTo int64
	h.reports = stubReportService{
		monthsFn: func(ctx context.Context, from, to int64) ([]services.MonthBucket, error) {
			gotFrom, gotTo = from, to
			return []services.MonthBucket{
				{Year: 2023, Month: 11, Income: decimal.NewFromInt(1000), Expense: decimal.NewFromInt(135)},
			}, nil
		},
	}
	rr := serve(h, http.MethodGet, "/reports/months?from=100&to=200", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotFrom != 100 || gotTo != 200 {
		t.Fatalf("expected window 100..200, got %d..%d", gotFrom, gotTo)
	}
	var resp []services.MonthBucket
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp) != 1 || resp[0].Month != 11 {
		t.Fatalf("unexpected buckets: %+v", resp)
	}
}

func TestReportWindowOpenEnded(t *testing.T) {
	h := newTestHandler()
	var gotTo int64
	h.reports = stubReportService{
		tagsFn: func(ctx context.Context, from, to int64) ([]services.TagSummary, error) {
			gotTo = to
			return nil, nil
		},
	}
	rr := serve(h, http.MethodGet, "/reports/tags", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotTo <= 0 {
		t.Fatalf("expected open-ended upper bound, got %d", gotTo)
	}
}

func TestReportCategories(t *testing.T) {
	h := newTestHandler()
	h.reports = stubReportService{
		categoriesFn: func(ctx context.Context, from, to int64) ([]services.CategorySlice, error) {
			return []services.CategorySlice{
				{TagID: 20, TagName: "groceries", Expense: decimal.NewFromInt(80)},
			}, nil
		},
	}
	rr := serve(h, http.MethodGet, "/reports/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
