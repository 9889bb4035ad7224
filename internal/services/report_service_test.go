package services

import (
	"context"
	"testing"
	"time"

	"pocketledger/internal/store"

	"github.com/shopspring/decimal"
)

func newReportFixture() (*memFixture, *ReportService) {
	m := newMemFixture()
	return m, NewReportService(nil, memTransactions{m}, memTags{m})
}

// addLine wires a header and one line straight into the fixture, bypassing
// the ledger service, so report tests can stage exact rate snapshots.
func addLine(t *testing.T, m *memFixture, trxID string, at int64, accountID, tagID int64, sign, amount, rate string, counterpartyID *int64) {
	t.Helper()
	if _, ok := m.trxs[trxID]; !ok {
		m.trxs[trxID] = store.Trx{ID: trxID, Timestamp: at, CounterpartyID: counterpartyID}
	}
	amountFP := fp(t, amount)
	rateFP := fp(t, rate)
	m.lines = append(m.lines, store.TrxLine{
		ID: trxID + "-l" + int64Key(int64(len(m.lines))), TrxID: trxID,
		AccountID: accountID, TagID: tagID, Sign: sign,
		AmountInt: amountFP.Int, AmountFrac: amountFP.Frac,
		RateInt: rateFP.Int, RateFrac: rateFP.Frac,
	})
}

func reportScenario(t *testing.T) (*memFixture, *ReportService, int64, int64, int64) {
	t.Helper()
	m, service := newReportFixture()
	usd := m.addCurrency("USD", 2, true)
	eur := m.addCurrency("EUR", 2, false)
	wallet := m.addWallet("Cash")
	usdAccount := m.addAccount(wallet, usd)
	eurAccount := m.addAccount(wallet, eur)
	salary := m.addTag("Salary", store.TagIncome)
	food := m.addTag("Food", store.TagExpense)
	groceries := m.addTag("Groceries", food)

	november := time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC).Unix()
	shop := m.id()
	m.counterparties[shop] = store.Counterparty{ID: shop, Name: "Corner Shop"}

	addLine(t, m, "t-income", november, usdAccount, salary, SignCredit, "1000.00", "1", nil)
	addLine(t, m, "t-usd-exp", november+3600, usdAccount, groceries, SignDebit, "35.50", "1", &shop)
	// 92.00 EUR at rate 0.92 converts to exactly 100 default units.
	addLine(t, m, "t-eur-exp", november+7200, eurAccount, groceries, SignDebit, "92.00", "0.92", &shop)
	// Internal movement and unresolved-rate lines stay out of the totals.
	addLine(t, m, "t-transfer", november+9000, usdAccount, store.TagTransfer, SignDebit, "500.00", "1", nil)
	addLine(t, m, "t-initial", november+100, usdAccount, store.TagInitial, SignCredit, "250.00", "1", nil)
	addLine(t, m, "t-zero-rate", november+9500, eurAccount, groceries, SignDebit, "10.00", "0", nil)

	return m, service, usdAccount, groceries, food
}

func periodAround(t *testing.T) (int64, int64) {
	t.Helper()
	from := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC).Unix()
	return from, to
}

func TestMonthSummaryConvertsAndFilters(t *testing.T) {
	_, service, _, _, _ := reportScenario(t)
	from, to := periodAround(t)

	buckets, err := service.MonthSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	bucket := buckets[0]
	if bucket.Year != 2023 || bucket.Month != time.November {
		t.Fatalf("unexpected bucket %+v", bucket)
	}
	if !bucket.Income.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("income = %s, want 1000", bucket.Income)
	}
	if !bucket.Expense.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("expense = %s, want 135.5", bucket.Expense)
	}
}

func TestTagsSummaryGroupsByTag(t *testing.T) {
	_, service, _, groceries, _ := reportScenario(t)
	from, to := periodAround(t)

	summaries, err := service.TagsSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var grocerySummary *TagSummary
	for i := range summaries {
		if summaries[i].TagID == groceries {
			grocerySummary = &summaries[i]
		}
	}
	if grocerySummary == nil {
		t.Fatalf("no groceries entry in %+v", summaries)
	}
	if !grocerySummary.Expense.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("groceries expense = %s, want 135.5", grocerySummary.Expense)
	}
}

func TestCounterpartiesSummary(t *testing.T) {
	_, service, _, _, _ := reportScenario(t)
	from, to := periodAround(t)

	summaries, err := service.CounterpartiesSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var shop *CounterpartySummary
	for i := range summaries {
		if summaries[i].Name == "Corner Shop" {
			shop = &summaries[i]
		}
	}
	if shop == nil {
		t.Fatalf("no Corner Shop entry in %+v", summaries)
	}
	if !shop.Expense.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("shop expense = %s, want 135.5", shop.Expense)
	}
}

func TestCategoryBreakdownRollsUpToTopLevel(t *testing.T) {
	_, service, _, _, food := reportScenario(t)
	from, to := periodAround(t)

	slices, err := service.CategoryBreakdown(context.Background(), from, to)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(slices) != 1 {
		t.Fatalf("expected 1 category, got %+v", slices)
	}
	if slices[0].TagID != food || slices[0].TagName != "Food" {
		t.Fatalf("expected Food category, got %+v", slices[0])
	}
	if !slices[0].Expense.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("food expense = %s, want 135.5", slices[0].Expense)
	}
}

func TestCategoryBreakdownIgnoresNonCategoryParents(t *testing.T) {
	m, service := newReportFixture()
	usd := m.addCurrency("USD", 2, true)
	wallet := m.addWallet("Cash")
	account := m.addAccount(wallet, usd)
	food := m.addTag("Food", store.TagExpense)
	snacks := m.addTag("Snacks", food)
	group := m.addTag("Favorites", store.TagDefault)
	// The grouping edge sorts first so a naive parent walk would follow it
	// away from the expense subtree.
	m.edges = append([]store.TagEdge{{ChildID: snacks, ParentID: group}}, m.edges...)

	at := time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC).Unix()
	addLine(t, m, "t-snack", at, account, snacks, SignDebit, "5.00", "1", nil)

	from, to := periodAround(t)
	slices, err := service.CategoryBreakdown(context.Background(), from, to)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(slices) != 1 {
		t.Fatalf("expected 1 category, got %+v", slices)
	}
	if slices[0].TagID != food || slices[0].TagName != "Food" {
		t.Fatalf("expected Food category, got %+v", slices[0])
	}
}

func TestConvertedTotalScopesToTagSet(t *testing.T) {
	_, service, _, groceries, _ := reportScenario(t)
	from, to := periodAround(t)

	total, err := service.ConvertedTotal(context.Background(), from, to, []int64{groceries})
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("135.5")) {
		t.Fatalf("total = %s, want 135.5", total)
	}

	total, err = service.ConvertedTotal(context.Background(), from, to, []int64{store.TagFee})
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("total = %s, want 0", total)
	}
}
