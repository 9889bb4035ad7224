package services

import (
	"context"
	"sort"
	"time"

	"pocketledger/internal/store"

	"github.com/shopspring/decimal"
)

// ReportService projects ledger lines into default-currency aggregates.
// Conversion always replays each line's snapshotted rate (amount / rate);
// lines with a zero rate predate rate resolution and are excluded rather
// than silently treated as 1:1. INITIAL, TRANSFER and EXCHANGE subtrees are
// internal movement and never count as income or expense.
type ReportService struct {
	q            store.DB
	transactions TransactionStore
	tags         TagStore
}

func NewReportService(q store.DB, transactions TransactionStore, tags TagStore) *ReportService {
	return &ReportService{q: q, transactions: transactions, tags: tags}
}

// MonthBucket aggregates one calendar month in default-currency units.
type MonthBucket struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// TagSummary is the converted income/expense attributed to one tag.
type TagSummary struct {
	TagID   int64           `json:"tag_id"`
	TagName string          `json:"tag_name"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CounterpartySummary is the converted income/expense per counterparty.
// Lines without a counterparty are grouped under ID zero.
type CounterpartySummary struct {
	CounterpartyID int64           `json:"counterparty_id"`
	Name           string          `json:"name"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
}

// CategorySlice is the converted expense attributed to one top-level
// expense category (a direct child of the EXPENSE tag).
type CategorySlice struct {
	TagID   int64           `json:"tag_id"`
	TagName string          `json:"tag_name"`
	Expense decimal.Decimal `json:"expense"`
}

func (s *ReportService) MonthSummary(ctx context.Context, from, to int64) ([]MonthBucket, error) {
	lines, classify, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	buckets := make(map[[2]int]*MonthBucket)
	for _, line := range lines {
		kind, converted, ok := classify(line)
		if !ok {
			continue
		}
		at := time.Unix(line.Timestamp, 0).UTC()
		key := [2]int{at.Year(), int(at.Month())}
		bucket, exists := buckets[key]
		if !exists {
			bucket = &MonthBucket{Year: at.Year(), Month: at.Month()}
			buckets[key] = bucket
		}
		if kind == kindIncome {
			bucket.Income = bucket.Income.Add(converted)
		} else {
			bucket.Expense = bucket.Expense.Add(converted)
		}
	}
	result := make([]MonthBucket, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, *bucket)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})
	return result, nil
}

func (s *ReportService) TagsSummary(ctx context.Context, from, to int64) ([]TagSummary, error) {
	lines, classify, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]*TagSummary)
	for _, line := range lines {
		kind, converted, ok := classify(line)
		if !ok {
			continue
		}
		summary, exists := totals[line.TagID]
		if !exists {
			summary = &TagSummary{TagID: line.TagID, TagName: line.TagName}
			totals[line.TagID] = summary
		}
		if kind == kindIncome {
			summary.Income = summary.Income.Add(converted)
		} else {
			summary.Expense = summary.Expense.Add(converted)
		}
	}
	result := make([]TagSummary, 0, len(totals))
	for _, summary := range totals {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TagID < result[j].TagID })
	return result, nil
}

func (s *ReportService) CounterpartiesSummary(ctx context.Context, from, to int64) ([]CounterpartySummary, error) {
	lines, classify, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]*CounterpartySummary)
	for _, line := range lines {
		kind, converted, ok := classify(line)
		if !ok {
			continue
		}
		var id int64
		name := ""
		if line.CounterpartyID != nil {
			id = *line.CounterpartyID
		}
		if line.Counterparty != nil {
			name = *line.Counterparty
		}
		summary, exists := totals[id]
		if !exists {
			summary = &CounterpartySummary{CounterpartyID: id, Name: name}
			totals[id] = summary
		}
		if kind == kindIncome {
			summary.Income = summary.Income.Add(converted)
		} else {
			summary.Expense = summary.Expense.Add(converted)
		}
	}
	result := make([]CounterpartySummary, 0, len(totals))
	for _, summary := range totals {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CounterpartyID < result[j].CounterpartyID })
	return result, nil
}

// CategoryBreakdown attributes each expense line to the top-level expense
// category it falls under and returns the converted slice per category.
func (s *ReportService) CategoryBreakdown(ctx context.Context, from, to int64) ([]CategorySlice, error) {
	lines, classify, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}
	edges, err := s.tags.ListEdges(ctx, s.q)
	if err != nil {
		return nil, err
	}
	graph := buildGraph(edges)
	names, err := s.tagNames(ctx)
	if err != nil {
		return nil, err
	}
	slices := make(map[int64]*CategorySlice)
	for _, line := range lines {
		kind, converted, ok := classify(line)
		if !ok || kind != kindExpense {
			continue
		}
		categoryID := topLevelCategory(graph, line.TagID, store.TagExpense)
		slice, exists := slices[categoryID]
		if !exists {
			slice = &CategorySlice{TagID: categoryID, TagName: names[categoryID]}
			slices[categoryID] = slice
		}
		slice.Expense = slice.Expense.Add(converted)
	}
	result := make([]CategorySlice, 0, len(slices))
	for _, slice := range slices {
		result = append(result, *slice)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Expense.GreaterThan(result[j].Expense) })
	return result, nil
}

// ConvertedTotal sums the converted expense amounts of lines carrying any of
// tagIDs within the period. Budget evaluation runs on this.
func (s *ReportService) ConvertedTotal(ctx context.Context, from, to int64, tagIDs []int64) (decimal.Decimal, error) {
	lines, classify, err := s.load(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	wanted := make(map[int64]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		wanted[tagID] = true
	}
	total := decimal.Zero
	for _, line := range lines {
		if !wanted[line.TagID] {
			continue
		}
		kind, converted, ok := classify(line)
		if !ok || kind != kindExpense {
			continue
		}
		total = total.Add(converted)
	}
	return total, nil
}

type lineKind int

const (
	kindNone lineKind = iota
	kindIncome
	kindExpense
)

type classifier func(store.ReportLine) (lineKind, decimal.Decimal, bool)

// load fetches the period's lines and builds the classifier that maps each
// line to income or expense with its converted value.
func (s *ReportService) load(ctx context.Context, from, to int64) ([]store.ReportLine, classifier, error) {
	lines, err := s.transactions.ListLinesInPeriod(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.tags.ListEdges(ctx, s.q)
	if err != nil {
		return nil, nil, err
	}
	graph := buildGraph(edges)
	underIncome := ancestorSet(graph, store.TagIncome)
	underExpense := ancestorSet(graph, store.TagExpense)
	excluded := make(map[int64]bool)
	for _, root := range []int64{store.TagInitial, store.TagTransfer, store.TagExchange} {
		excluded[root] = true
		for tagID := range ancestorSet(graph, root) {
			excluded[tagID] = true
		}
	}
	classify := func(line store.ReportLine) (lineKind, decimal.Decimal, bool) {
		if excluded[line.TagID] {
			return kindNone, decimal.Zero, false
		}
		rate := line.Rate()
		if rate.IsZero() {
			return kindNone, decimal.Zero, false
		}
		kind := kindNone
		switch {
		case underIncome[line.TagID]:
			kind = kindIncome
		case underExpense[line.TagID]:
			kind = kindExpense
		default:
			return kindNone, decimal.Zero, false
		}
		converted := line.Amount().Decimal().Div(rate.Decimal())
		return kind, converted, true
	}
	return lines, classify, nil
}

// ancestorSet returns the ids below root, root included.
func ancestorSet(graph tagGraph, root int64) map[int64]bool {
	set := map[int64]bool{root: true}
	for _, tagID := range graph.descendants(root) {
		set[tagID] = true
	}
	return set
}

// topLevelCategory resolves the direct child of root that tagID rolls up
// under; a line tagged with such a child maps to itself. With multiple
// parents only paths that actually reach root count, and the nearest
// candidate (lowest id on ties) wins so attribution does not depend on
// edge-load order.
func topLevelCategory(graph tagGraph, tagID, root int64) int64 {
	if tagID == root {
		return root
	}
	level := []int64{tagID}
	visited := map[int64]bool{tagID: true}
	for len(level) > 0 {
		var next []int64
		var best int64
		for _, current := range level {
			for _, parentID := range graph.parents[current] {
				if parentID == root {
					if best == 0 || current < best {
						best = current
					}
					continue
				}
				if !visited[parentID] {
					visited[parentID] = true
					next = append(next, parentID)
				}
			}
		}
		if best != 0 {
			return best
		}
		level = next
	}
	return tagID
}

func (s *ReportService) tagNames(ctx context.Context) (map[int64]string, error) {
	all, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(all))
	for _, tag := range all {
		names[tag.ID] = tag.Name
	}
	return names, nil
}
