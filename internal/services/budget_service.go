package services

import (
	"context"
	"strconv"

	"pocketledger/internal/db"
	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// BudgetService tracks spending thresholds per tag over half-open periods.
// Evaluation converts the period's expense lines through their snapshotted
// rates and compares against the FixedPoint threshold in default currency.
type BudgetService struct {
	txRunner db.TxRunner
	q        store.DB
	budgets  BudgetStore
	tags     TagStore
	sync     SyncStore
	reports  *ReportService
}

func NewBudgetService(txRunner db.TxRunner, q store.DB, budgets BudgetStore, tags TagStore, syncStore SyncStore, reports *ReportService) *BudgetService {
	return &BudgetService{txRunner: txRunner, q: q, budgets: budgets, tags: tags, sync: syncStore, reports: reports}
}

type BudgetRequest struct {
	TagID          int64
	Amount         fixedpoint.FixedPoint
	StartAt        int64
	EndAt          int64
	IncludedTagIDs []int64
}

func (s *BudgetService) CreateBudget(ctx context.Context, req BudgetRequest) (int64, error) {
	if err := validateBudgetRequest(req); err != nil {
		return 0, err
	}
	var budgetID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.tags.GetByID(ctx, tx, req.TagID); err != nil {
			return notFoundOr(err, "tag", strconv.FormatInt(req.TagID, 10))
		}
		id, err := s.budgets.Create(ctx, tx, req.TagID, req.Amount, req.StartAt, req.EndAt)
		if err != nil {
			return err
		}
		budgetID = id
		return s.budgets.SetIncludedTags(ctx, tx, id, req.IncludedTagIDs)
	})
	if err != nil {
		return 0, err
	}
	return budgetID, nil
}

func (s *BudgetService) UpdateBudget(ctx context.Context, budgetID int64, req BudgetRequest) error {
	if err := validateBudgetRequest(req); err != nil {
		return err
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.budgets.GetByID(ctx, tx, budgetID); err != nil {
			return notFoundOr(err, "budget", strconv.FormatInt(budgetID, 10))
		}
		if _, err := s.tags.GetByID(ctx, tx, req.TagID); err != nil {
			return notFoundOr(err, "tag", strconv.FormatInt(req.TagID, 10))
		}
		if err := s.budgets.Update(ctx, tx, budgetID, req.TagID, req.Amount, req.StartAt, req.EndAt); err != nil {
			return err
		}
		return s.budgets.SetIncludedTags(ctx, tx, budgetID, req.IncludedTagIDs)
	})
}

func (s *BudgetService) DeleteBudget(ctx context.Context, budgetID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.budgets.GetByID(ctx, tx, budgetID); err != nil {
			return notFoundOr(err, "budget", strconv.FormatInt(budgetID, 10))
		}
		if err := s.budgets.Delete(ctx, tx, budgetID); err != nil {
			return err
		}
		return s.sync.RecordDeletion(ctx, tx, store.TableBudget, tombstoneKey(budgetID))
	})
}

// BudgetStatus is one evaluated budget: spent versus threshold in default
// currency, over the budget's own period.
type BudgetStatus struct {
	BudgetID  int64           `json:"budget_id"`
	TagID     int64           `json:"tag_id"`
	StartAt   int64           `json:"start_at"`
	EndAt     int64           `json:"end_at"`
	Threshold decimal.Decimal `json:"threshold"`
	Spent     decimal.Decimal `json:"spent"`
	Exceeded  bool            `json:"exceeded"`
}

// BudgetsSummary evaluates every budget. The watched tag set is the budget
// tag, its whole subtree, and any explicitly included tags.
func (s *BudgetService) BudgetsSummary(ctx context.Context) ([]BudgetStatus, error) {
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := s.tags.ListEdges(ctx, s.q)
	if err != nil {
		return nil, err
	}
	graph := buildGraph(edges)
	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, budget := range budgets {
		watched := []int64{budget.TagID}
		watched = append(watched, graph.descendants(budget.TagID)...)
		included, err := s.budgets.ListIncludedTags(ctx, s.q, budget.ID)
		if err != nil {
			return nil, err
		}
		watched = append(watched, included...)
		spent, err := s.reports.ConvertedTotal(ctx, budget.StartAt, budget.EndAt, watched)
		if err != nil {
			return nil, err
		}
		threshold := budget.Amount().Decimal()
		statuses = append(statuses, BudgetStatus{
			BudgetID:  budget.ID,
			TagID:     budget.TagID,
			StartAt:   budget.StartAt,
			EndAt:     budget.EndAt,
			Threshold: threshold,
			Spent:     spent,
			Exceeded:  spent.GreaterThan(threshold),
		})
	}
	return statuses, nil
}

func validateBudgetRequest(req BudgetRequest) error {
	if req.Amount.IsZero() || req.Amount.IsNegative() {
		return ValidationError{Message: "budget amount must be positive"}
	}
	if req.EndAt <= req.StartAt {
		return ValidationError{Message: "budget period must end after it starts"}
	}
	return nil
}
