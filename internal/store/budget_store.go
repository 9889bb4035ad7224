package store

import (
	"context"

	"pocketledger/internal/fixedpoint"
)

type BudgetStore struct {
	db DB
}

// Budget caps spending on a tag subtree over a half-open [StartAt, EndAt)
// period. The threshold is expressed in the default currency.
type Budget struct {
	ID         int64 `db:"id"`
	TagID      int64 `db:"tag_id"`
	AmountInt  int64 `db:"amount_int"`
	AmountFrac int64 `db:"amount_frac"`
	StartAt    int64 `db:"start_at"`
	EndAt      int64 `db:"end_at"`
}

func (b Budget) Amount() fixedpoint.FixedPoint {
	return fixedpoint.FixedPoint{Int: b.AmountInt, Frac: b.AmountFrac}
}

func NewBudgetStore(db DB) *BudgetStore {
	return &BudgetStore{db: db}
}

func (s *BudgetStore) Create(ctx context.Context, tx Getter, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO budget (tag_id, amount_int, amount_frac, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, tagID, amount.Int, amount.Frac, startAt, endAt)
	return id, err
}

func (s *BudgetStore) GetByID(ctx context.Context, q Getter, budgetID int64) (Budget, error) {
	var row Budget
	err := q.GetContext(ctx, &row, `
		SELECT id, tag_id, amount_int, amount_frac, start_at, end_at
		FROM budget
		WHERE id = $1
	`, budgetID)
	return row, err
}

func (s *BudgetStore) List(ctx context.Context) ([]Budget, error) {
	var rows []Budget
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, tag_id, amount_int, amount_frac, start_at, end_at
		FROM budget
		ORDER BY start_at DESC, id
	`)
	return rows, err
}

func (s *BudgetStore) Update(ctx context.Context, tx Execer, budgetID, tagID int64, amount fixedpoint.FixedPoint, startAt, endAt int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE budget
		SET tag_id = $1, amount_int = $2, amount_frac = $3, start_at = $4, end_at = $5
		WHERE id = $6
	`, tagID, amount.Int, amount.Frac, startAt, endAt, budgetID)
	return err
}

func (s *BudgetStore) Delete(ctx context.Context, tx Execer, budgetID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_tag WHERE budget_id = $1`, budgetID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM budget WHERE id = $1`, budgetID)
	return err
}

func (s *BudgetStore) SetIncludedTags(ctx context.Context, tx Execer, budgetID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_tag WHERE budget_id = $1`, budgetID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO budget_tag (budget_id, tag_id)
			VALUES ($1, $2)
		`, budgetID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (s *BudgetStore) ListIncludedTags(ctx context.Context, q Selecter, budgetID int64) ([]int64, error) {
	var tagIDs []int64
	err := q.SelectContext(ctx, &tagIDs, `
		SELECT tag_id
		FROM budget_tag
		WHERE budget_id = $1
		ORDER BY tag_id
	`, budgetID)
	return tagIDs, err
}
