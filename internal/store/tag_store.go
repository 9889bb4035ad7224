package store

import "context"

// Reserved tag ids seeded by the initial migration. Rows under TagSystem are
// protected from user mutation and deletion.
const (
	TagSystem     int64 = 1
	TagDefault    int64 = 2
	TagIncome     int64 = 3
	TagExpense    int64 = 4
	TagTransfer   int64 = 5
	TagExchange   int64 = 6
	TagInitial    int64 = 7
	TagAdjustment int64 = 8
	TagFee        int64 = 9
	TagDiscount   int64 = 10
)

type TagStore struct {
	db DB
}

type Tag struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	IsCommon  bool   `db:"is_common"`
	IsSystem  bool   `db:"is_system"`
	SortOrder int    `db:"sort_order"`
}

// TagEdge is one child-to-parent link in the tag graph. A child may carry
// several edges, which is what makes the hierarchy a DAG rather than a tree.
type TagEdge struct {
	ChildID  int64 `db:"child_id"`
	ParentID int64 `db:"parent_id"`
}

func NewTagStore(db DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) Create(ctx context.Context, tx Getter, name string, isCommon bool, sortOrder int) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO tag (name, is_common, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, isCommon, sortOrder)
	return id, err
}

func (s *TagStore) GetByID(ctx context.Context, q Getter, tagID int64) (Tag, error) {
	var row Tag
	err := q.GetContext(ctx, &row, `
		SELECT id, name, is_common, is_system, sort_order
		FROM tag
		WHERE id = $1
	`, tagID)
	return row, err
}

func (s *TagStore) GetByName(ctx context.Context, q Getter, name string) (Tag, error) {
	var row Tag
	err := q.GetContext(ctx, &row, `
		SELECT id, name, is_common, is_system, sort_order
		FROM tag
		WHERE name = $1
	`, name)
	return row, err
}

func (s *TagStore) List(ctx context.Context) ([]Tag, error) {
	var rows []Tag
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, is_common, is_system, sort_order
		FROM tag
		ORDER BY sort_order, name
	`)
	return rows, err
}

func (s *TagStore) Update(ctx context.Context, tx Execer, tagID int64, name string, isCommon bool, sortOrder int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE tag SET name = $1, is_common = $2, sort_order = $3 WHERE id = $4
	`, name, isCommon, sortOrder, tagID)
	return err
}

func (s *TagStore) Delete(ctx context.Context, tx Execer, tagID int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM tag_edge WHERE child_id = $1 OR parent_id = $1
	`, tagID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM tag WHERE id = $1`, tagID)
	return err
}

func (s *TagStore) ListEdges(ctx context.Context, q Selecter) ([]TagEdge, error) {
	var rows []TagEdge
	err := q.SelectContext(ctx, &rows, `
		SELECT child_id, parent_id
		FROM tag_edge
		ORDER BY child_id, parent_id
	`)
	return rows, err
}

func (s *TagStore) InsertEdge(ctx context.Context, tx Execer, childID, parentID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tag_edge (child_id, parent_id)
		VALUES ($1, $2)
		ON CONFLICT (child_id, parent_id) DO NOTHING
	`, childID, parentID)
	return err
}

func (s *TagStore) DeleteEdgesForChild(ctx context.Context, tx Execer, childID int64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM tag_edge WHERE child_id = $1`, childID)
	return err
}

func (s *TagStore) CountLineRefs(ctx context.Context, q Getter, tagID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM trx_line WHERE tag_id = $1`, tagID)
	return count, err
}

func (s *TagStore) CountBudgetRefs(ctx context.Context, q Getter, tagID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM budget b
		LEFT JOIN budget_tag bt ON bt.budget_id = b.id
		WHERE b.tag_id = $1 OR bt.tag_id = $1
	`, tagID)
	return count, err
}
