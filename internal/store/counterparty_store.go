package store

import "context"

type CounterpartyStore struct {
	db DB
}

type Counterparty struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Note string `db:"note"`
}

func NewCounterpartyStore(db DB) *CounterpartyStore {
	return &CounterpartyStore{db: db}
}

func (s *CounterpartyStore) Create(ctx context.Context, tx Getter, name, note string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO counterparty (name, note)
		VALUES ($1, $2)
		RETURNING id
	`, name, note)
	return id, err
}

func (s *CounterpartyStore) GetByID(ctx context.Context, q Getter, counterpartyID int64) (Counterparty, error) {
	var row Counterparty
	err := q.GetContext(ctx, &row, `
		SELECT id, name, note
		FROM counterparty
		WHERE id = $1
	`, counterpartyID)
	return row, err
}

func (s *CounterpartyStore) GetByName(ctx context.Context, q Getter, name string) (Counterparty, error) {
	var row Counterparty
	err := q.GetContext(ctx, &row, `
		SELECT id, name, note
		FROM counterparty
		WHERE name = $1
	`, name)
	return row, err
}

func (s *CounterpartyStore) List(ctx context.Context) ([]Counterparty, error) {
	var rows []Counterparty
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, note
		FROM counterparty
		ORDER BY name
	`)
	return rows, err
}

func (s *CounterpartyStore) Update(ctx context.Context, tx Execer, counterpartyID int64, name, note string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE counterparty SET name = $1, note = $2 WHERE id = $3
	`, name, note, counterpartyID)
	return err
}

func (s *CounterpartyStore) Delete(ctx context.Context, tx Execer, counterpartyID int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM counterparty_tag WHERE counterparty_id = $1
	`, counterpartyID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM counterparty WHERE id = $1`, counterpartyID)
	return err
}

func (s *CounterpartyStore) SetTags(ctx context.Context, tx Execer, counterpartyID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM counterparty_tag WHERE counterparty_id = $1
	`, counterpartyID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO counterparty_tag (counterparty_id, tag_id)
			VALUES ($1, $2)
		`, counterpartyID, tagID); err != nil {
			return err
		}
	}
	return nil
}

func (s *CounterpartyStore) ListTags(ctx context.Context, q Selecter, counterpartyID int64) ([]int64, error) {
	var tagIDs []int64
	err := q.SelectContext(ctx, &tagIDs, `
		SELECT tag_id
		FROM counterparty_tag
		WHERE counterparty_id = $1
		ORDER BY tag_id
	`, counterpartyID)
	return tagIDs, err
}

func (s *CounterpartyStore) CountTrxRefs(ctx context.Context, q Getter, counterpartyID int64) (int64, error) {
	var count int64
	err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM trx WHERE counterparty_id = $1`, counterpartyID)
	return count, err
}
