package store

import (
	"context"
	"time"
)

// Logical table names used as tombstone keys. Kept in one place so delete
// paths and the sync consumer agree on spelling.
const (
	TableCurrency     = "currency"
	TableWallet       = "wallet"
	TableAccount      = "account"
	TableTag          = "tag"
	TableCounterparty = "counterparty"
	TableTrx          = "trx"
	TableTrxLine      = "trx_line"
	TableBudget       = "budget"
)

// SyncStore records entity deletions so remote installations can reconcile,
// and tracks per-installation push/pull watermarks.
type SyncStore struct {
	db DB
}

type SyncDeletion struct {
	TableName string    `db:"table_name"`
	EntityID  string    `db:"entity_id"`
	DeletedAt time.Time `db:"deleted_at"`
}

type SyncState struct {
	InstallationID string    `db:"installation_id"`
	LastSyncAt     time.Time `db:"last_sync_at"`
	LastPushAt     time.Time `db:"last_push_at"`
}

func NewSyncStore(db DB) *SyncStore {
	return &SyncStore{db: db}
}

// RecordDeletion upserts the tombstone: deleting a re-imported entity again
// refreshes deleted_at instead of failing the unique key.
func (s *SyncStore) RecordDeletion(ctx context.Context, tx Execer, tableName, entityID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_deletion (table_name, entity_id, deleted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (table_name, entity_id) DO UPDATE SET deleted_at = NOW()
	`, tableName, entityID)
	return err
}

func (s *SyncStore) ListDeletionsSince(ctx context.Context, since time.Time) ([]SyncDeletion, error) {
	var rows []SyncDeletion
	err := s.db.SelectContext(ctx, &rows, `
		SELECT table_name, entity_id, deleted_at
		FROM sync_deletion
		WHERE deleted_at >= $1
		ORDER BY deleted_at, table_name, entity_id
	`, since)
	return rows, err
}

func (s *SyncStore) GetState(ctx context.Context, q Getter, installationID string) (SyncState, error) {
	var row SyncState
	err := q.GetContext(ctx, &row, `
		SELECT installation_id, last_sync_at, last_push_at
		FROM sync_state
		WHERE installation_id = $1
	`, installationID)
	return row, err
}

func (s *SyncStore) ListStates(ctx context.Context) ([]SyncState, error) {
	var rows []SyncState
	err := s.db.SelectContext(ctx, &rows, `
		SELECT installation_id, last_sync_at, last_push_at
		FROM sync_state
		ORDER BY installation_id
	`)
	return rows, err
}

func (s *SyncStore) UpsertState(ctx context.Context, tx Execer, installationID string, lastSyncAt, lastPushAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_state (installation_id, last_sync_at, last_push_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (installation_id) DO UPDATE SET last_sync_at = $2, last_push_at = $3
	`, installationID, lastSyncAt, lastPushAt)
	return err
}
