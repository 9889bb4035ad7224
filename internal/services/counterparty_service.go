package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"pocketledger/internal/db"
	"pocketledger/internal/store"
	"pocketledger/internal/validator"

	"github.com/jmoiron/sqlx"
)

// CounterpartyService manages the payee/payer catalog. Counterparties carry
// a free tag set used for filtering and reporting only; nothing in the
// ledger engine depends on it.
type CounterpartyService struct {
	txRunner       db.TxRunner
	counterparties CounterpartyStore
	sync           SyncStore
}

func NewCounterpartyService(txRunner db.TxRunner, counterparties CounterpartyStore, syncStore SyncStore) *CounterpartyService {
	return &CounterpartyService{txRunner: txRunner, counterparties: counterparties, sync: syncStore}
}

type CounterpartyRequest struct {
	Name   string
	Note   string
	TagIDs []int64
}

func (s *CounterpartyService) CreateCounterparty(ctx context.Context, req CounterpartyRequest) (int64, error) {
	if err := validator.ValidateName(req.Name); err != nil {
		return 0, ValidationError{Message: "counterparty name required"}
	}
	var counterpartyID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.counterparties.GetByName(ctx, tx, req.Name); err == nil {
			return DuplicateNameError{Entity: "counterparty", Name: req.Name}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		id, err := s.counterparties.Create(ctx, tx, req.Name, req.Note)
		if err != nil {
			return err
		}
		counterpartyID = id
		return s.counterparties.SetTags(ctx, tx, id, req.TagIDs)
	})
	if err != nil {
		return 0, err
	}
	return counterpartyID, nil
}

func (s *CounterpartyService) UpdateCounterparty(ctx context.Context, counterpartyID int64, req CounterpartyRequest) error {
	if err := validator.ValidateName(req.Name); err != nil {
		return ValidationError{Message: "counterparty name required"}
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.counterparties.GetByID(ctx, tx, counterpartyID)
		if err != nil {
			return notFoundOr(err, "counterparty", strconv.FormatInt(counterpartyID, 10))
		}
		if current.Name != req.Name {
			if _, err := s.counterparties.GetByName(ctx, tx, req.Name); err == nil {
				return DuplicateNameError{Entity: "counterparty", Name: req.Name}
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		if err := s.counterparties.Update(ctx, tx, counterpartyID, req.Name, req.Note); err != nil {
			return err
		}
		return s.counterparties.SetTags(ctx, tx, counterpartyID, req.TagIDs)
	})
}

func (s *CounterpartyService) DeleteCounterparty(ctx context.Context, counterpartyID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.counterparties.GetByID(ctx, tx, counterpartyID)
		if err != nil {
			return notFoundOr(err, "counterparty", strconv.FormatInt(counterpartyID, 10))
		}
		refs, err := s.counterparties.CountTrxRefs(ctx, tx, counterpartyID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return EntityInUseError{Entity: "counterparty", Name: current.Name, Count: refs}
		}
		if err := s.counterparties.Delete(ctx, tx, counterpartyID); err != nil {
			return err
		}
		return s.sync.RecordDeletion(ctx, tx, store.TableCounterparty, tombstoneKey(counterpartyID))
	})
}
