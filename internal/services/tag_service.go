package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"

	"pocketledger/internal/db"
	"pocketledger/internal/store"
	"pocketledger/internal/validator"

	"github.com/jmoiron/sqlx"
)

// TagService maintains the tag graph: a multi-parent DAG rooted at the
// SYSTEM tag. Edges point child-to-parent; acyclicity is enforced on every
// create and update by walking the ancestor set before writing edges.
type TagService struct {
	txRunner db.TxRunner
	q        store.DB
	tags     TagStore
	sync     SyncStore
}

func NewTagService(txRunner db.TxRunner, q store.DB, tags TagStore, syncStore SyncStore) *TagService {
	return &TagService{txRunner: txRunner, q: q, tags: tags, sync: syncStore}
}

type TagRequest struct {
	Name      string
	ParentIDs []int64
	IsCommon  bool
	SortOrder int
}

func (s *TagService) CreateTag(ctx context.Context, req TagRequest) (int64, error) {
	if err := validator.ValidateName(req.Name); err != nil {
		return 0, ValidationError{Message: "tag name required"}
	}
	parents := req.ParentIDs
	if len(parents) == 0 {
		parents = []int64{store.TagDefault}
	}
	var tagID int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.tags.GetByName(ctx, tx, req.Name); err == nil {
			return DuplicateNameError{Entity: "tag", Name: req.Name}
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		for _, parentID := range parents {
			if _, err := s.tags.GetByID(ctx, tx, parentID); err != nil {
				return notFoundOr(err, "tag", strconv.FormatInt(parentID, 10))
			}
		}
		id, err := s.tags.Create(ctx, tx, req.Name, req.IsCommon, req.SortOrder)
		if err != nil {
			return err
		}
		tagID = id
		for _, parentID := range parents {
			if err := s.tags.InsertEdge(ctx, tx, id, parentID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return tagID, nil
}

// UpdateTag renames the tag and rewrites its parent edges. The new edge set
// is rejected when any proposed parent already sits below the tag, which is
// the only way an update could close a cycle.
func (s *TagService) UpdateTag(ctx context.Context, tagID int64, req TagRequest) error {
	if err := validator.ValidateName(req.Name); err != nil {
		return ValidationError{Message: "tag name required"}
	}
	parents := req.ParentIDs
	if len(parents) == 0 {
		parents = []int64{store.TagDefault}
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.tags.GetByID(ctx, tx, tagID)
		if err != nil {
			return notFoundOr(err, "tag", strconv.FormatInt(tagID, 10))
		}
		if current.IsSystem {
			return ProtectedEntityError{Entity: "tag", Name: current.Name}
		}
		if current.Name != req.Name {
			if _, err := s.tags.GetByName(ctx, tx, req.Name); err == nil {
				return DuplicateNameError{Entity: "tag", Name: req.Name}
			} else if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		edges, err := s.tags.ListEdges(ctx, tx)
		if err != nil {
			return err
		}
		graph := buildGraph(edges)
		for _, parentID := range parents {
			if parentID == tagID {
				return ValidationError{Message: "tag cannot be its own parent"}
			}
			if _, err := s.tags.GetByID(ctx, tx, parentID); err != nil {
				return notFoundOr(err, "tag", strconv.FormatInt(parentID, 10))
			}
			if graph.isAncestor(tagID, parentID) {
				return ValidationError{Message: "edge would create a cycle in the tag graph"}
			}
		}
		if err := s.tags.Update(ctx, tx, tagID, req.Name, req.IsCommon, req.SortOrder); err != nil {
			return err
		}
		if err := s.tags.DeleteEdgesForChild(ctx, tx, tagID); err != nil {
			return err
		}
		for _, parentID := range parents {
			if err := s.tags.InsertEdge(ctx, tx, tagID, parentID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TagService) DeleteTag(ctx context.Context, tagID int64) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.tags.GetByID(ctx, tx, tagID)
		if err != nil {
			return notFoundOr(err, "tag", strconv.FormatInt(tagID, 10))
		}
		if current.IsSystem {
			return ProtectedEntityError{Entity: "tag", Name: current.Name}
		}
		lineRefs, err := s.tags.CountLineRefs(ctx, tx, tagID)
		if err != nil {
			return err
		}
		budgetRefs, err := s.tags.CountBudgetRefs(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if refs := lineRefs + budgetRefs; refs > 0 {
			return EntityInUseError{Entity: "tag", Name: current.Name, Count: refs}
		}
		if err := s.tags.Delete(ctx, tx, tagID); err != nil {
			return err
		}
		return s.sync.RecordDeletion(ctx, tx, store.TableTag, tombstoneKey(tagID))
	})
}

// IsDescendantOf reports whether ancestorID is reachable from tagID by
// walking parent edges.
func (s *TagService) IsDescendantOf(ctx context.Context, tagID, ancestorID int64) (bool, error) {
	edges, err := s.tags.ListEdges(ctx, s.q)
	if err != nil {
		return false, err
	}
	return buildGraph(edges).isAncestor(ancestorID, tagID), nil
}

// FindByAncestor returns every tag below ancestorID, sorted by id. It backs
// queries like "all expense tags" and budget sub-tag expansion.
func (s *TagService) FindByAncestor(ctx context.Context, ancestorID int64) ([]int64, error) {
	edges, err := s.tags.ListEdges(ctx, s.q)
	if err != nil {
		return nil, err
	}
	return buildGraph(edges).descendants(ancestorID), nil
}

// CommonTags returns the add-on tags (tips, fees, VAT, discounts) offered
// when composing a transaction.
func (s *TagService) CommonTags(ctx context.Context) ([]store.Tag, error) {
	all, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	common := make([]store.Tag, 0)
	for _, tag := range all {
		if tag.IsCommon {
			common = append(common, tag)
		}
	}
	return common, nil
}

// tagGraph is an in-memory view of the edge set, loaded once per operation.
type tagGraph struct {
	parents  map[int64][]int64
	children map[int64][]int64
}

func buildGraph(edges []store.TagEdge) tagGraph {
	graph := tagGraph{
		parents:  make(map[int64][]int64),
		children: make(map[int64][]int64),
	}
	for _, edge := range edges {
		graph.parents[edge.ChildID] = append(graph.parents[edge.ChildID], edge.ParentID)
		graph.children[edge.ParentID] = append(graph.children[edge.ParentID], edge.ChildID)
	}
	return graph
}

// isAncestor reports whether candidate is reachable from tagID upward.
func (g tagGraph) isAncestor(candidate, tagID int64) bool {
	visited := make(map[int64]bool)
	queue := []int64{tagID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, parentID := range g.parents[current] {
			if parentID == candidate {
				return true
			}
			queue = append(queue, parentID)
		}
	}
	return false
}

func (g tagGraph) descendants(ancestorID int64) []int64 {
	visited := make(map[int64]bool)
	queue := []int64{ancestorID}
	result := make([]int64, 0)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, childID := range g.children[current] {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			result = append(result, childID)
			queue = append(queue, childID)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
