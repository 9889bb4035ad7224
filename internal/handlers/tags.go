package handlers

import (
	"encoding/json"
	"net/http"

	"pocketledger/internal/services"
)

type tagRequest struct {
	Name      string  `json:"name"`
	ParentIDs []int64 `json:"parent_ids"`
	IsCommon  bool    `json:"is_common"`
	SortOrder int     `json:"sort_order"`
}

func (t tagRequest) toRequest() services.TagRequest {
	return services.TagRequest{
		Name:      t.Name,
		ParentIDs: t.ParentIDs,
		IsCommon:  t.IsCommon,
		SortOrder: t.SortOrder,
	}
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load tags")
		return
	}
	edges, err := h.tags.ListEdges(r.Context(), h.db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load tags")
		return
	}
	parents := make(map[int64][]int64)
	for _, edge := range edges {
		parents[edge.ChildID] = append(parents[edge.ChildID], edge.ParentID)
	}
	rows := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, map[string]any{
			"id":         tag.ID,
			"name":       tag.Name,
			"is_common":  tag.IsCommon,
			"is_system":  tag.IsSystem,
			"sort_order": tag.SortOrder,
			"parent_ids": parents[tag.ID],
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	tagID, err := h.tagSvc.CreateTag(r.Context(), req.toRequest())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": tagID})
}

func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.tagSvc.UpdateTag(r.Context(), tagID, req.toRequest()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	if err := h.tagSvc.DeleteTag(r.Context(), tagID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) TagDescendants(w http.ResponseWriter, r *http.Request) {
	tagID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	descendants, err := h.tagSvc.FindByAncestor(r.Context(), tagID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tag_ids": descendants})
}

func (h *Handler) CommonTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagSvc.CommonTags(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}
