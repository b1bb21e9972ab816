package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "slugr/internal/api/context"
	"slugr/internal/engine/links"
	"slugr/internal/pkg/httperr"
	"slugr/internal/platform/cache"
)

// PendingReader reports unflushed visit counts so reads can present the
// live total (durable visits + pending).
type PendingReader interface {
	Pending(ctx context.Context, slug string) int64
}

type LinkHandler struct {
	repo    *links.Repository
	cache   cache.Client
	keys    cache.Keys
	pending PendingReader
}

func NewLinkHandler(repo *links.Repository, c cache.Client, keys cache.Keys, pending PendingReader) *LinkHandler {
	return &LinkHandler{repo: repo, cache: c, keys: keys, pending: pending}
}

type linkResponse struct {
	*links.Link
	TotalVisits int64 `json:"total_visits"`
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug        string `json:"slug"`
		URL         string `json:"url"`
		Description string `json:"description"`
		ExpiresAt   *int64 `json:"expires_at"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, http.StatusBadRequest, httperr.CodeInvalidInput, "Invalid request body", nil)
		return
	}

	expiresAt := req.ExpiresAt
	if expiresAt == nil {
		// Links expire a year out unless told otherwise.
		exp := time.Now().AddDate(1, 0, 0).UnixMilli()
		expiresAt = &exp
	}

	now := time.Now().UnixMilli()
	link := &links.Link{
		ID:          uuid.New().String(),
		Slug:        req.Slug,
		URL:         req.URL,
		Description: req.Description,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := links.ValidateLink(link); err != nil {
		httperr.Write(w, http.StatusBadRequest, httperr.CodeInvalidInput, err.Error(), nil)
		return
	}

	if err := h.repo.Create(link); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			httperr.Write(w, http.StatusConflict, httperr.CodeConflict, "Slug already taken", nil)
			return
		}
		httperr.Write(w, http.StatusInternalServerError, httperr.CodeInternal, "Failed to create link", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(link)
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	list, err := h.repo.List(limit, offset)
	if err != nil {
		httperr.Write(w, http.StatusInternalServerError, httperr.CodeInternal, "Failed to list links", nil)
		return
	}
	if list == nil {
		list = []*links.Link{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, ok := h.linkFromParams(w, r)
	if !ok {
		return
	}

	resp := linkResponse{
		Link:        link,
		TotalVisits: link.Visits + h.pending.Pending(r.Context(), link.Slug),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	link, ok := h.linkFromParams(w, r)
	if !ok {
		return
	}

	var req struct {
		Slug        *string `json:"slug"`
		URL         *string `json:"url"`
		Description *string `json:"description"`
		ExpiresAt   *int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, http.StatusBadRequest, httperr.CodeInvalidInput, "Invalid request body", nil)
		return
	}

	oldSlug := link.Slug
	if req.Slug != nil {
		link.Slug = *req.Slug
	}
	if req.URL != nil {
		link.URL = *req.URL
	}
	if req.Description != nil {
		link.Description = *req.Description
	}
	if req.ExpiresAt != nil {
		link.ExpiresAt = req.ExpiresAt
	}

	if err := links.ValidateLink(link); err != nil {
		httperr.Write(w, http.StatusBadRequest, httperr.CodeInvalidInput, err.Error(), nil)
		return
	}

	if err := h.repo.Update(link); err != nil {
		if errors.Is(err, links.ErrNotFound) {
			httperr.Write(w, http.StatusNotFound, httperr.CodeNotFound, "Link not found", nil)
			return
		}
		if strings.Contains(err.Error(), "UNIQUE") {
			httperr.Write(w, http.StatusConflict, httperr.CodeConflict, "Slug already taken", nil)
			return
		}
		httperr.Write(w, http.StatusInternalServerError, httperr.CodeInternal, "Failed to update link", nil)
		return
	}

	h.invalidate(r.Context(), oldSlug)
	if link.Slug != oldSlug {
		h.invalidate(r.Context(), link.Slug)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	link, ok := h.linkFromParams(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(link.ID); err != nil {
		if errors.Is(err, links.ErrNotFound) {
			httperr.Write(w, http.StatusNotFound, httperr.CodeNotFound, "Link not found", nil)
			return
		}
		httperr.Write(w, http.StatusInternalServerError, httperr.CodeInternal, "Failed to delete link", nil)
		return
	}

	h.invalidate(r.Context(), link.Slug)

	w.WriteHeader(http.StatusNoContent)
}

// invalidate drops the resolved-mapping entry so a mutation is visible on
// the next lookup instead of after the cache TTL.
func (h *LinkHandler) invalidate(ctx context.Context, slug string) {
	if err := h.cache.Del(ctx, h.keys.Slug(slug)); err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("cache invalidation failed")
	}
}

func (h *LinkHandler) linkFromParams(w http.ResponseWriter, r *http.Request) (*links.Link, bool) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	linkID := params.ByName("link_id")

	link, err := h.repo.GetByID(linkID)
	if errors.Is(err, links.ErrNotFound) {
		httperr.Write(w, http.StatusNotFound, httperr.CodeNotFound, "Link not found", nil)
		return nil, false
	}
	if err != nil {
		httperr.Write(w, http.StatusInternalServerError, httperr.CodeInternal, "Failed to load link", nil)
		return nil, false
	}
	return link, true
}
