package api

import (
	"net/http"
	"strconv"

	"github.com/maternal-survey/survey-api/internal/httputil"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (h *Handler) listSurveys(w http.ResponseWriter, r *http.Request) error {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	items, total, err := h.responses.List(r.Context(), page, perPage)
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to list responses").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
