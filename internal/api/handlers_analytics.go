package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/maternal-survey/survey-api/internal/httputil"
)

func (h *Handler) analyticsSummary(w http.ResponseWriter, r *http.Request) error {
	summary, err := h.responses.Summary(r.Context())
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to compute summary").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
	return nil
}

func (h *Handler) questionDistribution(w http.ResponseWriter, r *http.Request) error {
	questionID := mux.Vars(r)["id"]

	buckets, err := h.responses.QuestionDistribution(r.Context(), questionID)
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to compute distribution").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"question_id": questionID,
		"values":      buckets,
	})
	return nil
}
