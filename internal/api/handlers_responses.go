package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/maternal-survey/survey-api/internal/database"
	"github.com/maternal-survey/survey-api/internal/httputil"
	"github.com/maternal-survey/survey-api/internal/metrics"
)

// validAgeGroups are the accepted respondent demographics buckets.
var validAgeGroups = map[string]bool{
	"under_18": true,
	"18_24":    true,
	"25_34":    true,
	"35_44":    true,
	"45_plus":  true,
}

type submitResponseRequest struct {
	Respondent database.Respondent `json:"respondent"`
	Answers    []database.Answer   `json:"answers"`
}

const answerFormPrefix = "answer."

func (h *Handler) submitResponse(w http.ResponseWriter, r *http.Request) error {
	var req submitResponseRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return httputil.NewError(http.StatusBadRequest, "invalid form body").Wrap(err)
		}
		req = submitFromForm(r)
	} else {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			return err
		}
	}

	if err := validateSubmission(&req); err != nil {
		return err
	}

	resp := &database.SurveyResponse{
		ID:          uuid.New().String(),
		Respondent:  req.Respondent,
		Answers:     req.Answers,
		SubmittedAt: time.Now().UTC(),
	}

	if err := h.responses.Insert(r.Context(), resp); err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to store response").Wrap(err)
	}

	metrics.RecordResponseSubmitted()
	h.log.ForRequest(r.Context()).WithField("response_id", resp.ID).Info("survey response stored")

	httputil.WriteJSON(w, http.StatusCreated, resp)
	return nil
}

func (h *Handler) getResponse(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]

	resp, err := h.responses.GetByID(r.Context(), id)
	if err == database.ErrNotFound {
		return httputil.NewError(http.StatusNotFound, "response not found")
	}
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to load response").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// submitFromForm maps a urlencoded body onto the nested request shape.
// Demographics come from flat fields; answers use answer.<question_id> keys.
func submitFromForm(r *http.Request) submitResponseRequest {
	var req submitResponseRequest
	req.Respondent.AgeGroup = r.PostFormValue("age_group")
	req.Respondent.Region = r.PostFormValue("region")
	if parity, err := strconv.Atoi(r.PostFormValue("parity")); err == nil {
		req.Respondent.Parity = parity
	}
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, answerFormPrefix) || len(values) == 0 {
			continue
		}
		req.Answers = append(req.Answers, database.Answer{
			QuestionID: strings.TrimPrefix(key, answerFormPrefix),
			Value:      values[0],
		})
	}
	return req
}

func validateSubmission(req *submitResponseRequest) error {
	if !validAgeGroups[req.Respondent.AgeGroup] {
		return httputil.NewError(http.StatusBadRequest, "unknown age group")
	}
	if req.Respondent.Parity < 0 {
		return httputil.NewError(http.StatusBadRequest, "parity must not be negative")
	}
	if len(req.Answers) == 0 {
		return httputil.NewError(http.StatusBadRequest, "at least one answer is required")
	}
	for _, ans := range req.Answers {
		if strings.TrimSpace(ans.QuestionID) == "" {
			return httputil.NewError(http.StatusBadRequest, "answer is missing question_id")
		}
	}
	return nil
}
