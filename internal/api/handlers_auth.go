package api

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maternal-survey/survey-api/internal/database"
	"github.com/maternal-survey/survey-api/internal/httputil"
	"github.com/maternal-survey/survey-api/internal/middleware"
)

const minPasswordLength = 8

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return httputil.NewError(http.StatusBadRequest, "invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return httputil.NewError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to hash password").Wrap(err)
	}

	user := &database.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if err == database.ErrDuplicateEmail {
			return httputil.NewError(http.StatusConflict, "email already registered")
		}
		return httputil.NewError(http.StatusInternalServerError, "failed to create user").Wrap(err)
	}

	h.log.ForRequest(r.Context()).WithField("user_id", user.ID).Info("user registered")
	httputil.WriteJSON(w, http.StatusCreated, user)
	return nil
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.users.GetByEmail(r.Context(), email)
	if err == database.ErrNotFound {
		return httputil.NewError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to load user").Wrap(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return httputil.NewError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Email)
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to issue token").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
	return nil
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) error {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return httputil.NewError(http.StatusUnauthorized, "missing authorization")
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err == database.ErrNotFound {
		return httputil.NewError(http.StatusUnauthorized, "unknown user")
	}
	if err != nil {
		return httputil.NewError(http.StatusInternalServerError, "failed to load user").Wrap(err)
	}

	httputil.WriteJSON(w, http.StatusOK, user)
	return nil
}
