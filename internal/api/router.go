// Package api assembles the gateway's HTTP pipeline: recovery, tracing,
// CORS admission, metrics, and the versioned route groups.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/maternal-survey/survey-api/internal/database"
	"github.com/maternal-survey/survey-api/internal/httputil"
	"github.com/maternal-survey/survey-api/internal/logging"
	"github.com/maternal-survey/survey-api/internal/metrics"
	"github.com/maternal-survey/survey-api/internal/middleware"
)

// Version is reported by the welcome and health endpoints.
const Version = "1.0.0"

// ResponseStore captures the persistence surface needed by the response and
// analytics handlers.
type ResponseStore interface {
	Insert(ctx context.Context, resp *database.SurveyResponse) error
	GetByID(ctx context.Context, id string) (*database.SurveyResponse, error)
	List(ctx context.Context, page, perPage int) ([]database.SurveyResponse, int64, error)
	Summary(ctx context.Context) (*database.AnalyticsSummary, error)
	QuestionDistribution(ctx context.Context, questionID string) ([]database.BucketCount, error)
}

// UserStore captures the persistence surface needed by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user *database.User) error
	GetByEmail(ctx context.Context, email string) (*database.User, error)
	GetByID(ctx context.Context, id string) (*database.User, error)
}

// Readiness reports the database connection state for the health endpoint.
type Readiness interface {
	State() database.ConnectionState
}

// Config wires the handler's collaborators.
type Config struct {
	Logger         *logging.Logger
	Responses      ResponseStore
	Users          UserStore
	DB             Readiness
	JWTSecret      []byte
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

// Handler bundles the gateway's HTTP endpoints.
type Handler struct {
	log       *logging.Logger
	responses ResponseStore
	users     UserStore
	db        Readiness
	jwtSecret []byte
}

// NewRouter builds the full request pipeline. Stage order is fixed:
// recovery, then tracing, then CORS admission, then routing (with per-route
// metrics); every request-level error terminates at the single error handler
// in httputil.
func NewRouter(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logging.NewDefault("gateway")
	}

	h := &Handler{
		log:       log,
		responses: cfg.Responses,
		users:     cfg.Users,
		db:        cfg.DB,
		jwtSecret: cfg.JWTSecret,
	}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())

	r.HandleFunc("/", h.welcome).Methods(http.MethodGet)
	r.HandleFunc("/api/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	responses := api.PathPrefix("/responses").Subrouter()
	responses.Handle("", httputil.Handle(log, h.submitResponse)).Methods(http.MethodPost)
	responses.Handle("/{id}", httputil.Handle(log, h.getResponse)).Methods(http.MethodGet)

	rps, burst := cfg.RateLimitRPS, cfg.RateLimitBurst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	limiter := middleware.NewRateLimiter(rps, burst, log)
	authMW := middleware.NewAuthMiddleware(cfg.JWTSecret, log)

	auth := api.PathPrefix("/auth").Subrouter()
	auth.Handle("/register", limiter.Handler(httputil.Handle(log, h.register))).Methods(http.MethodPost)
	auth.Handle("/login", limiter.Handler(httputil.Handle(log, h.login))).Methods(http.MethodPost)
	auth.Handle("/me", authMW.Handler(httputil.Handle(log, h.me))).Methods(http.MethodGet)

	// /adv is a legacy alias; both prefixes resolve to the same handlers.
	for _, prefix := range []string{"/analytics", "/adv"} {
		analytics := api.PathPrefix(prefix).Subrouter()
		analytics.Handle("/summary", httputil.Handle(log, h.analyticsSummary)).Methods(http.MethodGet)
		analytics.Handle("/questions/{id}", httputil.Handle(log, h.questionDistribution)).Methods(http.MethodGet)
	}

	surveys := api.PathPrefix("/surveys").Subrouter()
	surveys.Handle("", httputil.Handle(log, h.listSurveys)).Methods(http.MethodGet)

	r.NotFoundHandler = httputil.Handle(log, func(w http.ResponseWriter, r *http.Request) error {
		return httputil.NewError(http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = httputil.Handle(log, func(w http.ResponseWriter, r *http.Request) error {
		return httputil.NewError(http.StatusMethodNotAllowed, "method not allowed")
	})

	// CORS wraps the router itself so preflights and unmatched paths still
	// pass through admission. Recovery is outermost.
	var handler http.Handler = r
	handler = middleware.NewCORSMiddleware(cfg.AllowedOrigins, log).Handler(handler)
	handler = middleware.NewTracingMiddleware(log).Handler(handler)
	handler = middleware.NewRecoveryMiddleware(log).Handler(handler)
	return handler
}

func (h *Handler) welcome(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Maternal Survey API",
		"version": Version,
		"endpoints": map[string]string{
			"survey":    "/api/v1/responses",
			"auth":      "/api/v1/auth",
			"analytics": "/api/v1/analytics",
			"advanced":  "/api/v1/adv",
		},
		"documentation": "https://github.com/maternal-survey/survey-api#readme",
	})
}

// health reports infrastructure state, never its own failure: the endpoint
// answers 200 even when the database is unreachable.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	state := database.StateDisconnected
	if h.db != nil {
		state = h.db.State()
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"database":  state.String(),
		"version":   Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
