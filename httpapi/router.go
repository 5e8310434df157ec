package httpapi

import (
	"errors"
	"net/http"

	tubeAuth "github.com/MrEthical07/tubeAuth"
	"github.com/MrEthical07/tubeAuth/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options configures NewRouter. All fields are optional.
type Options struct {
	Logger *zap.Logger
	// CORSOrigin is the single allowed browser origin. Credentials are always
	// allowed, so "*" is rejected.
	CORSOrigin string
	// Registerer receives the HTTP request metrics.
	Registerer prometheus.Registerer
	// MetricsHandler is mounted at GET /metrics.
	MetricsHandler http.Handler
}

// Handler binds the HTTP routes to an Engine.
type Handler struct {
	engine   *tubeAuth.Engine
	logger   *zap.Logger
	validate *validator.Validate
	metrics  *requestMetrics
}

// NewRouter builds the route tree and middleware stack.
func NewRouter(engine *tubeAuth.Engine, opts Options) (http.Handler, error) {
	if engine == nil {
		return nil, errors.New("httpapi: engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		engine:   engine,
		logger:   logger.Named("http"),
		validate: newValidator(),
		metrics:  newRequestMetrics(opts.Registerer),
	}

	corsHandler, err := corsMiddleware(opts.CORSOrigin)
	if err != nil {
		return nil, err
	}

	guardOpts := []middleware.Option{middleware.WithFailureHandler(h.unauthorized)}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.observeMiddleware)
	if corsHandler != nil {
		r.Use(corsHandler)
	}
	r.Use(clientMiddleware)

	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", h.healthcheck)

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh-token", h.refresh)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Guard(engine, guardOpts...))
				r.Post("/logout", h.logout)
				r.Post("/change-password", h.changePassword)
				r.Patch("/update-account", h.updateAccount)
			})

			r.With(middleware.RequireStrict(engine, guardOpts...)).Get("/current-user", h.currentUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r, nil
}

// unauthorized is the guard failure handler. Store outages seen by the
// strict guard are reported as 500.
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	h.fail(w, r, "authorize", err)
}

// fail logs err with its kind and writes the mapped response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, msg := mapError(err)
	fields := []zap.Field{
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("operation", operation),
		zap.Int("status_code", status),
		zap.String("error_code", tubeAuth.ErrorKind(err)),
	}
	if status >= 500 {
		h.logger.Error("http operation failed", append(fields, zap.Error(err))...)
	} else {
		h.logger.Debug("http operation rejected", fields...)
	}
	writeError(w, status, msg)
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, operation string, err error) {
	detail := errBody.Error()
	if !errors.Is(err, errBody) {
		detail = describeValidation(err)
	}
	h.logger.Debug("http request invalid",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("operation", operation),
		zap.String("detail", detail),
	)
	writeError(w, http.StatusBadRequest, msgInvalidInput, detail)
}
