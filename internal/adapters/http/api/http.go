// Package api exposes the grading service over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/okian/gradecurve/internal/adapters/export"
	"github.com/okian/gradecurve/internal/adapters/http/swagger"
	"github.com/okian/gradecurve/internal/adapters/repository"
	"github.com/okian/gradecurve/internal/adapters/table"
	service "github.com/okian/gradecurve/internal/app"
	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
	"github.com/okian/gradecurve/pkg/logger"
)

const (
	defaultMaxUpload = 10 << 20
	requestTimeout   = 30 * time.Second
)

// Dependencies is the slice of the grading service the handlers use.
type Dependencies interface {
	Grade(ctx context.Context, req service.Request) (*report.Report, error)
	Describe(ctx context.Context, rows []scoreset.Row, onInvalid scoreset.InvalidPolicy) (stats.Descriptive, error)
	Report(ctx context.Context, id string) (*report.Report, error)
	Runs(ctx context.Context, limit int) ([]report.Meta, error)
}

// Server wires HTTP routes for the grading API.
type Server struct {
	deps      Dependencies
	loader    *table.Loader
	auth      *Authenticator
	maxUpload int64
	origins   []string
	log       logger.Logger
}

// NewServer creates an API server backed by deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		loader:    table.NewLoader(nil, nil),
		maxUpload: defaultMaxUpload,
		origins:   []string{"*"},
		log:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with every endpoint attached.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.HandleHealth, "healthz"))
	r.Get("/metrics", s.HandleMetrics)
	r.Get("/grades", MetricsMiddleware(s.HandleGrades, "grades"))
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Middleware)
		}
		r.Post("/grade", MetricsMiddleware(s.HandleGrade, "grade"))
		r.Post("/stats", MetricsMiddleware(s.HandleStats, "stats"))
		r.Get("/runs", MetricsMiddleware(s.HandleRuns, "runs"))
		r.Get("/runs/{id}", MetricsMiddleware(s.HandleRun, "run"))
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, table.ErrMissingColumn),
		errors.Is(err, table.ErrUnsupportedFormat),
		errors.Is(err, table.ErrEmptyTable),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "bad_request"
	case service.IsValidation(err):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status. Server errors are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= statusInternalError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
	}
	writeError(w, status, code, err)
}

// writeReport sends r as JSON or as an export file.
func (s *Server) writeReport(w http.ResponseWriter, req *http.Request, status int, r *report.Report, format export.Format) {
	if format == export.FormatJSON {
		writeJSON(w, status, r)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, r, format); err != nil {
		s.fail(w, req, Wrap("api.export", err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+r.RunID+format.Ext()+`"`)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
