package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/gradecurve/internal/adapters/export"
	service "github.com/okian/gradecurve/internal/app"
)

const defaultRunsLimit = 20

// HandleGrade handles POST /grade.
func (s *Server) HandleGrade(w http.ResponseWriter, r *http.Request) {
	const op = "api.grade"
	in, err := s.readInput(r, w, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	format, err := export.ParseFormat(in.format)
	if err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	rep, err := s.deps.Grade(r.Context(), service.Request{
		Source:      in.source,
		Rows:        in.rows,
		Spec:        in.spec,
		OnInvalid:   in.onInvalid,
		Standardize: in.standardize,
	})
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	s.writeReport(w, r, http.StatusCreated, rep, format)
}

// HandleStats handles POST /stats.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	in, err := s.readInput(r, w, op)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.deps.Describe(r.Context(), in.rows, in.onInvalid)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleRuns handles GET /runs?limit=N.
func (s *Server) HandleRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.runs"
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, WrapKind(op, ErrBadRequest, err))
			return
		}
		limit = n
	}
	runs, err := s.deps.Runs(r.Context(), limit)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleRun handles GET /runs/{id}?format=csv|xlsx|json.
func (s *Server) HandleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.run"
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rep, err := s.deps.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	s.writeReport(w, r, http.StatusOK, rep, format)
}
