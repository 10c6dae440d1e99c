package api

import (
	"net/http"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status string `json:"status"`
}

// HandleHealth handles GET /healthz.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// HandleMetrics serves the custom Prometheus registry.
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

type gradesResponse struct {
	Grades    []grade.Grade `json:"grades"`
	NotGraded grade.Grade   `json:"not_graded"`
}

// HandleGrades handles GET /grades with the canonical grade order.
func (s *Server) HandleGrades(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, gradesResponse{Grades: grade.Canonical(), NotGraded: grade.NotGraded})
}
