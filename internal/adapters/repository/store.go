// Package repository archives grading reports so past runs can be listed
// and fetched again.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/pkg/metrics"
)

// Store provides read/write access to archived runs. Implementations are
// safe for concurrent use.
type Store interface {
	// Save archives r. Saving the same run id twice fails.
	Save(ctx context.Context, r *report.Report) error
	// Get returns the run with id or ErrNotFound.
	Get(ctx context.Context, id string) (*report.Report, error)
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]report.Meta, error)
	// Close releases the backend.
	Close() error
}

func observe(backend, op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = metrics.OutcomeError
		metrics.Default().RecordError("repository", op)
	}
	metrics.Default().RecordStoreOp(backend, op, outcome, time.Since(start))
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
