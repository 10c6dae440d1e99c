// Package report assembles the read-only snapshot of one grading run that
// is handed to exporters, the run archive and the HTTP API.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/gradecurve/internal/domain/assignment"
	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/stats"
	"github.com/okian/gradecurve/internal/domain/summary"
)

// Row is one line of the exported table.
type Row struct {
	Index        int         `json:"index"`
	ID           string      `json:"id,omitempty"`
	Score        float64     `json:"score"`
	Raw          string      `json:"raw,omitempty"`
	Standardized *float64    `json:"standardized,omitempty"`
	Graded       bool        `json:"graded"`
	Grade        grade.Grade `json:"grade"`
}

// Report is the outcome of one run.
type Report struct {
	RunID        string            `json:"run_id"`
	Source       string            `json:"source"`
	Policy       policy.Spec       `json:"policy"`
	CreatedAt    time.Time         `json:"created_at"`
	Stats        stats.Descriptive `json:"stats"`
	Rows         []Row             `json:"rows"`
	Summary      summary.Summary   `json:"summary"`
	Bands        []policy.Band     `json:"bands,omitempty"`
	Standardized bool              `json:"standardized"`
}

// Option configures New.
type Option func(*options)

type options struct {
	standardize bool
	runID       string
	now         func() time.Time
}

// WithStandardized attaches z-scores to graded rows.
func WithStandardized(on bool) Option {
	return func(o *options) { o.standardize = on }
}

// WithRunID fixes the run identifier instead of generating a UUID.
func WithRunID(id string) Option {
	return func(o *options) { o.runID = id }
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds a report. Formula bands are attached when p is a relative
// formula policy and the scores are not all equal.
func New(source string, p policy.Policy, d stats.Descriptive, a *assignment.Assignment, s summary.Summary, opts ...Option) *Report {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	r := &Report{
		RunID:        o.runID,
		Source:       source,
		CreatedAt:    o.now().UTC(),
		Stats:        d,
		Summary:      s,
		Standardized: o.standardize,
	}
	if p != nil {
		r.Policy = p.Spec()
		if f, ok := p.(*policy.Formula); ok && d.StdDev > 0 {
			r.Bands = f.Bands(d)
		}
	}

	if a != nil {
		r.Rows = make([]Row, len(a.Rows))
		for i, ar := range a.Rows {
			row := Row{Index: ar.Index, ID: ar.ID, Score: ar.Score, Raw: ar.Raw, Graded: ar.Graded, Grade: ar.Grade}
			if o.standardize && ar.Graded {
				z := d.ZScore(ar.Score)
				row.Standardized = &z
			}
			r.Rows[i] = row
		}
	}
	return r
}

// HasIDs reports whether any row carries a student identifier.
func (r *Report) HasIDs() bool {
	for _, row := range r.Rows {
		if row.ID != "" {
			return true
		}
	}
	return false
}

// Meta is the listing view of a report.
type Meta struct {
	RunID     string      `json:"run_id"`
	Source    string      `json:"source"`
	Kind      policy.Kind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	Graded    int         `json:"graded"`
	Ungraded  int         `json:"ungraded"`
}

// Meta returns the listing view of r.
func (r *Report) Meta() Meta {
	return Meta{
		RunID:     r.RunID,
		Source:    r.Source,
		Kind:      r.Policy.Kind,
		CreatedAt: r.CreatedAt,
		Graded:    r.Summary.Graded,
		Ungraded:  r.Summary.Ungraded,
	}
}
