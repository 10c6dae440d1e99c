// Package service runs grading passes and serves the run archive to the
// HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gradecurve/internal/adapters/repository"
	"github.com/okian/gradecurve/internal/domain/assignment"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
	"github.com/okian/gradecurve/internal/domain/summary"
	"github.com/okian/gradecurve/pkg/logger"
	"github.com/okian/gradecurve/pkg/metrics"
)

// Request describes one grading run.
type Request struct {
	// Source names the input, e.g. a file name.
	Source string
	Rows   []scoreset.Row
	// Spec overrides the default policy when non-nil.
	Spec *policy.Spec
	// OnInvalid overrides the default invalid-row choice when set.
	OnInvalid scoreset.InvalidPolicy
	// Standardize overrides the default z-score choice when non-nil.
	Standardize *bool
}

// Service runs grading passes. Runs share nothing but the archive and the
// guarded defaults, so concurrent calls are safe.
type Service struct {
	mu sync.RWMutex

	store  repository.Store
	logger logger.Logger
	meter  *metrics.Manager
	now    func() time.Time

	// Defaults applied when a request leaves them out.
	defaultSpec policy.Spec
	onInvalid   scoreset.InvalidPolicy
	standardize bool

	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the run archive. The default is an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager. The default is the process-wide one.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.meter = m
		}
	}
}

// WithDefaultPolicy sets the policy used when a request carries none.
func WithDefaultPolicy(spec policy.Spec) Option {
	return func(s *Service) {
		s.defaultSpec = spec
	}
}

// WithInvalidPolicy sets the default handling of invalid score rows.
func WithInvalidPolicy(p scoreset.InvalidPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.onInvalid = p
		}
	}
}

// WithStandardize attaches z-scores to reports by default.
func WithStandardize(on bool) Option {
	return func(s *Service) {
		s.standardize = on
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultSpec: policy.Spec{Kind: policy.KindAbsolute, Thresholds: policy.DefaultThresholds()},
		onInvalid:   scoreset.RejectAll,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("grading")
	}
	if s.meter == nil {
		s.meter = metrics.Default()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	return s
}

// Start validates the defaults. Grading is allowed before Start; Start only
// surfaces configuration mistakes early.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if _, err := s.defaultSpec.Build(); err != nil {
		return fmt.Errorf("default policy: %w", err)
	}
	s.started = true
	s.logger.Info(ctx, "grading service started",
		logger.String("policy", string(s.defaultSpec.Kind)),
		logger.String("on_invalid_score", string(s.onInvalid)),
		logger.Bool("standardize", s.standardize),
	)
	return nil
}

// Stop closes the run archive.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing run archive", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "grading service stopped")
}

// Started reports whether Start has run.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// DefaultPolicy returns the policy used when a request carries none.
func (s *Service) DefaultPolicy() policy.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultSpec
}

// SetDefaultPolicy validates spec and makes it the default for new runs.
// Runs in flight keep the policy they started with.
func (s *Service) SetDefaultPolicy(ctx context.Context, spec policy.Spec) error {
	if _, err := spec.Build(); err != nil {
		return err
	}
	s.mu.Lock()
	s.defaultSpec = spec
	s.mu.Unlock()
	s.logger.Info(ctx, "default policy updated", logger.String("policy", string(spec.Kind)))
	return nil
}

// SetDefaults swaps the invalid-row choice and standardization default.
func (s *Service) SetDefaults(onInvalid scoreset.InvalidPolicy, standardize bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if onInvalid != "" {
		s.onInvalid = onInvalid
	}
	s.standardize = standardize
}

func (s *Service) resolve(req Request) (policy.Spec, scoreset.InvalidPolicy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, onInvalid, std := s.defaultSpec, s.onInvalid, s.standardize
	if req.Spec != nil {
		spec = req.Spec.WithDefaults()
	}
	if req.OnInvalid != "" {
		onInvalid = req.OnInvalid
	}
	if req.Standardize != nil {
		std = *req.Standardize
	}
	return spec, onInvalid, std
}

// Grade runs one grading pass and archives the report. Parameters are
// validated before any score is looked at; no report is produced on error.
func (s *Service) Grade(ctx context.Context, req Request) (*report.Report, error) {
	start := time.Now()
	spec, onInvalid, std := s.resolve(req)

	r, err := s.grade(ctx, req, spec, onInvalid, std)
	latency := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if IsValidation(err) {
			outcome = metrics.OutcomeInvalid
		}
		s.meter.RecordRun(kindLabel(spec.Kind), outcome, latency)
		s.meter.RecordError("grading", outcome)
		s.logger.Warn(ctx, "grading run failed",
			logger.String("source", req.Source),
			logger.String("policy", string(spec.Kind)),
			logger.Error(err),
		)
		return nil, fmt.Errorf("grade %s: %w", sourceName(req.Source), err)
	}

	s.meter.RecordRun(string(r.Policy.Kind), metrics.OutcomeOK, latency)
	s.meter.RecordRows(r.Summary.Graded, r.Summary.Ungraded)
	for _, c := range r.Summary.Counts {
		s.meter.RecordGrade(string(c.Grade), c.Count)
	}
	s.logger.Info(ctx, "grading run finished",
		logger.String("run_id", r.RunID),
		logger.String("source", r.Source),
		logger.String("policy", string(r.Policy.Kind)),
		logger.Int("graded", r.Summary.Graded),
		logger.Int("ungraded", r.Summary.Ungraded),
		logger.Duration("latency", latency),
	)
	return r, nil
}

func (s *Service) grade(ctx context.Context, req Request, spec policy.Spec, onInvalid scoreset.InvalidPolicy, std bool) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := spec.Build()
	if err != nil {
		return nil, err
	}
	set, err := scoreset.FromRows(req.Rows, onInvalid)
	if err != nil {
		return nil, err
	}
	d, err := stats.Of(set)
	if err != nil {
		return nil, err
	}
	grades, err := p.Assign(set.Scores(), d)
	if err != nil {
		return nil, err
	}
	a, err := assignment.Build(set, grades)
	if err != nil {
		return nil, err
	}

	r := report.New(req.Source, p, d, a, summary.Build(a),
		report.WithStandardized(std), report.WithClock(s.now))
	if err := s.store.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("archive run: %w", err)
	}
	return r, nil
}

// Describe computes statistics without grading or archiving anything.
func (s *Service) Describe(ctx context.Context, rows []scoreset.Row, onInvalid scoreset.InvalidPolicy) (stats.Descriptive, error) {
	if err := ctx.Err(); err != nil {
		return stats.Descriptive{}, err
	}
	if onInvalid == "" {
		s.mu.RLock()
		onInvalid = s.onInvalid
		s.mu.RUnlock()
	}
	set, err := scoreset.FromRows(rows, onInvalid)
	if err != nil {
		return stats.Descriptive{}, err
	}
	return stats.Of(set)
}

// Report returns an archived run.
func (s *Service) Report(ctx context.Context, id string) (*report.Report, error) {
	return s.store.Get(ctx, id)
}

// Runs lists archived runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]report.Meta, error) {
	return s.store.List(ctx, limit)
}

// kindLabel bounds metric label values to the known policy kinds.
func kindLabel(k policy.Kind) string {
	parsed, err := policy.ParseKind(string(k))
	if err != nil {
		return "unknown"
	}
	return string(parsed)
}

func sourceName(src string) string {
	if src == "" {
		return "input"
	}
	return src
}
