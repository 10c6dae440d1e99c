package policy

import (
	"fmt"
	"math"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// DefaultThresholds is the fixed scale used when nothing else is configured.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Grade: grade.A, Min: 90},
		{Grade: grade.AMinus, Min: 80},
		{Grade: grade.B, Min: 70},
		{Grade: grade.C, Min: 60},
		{Grade: grade.D, Min: 50},
		{Grade: grade.F, Min: 0},
	}
}

// Absolute grades against fixed thresholds. Thresholds are evaluated in
// slice order and must be strictly descending; the first one a score meets
// or exceeds wins.
type Absolute struct {
	Thresholds []Threshold
}

// NewAbsolute validates thresholds and returns the policy.
func NewAbsolute(thresholds ...Threshold) (*Absolute, error) {
	p := &Absolute{Thresholds: thresholds}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Absolute) Kind() Kind { return KindAbsolute }

func (p *Absolute) Spec() Spec {
	return Spec{Kind: KindAbsolute, Thresholds: append([]Threshold(nil), p.Thresholds...)}
}

func (p *Absolute) Validate() error {
	if len(p.Thresholds) == 0 {
		return paramErr("thresholds", "at least one threshold is required")
	}
	gs := make([]grade.Grade, len(p.Thresholds))
	for i, t := range p.Thresholds {
		gs[i] = t.Grade
		if math.IsNaN(t.Min) || math.IsInf(t.Min, 0) {
			return paramErr(fmt.Sprintf("thresholds[%d].min", i), "threshold must be finite")
		}
		if i > 0 && t.Min >= p.Thresholds[i-1].Min {
			return paramErr(fmt.Sprintf("thresholds[%d].min", i),
				"thresholds must be strictly descending: %g follows %g", t.Min, p.Thresholds[i-1].Min)
		}
	}
	return checkGradeOrder("thresholds", gs)
}

// Assign grades every score or fails on the first one below the lowest
// threshold.
func (p *Absolute) Assign(scores []scoreset.Score, _ stats.Descriptive) ([]grade.Grade, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]grade.Grade, len(scores))
	for i, s := range scores {
		g, ok := p.match(s.Value)
		if !ok {
			lowest := p.Thresholds[len(p.Thresholds)-1]
			return nil, &RowError{Index: s.Index, ID: s.ID, Score: s.Value,
				Err: fmt.Errorf("%w: below lowest threshold %s=%g", ErrNoMatchingThreshold, lowest.Grade, lowest.Min)}
		}
		out[i] = g
	}
	return out, nil
}

func (p *Absolute) match(v float64) (grade.Grade, bool) {
	for _, t := range p.Thresholds {
		if v >= t.Min {
			return t.Grade, true
		}
	}
	return "", false
}
