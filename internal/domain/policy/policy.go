// Package policy implements the interchangeable grading strategies.
//
// Every policy is a pure function of a score set (plus descriptive
// statistics for the relative policies) and returns one grade per score, in
// input order. Parameters are validated before any score is graded and a
// policy never returns partial output.
package policy

import (
	"fmt"
	"strings"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// Kind tags the policy variant.
type Kind string

const (
	KindAbsolute           Kind = "absolute"
	KindRelativeFormula    Kind = "relative_formula"
	KindRelativePercentile Kind = "relative_percentile"
)

// Kinds lists the supported policy kinds.
func Kinds() []Kind {
	return []Kind{KindAbsolute, KindRelativeFormula, KindRelativePercentile}
}

// ParseKind validates a policy name. "formula" and "percentile" are accepted
// as short forms.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAbsolute, KindRelativeFormula, KindRelativePercentile:
		return k, nil
	case "formula":
		return KindRelativeFormula, nil
	case "percentile":
		return KindRelativePercentile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Policy maps scores to grades.
type Policy interface {
	Kind() Kind
	// Validate checks the parameters without grading anything.
	Validate() error
	// Assign returns one grade per score, aligned with scores.
	Assign(scores []scoreset.Score, d stats.Descriptive) ([]grade.Grade, error)
	// Spec returns the serializable parameters.
	Spec() Spec
}

// Threshold is an inclusive lower bound for a grade.
type Threshold struct {
	Grade grade.Grade `koanf:"grade" json:"grade" yaml:"grade"`
	Min   float64     `koanf:"min" json:"min" yaml:"min"`
}

// Quota is a share of the population, in percent, for a grade.
type Quota struct {
	Grade   grade.Grade `koanf:"grade" json:"grade" yaml:"grade"`
	Percent float64     `koanf:"percent" json:"percent" yaml:"percent"`
}

// Spec is the serializable form of a policy's parameters, shared by config
// files, policy files, the HTTP API and the CLI.
type Spec struct {
	Kind        Kind        `koanf:"kind" json:"kind" yaml:"kind"`
	Thresholds  []Threshold `koanf:"thresholds" json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Quotas      []Quota     `koanf:"quotas" json:"quotas,omitempty" yaml:"quotas,omitempty"`
	DFloorSigma float64     `koanf:"d_floor_sigma" json:"d_floor_sigma,omitempty" yaml:"d_floor_sigma,omitempty"`
}

// Build validates the spec and returns the matching policy. Only the fields
// of the selected kind are used.
func (s Spec) Build() (Policy, error) {
	kind, err := ParseKind(string(s.Kind))
	if err != nil {
		return nil, err
	}

	var p Policy
	switch kind {
	case KindAbsolute:
		p = &Absolute{Thresholds: append([]Threshold(nil), s.Thresholds...)}
	case KindRelativeFormula:
		p = &Formula{DFloorSigma: s.DFloorSigma}
	case KindRelativePercentile:
		p = &Percentile{Quotas: append([]Quota(nil), s.Quotas...)}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// WithDefaults normalizes the kind name and fills thresholds or quotas when
// the selected kind has none. The formula D floor is never defaulted.
func (s Spec) WithDefaults() Spec {
	kind, err := ParseKind(string(s.Kind))
	if err != nil {
		return s
	}
	s.Kind = kind
	switch kind {
	case KindAbsolute:
		if len(s.Thresholds) == 0 {
			s.Thresholds = DefaultThresholds()
		}
	case KindRelativePercentile:
		if len(s.Quotas) == 0 {
			s.Quotas = DefaultQuotas()
		}
	}
	return s
}

// checkGradeOrder verifies that labels are canonical, unique and listed best
// first.
func checkGradeOrder(param string, gs []grade.Grade) error {
	prev := -1
	for i, g := range gs {
		if !g.Valid() {
			return paramErr(fmt.Sprintf("%s[%d].grade", param, i), "unknown grade %q", g)
		}
		if g.Rank() <= prev {
			return paramErr(fmt.Sprintf("%s[%d].grade", param, i), "grade %q is duplicated or out of canonical order", g)
		}
		prev = g.Rank()
	}
	return nil
}
