package policy

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// quotaEpsilon absorbs float noise such as 0.3*100 = 30.000000000000004
// before rounding up.
const quotaEpsilon = 1e-9

// DefaultQuotas is the distribution used when nothing else is configured.
func DefaultQuotas() []Quota {
	return []Quota{
		{Grade: grade.A, Percent: 20},
		{Grade: grade.B, Percent: 30},
		{Grade: grade.C, Percent: 30},
		{Grade: grade.D, Percent: 15},
		{Grade: grade.F, Percent: 5},
	}
}

// Percentile hands out grades by rank. Scores are sorted best first and
// each grade but the last takes the next ceil(percent×N/100) rows; the last
// grade takes whatever is left. Equal scores that straddle a cutoff can
// receive different grades.
type Percentile struct {
	Quotas []Quota
}

// NewPercentile validates quotas and returns the policy.
func NewPercentile(quotas ...Quota) (*Percentile, error) {
	p := &Percentile{Quotas: quotas}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Percentile) Kind() Kind { return KindRelativePercentile }

func (p *Percentile) Spec() Spec {
	return Spec{Kind: KindRelativePercentile, Quotas: append([]Quota(nil), p.Quotas...)}
}

func (p *Percentile) Validate() error {
	if len(p.Quotas) == 0 {
		return paramErr("quotas", "at least one quota is required")
	}
	gs := make([]grade.Grade, len(p.Quotas))
	sum := 0.0
	for i, q := range p.Quotas {
		gs[i] = q.Grade
		if math.IsNaN(q.Percent) || q.Percent < 0 || q.Percent > 100 {
			return paramErr(fmt.Sprintf("quotas[%d].percent", i), "must be within [0, 100], got %g", q.Percent)
		}
		sum += q.Percent
	}
	if err := checkGradeOrder("quotas", gs); err != nil {
		return err
	}
	if sum > 100+quotaEpsilon {
		return &ParamError{Param: "quotas", Reason: fmt.Sprintf("declared quotas sum to %g%%, more than 100%%", sum), Err: ErrQuotaOverflow}
	}
	return nil
}

// Sizes returns how many of n rows each quota receives. The sizes always
// sum to n.
func (p *Percentile) Sizes(n int) []int {
	sizes := make([]int, len(p.Quotas))
	if len(sizes) == 0 {
		return sizes
	}
	remaining := n
	last := len(p.Quotas) - 1
	for i, q := range p.Quotas[:last] {
		k := int(math.Ceil(q.Percent*float64(n)/100 - quotaEpsilon))
		k = max(0, min(k, remaining))
		sizes[i] = k
		remaining -= k
	}
	sizes[last] = remaining
	return sizes
}

func (p *Percentile) Assign(scores []scoreset.Score, _ stats.Descriptive) ([]grade.Grade, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]].Value > scores[order[b]].Value
	})

	out := make([]grade.Grade, len(scores))
	cursor := 0
	for qi, size := range p.Sizes(len(scores)) {
		for _, idx := range order[cursor : cursor+size] {
			out[idx] = p.Quotas[qi].Grade
		}
		cursor += size
	}
	return out, nil
}
