package policy

import (
	"encoding/json"
	"math"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// minDFloorSigma is the C- floor; D must start strictly below it.
const minDFloorSigma = 2.0

// formulaBands holds the lower bound of each band above D, in standard
// deviations from the mean, best first.
var formulaBands = []struct {
	grade grade.Grade
	sigma float64
}{
	{grade.A, 1.5},
	{grade.AMinus, 1},
	{grade.BPlus, 0.5},
	{grade.B, -0.5},
	{grade.BMinus, -1},
	{grade.CPlus, -4.0 / 3},
	{grade.C, -5.0 / 3},
	{grade.CMinus, -2},
}

// Band is the half-open score interval [Lower, Upper) that earns Grade.
// Unbounded ends are infinite and encode as null.
type Band struct {
	Grade grade.Grade
	Lower float64
	Upper float64
}

// Contains reports whether x falls inside the band.
func (b Band) Contains(x float64) bool {
	return x >= b.Lower && x < b.Upper
}

type bandJSON struct {
	Grade grade.Grade `json:"grade"`
	Lower *float64    `json:"lower"`
	Upper *float64    `json:"upper"`
}

func finitePtr(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(bandJSON{Grade: b.Grade, Lower: finitePtr(b.Lower), Upper: finitePtr(b.Upper)})
}

func (b *Band) UnmarshalJSON(data []byte) error {
	var raw bandJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Grade = raw.Grade
	b.Lower, b.Upper = math.Inf(-1), math.Inf(1)
	if raw.Lower != nil {
		b.Lower = *raw.Lower
	}
	if raw.Upper != nil {
		b.Upper = *raw.Upper
	}
	return nil
}

// Formula grades relative to the mean in standard-deviation bands:
//
//	A  [μ+1.5σ, +∞)     A- [μ+σ, μ+1.5σ)     B+ [μ+0.5σ, μ+σ)
//	B  [μ-0.5σ, μ+0.5σ) B- [μ-σ, μ-0.5σ)     C+ [μ-4σ/3, μ-σ)
//	C  [μ-5σ/3, μ-4σ/3) C- [μ-2σ, μ-5σ/3)    D  [μ-dσ, μ-2σ)
//	F  (-∞, μ-dσ)
//
// d is DFloorSigma and has no default: it must be stated by the caller and be
// greater than 2. When σ is zero every score sits on the mean and earns B.
type Formula struct {
	DFloorSigma float64
}

func (p *Formula) Kind() Kind { return KindRelativeFormula }

func (p *Formula) Spec() Spec {
	return Spec{Kind: KindRelativeFormula, DFloorSigma: p.DFloorSigma}
}

func (p *Formula) Validate() error {
	switch {
	case p.DFloorSigma == 0:
		return paramErr("d_floor_sigma", "the D band floor must be set explicitly (e.g. 2.5 for μ-2.5σ)")
	case math.IsNaN(p.DFloorSigma) || math.IsInf(p.DFloorSigma, 0):
		return paramErr("d_floor_sigma", "must be finite")
	case p.DFloorSigma <= minDFloorSigma:
		return paramErr("d_floor_sigma", "must be greater than %g so D lies below C-, got %g", minDFloorSigma, p.DFloorSigma)
	}
	return nil
}

// Bands returns the partition of the real line for the given statistics,
// best first. Each band's Upper equals the Lower of the band above it.
func (p *Formula) Bands(d stats.Descriptive) []Band {
	out := make([]Band, 0, len(formulaBands)+2)
	upper := math.Inf(1)
	for _, fb := range formulaBands {
		lower := d.Mean + fb.sigma*d.StdDev
		out = append(out, Band{Grade: fb.grade, Lower: lower, Upper: upper})
		upper = lower
	}
	dLower := d.Mean - p.DFloorSigma*d.StdDev
	out = append(out,
		Band{Grade: grade.D, Lower: dLower, Upper: upper},
		Band{Grade: grade.F, Lower: math.Inf(-1), Upper: dLower},
	)
	return out
}

func (p *Formula) Assign(scores []scoreset.Score, d stats.Descriptive) ([]grade.Grade, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make([]grade.Grade, len(scores))
	if d.StdDev == 0 {
		for i := range out {
			out[i] = grade.B
		}
		return out, nil
	}

	bands := p.Bands(d)
	for i, s := range scores {
		out[i] = grade.F
		for _, b := range bands {
			if s.Value >= b.Lower {
				out[i] = b.Grade
				break
			}
		}
	}
	return out, nil
}
