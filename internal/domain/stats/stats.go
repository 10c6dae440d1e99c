// Package stats computes descriptive statistics over a score set.
//
// Standard deviation and variance use the population convention (divisor N).
// Skewness is the third standardized moment m3 / m2^1.5 without small-sample
// adjustment.
package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/okian/gradecurve/internal/domain/scoreset"
)

// ErrEmptyInput is returned when there are no scores to describe.
var ErrEmptyInput = errors.New("empty input: no scores to grade")

// Descriptive is the statistics value object for one run.
type Descriptive struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	Skewness float64 `json:"skewness"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
}

// Of describes the gradable scores of set.
func Of(set *scoreset.Set) (Descriptive, error) {
	if set == nil {
		return Descriptive{}, ErrEmptyInput
	}
	return Describe(set.Values())
}

// Describe computes statistics over values. The input is not modified.
func Describe(values []float64) (Descriptive, error) {
	n := len(values)
	if n == 0 {
		return Descriptive{}, ErrEmptyInput
	}

	d := Descriptive{Count: n, Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		sum += v
		d.Min = math.Min(d.Min, v)
		d.Max = math.Max(d.Max, v)
	}
	d.Mean = sum / float64(n)

	var m2, m3 float64
	for _, v := range values {
		dev := v - d.Mean
		m2 += dev * dev
		m3 += dev * dev * dev
	}
	m2 /= float64(n)
	m3 /= float64(n)

	d.Variance = m2
	d.StdDev = math.Sqrt(m2)
	if m2 > 0 {
		d.Skewness = m3 / math.Pow(m2, 1.5)
	}
	d.Median = median(values)
	return d, nil
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// ZScore standardizes x against the mean and standard deviation. A set with
// no spread standardizes every score to 0.
func (d Descriptive) ZScore(x float64) float64 {
	if d.StdDev == 0 {
		return 0
	}
	return (x - d.Mean) / d.StdDev
}
