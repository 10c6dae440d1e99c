// Package summary aggregates a grade assignment into per-grade counts.
package summary

import (
	"github.com/okian/gradecurve/internal/domain/assignment"
	"github.com/okian/gradecurve/internal/domain/grade"
)

// Count is the number of rows that earned Grade. Percent is relative to the
// graded rows.
type Count struct {
	Grade   grade.Grade `json:"grade"`
	Count   int         `json:"count"`
	Percent float64     `json:"percent"`
}

// Summary lists every canonical grade in canonical order, zero counts
// included.
type Summary struct {
	Counts   []Count `json:"counts"`
	Graded   int     `json:"graded"`
	Ungraded int     `json:"ungraded"`
	Total    int     `json:"total"`
}

// Build counts grades. A nil or empty assignment yields an all-zero summary.
func Build(a *assignment.Assignment) Summary {
	order := grade.Canonical()
	pos := make(map[grade.Grade]int, len(order))
	s := Summary{Counts: make([]Count, len(order))}
	for i, g := range order {
		pos[g] = i
		s.Counts[i].Grade = g
	}

	if a != nil {
		for _, r := range a.Rows {
			s.Total++
			i, ok := pos[r.Grade]
			if !r.Graded || !ok {
				s.Ungraded++
				continue
			}
			s.Graded++
			s.Counts[i].Count++
		}
	}

	if s.Graded > 0 {
		for i := range s.Counts {
			s.Counts[i].Percent = 100 * float64(s.Counts[i].Count) / float64(s.Graded)
		}
	}
	return s
}

// Of returns the count for g, or zero when g is not canonical.
func (s Summary) Of(g grade.Grade) int {
	for _, c := range s.Counts {
		if c.Grade == g {
			return c.Count
		}
	}
	return 0
}

// NonZero returns only the grades that were awarded, in canonical order.
func (s Summary) NonZero() []Count {
	out := make([]Count, 0, len(s.Counts))
	for _, c := range s.Counts {
		if c.Count > 0 {
			out = append(out, c)
		}
	}
	return out
}
