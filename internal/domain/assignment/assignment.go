// Package assignment pairs every input row with exactly one grade.
package assignment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/scoreset"
)

// ErrCardinality is returned when a policy hands back a different number of
// grades than there are gradable scores.
var ErrCardinality = errors.New("grade count does not match score count")

// Row is one graded or excluded row.
type Row struct {
	Index  int         `json:"index"`
	ID     string      `json:"id,omitempty"`
	Score  float64     `json:"score"`
	Raw    string      `json:"raw,omitempty"`
	Graded bool        `json:"graded"`
	Grade  grade.Grade `json:"grade"`
}

// Assignment is ordered by source row index and covers the same index set as
// the rows the score set was built from.
type Assignment struct {
	Rows []Row `json:"rows"`
}

// Build merges grades, aligned with set.Scores(), with the excluded rows of
// set. Excluded rows carry grade.NotGraded.
func Build(set *scoreset.Set, grades []grade.Grade) (*Assignment, error) {
	scores := set.Scores()
	if len(scores) != len(grades) {
		return nil, fmt.Errorf("%w: %d scores, %d grades", ErrCardinality, len(scores), len(grades))
	}

	excluded := set.Excluded()
	rows := make([]Row, 0, len(scores)+len(excluded))
	for i, s := range scores {
		if !grades[i].Valid() {
			return nil, fmt.Errorf("row %d: %w: %q", s.Index, grade.ErrUnknownGrade, grades[i])
		}
		rows = append(rows, Row{Index: s.Index, ID: s.ID, Score: s.Value, Graded: true, Grade: grades[i]})
	}
	for _, e := range excluded {
		rows = append(rows, Row{Index: e.Index, ID: e.ID, Raw: e.Raw, Grade: grade.NotGraded})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	return &Assignment{Rows: rows}, nil
}

// Len returns the number of rows, graded or not.
func (a *Assignment) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Rows)
}

// Grades returns the grade of every row in row order.
func (a *Assignment) Grades() []grade.Grade {
	if a == nil {
		return nil
	}
	out := make([]grade.Grade, len(a.Rows))
	for i, r := range a.Rows {
		out[i] = r.Grade
	}
	return out
}

// Lookup returns the row with the given source index.
func (a *Assignment) Lookup(index int) (Row, bool) {
	if a == nil {
		return Row{}, false
	}
	i := sort.Search(len(a.Rows), func(i int) bool { return a.Rows[i].Index >= index })
	if i < len(a.Rows) && a.Rows[i].Index == index {
		return a.Rows[i], true
	}
	return Row{}, false
}
