// Package scoreset holds the validated, immutable collection of numeric
// scores that a grading run works on.
package scoreset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InvalidPolicy decides what happens to rows whose score is missing or not a
// finite number.
type InvalidPolicy string

const (
	// RejectAll fails the whole construction on the first invalid row.
	RejectAll InvalidPolicy = "reject_all"
	// ExcludeAndMark drops invalid rows from grading and reports them back.
	ExcludeAndMark InvalidPolicy = "exclude_and_mark"
)

// ParseInvalidPolicy validates a policy name. Empty input selects RejectAll.
func ParseInvalidPolicy(s string) (InvalidPolicy, error) {
	switch InvalidPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectAll:
		return RejectAll, nil
	case ExcludeAndMark:
		return ExcludeAndMark, nil
	default:
		return "", fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidPolicy, s, RejectAll, ExcludeAndMark)
	}
}

// Row is one raw row handed over by the input collaborator.
type Row struct {
	Index int    // position in the source table, 0-based
	ID    string // optional student identifier
	Raw   string // cell text of the score column
}

// Score is a validated score.
type Score struct {
	Index int
	ID    string
	Value float64
}

// Excluded is a row left out of grading under ExcludeAndMark.
type Excluded struct {
	Index  int
	ID     string
	Raw    string
	Reason string
}

// Set is an ordered, immutable collection of finite scores.
type Set struct {
	scores   []Score
	excluded []Excluded
}

// FromRows validates raw rows and builds a Set. Row order is preserved.
func FromRows(rows []Row, onInvalid InvalidPolicy) (*Set, error) {
	if onInvalid != RejectAll && onInvalid != ExcludeAndMark {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPolicy, onInvalid)
	}
	if err := checkUnique(rows); err != nil {
		return nil, err
	}

	s := &Set{scores: make([]Score, 0, len(rows))}
	for _, r := range rows {
		v, reason := parse(r.Raw)
		if reason == "" {
			s.scores = append(s.scores, Score{Index: r.Index, ID: r.ID, Value: v})
			continue
		}
		if onInvalid == RejectAll {
			return nil, &RowError{Index: r.Index, ID: r.ID, Raw: r.Raw, Reason: reason, Err: ErrInvalidScore}
		}
		s.excluded = append(s.excluded, Excluded{Index: r.Index, ID: r.ID, Raw: r.Raw, Reason: reason})
	}
	return s, nil
}

// FromValues builds a Set from numeric values indexed by position.
func FromValues(values []float64) (*Set, error) {
	s := &Set{scores: make([]Score, len(values))}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &RowError{Index: i, Raw: strconv.FormatFloat(v, 'g', -1, 64), Reason: "not a finite number", Err: ErrInvalidScore}
		}
		s.scores[i] = Score{Index: i, Value: v}
	}
	return s, nil
}

func parse(raw string) (float64, string) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return 0, "missing score"
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, "not a number"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "not a finite number"
	}
	return v, ""
}

func checkUnique(rows []Row) error {
	indices := make(map[int]struct{}, len(rows))
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := indices[r.Index]; dup {
			return &RowError{Index: r.Index, ID: r.ID, Raw: r.Raw, Reason: "duplicate row index", Err: ErrDuplicateRow}
		}
		indices[r.Index] = struct{}{}
		if r.ID == "" {
			continue
		}
		if _, dup := ids[r.ID]; dup {
			return &RowError{Index: r.Index, ID: r.ID, Raw: r.Raw, Reason: "duplicate student id", Err: ErrDuplicateRow}
		}
		ids[r.ID] = struct{}{}
	}
	return nil
}

// Len returns the number of gradable scores.
func (s *Set) Len() int { return len(s.scores) }

// Total returns gradable plus excluded rows.
func (s *Set) Total() int { return len(s.scores) + len(s.excluded) }

// Scores returns a copy of the gradable scores in input order.
func (s *Set) Scores() []Score {
	out := make([]Score, len(s.scores))
	copy(out, s.scores)
	return out
}

// Values returns the score values in input order.
func (s *Set) Values() []float64 {
	out := make([]float64, len(s.scores))
	for i, sc := range s.scores {
		out[i] = sc.Value
	}
	return out
}

// Excluded returns a copy of the rows left out of grading.
func (s *Set) Excluded() []Excluded {
	out := make([]Excluded, len(s.excluded))
	copy(out, s.excluded)
	return out
}
