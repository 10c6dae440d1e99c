package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/internal/domain/stats"
)

// WriteText prints the run header, descriptive statistics and the grade
// distribution in aligned columns.
func WriteText(w io.Writer, r *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := r.Stats

	fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Policy:\t%s\n", describePolicy(r.Policy))
	fmt.Fprintf(tw, "Rows:\t%d graded, %d not graded\n", r.Summary.Graded, r.Summary.Ungraded)
	fmt.Fprintln(tw)

	writeStats(tw, s)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "Grade\tCount\tPercent")
	for _, c := range r.Summary.Counts {
		fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", c.Grade, c.Count, c.Percent)
	}
	return tw.Flush()
}

func describePolicy(s policy.Spec) string {
	switch s.Kind {
	case policy.KindRelativeFormula:
		return fmt.Sprintf("%s (D floor %gσ below mean)", s.Kind, s.DFloorSigma)
	case policy.KindAbsolute:
		return fmt.Sprintf("%s (%d thresholds)", s.Kind, len(s.Thresholds))
	case policy.KindRelativePercentile:
		return fmt.Sprintf("%s (%d quotas)", s.Kind, len(s.Quotas))
	default:
		return string(s.Kind)
	}
}

// WriteStats prints descriptive statistics for source.
func WriteStats(w io.Writer, source string, d stats.Descriptive) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Source:\t%s\n\n", source)
	writeStats(tw, d)
	return tw.Flush()
}

func writeStats(tw *tabwriter.Writer, s stats.Descriptive) {
	fmt.Fprintln(tw, "Statistic\tValue")
	fmt.Fprintf(tw, "Count\t%d\n", s.Count)
	fmt.Fprintf(tw, "Mean\t%.4f\n", s.Mean)
	fmt.Fprintf(tw, "Std Dev\t%.4f\n", s.StdDev)
	fmt.Fprintf(tw, "Variance\t%.4f\n", s.Variance)
	fmt.Fprintf(tw, "Skewness\t%.4f\n", s.Skewness)
	fmt.Fprintf(tw, "Min\t%g\n", s.Min)
	fmt.Fprintf(tw, "Max\t%g\n", s.Max)
	fmt.Fprintf(tw, "Median\t%g\n", s.Median)
}
