// Package export renders grading reports as CSV, Excel workbooks, JSON and
// plain-text summaries.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/okian/gradecurve/pkg/metrics"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Ext returns the file extension for f, dot included.
func (f Format) Ext() string { return "." + string(f) }

// Write encodes r to w.
func Write(w io.Writer, r *report.Report, format Format) error {
	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(w, r)
	case FormatXLSX:
		err = writeXLSX(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	metrics.Default().RecordExport(string(format))
	return nil
}

// gradeHeader is the per-row table header shared by csv and xlsx.
func gradeHeader(r *report.Report) []string {
	h := []string{"Index"}
	if r.HasIDs() {
		h = append(h, "ID")
	}
	h = append(h, "Score")
	if r.Standardized {
		h = append(h, "Standardized Score")
	}
	return append(h, "Grade")
}

// scoreText is the graded value, or the original cell text for rows that
// were not graded.
func scoreText(row report.Row) string {
	if !row.Graded {
		return row.Raw
	}
	return formatFloat(row.Score)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(w io.Writer, r *report.Report) error {
	cw := csv.NewWriter(w)
	ids := r.HasIDs()

	if err := cw.Write(gradeHeader(r)); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{strconv.Itoa(row.Index)}
		if ids {
			rec = append(rec, row.ID)
		}
		rec = append(rec, scoreText(row))
		if r.Standardized {
			z := ""
			if row.Standardized != nil {
				z = strconv.FormatFloat(*row.Standardized, 'f', 4, 64)
			}
			rec = append(rec, z)
		}
		rec = append(rec, string(row.Grade))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	// csv.Writer cannot emit an empty record, so the separator goes through
	// the underlying writer after a flush.
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	if err := cw.Write([]string{"Grade", "Count", "Percent"}); err != nil {
		return err
	}
	for _, c := range r.Summary.Counts {
		if err := cw.Write([]string{string(c.Grade), strconv.Itoa(c.Count), strconv.FormatFloat(c.Percent, 'f', 2, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
