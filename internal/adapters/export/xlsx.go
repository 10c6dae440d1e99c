package export

import (
	"io"
	"math"

	"github.com/okian/gradecurve/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	sheetGrades     = "Grades"
	sheetSummary    = "Summary"
	sheetStatistics = "Statistics"
)

type workbook struct {
	f    *excelize.File
	bold int
}

func writeXLSX(w io.Writer, r *report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	wb := &workbook{f: f, bold: bold}

	if err := f.SetSheetName("Sheet1", sheetGrades); err != nil {
		return err
	}
	if err := wb.grades(r); err != nil {
		return err
	}
	if err := wb.summary(r); err != nil {
		return err
	}
	if err := wb.statistics(r); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

// table writes header and rows starting at A1, bolds the header and freezes
// it.
func (wb *workbook) table(sheet string, header []string, rows [][]any) error {
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := wb.f.SetCellStyle(sheet, "A1", last, wb.bold); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return wb.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (wb *workbook) grades(r *report.Report) error {
	ids := r.HasIDs()
	rows := make([][]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := []any{row.Index}
		if ids {
			rec = append(rec, row.ID)
		}
		if row.Graded {
			rec = append(rec, row.Score)
		} else {
			rec = append(rec, row.Raw)
		}
		if r.Standardized {
			if row.Standardized != nil {
				rec = append(rec, *row.Standardized)
			} else {
				rec = append(rec, nil)
			}
		}
		rows = append(rows, append(rec, string(row.Grade)))
	}
	return wb.table(sheetGrades, gradeHeader(r), rows)
}

func (wb *workbook) summary(r *report.Report) error {
	if _, err := wb.f.NewSheet(sheetSummary); err != nil {
		return err
	}
	rows := make([][]any, 0, len(r.Summary.Counts))
	for _, c := range r.Summary.Counts {
		rows = append(rows, []any{string(c.Grade), c.Count, math.Round(c.Percent*100) / 100})
	}
	return wb.table(sheetSummary, []string{"Grade", "Count", "Percent"}, rows)
}

func (wb *workbook) statistics(r *report.Report) error {
	if _, err := wb.f.NewSheet(sheetStatistics); err != nil {
		return err
	}
	s := r.Stats
	rows := [][]any{
		{"Policy", string(r.Policy.Kind)},
		{"Count", s.Count},
		{"Mean", s.Mean},
		{"Standard Deviation", s.StdDev},
		{"Variance", s.Variance},
		{"Skewness", s.Skewness},
		{"Min", s.Min},
		{"Max", s.Max},
		{"Median", s.Median},
		{"Graded", r.Summary.Graded},
		{"Not Graded", r.Summary.Ungraded},
	}
	for _, b := range r.Bands {
		rows = append(rows, []any{"Band " + string(b.Grade), bound(b.Lower) + " .. " + bound(b.Upper)})
	}
	if err := wb.table(sheetStatistics, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}
	return wb.f.SetColWidth(sheetStatistics, "A", "A", 20)
}

func bound(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return formatFloat(math.Round(v*1e4) / 1e4)
	}
}
