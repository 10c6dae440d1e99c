// Package table loads score tables from CSV and Excel workbooks into raw
// score rows. Cell text is passed through untouched so that the score set
// decides what counts as invalid.
package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/gradecurve/internal/domain/scoreset"
	"github.com/okian/gradecurve/pkg/metrics"
	"github.com/xuri/excelize/v2"
)

// Format names a supported table encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf maps a file name to its format by extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Loader finds the score column (and optionally a student id column) in a
// table. Header names are matched case-insensitively, in list order.
type Loader struct {
	ScoreColumns []string
	IDColumns    []string
}

// NewLoader returns a Loader with the given header candidates. Empty score
// candidates fall back to Score and Scores.
func NewLoader(scoreColumns, idColumns []string) *Loader {
	if len(scoreColumns) == 0 {
		scoreColumns = []string{"Score", "Scores"}
	}
	return &Loader{ScoreColumns: scoreColumns, IDColumns: idColumns}
}

// Load reads the table at path.
func (l *Loader) Load(ctx context.Context, path string) ([]scoreset.Row, error) {
	format, err := FormatOf(path)
	if err != nil {
		metrics.Default().RecordFileLoad("unknown", metrics.OutcomeInvalid)
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		metrics.Default().RecordFileLoad(string(format), metrics.OutcomeError)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return l.Read(ctx, f, format, path)
}

// Read parses a table of the given format from r. source is used in error
// messages only.
func (l *Loader) Read(ctx context.Context, r io.Reader, format Format, source string) (rows []scoreset.Row, err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeInvalid
		}
		metrics.Default().RecordFileLoad(string(format), outcome)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	rows, err = l.rows(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return rows, nil
}

func (l *Loader) rows(records [][]string) ([]scoreset.Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	scoreCol := findColumn(header, l.ScoreColumns)
	if scoreCol < 0 {
		return nil, fmt.Errorf("%w: want one of %s, have %s", ErrMissingColumn,
			strings.Join(l.ScoreColumns, ", "), strings.Join(header, ", "))
	}
	idCol := findColumn(header, l.IDColumns)

	out := make([]scoreset.Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := scoreset.Row{Index: i, Raw: cell(rec, scoreCol)}
		if idCol >= 0 {
			row.ID = strings.TrimSpace(cell(rec, idCol))
		}
		out = append(out, row)
	}
	return out, nil
}

func findColumn(header, candidates []string) int {
	for _, want := range candidates {
		for i, have := range header {
			if strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want)) {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %w", ErrUnsupportedFormat, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return records, nil
}
