package gradestore

import (
	"fmt"
	"io"
	"strings"

	"github.com/studentgrades/gradebook/atomicfile"
	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is the name of the sheet in newly created files
const DefaultSheetName = "Sheet1"

// parseRows converts spreadsheet rows to records. First row is a header.
// Columns are located by header name so that re-ordered or extra columns
// are tolerated. Completely empty rows are skipped.
func parseRows(rows [][]string) ([]*StudentRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	colIdx := map[string]int{}
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}
	idx := make([]int, len(Columns))
	for i, col := range Columns {
		n, ok := colIdx[col]
		if !ok {
			return nil, fmt.Errorf("missing column '%s'", col)
		}
		idx[i] = n
	}

	cell := func(row []string, col int) string {
		n := idx[col]
		if n < len(row) {
			return row[n]
		}
		// excelize doesn't return trailing empty cells
		return ""
	}

	var res []*StudentRecord
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := &StudentRecord{
			ID:          cell(row, 0),
			Name:        cell(row, 1),
			Mathematics: cell(row, 2),
			OS:          cell(row, 3),
			DBMS:        cell(row, 4),
		}
		res = append(res, rec)
	}
	return res, nil
}

func isEmptyRow(row []string) bool {
	for _, s := range row {
		if s != "" {
			return false
		}
	}
	return true
}

// readSheet reads records from the first sheet of an .xlsx file
func readSheet(path string) ([]*StudentRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrStorageRead, path, err)
	}
	defer f.Close()
	return readFirstSheet(f, path)
}

func readFirstSheet(f *excelize.File, path string) ([]*StudentRecord, error) {
	wrap := func(err error) error {
		if path == "" {
			return fmt.Errorf("%w: %w", ErrStorageRead, err)
		}
		return fmt.Errorf("%w '%s': %w", ErrStorageRead, path, err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, wrap(fmt.Errorf("no sheets"))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, wrap(err)
	}
	recs, err := parseRows(rows)
	if err != nil {
		return nil, wrap(err)
	}
	return recs, nil
}

// ReadRecords parses a grades workbook from r, e.g. a downloaded backup
func ReadRecords(r io.Reader) ([]*StudentRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	defer f.Close()
	return readFirstSheet(f, "")
}

func setRow(f *excelize.File, rowNo int, vals []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	row := make([]any, len(vals))
	for i, v := range vals {
		row[i] = v
	}
	return f.SetSheetRow(DefaultSheetName, cell, &row)
}

// buildSheet creates a workbook with a header row and one row per record
func buildSheet(recs []*StudentRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	// NewFile() creates "Sheet1" but we don't want to depend on that
	if idx, _ := f.GetSheetIndex(DefaultSheetName); idx < 0 {
		if _, err := f.NewSheet(DefaultSheetName); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := setRow(f, 1, Columns); err != nil {
		f.Close()
		return nil, err
	}
	for i, rec := range recs {
		if err := setRow(f, i+2, rec.Row()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// writeSheet rewrites path in full. On error the previous content is kept.
func writeSheet(path string, recs []*StudentRecord) error {
	f, err := buildSheet(recs)
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrStorageWrite, path, err)
	}
	defer f.Close()

	err = atomicfile.WriteFile(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrStorageWrite, path, err)
	}
	return nil
}
