package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Sheet file names inside a workbook directory.
const (
	SheetList     = "LIST.csv"
	SheetMsgs     = "MSGS.csv"
	SheetDocs     = "DOCS.csv"
	SheetMedia    = "MEDIA.csv"
	SheetSettings = "SETTINGS.csv"
)

// Column headers. Lookup is always by header name; column order in the
// files is irrelevant.
const (
	colSender    = "Sender"
	colPhone     = "Phone Number"
	colName      = "Name"
	colCourse    = "Course of Interest"
	colMsgCode   = "Message Code"
	colDocCode   = "Document Code"
	colMediaCode = "Media Code"
	colStatus    = "Status"

	colMessage      = "Message Encoded"
	colSettingName  = "Setting Name"
	colSettingValue = "Value"
)

// sheet is one parsed CSV file: a header-name index plus the raw rows.
type sheet struct {
	path    string
	header  []string
	columns map[string]int
	rows    [][]string
}

func readSheet(path string) (*sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", path)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[name] = i
	}

	return &sheet{path: path, header: records[0], columns: columns, rows: records[1:]}, nil
}

// col returns the index of a named column, or an error naming the sheet.
func (s *sheet) col(name string) (int, error) {
	idx, ok := s.columns[name]
	if !ok {
		return 0, fmt.Errorf("sheet %s is missing column %q", s.path, name)
	}
	return idx, nil
}

// cell returns the value at (row, column index), tolerating short rows.
func (s *sheet) cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// write persists the header and rows back to the sheet file.
func (s *sheet) write() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("rewrite sheet: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(s.rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
