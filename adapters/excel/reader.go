// Package excel reads constituency datasets from XLSX workbooks.
package excel

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"psephos/domain/dataset"
	"psephos/internal/errors"
)

// Reader loads the first sheet of an XLSX workbook into a Dataset. Cells are
// kept as the strings excelize returns; coercion happens in the extractor.
type Reader struct {
	filePath   string
	nameColumn string
	codeColumn string
}

// NewReader creates an XLSX dataset reader.
func NewReader(filePath, nameColumn, codeColumn string) *Reader {
	return &Reader{filePath: filePath, nameColumn: nameColumn, codeColumn: codeColumn}
}

// Read loads and validates the full dataset.
func (r *Reader) Read() (*dataset.Dataset, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.DataShape("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	log.Printf("[ExcelReader] %s read in %.2fms (%d rows)",
		r.filePath, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.DataShape("workbook must have a header row and at least one data row")
	}

	header := rows[0]
	nameIdx, codeIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case strings.ToLower(r.nameColumn):
			nameIdx = i
		case strings.ToLower(r.codeColumn):
			codeIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, errors.DataShape(fmt.Sprintf("name column %q not found in header", r.nameColumn))
	}
	if codeIdx < 0 {
		return nil, errors.DataShape(fmt.Sprintf("code column %q not found in header", r.codeColumn))
	}

	records := make([]dataset.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := make(map[string]any, len(header))
		for i, col := range header {
			if i == nameIdx || i == codeIdx || i >= len(row) {
				continue
			}
			values[strings.TrimSpace(col)] = row[i]
		}

		rec := dataset.Record{Values: values}
		if nameIdx < len(row) {
			rec.Name = strings.TrimSpace(row[nameIdx])
		}
		if codeIdx < len(row) {
			rec.Code = strings.TrimSpace(row[codeIdx])
		}
		records = append(records, rec)
	}

	ds, err := dataset.New(records)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDataShape, err)
	}
	return ds, nil
}
