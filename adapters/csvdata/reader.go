// Package csvdata reads constituency datasets from CSV files. Cells are kept
// raw; numeric coercion is the extractor's job downstream.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"psephos/domain/dataset"
	"psephos/internal/errors"
)

// Reader loads a CSV file into a Dataset. The name and code columns are
// configured because published constituency files disagree on header naming
// ("Constituency", "constituency_name", "ONSConstID", ...).
type Reader struct {
	filePath   string
	nameColumn string
	codeColumn string
}

// NewReader creates a CSV dataset reader.
func NewReader(filePath, nameColumn, codeColumn string) *Reader {
	return &Reader{filePath: filePath, nameColumn: nameColumn, codeColumn: codeColumn}
}

// Read loads and validates the full dataset.
func (r *Reader) Read() (*dataset.Dataset, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	readStart := time.Now()
	records, err := r.parse(file)
	if err != nil {
		return nil, err
	}
	log.Printf("[CSVReader] %s read in %.2fms (%d records)",
		r.filePath, float64(time.Since(readStart).Nanoseconds())/1e6, len(records))

	ds, err := dataset.New(records)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDataShape, err)
	}
	return ds, nil
}

func (r *Reader) parse(src io.Reader) ([]dataset.Record, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.DataShape("CSV file must have a header row and at least one data row")
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

	return records, nil
}
