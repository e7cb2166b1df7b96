package dataset

import (
	"fmt"
	"sort"
	"strings"

	"psephos/domain/core"
)

// Record represents one constituency row. Values holds the raw cell for each
// metric key exactly as ingested (string, float64, int, or nil); all numeric
// coercion happens downstream in the extractor. Records are immutable once
// loaded.
type Record struct {
	Name   string         `json:"name"`
	Code   string         `json:"code"`
	Values map[string]any `json:"values"`
}

// Value returns the raw cell for a metric key.
func (r Record) Value(key core.MetricKey) (any, bool) {
	v, ok := r.Values[string(key)]
	return v, ok
}

// Dataset is a fixed-order sequence of records for one session, with name and
// code lookups built at load time.
type Dataset struct {
	Records []Record

	byName map[string]int
	byCode map[string]int
}

// New builds a dataset from records, validating shape and building indexes.
// Records missing a name or code fail the whole load: a dataset that cannot
// join against the geographic layer cannot render.
func New(records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	ds := &Dataset{
		Records: records,
		byName:  make(map[string]int, len(records)),
		byCode:  make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("record %d has no name", i)
		}
		if strings.TrimSpace(rec.Code) == "" {
			return nil, fmt.Errorf("record %q has no code", rec.Name)
		}
		ds.byName[strings.ToLower(rec.Name)] = i
		ds.byCode[rec.Code] = i
	}

	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// ByName resolves an exact constituency name (case-insensitive) to its record.
func (d *Dataset) ByName(name string) (Record, bool) {
	i, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Record{}, false
	}
	return d.Records[i], true
}

// ByCode resolves a feature code to its record.
func (d *Dataset) ByCode(code core.ConstituencyCode) (Record, bool) {
	i, ok := d.byCode[string(code)]
	if !ok {
		return Record{}, false
	}
	return d.Records[i], true
}

// CodeFor resolves a constituency name to its feature code. The geographic
// layer is keyed by code while the UI is keyed by name, so every outline
// filter goes through this lookup.
func (d *Dataset) CodeFor(name string) (core.ConstituencyCode, bool) {
	rec, ok := d.ByName(name)
	if !ok {
		return "", false
	}
	return core.ConstituencyCode(rec.Code), true
}

// SearchNames returns up to limit constituency names containing the query,
// case-insensitively, sorted alphabetically. Queries shorter than two runes
// return nothing.
func (d *Dataset) SearchNames(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < 2 || limit <= 0 {
		return nil
	}

	var matches []string
	for _, rec := range d.Records {
		if strings.Contains(strings.ToLower(rec.Name), q) {
			matches = append(matches, rec.Name)
		}
	}
	sort.Strings(matches)

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
