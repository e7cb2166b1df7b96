// Package extract centralizes all numeric coercion of raw dataset cells.
// Call sites never parse cell values themselves; every path through the
// pipeline that needs a number goes through Numeric.
package extract

import (
	"math"
	"strconv"
	"strings"

	"psephos/domain/core"
	"psephos/domain/dataset"
)

// Numeric coerces the cell at key into a finite float64. The second return
// is false for every failure path: absent key, nil, empty or unparseable
// string, NaN, infinity. It never panics.
func Numeric(rec dataset.Record, key core.MetricKey) (float64, bool) {
	raw, ok := rec.Value(key)
	if !ok || raw == nil {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseString(v)
	default:
		return 0, false
	}
}

// parseString parses a numeric string, tolerating surrounding whitespace and
// thousands-separator commas ("1,234.5" -> 1234.5).
func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
