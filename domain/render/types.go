// Package render holds the render-ready value types handed to the chart and
// map surfaces. Everything here is plain data: the browser-side adapters map
// these onto whatever plotting and mapping libraries are in use.
package render

import "psephos/domain/core"

// Pair is one (x, y) observation handed to the statistics engine.
type Pair struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LinePoint is one sampled point of the fitted regression line.
type LinePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProcessedPoint is one plotted constituency. X and Y are always finite;
// records failing validity filters are excluded rather than plotted with
// placeholder values.
type ProcessedPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
	ID    string  `json:"id"`
}

// StatisticsResult summarizes the relationship over the finite (x, y) pairs.
// PearsonR, RSquared and PValue are nil when the statistics are undefined
// (too few points or zero variance); N always reports the actual pair count
// so the UI can say "N=3, insufficient data".
type StatisticsResult struct {
	PearsonR       *float64    `json:"pearson_r,omitempty"`
	RSquared       *float64    `json:"r_squared,omitempty"`
	PValue         *float64    `json:"p_value,omitempty"`
	N              int         `json:"n"`
	RegressionLine []LinePoint `json:"regression_line,omitempty"`
}

// Defined reports whether the correlation statistics are usable.
func (s StatisticsResult) Defined() bool {
	return s.PearsonR != nil && s.RSquared != nil
}

// Palette is a 5-color scale plus the sentinel color used for missing or
// zero-valued (no data) features.
type Palette struct {
	Colors [5]string `json:"colors"`
	NoData string    `json:"no_data"`
}

// ColorBinning carries the quintile breakpoints for one metric. Empty
// breakpoints signal fallback mode (fewer than 5 positive values observed);
// Min and Max then drive linear interpolation across the palette.
type ColorBinning struct {
	Breakpoints []float64 `json:"breakpoints"` // 4 non-decreasing quantiles, or empty
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Positive    int       `json:"positive"` // count of positive values observed
}

// Fallback reports whether quintile breakpoints were unavailable.
func (b ColorBinning) Fallback() bool {
	return len(b.Breakpoints) == 0
}

// PointStyle is the per-point visual emphasis projection. It is computed on
// the highlight fast path, without touching the processed dataset.
type PointStyle struct {
	Size        float64 `json:"size"`
	BorderColor string  `json:"border_color"`
	BorderWidth float64 `json:"border_width"`
	Opacity     float64 `json:"opacity"`
}

// ChartData is the render-ready configuration for the scatter surface.
type ChartData struct {
	Points   []ProcessedPoint `json:"points"`
	Colors   []string         `json:"colors"` // one resolved color per point, x-binning
	Styles   []PointStyle     `json:"styles"` // one style per point, highlight-derived
	Stats    StatisticsResult `json:"stats"`
	Binning  ColorBinning     `json:"binning"`
	Summary  string           `json:"summary"` // e.g. "r = 0.82, R² = 0.67, N = 543"
	XLabel   string           `json:"x_label"`
	YLabel   string           `json:"y_label"`
}

// MapPaint is the discrete feature-code → fill-color mapping for one map
// surface. Codes absent from the mapping paint as NoData on the client.
type MapPaint struct {
	Fill   map[core.ConstituencyCode]string `json:"fill"`
	NoData string                           `json:"no_data"`
}

// OutlineFilter drives the single-feature highlight outline layer on a map
// surface. When Visible is false the code is empty.
type OutlineFilter struct {
	Code    core.ConstituencyCode `json:"code"`
	Visible bool                  `json:"visible"`
}

// MapPair bundles the two choropleth surfaces: left keyed by the political
// variable, right keyed by the socio-economic metric.
type MapPair struct {
	Left    MapPaint      `json:"left"`
	Right   MapPaint      `json:"right"`
	Outline OutlineFilter `json:"outline"`
}
