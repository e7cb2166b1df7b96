// Package colorscale maps metric values onto discrete 5-color quintile
// scales. The same binning drives the scatter point colors and both map
// legends, so the percentile method here is the single canonical one.
package colorscale

import (
	"math"

	"github.com/montanaflynn/stats"

	"psephos/domain/render"
)

// minPositiveForQuantiles is the smallest positive-value count for which
// quintile breakpoints are computed. Below it ColorFor falls back to linear
// min-max interpolation.
const minPositiveForQuantiles = 5

// Blues is the default sequential palette for socio-economic metrics (chart
// points and the right map).
var Blues = render.Palette{
	Colors: [5]string{"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"},
	NoData: "#cccccc",
}

// Oranges is the default sequential palette for the political variable (the
// left map).
var Oranges = render.Palette{
	Colors: [5]string{"#feedde", "#fdbe85", "#fd8d3c", "#e6550d", "#a63603"},
	NoData: "#cccccc",
}

// BuildBinning computes 20/40/60/80th percentile breakpoints over the
// strictly positive values. Zero and negative values are excluded: zero is
// the no-data sentinel in this domain. With fewer than five positive values
// the breakpoints are empty, signalling fallback mode; Min and Max still
// describe the positive range for interpolation.
func BuildBinning(values []float64) render.ColorBinning {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			positive = append(positive, v)
		}
	}

	binning := render.ColorBinning{Positive: len(positive)}
	if len(positive) == 0 {
		return binning
	}

	min, _ := stats.Min(positive)
	max, _ := stats.Max(positive)
	binning.Min = min
	binning.Max = max

	if len(positive) < minPositiveForQuantiles {
		return binning
	}

	breakpoints := make([]float64, 0, 4)
	for _, pct := range []float64{20, 40, 60, 80} {
		bp, err := stats.Percentile(positive, pct)
		if err != nil {
			// Percentile only fails on empty input, which is excluded
			// above; degrade to fallback mode rather than guessing.
			return render.ColorBinning{Positive: len(positive), Min: min, Max: max}
		}
		breakpoints = append(breakpoints, bp)
	}

	// Percentiles of a sorted sample are non-decreasing, but repair any
	// floating-point inversion so bucket scans stay ordered.
	for i := 1; i < len(breakpoints); i++ {
		if breakpoints[i] < breakpoints[i-1] {
			breakpoints[i] = breakpoints[i-1]
		}
	}

	binning.Breakpoints = breakpoints
	return binning
}

// ColorFor resolves one value to a palette color. Missing values, and zero
// for unsigned metrics, take the no-data sentinel. With breakpoints present
// the value is bucketed by a first-match scan; in fallback mode the value's
// position between the observed min and max selects one of five equal bands,
// and a constant positive range takes the middle color.
func ColorFor(value float64, present bool, signed bool, binning render.ColorBinning, palette render.Palette) string {
	if !present || math.IsNaN(value) || math.IsInf(value, 0) {
		return palette.NoData
	}
	if !signed && value == 0 {
		return palette.NoData
	}

	if !binning.Fallback() {
		for i, bp := range binning.Breakpoints {
			if value < bp {
				return palette.Colors[i]
			}
		}
		return palette.Colors[4]
	}

	// Fallback: fewer than five positive values observed.
	if binning.Positive == 0 || binning.Min == binning.Max {
		return palette.Colors[2]
	}

	pos := (value - binning.Min) / (binning.Max - binning.Min)
	band := int(pos * 5)
	if band < 0 {
		band = 0
	}
	if band > 4 {
		band = 4
	}
	return palette.Colors[band]
}
