// Package pipeline assembles render-ready configurations for the scatter
// surface and the two map surfaces, and owns the debounced rebuild scheduler
// that coalesces selection changes.
package pipeline

import (
	"fmt"

	"psephos/adapters/stats/engine"
	"psephos/domain/core"
	"psephos/domain/dataset"
	"psephos/domain/render"
	"psephos/internal/colorscale"
	"psephos/internal/extract"
	"psephos/internal/highlight"
)

// ChartPipeline composes extraction, statistics and color binning into the
// processed dataset consumed by the scatter renderer.
type ChartPipeline struct {
	engine  *engine.Engine
	catalog dataset.Catalog
	palette render.Palette
}

// NewChartPipeline creates a chart pipeline over the configured descriptors.
func NewChartPipeline(catalog dataset.Catalog) *ChartPipeline {
	return &ChartPipeline{
		engine:  engine.New(),
		catalog: catalog,
		palette: colorscale.Blues,
	}
}

// Process builds the full chart configuration for one (x, y) key selection.
//
// Plotting admits a record only when both axes pass their validity rule:
// finite always, and strictly positive unless the axis metric is declared
// signed. The statistics pairs are collected independently under the looser
// both-finite rule, so N can differ from the plotted count. Output order
// follows dataset order.
//
// The x-axis binning spans every finite x value regardless of the y-axis,
// matching BinningFor over the same key, so the chart legend and a map
// painted from that key can never disagree.
func (p *ChartPipeline) Process(ds *dataset.Dataset, xKey, yKey core.MetricKey) (render.ChartData, error) {
	if ds == nil || ds.Len() == 0 {
		return render.ChartData{}, fmt.Errorf("no dataset loaded")
	}

	xSigned := p.catalog.Signed(xKey)
	ySigned := p.catalog.Signed(yKey)

	points := make([]render.ProcessedPoint, 0, ds.Len())
	statsPairs := make([]render.Pair, 0, ds.Len())

	for _, rec := range ds.Records {
		x, xOK := extract.Numeric(rec, xKey)
		y, yOK := extract.Numeric(rec, yKey)

		if xOK && yOK {
			statsPairs = append(statsPairs, render.Pair{X: x, Y: y})
		}

		if !xOK || !yOK {
			continue
		}
		if !plotAdmits(x, xSigned) || !plotAdmits(y, ySigned) {
			continue
		}

		points = append(points, render.ProcessedPoint{
			X:     x,
			Y:     y,
			Label: rec.Name,
			ID:    rec.Code,
		})
	}

	stats := p.engine.Compute(statsPairs, engine.Options{ClampNonNegative: !ySigned})
	binning := p.BinningFor(ds, xKey)

	colors := make([]string, len(points))
	for i, pt := range points {
		colors[i] = colorscale.ColorFor(pt.X, true, xSigned, binning, p.palette)
	}

	return render.ChartData{
		Points:  points,
		Colors:  colors,
		Styles:  highlight.StyleAll(points, ""),
		Stats:   stats,
		Binning: binning,
		Summary: summarize(stats),
		XLabel:  p.label(xKey),
		YLabel:  p.label(yKey),
	}, nil
}

// BinningFor builds a standalone binning for one metric over the plotted
// subset, used when the left map needs its own scale over the party axis.
func (p *ChartPipeline) BinningFor(ds *dataset.Dataset, key core.MetricKey) render.ColorBinning {
	if ds == nil {
		return render.ColorBinning{}
	}
	values := make([]float64, 0, ds.Len())
	for _, rec := range ds.Records {
		if v, ok := extract.Numeric(rec, key); ok {
			values = append(values, v)
		}
	}
	return colorscale.BuildBinning(values)
}

// plotAdmits applies the configured inclusion rule for one axis value.
// Unsigned metrics treat zero and below as the no-data sentinel.
func plotAdmits(v float64, signed bool) bool {
	if signed {
		return true
	}
	return v > 0
}

// summarize renders the on-screen statistics line.
func summarize(s render.StatisticsResult) string {
	if !s.Defined() {
		return fmt.Sprintf("N = %d, insufficient data", s.N)
	}
	return fmt.Sprintf("r = %.3f, R² = %.3f, N = %d", *s.PearsonR, *s.RSquared, s.N)
}

func (p *ChartPipeline) label(key core.MetricKey) string {
	if m, ok := p.catalog.Metric(key); ok {
		return m.Label
	}
	if pd, ok := p.catalog.Party(key); ok {
		return pd.Label
	}
	return string(key)
}
