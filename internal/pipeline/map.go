package pipeline

import (
	"psephos/domain/core"
	"psephos/domain/dataset"
	"psephos/domain/render"
	"psephos/internal"
	"psephos/internal/colorscale"
	"psephos/internal/errors"
	"psephos/internal/extract"
	"psephos/internal/highlight"
)

// MapPipeline builds the per-feature paint mappings for the two choropleth
// surfaces plus the highlight outline filter. The geographic layer only
// needs code → color; geometry stays on the client.
type MapPipeline struct {
	catalog dataset.Catalog
	logger  *internal.Logger
}

// NewMapPipeline creates a map paint pipeline over the configured descriptors.
func NewMapPipeline(catalog dataset.Catalog) *MapPipeline {
	return &MapPipeline{catalog: catalog, logger: internal.DefaultLogger}
}

// BuildPaint builds the discrete feature-code → color mapping for one
// surface. Every record contributes an entry; records whose value is missing
// or excluded resolve to the sentinel no-data color, and feature codes absent
// from the dataset fall back to NoData on the client side.
func (m *MapPipeline) BuildPaint(ds *dataset.Dataset, key core.MetricKey, binning render.ColorBinning, palette render.Palette) (render.MapPaint, error) {
	if ds == nil || ds.Len() == 0 {
		return render.MapPaint{NoData: palette.NoData}, errors.DataShape("no dataset loaded")
	}

	signed := m.catalog.Signed(key)
	fill := make(map[core.ConstituencyCode]string, ds.Len())
	for _, rec := range ds.Records {
		v, ok := extract.Numeric(rec, key)
		fill[core.ConstituencyCode(rec.Code)] = colorscale.ColorFor(v, ok, signed, binning, palette)
	}

	return render.MapPaint{Fill: fill, NoData: palette.NoData}, nil
}

// BuildPair assembles both surfaces: left keyed by the political variable,
// right by the socio-economic metric, each with its own binning and palette,
// plus the single-feature outline filter for the current highlight. A failure
// on one surface is contained to that surface; the other still paints.
func (m *MapPipeline) BuildPair(ds *dataset.Dataset, partyKey, metricKey core.MetricKey, partyBinning, metricBinning render.ColorBinning, highlightName string) (render.MapPair, []error) {
	var errs []error

	left, err := m.buildSurface(ds, partyKey, partyBinning, colorscale.Oranges, "left")
	if err != nil {
		errs = append(errs, err)
	}
	right, err := m.buildSurface(ds, metricKey, metricBinning, colorscale.Blues, "right")
	if err != nil {
		errs = append(errs, err)
	}

	return render.MapPair{
		Left:    left,
		Right:   right,
		Outline: highlight.OutlineFor(ds, highlightName),
	}, errs
}

// buildSurface wraps BuildPaint with per-surface panic containment.
func (m *MapPipeline) buildSurface(ds *dataset.Dataset, key core.MetricKey, binning render.ColorBinning, palette render.Palette, surface string) (paint render.MapPaint, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("paint build panicked for %s surface: %v", surface, r)
			paint = render.MapPaint{NoData: palette.NoData}
			err = errors.PaintFailed(surface, nil)
		}
	}()

	paint, buildErr := m.BuildPaint(ds, key, binning, palette)
	if buildErr != nil {
		return paint, errors.PaintFailed(surface, buildErr)
	}
	return paint, nil
}
