// Package highlight derives per-point visual emphasis from the current
// highlight selection. Everything here is a pure function of the processed
// point list and the highlight name: the fast path that runs on every hover
// and click, with no statistics or binning recomputation behind it.
package highlight

import (
	"psephos/domain/dataset"
	"psephos/domain/render"
)

// Style constants for the three point states.
var (
	highlighted = render.PointStyle{Size: 10, BorderColor: "#222222", BorderWidth: 2, Opacity: 1.0}
	dimmed      = render.PointStyle{Size: 5, BorderColor: "transparent", BorderWidth: 0, Opacity: 0.25}
	normal      = render.PointStyle{Size: 5, BorderColor: "transparent", BorderWidth: 0, Opacity: 1.0}
)

// StyleFor returns the emphasis style for one point. With no highlight every
// point is normal; with a highlight the matching point is enlarged and
// bordered and every other point is dimmed, never normal.
func StyleFor(point render.ProcessedPoint, highlightName string) render.PointStyle {
	if highlightName == "" {
		return normal
	}
	if point.Label == highlightName {
		return highlighted
	}
	return dimmed
}

// StyleAll projects styles for a whole point list in one O(n) pass.
func StyleAll(points []render.ProcessedPoint, highlightName string) []render.PointStyle {
	styles := make([]render.PointStyle, len(points))
	for i, p := range points {
		styles[i] = StyleFor(p, highlightName)
	}
	return styles
}

// OutlineFor is the map-side equivalent: a single-feature filter driving the
// outline layer, resolved from highlight name to feature code. Polygons get
// an outline toggle rather than per-point size and opacity. An unknown or
// empty name yields an invisible filter.
func OutlineFor(ds *dataset.Dataset, highlightName string) render.OutlineFilter {
	if highlightName == "" || ds == nil {
		return render.OutlineFilter{}
	}
	code, ok := ds.CodeFor(highlightName)
	if !ok {
		return render.OutlineFilter{}
	}
	return render.OutlineFilter{Code: code, Visible: true}
}
