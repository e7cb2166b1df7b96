// Package engine computes the correlation and regression summary shown next
// to the scatter plot.
package engine

import (
	"math"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"psephos/domain/render"
	"psephos/internal"
)

// MinSamples is the smallest pair count for which correlation is defined.
const MinSamples = 5

// regressionLineSamples is how many evenly spaced points the fitted line is
// sampled at across the observed x-range.
const regressionLineSamples = 20

// Options controls axis semantics for one compute pass.
type Options struct {
	// ClampNonNegative clips sampled regression-line y-values at zero. Set
	// for percentage-like y-axes; leave unset for signed quantities such as
	// electoral swing, where a negative fitted value is meaningful.
	ClampNonNegative bool
}

// Engine computes Pearson correlation and an OLS fit over (x, y) pairs.
type Engine struct {
	logger *internal.Logger
}

// New creates a statistics engine.
func New() *Engine {
	return &Engine{logger: internal.DefaultLogger}
}

// Compute filters pairs to those with both members finite, then computes
// Pearson's r, R², a two-tailed p-value, and a sampled OLS regression line.
// Below MinSamples, or when either axis has zero variance, the correlation
// fields are nil and N reports the actual filtered count. Compute never
// panics on any input: internal arithmetic failures degrade to the undefined
// result.
func (e *Engine) Compute(pairs []render.Pair, opts Options) (result render.StatisticsResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("statistics computation panicked, degrading to undefined: %v", r)
			result = render.StatisticsResult{N: result.N}
		}
	}()

	xs := make([]float64, 0, len(pairs))
	ys := make([]float64, 0, len(pairs))
	for _, p := range pairs {
		if isFinite(p.X) && isFinite(p.Y) {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}

	n := len(xs)
	result = render.StatisticsResult{N: n}
	if n < MinSamples {
		return result
	}

	// Zero variance on either axis makes Pearson's r a division by zero.
	sdX, _ := stats.StandardDeviation(xs)
	sdY, _ := stats.StandardDeviation(ys)
	if sdX == 0 || sdY == 0 {
		return result
	}

	r := gstat.Correlation(xs, ys, nil)
	if !isFinite(r) {
		return result
	}
	r2 := r * r

	alpha, beta := gstat.LinearRegression(xs, ys, nil, false)

	minX, _ := stats.Min(xs)
	maxX, _ := stats.Max(xs)
	line := sampleLine(alpha, beta, minX, maxX, opts.ClampNonNegative)

	p := twoTailedPValue(r, n)

	result.PearsonR = &r
	result.RSquared = &r2
	result.PValue = &p
	result.RegressionLine = line
	return result
}

// sampleLine evaluates y = alpha + beta*x at evenly spaced points across
// [minX, maxX] for the renderer to draw.
func sampleLine(alpha, beta, minX, maxX float64, clamp bool) []render.LinePoint {
	if minX == maxX {
		y := alpha + beta*minX
		if clamp && y < 0 {
			y = 0
		}
		return []render.LinePoint{{X: minX, Y: y}}
	}

	line := make([]render.LinePoint, 0, regressionLineSamples)
	step := (maxX - minX) / float64(regressionLineSamples-1)
	for i := 0; i < regressionLineSamples; i++ {
		x := minX + float64(i)*step
		y := alpha + beta*x
		if clamp && y < 0 {
			y = 0
		}
		line = append(line, render.LinePoint{X: x, Y: y})
	}
	return line
}

// twoTailedPValue computes the significance of r under the t-distribution
// with n-2 degrees of freedom.
func twoTailedPValue(r float64, n int) float64 {
	denom := 1 - r*r
	if denom <= 0 {
		// Perfect correlation saturates the t statistic.
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
