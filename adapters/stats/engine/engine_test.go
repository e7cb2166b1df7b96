package engine

import (
	"math"
	"testing"

	"psephos/domain/render"
)

func pairsFromFunc(n int, f func(x float64) float64) []render.Pair {
	pairs := make([]render.Pair, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		pairs[i] = render.Pair{X: x, Y: f(x)}
	}
	return pairs
}

func TestCompute_PerfectlyLinear(t *testing.T) {
	e := New()
	result := e.Compute(pairsFromFunc(10, func(x float64) float64 { return 2 * x }), Options{})

	if !result.Defined() {
		t.Fatal("expected defined statistics for 10 linear points")
	}
	if math.Abs(*result.PearsonR-1.0) > 1e-9 {
		t.Errorf("expected r ≈ 1.0, got %v", *result.PearsonR)
	}
	if math.Abs(*result.RSquared-1.0) > 1e-9 {
		t.Errorf("expected R² ≈ 1.0, got %v", *result.RSquared)
	}
	if result.N != 10 {
		t.Errorf("expected N = 10, got %d", result.N)
	}
	if len(result.RegressionLine) < 2 {
		t.Fatalf("expected a sampled regression line, got %d points", len(result.RegressionLine))
	}
	first := result.RegressionLine[0]
	last := result.RegressionLine[len(result.RegressionLine)-1]
	if first.X != 1 || last.X != 10 {
		t.Errorf("regression line should span [min(x), max(x)], got [%v, %v]", first.X, last.X)
	}
}

func TestCompute_NegativeCorrelation(t *testing.T) {
	e := New()
	result := e.Compute(pairsFromFunc(8, func(x float64) float64 { return 100 - 3*x }), Options{})

	if !result.Defined() {
		t.Fatal("expected defined statistics")
	}
	if math.Abs(*result.PearsonR+1.0) > 1e-9 {
		t.Errorf("expected r ≈ -1.0, got %v", *result.PearsonR)
	}
}

func TestCompute_InsufficientSamples(t *testing.T) {
	e := New()
	for n := 0; n < MinSamples; n++ {
		result := e.Compute(pairsFromFunc(n, func(x float64) float64 { return x }), Options{})
		if result.Defined() {
			t.Errorf("n=%d: expected undefined statistics", n)
		}
		if result.N != n {
			t.Errorf("n=%d: expected N = %d, got %d", n, n, result.N)
		}
		if len(result.RegressionLine) != 0 {
			t.Errorf("n=%d: expected no regression line", n)
		}
	}
}

func TestCompute_NReportsFilteredCount(t *testing.T) {
	// 10 inputs, only 3 with both members finite.
	pairs := []render.Pair{
		{X: 1, Y: 2},
		{X: 2, Y: 4},
		{X: 3, Y: 6},
		{X: math.NaN(), Y: 1},
		{X: 1, Y: math.NaN()},
		{X: math.Inf(1), Y: 1},
		{X: 1, Y: math.Inf(-1)},
		{X: math.NaN(), Y: math.NaN()},
		{X: math.Inf(-1), Y: 5},
		{X: 5, Y: math.Inf(1)},
	}

	e := New()
	result := e.Compute(pairs, Options{})
	if result.N != 3 {
		t.Errorf("expected N = 3, got %d", result.N)
	}
	if result.Defined() {
		t.Error("expected undefined statistics below the sample threshold")
	}
}

func TestCompute_ZeroVariance(t *testing.T) {
	e := New()

	t.Run("constant y", func(t *testing.T) {
		result := e.Compute(pairsFromFunc(20, func(x float64) float64 { return 7 }), Options{})
		if result.Defined() {
			t.Error("constant y-axis should give undefined correlation")
		}
		if result.N != 20 {
			t.Errorf("expected N = 20, got %d", result.N)
		}
	})

	t.Run("constant x", func(t *testing.T) {
		pairs := make([]render.Pair, 10)
		for i := range pairs {
			pairs[i] = render.Pair{X: 5, Y: float64(i)}
		}
		result := e.Compute(pairs, Options{})
		if result.Defined() {
			t.Error("constant x-axis should give undefined correlation")
		}
	})
}

func TestCompute_ClampNonNegative(t *testing.T) {
	// Steep negative slope drives fitted values below zero at high x.
	pairs := pairsFromFunc(10, func(x float64) float64 { return 10 - 2*x })

	e := New()

	clamped := e.Compute(pairs, Options{ClampNonNegative: true})
	for _, pt := range clamped.RegressionLine {
		if pt.Y < 0 {
			t.Errorf("clamped line has negative y %v at x=%v", pt.Y, pt.X)
		}
	}

	unclamped := e.Compute(pairs, Options{})
	sawNegative := false
	for _, pt := range unclamped.RegressionLine {
		if pt.Y < 0 {
			sawNegative = true
		}
	}
	if !sawNegative {
		t.Error("unclamped signed fit should reach negative y values")
	}
}

func TestCompute_PValueBounds(t *testing.T) {
	e := New()

	// Noisy but correlated data keeps r strictly inside (-1, 1).
	pairs := pairsFromFunc(30, func(x float64) float64 {
		return 2*x + math.Sin(x*13)*5
	})
	result := e.Compute(pairs, Options{})
	if !result.Defined() {
		t.Fatal("expected defined statistics")
	}
	if result.PValue == nil {
		t.Fatal("expected a p-value alongside defined correlation")
	}
	if *result.PValue < 0 || *result.PValue > 1 {
		t.Errorf("p-value should be in [0,1], got %v", *result.PValue)
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	e := New()
	result := e.Compute(nil, Options{})
	if result.N != 0 || result.Defined() {
		t.Errorf("empty input should give N=0 undefined, got %+v", result)
	}
}
