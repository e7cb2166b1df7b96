package pipeline

import (
	"math"
	"reflect"
	"testing"

	"psephos/domain/core"
	"psephos/domain/dataset"
)

func testCatalog() dataset.Catalog {
	return dataset.Catalog{
		Metrics: []dataset.MetricDescriptor{
			{Key: "imd_score", Label: "IMD score", Group: "Deprivation"},
			{Key: "no_quals_pct", Label: "No qualifications (%)", Group: "Education"},
		},
		Parties: []dataset.PartyDescriptor{
			{Key: "lab_share", Label: "Labour voteshare", Color: "#d50000"},
			{Key: "lab_swing", Label: "Labour swing", Color: "#d50000", Signed: true},
		},
	}
}

func mustDataset(t *testing.T, records []dataset.Record) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(records)
	if err != nil {
		t.Fatalf("dataset build failed: %v", err)
	}
	return ds
}

func rec(name, code string, values map[string]any) dataset.Record {
	return dataset.Record{Name: name, Code: code, Values: values}
}

func TestProcess_ThreeConstituenciesInsufficientData(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": 10, "lab_share": 30}),
		rec("B", "B1", map[string]any{"imd_score": 20, "lab_share": 40}),
		rec("C", "C1", map[string]any{"imd_score": 30, "lab_share": 50}),
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(chart.Points) != 3 {
		t.Errorf("expected all 3 points plotted, got %d", len(chart.Points))
	}
	if chart.Stats.N != 3 {
		t.Errorf("expected N = 3, got %d", chart.Stats.N)
	}
	if chart.Stats.Defined() {
		t.Error("expected undefined correlation below the sample threshold")
	}
	if len(chart.Stats.RegressionLine) != 0 {
		t.Error("expected no regression line")
	}
	if chart.Summary != "N = 3, insufficient data" {
		t.Errorf("unexpected summary %q", chart.Summary)
	}
}

func TestProcess_SixPointsPerfectlyCorrelated(t *testing.T) {
	records := make([]dataset.Record, 6)
	names := []string{"A", "B", "C", "D", "E", "F"}
	for i := range records {
		x := float64((i + 1) * 10)
		records[i] = rec(names[i], names[i]+"1", map[string]any{
			"imd_score": x,
			"lab_share": x + 20,
		})
	}
	ds := mustDataset(t, records)

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if !chart.Stats.Defined() {
		t.Fatal("expected defined statistics for 6 correlated points")
	}
	if math.Abs(*chart.Stats.PearsonR-1.0) > 1e-9 {
		t.Errorf("expected r ≈ 1.0, got %v", *chart.Stats.PearsonR)
	}
	line := chart.Stats.RegressionLine
	if len(line) < 2 {
		t.Fatalf("expected ≥2 regression line points, got %d", len(line))
	}
	if line[0].X != 10 || line[len(line)-1].X != 60 {
		t.Errorf("regression line should span [10, 60], got [%v, %v]", line[0].X, line[len(line)-1].X)
	}
}

func TestProcess_UnsignedAxisExcludesZeroFromPlotOnly(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": 10, "lab_share": 30}),
		rec("B", "B1", map[string]any{"imd_score": 20, "lab_share": 0}), // zero on unsigned y
		rec("C", "C1", map[string]any{"imd_score": 30, "lab_share": 50}),
		rec("D", "D1", map[string]any{"imd_score": 40, "lab_share": -5}), // negative on unsigned y
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(chart.Points) != 2 {
		t.Errorf("expected 2 plotted points, got %d", len(chart.Points))
	}
	// Statistics admit every both-finite pair, including the excluded ones.
	if chart.Stats.N != 4 {
		t.Errorf("expected N = 4 finite pairs, got %d", chart.Stats.N)
	}
}

func TestProcess_SignedAxisAdmitsNegatives(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": 10, "lab_swing": -3.5}),
		rec("B", "B1", map[string]any{"imd_score": 20, "lab_swing": 0}),
		rec("C", "C1", map[string]any{"imd_score": 30, "lab_swing": 2.1}),
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_swing"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(chart.Points) != 3 {
		t.Errorf("signed y-axis should admit zero and negative values, got %d points", len(chart.Points))
	}
}

func TestProcess_MissingValuesExcluded(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": "1,234.5", "lab_share": "30"}),
		rec("B", "B1", map[string]any{"imd_score": nil, "lab_share": 40}),
		rec("C", "C1", map[string]any{"imd_score": 30, "lab_share": "n/a"}),
		rec("D", "D1", map[string]any{"lab_share": 45}),
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(chart.Points) != 1 {
		t.Fatalf("expected 1 plotted point, got %d", len(chart.Points))
	}
	if chart.Points[0].X != 1234.5 {
		t.Errorf("thousands separator should parse, got x = %v", chart.Points[0].X)
	}
	if chart.Stats.N != 1 {
		t.Errorf("expected N = 1, got %d", chart.Stats.N)
	}
}

func TestProcess_BinningCountsRecordsMissingYValue(t *testing.T) {
	records := []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": 10, "lab_share": 30}),
		rec("B", "B1", map[string]any{"imd_score": 20, "lab_share": 35}),
		rec("C", "C1", map[string]any{"imd_score": 30, "lab_share": 40}),
		rec("D", "D1", map[string]any{"imd_score": 40, "lab_share": 45}),
		rec("E", "E1", map[string]any{"imd_score": 50, "lab_share": 50}),
		// Valid metric, no party value: excluded from the plot but still
		// part of the metric's color scale.
		rec("F", "F1", map[string]any{"imd_score": 60}),
	}
	ds := mustDataset(t, records)

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if len(chart.Points) != 5 {
		t.Errorf("expected 5 plotted points, got %d", len(chart.Points))
	}
	if chart.Binning.Positive != 6 {
		t.Errorf("expected all 6 metric values to feed the binning, got %d", chart.Binning.Positive)
	}
	if chart.Binning.Max != 60 {
		t.Errorf("expected binning max 60 from the unplotted record, got %v", chart.Binning.Max)
	}
	// The chart legend must agree with a map painted from the same key.
	if !reflect.DeepEqual(chart.Binning, p.BinningFor(ds, core.MetricKey("imd_score"))) {
		t.Error("chart binning diverged from the standalone binning for the same key")
	}
}

func TestProcess_Idempotent(t *testing.T) {
	records := make([]dataset.Record, 8)
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i := range records {
		records[i] = rec(names[i], names[i]+"1", map[string]any{
			"imd_score": float64(i*7%13 + 1),
			"lab_share": float64(i*11%17 + 1),
		})
	}
	ds := mustDataset(t, records)

	p := NewChartPipeline(testCatalog())
	first, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	second, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if !reflect.DeepEqual(first.Points, second.Points) {
		t.Error("point output must be identical across runs")
	}
	if !reflect.DeepEqual(first.Colors, second.Colors) {
		t.Error("color output must be identical across runs")
	}
	if !reflect.DeepEqual(first.Binning, second.Binning) {
		t.Error("binning must be identical across runs")
	}
}

func TestProcess_OrderFollowsInput(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("Zebra", "Z1", map[string]any{"imd_score": 1, "lab_share": 2}),
		rec("Apple", "A1", map[string]any{"imd_score": 3, "lab_share": 4}),
		rec("Mango", "M1", map[string]any{"imd_score": 5, "lab_share": 6}),
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	wantOrder := []string{"Zebra", "Apple", "Mango"}
	for i, pt := range chart.Points {
		if pt.Label != wantOrder[i] {
			t.Errorf("position %d: expected %s, got %s", i, wantOrder[i], pt.Label)
		}
	}
}

func TestProcess_EmptyDataset(t *testing.T) {
	p := NewChartPipeline(testCatalog())
	if _, err := p.Process(nil, core.MetricKey("imd_score"), core.MetricKey("lab_share")); err == nil {
		t.Error("expected error for nil dataset")
	}
}

func TestProcess_Labels(t *testing.T) {
	ds := mustDataset(t, []dataset.Record{
		rec("A", "A1", map[string]any{"imd_score": 1, "lab_share": 2}),
	})

	p := NewChartPipeline(testCatalog())
	chart, err := p.Process(ds, core.MetricKey("imd_score"), core.MetricKey("lab_share"))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if chart.XLabel != "IMD score" || chart.YLabel != "Labour voteshare" {
		t.Errorf("unexpected labels %q / %q", chart.XLabel, chart.YLabel)
	}
}
