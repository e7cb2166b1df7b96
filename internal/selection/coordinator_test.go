package selection

import (
	"reflect"
	"testing"

	"psephos/domain/core"
	"psephos/domain/dataset"
)

type countingRebuilder struct {
	requests int
}

func (r *countingRebuilder) Request() uint64 {
	r.requests++
	return uint64(r.requests)
}

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]dataset.Record{
		{Name: "London Central", Code: "L1", Values: map[string]any{}},
		{Name: "Long Eaton", Code: "L2", Values: map[string]any{}},
		{Name: "Aldershot", Code: "A1", Values: map[string]any{}},
		{Name: "Barnsley Central", Code: "B1", Values: map[string]any{}},
	})
	if err != nil {
		t.Fatalf("dataset build failed: %v", err)
	}
	return ds
}

func newCoordinator(t *testing.T) (*Coordinator, *countingRebuilder) {
	t.Helper()
	rb := &countingRebuilder{}
	c := New(testDataset(t), core.MetricKey("lab_share"), core.MetricKey("imd_score"), rb, 10)
	return c, rb
}

func TestCoordinator_InitialState(t *testing.T) {
	c, _ := newCoordinator(t)
	snap := c.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %s", snap.State)
	}
	if snap.Highlight != "" {
		t.Errorf("expected no highlight at load, got %q", snap.Highlight)
	}
}

func TestCoordinator_TypeEntersSearching(t *testing.T) {
	c, _ := newCoordinator(t)

	c.Type("l")
	if c.Snapshot().State != StateIdle {
		t.Error("single character should not enter searching")
	}

	c.Type("lo")
	if c.Snapshot().State != StateSearching {
		t.Error("two characters should enter searching")
	}
}

func TestCoordinator_SearchCaseInsensitiveSortedCapped(t *testing.T) {
	c, _ := newCoordinator(t)

	got := c.Search("lon")
	want := []string{"London Central", "Long Eaton"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Cap applies after alphabetical sort.
	rb := &countingRebuilder{}
	capped := New(testDataset(t), "p", "m", rb, 1)
	if got := capped.Search("lon"); !reflect.DeepEqual(got, []string{"London Central"}) {
		t.Errorf("expected capped result, got %v", got)
	}
}

func TestCoordinator_SelectClearsSearchText(t *testing.T) {
	c, _ := newCoordinator(t)

	c.Type("lon")
	c.Select("London Central")

	snap := c.Snapshot()
	if snap.State != StateHighlighted {
		t.Errorf("expected highlighted, got %s", snap.State)
	}
	if snap.Highlight != "London Central" {
		t.Errorf("expected highlight London Central, got %q", snap.Highlight)
	}
	if snap.SearchText != "" {
		t.Errorf("select should clear search text, got %q", snap.SearchText)
	}
}

func TestCoordinator_ClickSameTogglesOff(t *testing.T) {
	c, rb := newCoordinator(t)

	c.Click("Barnsley Central")
	if c.Snapshot().State != StateHighlighted {
		t.Fatal("expected highlighted after click")
	}

	before := rb.requests
	c.Click("Barnsley Central")
	snap := c.Snapshot()
	if snap.State != StateIdle || snap.Highlight != "" {
		t.Errorf("clicking the highlighted constituency should return to idle, got %+v", snap)
	}
	// Highlight toggles ride the fast path: no rebuild enqueued.
	if rb.requests != before {
		t.Errorf("highlight toggle must not trigger a rebuild, requests %d -> %d", before, rb.requests)
	}
}

func TestCoordinator_ClickOtherRetargets(t *testing.T) {
	c, _ := newCoordinator(t)

	c.Click("Aldershot")
	c.Click("Barnsley Central")

	snap := c.Snapshot()
	if snap.State != StateHighlighted || snap.Highlight != "Barnsley Central" {
		t.Errorf("expected re-targeted highlight, got %+v", snap)
	}
}

func TestCoordinator_UnresolvableClickResets(t *testing.T) {
	c, _ := newCoordinator(t)

	c.Click("Aldershot")
	c.Click("Narnia North")

	snap := c.Snapshot()
	if snap.State != StateIdle || snap.Highlight != "" {
		t.Errorf("unresolvable click should reset to idle, got %+v", snap)
	}
}

func TestCoordinator_EscapeResets(t *testing.T) {
	c, _ := newCoordinator(t)

	c.Type("lon")
	c.Reset()
	snap := c.Snapshot()
	if snap.State != StateIdle || snap.SearchText != "" {
		t.Errorf("reset from searching should clear everything, got %+v", snap)
	}

	c.Click("Aldershot")
	c.Reset()
	if c.Snapshot().State != StateIdle {
		t.Error("reset from highlighted should return to idle")
	}
}

func TestCoordinator_MetricChangeTriggersRebuild(t *testing.T) {
	c, rb := newCoordinator(t)

	c.SetMetric(core.MetricKey("no_quals_pct"))
	if rb.requests != 1 {
		t.Errorf("metric change should enqueue 1 rebuild, got %d", rb.requests)
	}

	// No-op change does nothing.
	c.SetMetric(core.MetricKey("no_quals_pct"))
	if rb.requests != 1 {
		t.Errorf("unchanged metric should not enqueue, got %d", rb.requests)
	}

	c.SetParty(core.MetricKey("con_share"))
	if rb.requests != 2 {
		t.Errorf("party change should enqueue, got %d", rb.requests)
	}
}

func TestCoordinator_SubscribersSeeCommittedState(t *testing.T) {
	c, _ := newCoordinator(t)

	var seen []Snapshot
	var fastPaths []bool
	c.Subscribe(func(snap Snapshot, fastPath bool) {
		seen = append(seen, snap)
		fastPaths = append(fastPaths, fastPath)
		// The notified snapshot must already match the committed state.
		if got := c.Snapshot(); got != snap {
			t.Errorf("subscriber saw %+v but committed state is %+v", snap, got)
		}
	})

	c.Click("Aldershot")
	c.SetMetric(core.MetricKey("no_quals_pct"))

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if !fastPaths[0] {
		t.Error("highlight change should be fast path")
	}
	if fastPaths[1] {
		t.Error("metric change should be full rebuild path")
	}
}

func TestCoordinator_CaseInsensitiveResolution(t *testing.T) {
	c, _ := newCoordinator(t)
	c.Click("aldershot")
	snap := c.Snapshot()
	if snap.Highlight != "Aldershot" {
		t.Errorf("resolution should canonicalize the record name, got %q", snap.Highlight)
	}
}
