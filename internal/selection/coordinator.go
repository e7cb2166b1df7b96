// Package selection owns the shared page-level selections: the chosen
// political variable, the chosen metric, the highlighted constituency, and
// the search text. Both visualizations read this state; only the coordinator
// mutates it.
package selection

import (
	"sync"

	"psephos/domain/core"
	"psephos/domain/dataset"
	"psephos/internal"
)

// State is the coordinator's page-level mode.
type State string

const (
	StateIdle        State = "idle"
	StateSearching   State = "searching"
	StateHighlighted State = "highlighted"
)

// minSearchLength is the shortest search text that enters searching mode.
const minSearchLength = 2

// Snapshot is an immutable copy of the shared selection state. Dependents
// treat it as fixed for the duration of one synchronous update pass.
type Snapshot struct {
	State      State          `json:"state"`
	Party      core.MetricKey `json:"party"`
	Metric     core.MetricKey `json:"metric"`
	Highlight  string         `json:"highlight,omitempty"`
	SearchText string         `json:"search_text,omitempty"`
}

// Subscriber receives every state change. fastPath is true for
// highlight-only changes, which dependents apply as an O(n) restyle without
// rebuilding statistics, binning, or paint.
type Subscriber func(snap Snapshot, fastPath bool)

// Rebuilder is the expensive-path hook: metric, party, or dataset changes
// enqueue a debounced full pipeline rebuild through it.
type Rebuilder interface {
	Request() uint64
}

// Coordinator reconciles selection events from the chart, both maps, and the
// search box into one state machine.
type Coordinator struct {
	mu          sync.Mutex
	ds          *dataset.Dataset
	snap        Snapshot
	rebuilder   Rebuilder
	subscribers []Subscriber
	searchLimit int
	logger      *internal.Logger
}

// New creates a coordinator over a dataset with default axis selections.
func New(ds *dataset.Dataset, party, metric core.MetricKey, rebuilder Rebuilder, searchLimit int) *Coordinator {
	return &Coordinator{
		ds: ds,
		snap: Snapshot{
			State:  StateIdle,
			Party:  party,
			Metric: metric,
		},
		rebuilder:   rebuilder,
		searchLimit: searchLimit,
		logger:      internal.DefaultLogger,
	}
}

// Subscribe registers a dependent. Subscribers are notified after the state
// is updated, with the new snapshot.
func (c *Coordinator) Subscribe(fn Subscriber) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// SetMetric changes the socio-economic metric and enqueues a full rebuild.
func (c *Coordinator) SetMetric(key core.MetricKey) {
	c.mu.Lock()
	if c.snap.Metric == key {
		c.mu.Unlock()
		return
	}
	c.snap.Metric = key
	snap := c.snap
	c.mu.Unlock()

	c.rebuild()
	c.notify(snap, false)
}

// SetParty changes the political variable and enqueues a full rebuild.
func (c *Coordinator) SetParty(key core.MetricKey) {
	c.mu.Lock()
	if c.snap.Party == key {
		c.mu.Unlock()
		return
	}
	c.snap.Party = key
	snap := c.snap
	c.mu.Unlock()

	c.rebuild()
	c.notify(snap, false)
}

// Type records search box input. Text of two or more characters enters
// searching mode; shorter text falls back to idle or highlighted depending
// on whether a highlight is active.
func (c *Coordinator) Type(text string) {
	c.mu.Lock()
	c.snap.SearchText = text
	if len([]rune(text)) >= minSearchLength {
		c.snap.State = StateSearching
	} else if c.snap.Highlight != "" {
		c.snap.State = StateHighlighted
	} else {
		c.snap.State = StateIdle
	}
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap, true)
}

// Search returns matching constituency names for the current or given text,
// case-insensitively, capped and alphabetical.
func (c *Coordinator) Search(text string) []string {
	ds := c.dataset()
	if ds == nil {
		return nil
	}
	return ds.SearchNames(text, c.searchLimit)
}

// Select commits a search result or click target as the highlight. The name
// must resolve to a canonical record by exact match; an unresolvable name
// resets to idle rather than silently failing. Highlight changes ride the
// fast path: no rebuild is enqueued.
func (c *Coordinator) Select(name string) {
	rec, ok := resolve(c.dataset(), name)
	if !ok {
		c.logger.Warn("selection %q resolved to no record, resetting", name)
		c.Reset()
		return
	}

	c.mu.Lock()
	c.snap.State = StateHighlighted
	c.snap.Highlight = rec.Name
	c.snap.SearchText = ""
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap, true)
}

// Click handles a click event bubbling up from either visualization.
// Clicking the already-highlighted constituency toggles back to idle;
// clicking another re-targets the highlight.
func (c *Coordinator) Click(name string) {
	rec, ok := resolve(c.dataset(), name)
	if !ok {
		c.logger.Warn("click on %q resolved to no record, resetting", name)
		c.Reset()
		return
	}

	c.mu.Lock()
	if c.snap.State == StateHighlighted && c.snap.Highlight == rec.Name {
		c.snap.State = StateIdle
		c.snap.Highlight = ""
		snap := c.snap
		c.mu.Unlock()
		c.notify(snap, true)
		return
	}
	c.snap.State = StateHighlighted
	c.snap.Highlight = rec.Name
	c.snap.SearchText = ""
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap, true)
}

// Restore replaces the whole selection with a previously persisted
// snapshot, on session re-bootstrap. A highlight that no longer resolves in
// the current dataset is dropped rather than trusted. Subscribers are not
// notified; callers restore before attaching dependents and schedule the
// initial rebuild themselves.
func (c *Coordinator) Restore(snap Snapshot) {
	if snap.Highlight != "" {
		rec, ok := resolve(c.dataset(), snap.Highlight)
		if ok {
			snap.Highlight = rec.Name
		} else {
			snap.Highlight = ""
			if snap.State == StateHighlighted {
				snap.State = StateIdle
			}
		}
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

// Reset clears highlight and search back to idle (escape key, reset button).
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.snap.State = StateIdle
	c.snap.Highlight = ""
	c.snap.SearchText = ""
	snap := c.snap
	c.mu.Unlock()

	c.notify(snap, true)
}

// ReplaceDataset swaps the underlying dataset (new upload) and forces a full
// rebuild; the old highlight may no longer resolve, so selection resets.
func (c *Coordinator) ReplaceDataset(ds *dataset.Dataset) {
	c.mu.Lock()
	c.ds = ds
	c.snap.State = StateIdle
	c.snap.Highlight = ""
	c.snap.SearchText = ""
	snap := c.snap
	c.mu.Unlock()

	c.rebuild()
	c.notify(snap, false)
}

func (c *Coordinator) dataset() *dataset.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ds
}

func (c *Coordinator) rebuild() {
	if c.rebuilder != nil {
		c.rebuilder.Request()
	}
}

// notify delivers the already-committed snapshot to subscribers. State is
// always updated before this runs, and subscribers get a value copy.
func (c *Coordinator) notify(snap Snapshot, fastPath bool) {
	c.mu.Lock()
	subs := make([]Subscriber, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap, fastPath)
	}
}

func resolve(ds *dataset.Dataset, name string) (dataset.Record, bool) {
	if ds == nil {
		return dataset.Record{}, false
	}
	return ds.ByName(name)
}
