// Package app wires the chart and map pipelines, the selection coordinator,
// and the rebuild scheduler into per-session explorer state.
package app

import (
	"context"
	"sync"
	"time"

	"psephos/domain/core"
	"psephos/domain/dataset"
	"psephos/domain/render"
	"psephos/internal"
	"psephos/internal/api"
	"psephos/internal/config"
	"psephos/internal/errors"
	"psephos/internal/highlight"
	"psephos/internal/pipeline"
	"psephos/internal/selection"
)

// EventSink receives selection events for push delivery to browsers.
type EventSink interface {
	Broadcast(event api.SelectionEvent)
}

// SelectionStore caches per-session selections across restarts and
// reconnects: a returning page re-bootstraps its highlight, axes, and search
// text from the store instead of replaying events. Save carries a
// monotonically increasing per-session version so the store can refuse
// out-of-order writes; Load's third return is false for unknown sessions.
type SelectionStore interface {
	Save(ctx context.Context, sessionID core.SessionID, snap selection.Snapshot, version int) error
	Load(ctx context.Context, sessionID core.SessionID) (selection.Snapshot, int, bool, error)
}

// ExplorerService owns the loaded dataset and one explorer Session per
// connected page. The dataset and pipelines are shared; selection state,
// scheduler, and cached render output are per session.
type ExplorerService struct {
	mu       sync.RWMutex
	ds       *dataset.Dataset
	catalog  dataset.Catalog
	chart    *pipeline.ChartPipeline
	maps     *pipeline.MapPipeline
	cfg      config.PipelineConfig
	sink     EventSink
	store    SelectionStore
	sessions map[core.SessionID]*Session
	logger   *internal.Logger
}

// NewExplorerService creates the service over a loaded dataset.
func NewExplorerService(ds *dataset.Dataset, catalog dataset.Catalog, cfg config.PipelineConfig, sink EventSink) *ExplorerService {
	return &ExplorerService{
		ds:       ds,
		catalog:  catalog,
		chart:    pipeline.NewChartPipeline(catalog),
		maps:     pipeline.NewMapPipeline(catalog),
		cfg:      cfg,
		sink:     sink,
		sessions: make(map[core.SessionID]*Session),
		logger:   internal.DefaultLogger,
	}
}

// UseSelectionStore enables selection snapshot persistence. Call before the
// first session is created; sessions existing beforehand are not retrofitted.
func (s *ExplorerService) UseSelectionStore(store SelectionStore) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// Catalog returns the configured descriptors.
func (s *ExplorerService) Catalog() dataset.Catalog {
	return s.catalog
}

// Dataset returns the currently loaded dataset.
func (s *ExplorerService) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// ReplaceDataset swaps in a newly loaded dataset. Every session resets its
// selection (old highlights may no longer resolve) and rebuilds.
func (s *ExplorerService) ReplaceDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	s.ds = ds
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.coordinator.ReplaceDataset(ds)
	}
}

// Session returns the explorer session for an ID, creating it on first use.
// A new session starts idle on the first configured party and metric and
// schedules its initial build.
func (s *ExplorerService) Session(id core.SessionID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	sess := &Session{ID: id, service: s}
	sess.scheduler = pipeline.NewScheduler(s.cfg.Debounce, s.cfg.RenderTimeout, sess.rebuild)
	sess.coordinator = selection.New(s.ds, s.defaultParty(), s.defaultMetric(), sess.scheduler, s.cfg.SearchLimit)
	s.restoreSelection(sess)
	sess.coordinator.Subscribe(sess.onSelectionChange)
	if s.store != nil {
		sess.coordinator.Subscribe(sess.persistSelection)
	}

	s.sessions[id] = sess
	sess.scheduler.Request()
	return sess
}

// restoreSelection re-bootstraps a returning session from the selection
// store. Keys that no longer exist in the catalog fall back to the defaults;
// the coordinator drops a highlight the dataset can no longer resolve.
func (s *ExplorerService) restoreSelection(sess *Session) {
	if s.store == nil {
		return
	}
	snap, version, found, err := s.store.Load(context.Background(), sess.ID)
	if err != nil {
		s.logger.Warn("session %s: selection restore failed: %v", sess.ID, err)
		return
	}
	if !found {
		return
	}

	if _, ok := s.catalog.Metric(snap.Metric); !ok {
		snap.Metric = s.defaultMetric()
	}
	if _, ok := s.catalog.Party(snap.Party); !ok {
		snap.Party = s.defaultParty()
	}
	sess.coordinator.Restore(snap)
	sess.version = version
}

func (s *ExplorerService) defaultParty() core.MetricKey {
	if len(s.catalog.Parties) > 0 {
		return s.catalog.Parties[0].Key
	}
	return ""
}

func (s *ExplorerService) defaultMetric() core.MetricKey {
	if len(s.catalog.Metrics) > 0 {
		return s.catalog.Metrics[0].Key
	}
	return ""
}

// Session is one page's explorer state: the selection coordinator, the
// debounced rebuild scheduler, and the latest committed render output.
type Session struct {
	ID          core.SessionID
	service     *ExplorerService
	coordinator *selection.Coordinator
	scheduler   *pipeline.Scheduler

	mu      sync.RWMutex
	chart   render.ChartData
	maps    render.MapPair
	ready   bool
	version int // last persisted selection version
}

// Coordinator exposes the session's selection state machine.
func (sess *Session) Coordinator() *selection.Coordinator {
	return sess.coordinator
}

// Chart returns the latest committed chart configuration.
func (sess *Session) Chart() (render.ChartData, bool) {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.chart, sess.ready
}

// Maps returns the latest committed map paint pair.
func (sess *Session) Maps() (render.MapPair, bool) {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.maps, sess.ready
}

// LastError reports the most recent rebuild failure for the error banner.
func (sess *Session) LastError() error {
	return sess.scheduler.LastError()
}

// Retry re-attempts the full pipeline for the current selection, after a
// timeout or failure, without a page reload.
func (sess *Session) Retry() {
	sess.scheduler.Retry()
}

// rebuild is the expensive path: full statistics, binning, and paint pass
// for the latest selection snapshot. The commit is generation-gated so a
// pass that resolves after a newer selection never lands.
func (sess *Session) rebuild(ctx context.Context, gen uint64) error {
	ds := sess.service.Dataset()
	if ds == nil || ds.Len() == 0 {
		return errors.DataShape("no dataset loaded")
	}
	snap := sess.coordinator.Snapshot()

	chart, err := sess.service.chart.Process(ds, snap.Metric, snap.Party)
	if err != nil {
		return errors.Wrap(err, "chart pipeline failed")
	}
	chart.Styles = highlight.StyleAll(chart.Points, snap.Highlight)

	// Left map runs off the party axis with its own binning; the right map
	// shares the chart's x-axis binning so the legends agree.
	partyBinning := sess.service.chart.BinningFor(ds, snap.Party)
	maps, surfaceErrs := sess.service.maps.BuildPair(ds, snap.Party, snap.Metric, partyBinning, chart.Binning, snap.Highlight)
	for _, serr := range surfaceErrs {
		sess.service.logger.Warn("session %s: %v", sess.ID, serr)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	committed := sess.scheduler.Commit(gen, func() {
		sess.mu.Lock()
		sess.chart = chart
		sess.maps = maps
		sess.ready = true
		sess.mu.Unlock()
	})
	if !committed {
		sess.service.logger.Debug("session %s: discarding stale rebuild gen %d", sess.ID, gen)
		return nil
	}

	sess.emit("rebuild", snap, false)
	return nil
}

// onSelectionChange applies fast-path updates: restyle the cached points and
// retoggle the outline filter without touching statistics or binning.
func (sess *Session) onSelectionChange(snap selection.Snapshot, fastPath bool) {
	if !fastPath {
		// The scheduler already has a rebuild queued for this change.
		sess.emit("selection", snap, false)
		return
	}

	sess.mu.Lock()
	if sess.ready {
		sess.chart.Styles = highlight.StyleAll(sess.chart.Points, snap.Highlight)
		sess.maps.Outline = highlight.OutlineFor(sess.service.Dataset(), snap.Highlight)
	}
	sess.mu.Unlock()

	sess.emit("highlight", snap, true)
}

// persistSelection writes every committed selection to the store off the
// mutation path. The version bump happens synchronously so saves carry the
// order mutations occurred in; the store discards any that arrive stale.
func (sess *Session) persistSelection(snap selection.Snapshot, fastPath bool) {
	store := sess.service.store
	if store == nil {
		return
	}

	sess.mu.Lock()
	sess.version++
	version := sess.version
	sess.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Save(ctx, sess.ID, snap, version); err != nil {
			sess.service.logger.Warn("session %s: selection snapshot save failed: %v", sess.ID, err)
		}
	}()
}

func (sess *Session) emit(eventType string, snap selection.Snapshot, fastPath bool) {
	if sess.service.sink == nil {
		return
	}
	sess.service.sink.Broadcast(api.SelectionEvent{
		SessionID: sess.ID.String(),
		EventType: eventType,
		FastPath:  fastPath,
		Snapshot:  snap,
		Timestamp: core.Now().Time(),
	})
}
