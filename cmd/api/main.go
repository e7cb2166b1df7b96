// Command api is a stateless, read-only HTTP surface over a constituency
// dataset: chart and paint configs computed per request, no sessions, no
// push events. Useful for batch rendering and smoke checks against the
// same pipelines the interactive server runs.
package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"psephos/adapters/csvdata"
	"psephos/domain/core"
	"psephos/domain/dataset"
	"psephos/internal/colorscale"
	"psephos/internal/config"
	"psephos/internal/pipeline"
)

type apiServer struct {
	ds      *dataset.Dataset
	catalog dataset.Catalog
	chart   *pipeline.ChartPipeline
	maps    *pipeline.MapPipeline
	limit   int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	catalog, err := config.LoadCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	ds, err := csvdata.NewReader(appConfig.Data.File, appConfig.Data.NameColumn, appConfig.Data.CodeColumn).Read()
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	srv := &apiServer{
		ds:      ds,
		catalog: catalog,
		chart:   pipeline.NewChartPipeline(catalog),
		maps:    pipeline.NewMapPipeline(catalog),
		limit:   appConfig.Pipeline.SearchLimit,
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))

	router.Get("/healthz", srv.handleHealth)
	router.Get("/api/catalog", srv.handleCatalog)
	router.Get("/api/chart", srv.handleChart)
	router.Get("/api/paint", srv.handlePaint)
	router.Get("/api/search", srv.handleSearch)

	log.Printf("Starting read-only API server on port %s", appConfig.Server.Port)
	log.Fatal(http.ListenAndServe(":"+appConfig.Server.Port, router))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "constituencies": s.ds.Len()})
}

func (s *apiServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog)
}

// handleChart computes a scatter config for ?x=<metric>&y=<party>.
func (s *apiServer) handleChart(w http.ResponseWriter, r *http.Request) {
	x := core.MetricKey(r.URL.Query().Get("x"))
	y := core.MetricKey(r.URL.Query().Get("y"))
	if x == "" || y == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y parameters required"})
		return
	}

	chart, err := s.chart.Process(s.ds, x, y)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// handlePaint computes a choropleth fill for ?key=<metric or party>.
func (s *apiServer) handlePaint(w http.ResponseWriter, r *http.Request) {
	key := core.MetricKey(r.URL.Query().Get("key"))
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key parameter required"})
		return
	}

	binning := s.chart.BinningFor(s.ds, key)
	paint, err := s.maps.BuildPaint(s.ds, key, binning, colorscale.Blues)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, paint)
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]any{"results": s.ds.SearchNames(q, s.limit)})
}
