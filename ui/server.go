// Package ui exposes the explorer over HTTP: render-ready chart and map
// configurations, selection mutations, search, and the SSE stream that keeps
// every surface of a page synchronized.
package ui

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"psephos/adapters/postgres"
	"psephos/app"
	"psephos/internal/api"
)

// Server represents the explorer web server
type Server struct {
	router   *gin.Engine
	service  *app.ExplorerService
	hub      *api.SSEHub
	datasets *postgres.DatasetRepository // nil when no database is configured
}

// NewServer creates the web server over an explorer service and SSE hub.
func NewServer(service *app.ExplorerService, hub *api.SSEHub) *Server {
	s := &Server{
		router:  gin.Default(),
		service: service,
		hub:     hub,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Static configuration for the selectors
	s.router.GET("/api/dataset", s.handleDatasetSummary)
	s.router.GET("/api/catalog", s.handleCatalog)

	// Stored datasets (database-backed deployments only)
	s.router.GET("/api/datasets", s.handleListDatasets)
	s.router.POST("/api/datasets/:id/activate", s.handleActivateDataset)
	s.router.GET("/api/catalog/metrics/:key/notes", s.handleMetricNotes)

	// Session bootstrap and current state
	s.router.POST("/api/session", s.handleNewSession)
	s.router.GET("/api/selection", s.handleGetSelection)

	// Render-ready configurations
	s.router.GET("/api/chart", s.handleChart)
	s.router.GET("/api/maps", s.handleMaps)

	// Selection mutations bubbling up from either visualization
	s.router.POST("/api/selection/metric", s.handleSetMetric)
	s.router.POST("/api/selection/party", s.handleSetParty)
	s.router.POST("/api/selection/click", s.handleClick)
	s.router.POST("/api/selection/select", s.handleSelect)
	s.router.POST("/api/selection/search", s.handleSearch)
	s.router.POST("/api/selection/reset", s.handleReset)

	// Recovery path for timed-out or failed rebuilds
	s.router.POST("/api/pipeline/retry", s.handleRetry)

	// Live selection events
	s.router.GET("/api/events", s.hub.HandleSSE)
}

// WithDatasetRepository enables the stored-dataset endpoints.
func (s *Server) WithDatasetRepository(repo *postgres.DatasetRepository) {
	s.datasets = repo
}

// Run starts the HTTP server
func (s *Server) Run(port string) error {
	log.Printf("[Server] Starting explorer server on :%s", port)
	return s.router.Run(":" + port)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
