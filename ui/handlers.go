package ui

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"

	"psephos/app"
	"psephos/domain/core"
	"psephos/internal/errors"
)

// sessionRequest is the shared body shape for selection mutations.
type sessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Key       string `json:"key,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text,omitempty"`
}

func (s *Server) session(c *gin.Context) (*app.Session, bool) {
	id := c.Query("session_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id parameter required"})
		return nil, false
	}
	return s.service.Session(core.SessionID(id)), true
}

func (s *Server) sessionFromBody(c *gin.Context) (*app.Session, *sessionRequest, bool) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required in body"})
		return nil, nil, false
	}
	return s.service.Session(core.SessionID(req.SessionID)), &req, true
}

func (s *Server) handleNewSession(c *gin.Context) {
	id := core.NewSessionID()
	s.service.Session(id)
	c.JSON(http.StatusOK, gin.H{"session_id": id.String()})
}

func (s *Server) handleCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Catalog())
}

func (s *Server) handleDatasetSummary(c *gin.Context) {
	ds := s.service.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"constituencies": ds.Len(),
		"metrics":        len(s.service.Catalog().Metrics),
		"parties":        len(s.service.Catalog().Parties),
	})
}

func (s *Server) handleListDatasets(c *gin.Context) {
	if s.datasets == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no database configured"})
		return
	}
	stored, err := s.datasets.List(c.Request.Context())
	if err != nil {
		log.Printf("[API] Failed to list datasets: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list datasets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": stored})
}

// handleActivateDataset loads a stored dataset and swaps it in as the live
// one; every session resets its selection and rebuilds.
func (s *Server) handleActivateDataset(c *gin.Context) {
	if s.datasets == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no database configured"})
		return
	}
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := s.datasets.Load(c.Request.Context(), id)
	if err != nil {
		log.Printf("[API] Failed to load dataset %s: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
		return
	}

	s.service.ReplaceDataset(ds)
	c.JSON(http.StatusOK, gin.H{"constituencies": ds.Len()})
}

// handleMetricNotes renders a metric's markdown methodology notes to HTML.
func (s *Server) handleMetricNotes(c *gin.Context) {
	key := core.MetricKey(c.Param("key"))
	metric, ok := s.service.Catalog().Metric(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "metric not found"})
		return
	}

	html := markdown.ToHTML([]byte(metric.Notes), nil, nil)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleGetSelection(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

// handleChart returns the latest committed chart configuration. Failures are
// reported as an explanatory payload, never a crashed page: data-shape
// problems are terminal, timeouts are retryable.
func (s *Server) handleChart(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	chart, ready := sess.Chart()
	if !ready {
		s.renderPipelineState(c, sess)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (s *Server) handleMaps(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}

	maps, ready := sess.Maps()
	if !ready {
		s.renderPipelineState(c, sess)
		return
	}
	c.JSON(http.StatusOK, maps)
}

// renderPipelineState explains why no render output exists yet.
func (s *Server) renderPipelineState(c *gin.Context, sess *app.Session) {
	if err := sess.LastError(); err != nil {
		code := errors.GetCode(err)
		status := http.StatusInternalServerError
		if code == errors.CodeDataShape {
			status = http.StatusUnprocessableEntity
		}
		log.Printf("[API] Pipeline not ready: %v", err)
		c.JSON(status, gin.H{
			"error":     "cannot render",
			"code":      code,
			"message":   err.Error(),
			"retryable": code != errors.CodeDataShape,
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "building"})
}

func (s *Server) handleSetMetric(c *gin.Context) {
	sess, req, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	key, err := core.ParseMetricKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, found := s.service.Catalog().Metric(key); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown metric"})
		return
	}
	sess.Coordinator().SetMetric(key)
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

func (s *Server) handleSetParty(c *gin.Context) {
	sess, req, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	key, err := core.ParseMetricKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, found := s.service.Catalog().Party(key); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown party variable"})
		return
	}
	sess.Coordinator().SetParty(key)
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

// handleClick reconciles a click from the chart or either map: toggle off on
// the highlighted constituency, re-target on any other.
func (s *Server) handleClick(c *gin.Context) {
	sess, req, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	sess.Coordinator().Click(req.Name)
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

// handleSelect commits a search result as the highlight.
func (s *Server) handleSelect(c *gin.Context) {
	sess, req, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	sess.Coordinator().Select(req.Name)
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

func (s *Server) handleSearch(c *gin.Context) {
	sess, req, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	sess.Coordinator().Type(req.Text)
	c.JSON(http.StatusOK, gin.H{
		"results":  sess.Coordinator().Search(req.Text),
		"snapshot": sess.Coordinator().Snapshot(),
	})
}

func (s *Server) handleReset(c *gin.Context) {
	sess, _, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	sess.Coordinator().Reset()
	c.JSON(http.StatusOK, sess.Coordinator().Snapshot())
}

func (s *Server) handleRetry(c *gin.Context) {
	sess, _, ok := s.sessionFromBody(c)
	if !ok {
		return
	}
	sess.Retry()
	c.JSON(http.StatusOK, gin.H{"status": "retrying"})
}
