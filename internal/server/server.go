// Package server hosts simulations over HTTP. Each live session is guarded
// by its own mutex so a session sees one turn at a time while different
// sessions proceed in parallel.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/berth-dev/cutover/internal/archive"
	"github.com/berth-dev/cutover/internal/simulation"
)

// Archive stores finished sessions. *archive.Store satisfies it.
type Archive interface {
	Save(ctx context.Context, snap simulation.Snapshot, report *simulation.Report) error
	Get(ctx context.Context, id string) (*archive.Record, error)
	List(ctx context.Context, limit int) ([]archive.Summary, error)
}

// Options configures a Server. Controller is required.
type Options struct {
	Controller *simulation.Controller
	Archive    Archive
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
}

// Server is the HTTP front-end for the simulation.
type Server struct {
	ctrl     *simulation.Controller
	archive  Archive
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

type liveSession struct {
	mu      sync.Mutex
	session *simulation.Session
}

// New builds a Server.
func New(opts Options) *Server {
	s := &Server{
		ctrl:     opts.Controller,
		archive:  opts.Archive,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
		sessions: make(map[string]*liveSession),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the gin engine with every route mounted.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("cutover"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.DELETE("/sessions/:id", s.deleteSession)
	v1.POST("/sessions/:id/messages", s.postMessage)
	v1.GET("/sessions/:id/report", s.getReport)
	v1.GET("/history", s.listHistory)
	v1.GET("/history/:id", s.getHistory)
	return router
}

type createRequest struct {
	UserID string `json:"user_id" binding:"max=128"`
}

type createResponse struct {
	SessionID string               `json:"session_id"`
	Intro     string               `json:"intro"`
	Round     simulation.RoundInfo `json:"round_info"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	sess, intro, err := s.ctrl.Start(c.Request.Context(), req.UserID)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = &liveSession{session: sess}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, createResponse{SessionID: sess.ID(), Intro: intro, Round: sess.RoundInfo()})
}

func (s *Server) lookup(c *gin.Context) (*liveSession, bool) {
	s.mu.Lock()
	live, ok := s.sessions[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
	return live, ok
}

type sessionResponse struct {
	Session simulation.Snapshot  `json:"session"`
	Round   simulation.RoundInfo `json:"round_info"`
}

func (s *Server) getSession(c *gin.Context) {
	live, ok := s.lookup(c)
	if !ok {
		return
	}
	live.mu.Lock()
	resp := sessionResponse{Session: live.session.Snapshot(), Round: s.ctrl.PeekRoundInfo(live.session)}
	live.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteSession(c *gin.Context) {
	s.mu.Lock()
	_, ok := s.sessions[c.Param("id")]
	delete(s.sessions, c.Param("id"))
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text" binding:"required,max=8000"`
}

type messageResponse struct {
	Turn  *simulation.Turn     `json:"turn"`
	Round simulation.RoundInfo `json:"round_info"`
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	live, ok := s.lookup(c)
	if !ok {
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	turn, err := s.ctrl.Submit(c.Request.Context(), live.session, req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	if turn.Ended {
		s.archiveSession(c.Request.Context(), live.session)
	}
	c.JSON(http.StatusOK, messageResponse{Turn: turn, Round: live.session.RoundInfo()})
}

// archiveSession stores an ended session. Failures are logged; the player
// already has the feedback.
func (s *Server) archiveSession(ctx context.Context, sess *simulation.Session) {
	if s.archive == nil {
		return
	}
	report, ok := sess.Report()
	if !ok {
		return
	}
	if err := s.archive.Save(ctx, sess.Snapshot(), report); err != nil {
		s.logger.Error("archiving session failed", "session", sess.ID(), "error", err)
	}
}

func (s *Server) getReport(c *gin.Context) {
	live, ok := s.lookup(c)
	if !ok {
		return
	}
	live.mu.Lock()
	report, ended := s.ctrl.LastReport(live.session)
	live.mu.Unlock()
	if !ended {
		c.JSON(http.StatusConflict, gin.H{"error": "session has not ended"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) listHistory(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive disabled"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	list, err := s.archive.List(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if list == nil {
		list = []archive.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": list})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive disabled"})
		return
	}
	rec, err := s.archive.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// fail maps an error to a status code. Extraction and persona failures are
// retryable by resubmitting.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simulation.ErrInvalidPhase), errors.Is(err, simulation.ErrSessionEnded):
		status = http.StatusConflict
	case errors.Is(err, simulation.ErrExtraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, simulation.ErrPersonaResponse):
		status = http.StatusBadGateway
	case errors.Is(err, archive.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "retryable": status == http.StatusUnprocessableEntity || status == http.StatusBadGateway})
}
