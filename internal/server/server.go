package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenthands/lineage/internal/core/store"
	"github.com/agenthands/lineage/internal/logger"
)

var (
	ErrPersistenceDisabled = errors.New("persistence is disabled")
	ErrLoadFailed          = errors.New("persisted tree failed to load, not overwriting it")
)

type Server struct {
	Store     *store.Store
	Persister store.Persister

	validate *validator.Validate
	// loadFailed holds Checkpoint back after a failed Load, so an empty
	// store never replaces the tree that could not be read.
	loadFailed atomic.Bool
}

// NewServer wraps st. persister may be nil, in which case save and load
// requests are refused.
func NewServer(st *store.Store, persister store.Persister) *Server {
	return &Server{
		Store:     st,
		Persister: persister,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/members", s.ListMembers)
	r.POST("/members", s.AddMember)
	r.GET("/members/:id", s.GetMember)
	r.PATCH("/members/:id", s.UpdateMember)
	r.DELETE("/members/:id", s.DeleteMember)

	r.GET("/relationships", s.ListRelationships)
	r.POST("/relationships", s.AddRelationship)
	r.POST("/relationships/validate", s.ValidateRelationship)
	r.DELETE("/relationships/:id", s.DeleteRelationship)

	r.GET("/selection", s.GetSelection)
	r.PUT("/selection", s.Select)
	r.DELETE("/selection", s.ClearSelection)

	r.GET("/snapshot", s.ExportSnapshot)
	r.PUT("/snapshot", s.ImportSnapshot)

	r.GET("/settings", s.GetSettings)
	r.PATCH("/settings", s.UpdateSettings)

	r.POST("/message", s.ApplyMessage)
	r.GET("/ws", s.MessageSocket)

	r.GET("/layout", s.Layout)
	r.GET("/stats", s.Stats)

	r.POST("/save", s.SaveHandler)
	r.POST("/load", s.LoadHandler)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Save writes the store through the persister. Failures are logged and
// returned; the in-memory graph is unaffected either way. An explicit save
// is taken as consent to replace whatever failed to load.
func (s *Server) Save(ctx context.Context) error {
	if s.Persister == nil {
		return ErrPersistenceDisabled
	}
	if err := s.Store.Save(ctx, s.Persister); err != nil {
		persistTotal.WithLabelValues("save", "error").Inc()
		logger.Error("save failed", "error", err)
		return err
	}
	persistTotal.WithLabelValues("save", "ok").Inc()
	s.loadFailed.Store(false)
	logger.Info("tree saved", "members", len(s.Store.Persons()))
	return nil
}

// Checkpoint is the unattended save used by autosave and shutdown. It
// refuses to write while the persisted tree has failed to load.
func (s *Server) Checkpoint(ctx context.Context) error {
	if s.loadFailed.Load() {
		persistTotal.WithLabelValues("save", "skipped").Inc()
		logger.Warn("skipping save", "error", ErrLoadFailed)
		return ErrLoadFailed
	}
	return s.Save(ctx)
}

// Load replaces the store with the persisted tree, if there is one.
func (s *Server) Load(ctx context.Context) (bool, error) {
	if s.Persister == nil {
		return false, ErrPersistenceDisabled
	}
	ok, report, err := s.Store.Load(ctx, s.Persister)
	if err != nil {
		s.loadFailed.Store(true)
		persistTotal.WithLabelValues("load", "error").Inc()
		logger.Error("load failed", "error", err)
		return false, err
	}
	s.loadFailed.Store(false)
	persistTotal.WithLabelValues("load", "ok").Inc()
	if !report.OK() {
		logger.Warn("loaded tree had invalid relationships",
			"policy", s.Store.ImportPolicy(), "violations", len(report.Violations))
	}
	if ok {
		logger.Info("tree loaded", "members", len(s.Store.Persons()))
	}
	return ok, nil
}

// RunAutosave saves every interval until ctx is cancelled.
func (s *Server) RunAutosave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Checkpoint(ctx)
		}
	}
}
