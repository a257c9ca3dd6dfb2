// Package server exposes session model upload and applicant evaluation over HTTP,
// next to the health and metrics endpoints the worker manager serves.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loan-eligibility/internal/common/config"
	"loan-eligibility/internal/common/logger"
	"loan-eligibility/internal/common/observability"
	"loan-eligibility/internal/decision"
	"loan-eligibility/internal/eligibility"
	"loan-eligibility/internal/model"
	"loan-eligibility/internal/workers/eligibility/evaluate"
)

// DecisionRecorder persists served verdicts. *decision.Recorder satisfies it.
type DecisionRecorder interface {
	Save(ctx context.Context, rec decision.Record) (decision.Record, bool, error)
}

// Deps are the collaborators the HTTP surface needs. Recorder, Obs and
// Checkers are optional.
type Deps struct {
	Sessions    *model.SessionStore
	Evaluator   *evaluate.Handler
	FieldOrders eligibility.FieldOrders
	Recorder    DecisionRecorder
	Obs         *observability.Observability
	Checkers    []Checker
	Logger      logger.Logger
}

type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	engine *gin.Engine
	http   *http.Server
	logger logger.Logger
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	if deps.FieldOrders == nil {
		deps.FieldOrders = eligibility.BuiltinFieldOrders()
	}
	s := &Server{cfg: cfg, deps: deps, logger: deps.Logger}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	if s.deps.Obs != nil && s.deps.Obs.Meter() != nil {
		r.Use(metricMiddleware(s.deps.Obs.Meter()))
	}

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/form", s.form)
	v1.GET("/field-orders", s.fieldOrders)
	v1.PUT("/sessions/:sessionId/model", s.uploadModel)
	v1.GET("/sessions/:sessionId/model", s.getModel)
	v1.DELETE("/sessions/:sessionId/model", s.deleteModel)
	v1.POST("/sessions/:sessionId/evaluations", s.evaluate)
	return r
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.cfg.Address})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
