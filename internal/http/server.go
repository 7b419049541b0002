// Package http provides the HTTP API for deskd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
	"github.com/fyrsmithlabs/deskd/internal/pipeline"
)

// QueryService answers and routes help-desk queries. Implemented by
// pipeline.Service.
type QueryService interface {
	Ask(ctx context.Context, query string) (*pipeline.Result, error)
	RouteOnly(ctx context.Context, query string) (*pipeline.Result, error)
}

// EntryCounter reports the knowledge base size for health checks.
// Implemented by knowledge.Store.
type EntryCounter interface {
	Count(ctx context.Context) (int, error)
}

// Server provides HTTP endpoints for deskd.
type Server struct {
	echo     *echo.Echo
	pipeline QueryService
	entries  EntryCounter
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// NewServer creates a new HTTP server. metrics may be nil, in which case
// no request metrics are recorded.
func NewServer(pipeline QueryService, entries EntryCounter, metrics *HTTPMetrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("query service cannot be nil")
	}
	if entries == nil {
		return nil, fmt.Errorf("entry counter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if metrics != nil {
		e.Use(metrics.MetricsMiddleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		pipeline: pipeline,
		entries:  entries,
		logger:   logger,
		config:   cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/query", s.handleQuery)
	v1.POST("/route", s.handleRoute)
}

// handleQuery runs the full pipeline: route, answer per department, merge.
func (s *Server) handleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid query request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.pipeline.Ask(c.Request().Context(), req.Query)
	if err != nil {
		return mapPipelineError(err)
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Query:       result.Query,
		Departments: department.Keys(result.Departments),
		Fallback:    result.Fallback,
		Answer:      result.Answer,
	})
}

// handleRoute returns the routing decision without retrieval or generation.
func (s *Server) handleRoute(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid route request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.pipeline.RouteOnly(c.Request().Context(), req.Query)
	if err != nil {
		return mapPipelineError(err)
	}

	return c.JSON(http.StatusOK, RouteResponse{
		Query:       result.Query,
		Departments: department.Keys(result.Departments),
		Fallback:    result.Fallback,
	})
}

// handleHealth reports service status and the knowledge base size.
//
// A failing count does not fail the health check: the daemon is still
// serving, so the response stays 200 with knowledge_entries set to -1.
func (s *Server) handleHealth(c echo.Context) error {
	entries, err := s.entries.Count(c.Request().Context())
	if err != nil {
		s.logger.Warn("knowledge entry count unavailable", zap.Error(err))
		entries = -1
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:           "ok",
		Service:          "deskd",
		Version:          s.config.Version,
		KnowledgeEntries: entries,
	})
}

// mapPipelineError translates pipeline errors into HTTP responses.
func mapPipelineError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "Query cannot be empty.")
	case errors.Is(err, pipeline.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream model or store failure")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Echo returns the underlying Echo instance. Used to register additional
// routes, such as the Prometheus scrape endpoint, before Start.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
