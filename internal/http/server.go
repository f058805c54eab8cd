// Package http provides the REST API for vectord.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/collections"
	"github.com/gaffar-dulkadir/vectord/internal/material"
	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// Server exposes collections, points, materials and discovery over REST.
type Server struct {
	echo     *echo.Echo
	store    vectorstore.Store
	manager  *collections.Manager
	registry *registry.Registry
	pipeline *material.Pipeline
	logger   *zap.Logger
	config   Config
}

// NewServer creates the HTTP server with routes registered.
func NewServer(
	store vectorstore.Store,
	manager *collections.Manager,
	reg *registry.Registry,
	pipeline *material.Pipeline,
	logger *zap.Logger,
	cfg Config,
) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if manager == nil || reg == nil || pipeline == nil {
		return nil, fmt.Errorf("manager, registry and pipeline are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:     e,
		store:    store,
		manager:  manager,
		registry: reg,
		pipeline: pipeline,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()

	return s, nil
}

// requestLogger logs every request with its id, status and duration.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
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
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	cols := v1.Group("/collections")
	cols.GET("", s.handleListCollections)
	cols.POST("", s.handleCreateCollection)
	cols.POST("/discover", s.handleDiscover)
	cols.GET("/:name", s.handleGetCollection)
	cols.PUT("/:name", s.handleUpdateCollection)
	cols.DELETE("/:name", s.handleDeleteCollection)

	points := cols.Group("/:name/points")
	points.PUT("", s.handleUpsertPoint)
	points.POST("/search", s.handleSearchPoints)
	points.POST("/scroll", s.handleScrollPoints)
	points.GET("/:id", s.handleGetPoint)
	points.PATCH("/:id", s.handleUpdatePoint)
	points.DELETE("/:id", s.handleDeletePoint)

	materials := cols.Group("/:name/materials")
	materials.POST("", s.handleIndexMaterial)
	materials.POST("/batch", s.handleIndexBatch)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "vectord",
		Version: s.config.Version,
	})
}

// Handler returns the root handler. Used by tests and embedding callers.
func (s *Server) Handler() http.Handler {
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
