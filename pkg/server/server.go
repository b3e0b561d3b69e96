package server

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/magnolia/config"
	"github.com/Ramsey-B/magnolia/pkg/middleware"
	"github.com/Ramsey-B/magnolia/pkg/routes/health"
	importlogroutes "github.com/Ramsey-B/magnolia/pkg/routes/importlog"
)

// Server is the HTTP surface of the importer: health checks, import log
// queries and Prometheus metrics. The import pipeline itself runs on the
// scheduler, not behind a route.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger ectologger.Logger
}

// New assembles the echo instance with middleware and routes
func New(cfg *config.Config, checker *health.Checker, logger ectologger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	importlogroutes.Register(api.Group("/import-logs"))

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
}

// Echo exposes the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins serving and blocks until the server stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.WithField("addr", addr).Info("Starting HTTP server")
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
