package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/echomind/ai/metrics"
	"github.com/hrygo/echomind/internal/profile"
	apiv1 "github.com/hrygo/echomind/server/router/api/v1"
	"github.com/hrygo/echomind/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *metrics.PrometheusExporter
	listener   net.Listener
}

// NewServer builds the HTTP server. deps may override the AI capabilities, for tests.
func NewServer(_ context.Context, p *profile.Profile, s *store.Store, deps ...apiv1.Deps) (*Server, error) {
	echoServer := echo.New()
	echoServer.Debug = p.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	server := &Server{
		Profile:    p,
		Store:      s,
		echoServer: echoServer,
		metrics:    metrics.NewPrometheusExporter(metrics.DefaultConfig()),
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		if err := s.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
			return c.String(http.StatusServiceUnavailable, "Database unavailable\n")
		}
		return c.String(http.StatusOK, "Service ready.\n")
	})
	echoServer.GET("/metrics", echo.WrapHandler(server.metrics.Handler()))

	var d apiv1.Deps
	if len(deps) > 0 {
		d = deps[0]
	}
	apiv1.NewAPIV1Service(p, s, server.metrics, d).RegisterRoutes(echoServer)

	return server, nil
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start begins serving in the background once the listener is bound.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	s.listener = listener

	go func() {
		s.echoServer.Listener = listener
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to serve http", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped properly")
}
