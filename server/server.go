// Package server wires the HTTP harness around the store and services.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/internal/profile"
	apiv1 "github.com/kbdesk/kbdesk/server/router/api/v1"
	"github.com/kbdesk/kbdesk/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to ensure database schema")
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiService, err := apiv1.NewAPIV1Service(profile, store, slog.Default())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create API v1 service")
	}
	apiService.RegisterRoutes(e)
	s.apiService = apiService

	return s, nil
}

func (s *Server) Start() error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped")
}
