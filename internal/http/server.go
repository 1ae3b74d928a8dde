// Package http provides the colmenad HTTP API: suggestion cards, consultas,
// session inspection, inventory and device control.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/devices"
	"github.com/apiariosamano/colmena/internal/inventory"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/session"
	"github.com/apiariosamano/colmena/internal/suggestions"
)

// Advisor produces suggestion cards and answers consultas.
type Advisor interface {
	ApiarioSuggestions(ctx context.Context, idApiario int64) ([]suggestions.Card, error)
	Predictions(ctx context.Context) ([]suggestions.Card, error)
	ProductionSuggestions(ctx context.Context) ([]suggestions.Card, error)
	Ask(ctx context.Context, question string) (backend.Answer, error)
}

// InventoryLoader loads the warehouse snapshot.
type InventoryLoader interface {
	Load(ctx context.Context) (*inventory.Snapshot, error)
}

// DeviceService sends actuator commands and reads device reports.
// *backend.ApiariosService implements it.
type DeviceService interface {
	devices.Commander
	devices.Reader
}

// Deps are the collaborators behind the API routes.
type Deps struct {
	Advisor   Advisor
	Inventory InventoryLoader
	Devices   DeviceService

	// Sink receives actuator events and polled snapshots. Optional.
	Sink devices.Sink

	// StaleThreshold is passed to device pollers; zero uses the default.
	StaleThreshold time.Duration

	// Registry backs /metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry

	// Metrics records OpenTelemetry request metrics. Optional.
	Metrics *HTTPMetrics
}

// Server provides HTTP endpoints for colmenad.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	cards  *CardMetrics
	logger *logging.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, logger *logging.Logger, cfg *Config) (*Server, error) {
	if deps.Advisor == nil {
		return nil, fmt.Errorf("advisor cannot be nil")
	}
	if deps.Inventory == nil {
		return nil, fmt.Errorf("inventory loader cannot be nil")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8090,
		}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	cards, err := NewCardMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("registering card metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			if logging.ValidID(id) {
				ctx := logging.WithRequestID(c.Request().Context(), id)
				c.SetRequest(c.Request().WithContext(ctx))
			}
		},
	}))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.MetricsMiddleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		deps:   deps,
		cards:  cards,
		logger: logger,
		config: cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/suggestions", s.handleSuggestions)

	authed := v1.Group("", session.RequireRole(), forwardToken)
	authed.GET("/session", s.handleSession)
	authed.GET("/apiarios/:id/sugerencias", s.handleApiarioSuggestions)
	authed.GET("/predicciones", s.handlePredictions)
	authed.GET("/produccion/sugerencias", s.handleProductionSuggestions)
	authed.POST("/consulta", s.handleConsulta)
	authed.GET("/inventario", s.handleInventory)
	authed.POST("/dispositivos/:id/actuadores/:actuador", s.handleActuator)
	authed.GET("/dispositivos/:id/lecturas", s.handleReadings)
}

// forwardToken makes the caller's token and usuario id available to
// backend calls made with the request context.
func forwardToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := backend.WithToken(c.Request().Context(), session.TokenFromEcho(c))
		if claims, ok := session.FromEcho(c); ok {
			ctx = logging.WithUserID(ctx, claims.UserID)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleSuggestions parses caller-supplied model text. It needs no session
// since nothing reaches the backend.
func (s *Server) handleSuggestions(c echo.Context) error {
	var req SuggestionsRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid suggestions request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	variant, err := suggestions.ParseVariant(req.Variant)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cards := suggestions.ForVariant(variant).Parse(req.Text)
	s.cards.Observe("text_"+string(variant), cards)
	return c.JSON(http.StatusOK, cardsResponse(cards))
}

func (s *Server) handleSession(c echo.Context) error {
	claims, _ := session.FromEcho(c)
	resp := SessionResponse{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Nombre:   claims.FullName(),
		Rol:      claims.Role,
		Operador: claims.IsOperator(),
	}
	if !claims.ExpiresAt.IsZero() {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleApiarioSuggestions(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "apiario id must be a positive integer")
	}
	cards, err := s.deps.Advisor.ApiarioSuggestions(c.Request().Context(), id)
	if err != nil {
		return s.upstreamError(c, err)
	}
	s.cards.Observe("recomendaciones", cards)
	return c.JSON(http.StatusOK, cardsResponse(cards))
}

func (s *Server) handlePredictions(c echo.Context) error {
	cards, err := s.deps.Advisor.Predictions(c.Request().Context())
	if err != nil {
		return s.upstreamError(c, err)
	}
	s.cards.Observe("predicciones", cards)
	return c.JSON(http.StatusOK, cardsResponse(cards))
}

func (s *Server) handleProductionSuggestions(c echo.Context) error {
	cards, err := s.deps.Advisor.ProductionSuggestions(c.Request().Context())
	if err != nil {
		return s.upstreamError(c, err)
	}
	s.cards.Observe("produccion", cards)
	return c.JSON(http.StatusOK, cardsResponse(cards))
}

func (s *Server) handleConsulta(c echo.Context) error {
	var req ConsultaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Pregunta) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pregunta field is required")
	}
	ans, err := s.deps.Advisor.Ask(c.Request().Context(), req.Pregunta)
	if err != nil {
		return s.upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, ans)
}

func (s *Server) handleInventory(c echo.Context) error {
	snap, err := s.deps.Inventory.Load(c.Request().Context())
	if err != nil {
		return s.upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleActuator(c echo.Context) error {
	var req ActuatorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	id, actuator := c.Param("id"), c.Param("actuador")

	opts := []devices.PanelOption{devices.WithPanelLogger(s.logger)}
	if s.deps.Sink != nil {
		opts = append(opts, devices.WithPanelSink(s.deps.Sink))
	}
	panel, err := devices.NewPanel(id, s.deps.Devices, opts...)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp, err := panel.Apply(c.Request().Context(), actuator, req.Value)
	if err != nil {
		return s.upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, ActuatorResponse{
		DispositivoID: id,
		Actuator:      actuator,
		Value:         req.Value,
		Response:      resp,
	})
}

func (s *Server) handleReadings(c echo.Context) error {
	opts := []devices.PollerOption{
		devices.WithStaleThreshold(s.deps.StaleThreshold),
		devices.WithPollerLogger(s.logger),
	}
	if s.deps.Sink != nil {
		opts = append(opts, devices.WithSink(s.deps.Sink))
	}
	poller, err := devices.NewPoller(c.Param("id"), s.deps.Devices, opts...)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	snap, err := poller.Poll(c.Request().Context())
	if err != nil {
		return s.upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// upstreamError maps collaborator errors onto HTTP statuses.
func (s *Server) upstreamError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, backend.ErrInvalidRequest),
		errors.Is(err, devices.ErrInvalidValue),
		errors.Is(err, devices.ErrUnknownActuator):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrUnsupportedActuator):
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error())
	case backend.IsUnauthorized(err):
		return echo.NewHTTPError(http.StatusUnauthorized, "backend rejected the session")
	case backend.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn(c.Request().Context(), "upstream timeout", zap.Error(err))
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream timeout")
	}
	s.logger.Error(c.Request().Context(), "upstream request failed",
		zap.String("path", c.Path()), zap.Error(err))
	return echo.NewHTTPError(http.StatusBadGateway, "upstream service failed")
}

// Echo returns the underlying router, for tests and extra routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
