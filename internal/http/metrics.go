package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
)

const httpInstrumentationName = "github.com/apiariosamano/colmena/internal/http"

// Command outcomes recorded on colmena.dispositivos.commands_total.
const (
	outcomeSent         = "sent"
	outcomeRejected     = "rejected"
	outcomeUnsupported  = "unsupported"
	outcomeUnauthorized = "unauthorized"
	outcomeFailed       = "failed"
)

var knownActuators = map[string]bool{
	backend.ActuatorFan:    true,
	backend.ActuatorGate:   true,
	backend.ActuatorLight:  true,
	backend.ActuatorMotor:  true,
	backend.ActuatorServo1: true,
	backend.ActuatorServo2: true,
	backend.ActuatorRGB:    true,
}

// HTTPMetrics records BFF request metrics and the actuator commands relayed
// to the apiarios service.
type HTTPMetrics struct {
	logger   *logging.Logger
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
	commands metric.Int64Counter
}

// NewHTTPMetrics registers the instruments on the global meter provider.
func NewHTTPMetrics(logger *logging.Logger) *HTTPMetrics {
	return newHTTPMetrics(otel.Meter(httpInstrumentationName), logger)
}

func newHTTPMetrics(meter metric.Meter, logger *logging.Logger) *HTTPMetrics {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &HTTPMetrics{logger: logger}

	var err error
	m.requests, err = meter.Int64Counter(
		"colmena.http.requests_total",
		metric.WithDescription("BFF requests by method, route pattern and status."),
		metric.WithUnit("{request}"),
	)
	m.warn(err, "requests counter")

	m.duration, err = meter.Float64Histogram(
		"colmena.http.request_duration_seconds",
		metric.WithDescription("BFF request latency. Card routes include the upstream IA call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	m.warn(err, "duration histogram")

	m.inFlight, err = meter.Int64UpDownCounter(
		"colmena.http.active_requests",
		metric.WithDescription("Requests being served."),
		metric.WithUnit("{request}"),
	)
	m.warn(err, "active requests counter")

	m.commands, err = meter.Int64Counter(
		"colmena.dispositivos.commands_total",
		metric.WithDescription("Actuator commands by actuator and outcome (sent, rejected, unsupported, unauthorized, failed)."),
		metric.WithUnit("{command}"),
	)
	m.warn(err, "commands counter")

	return m
}

func (m *HTTPMetrics) warn(err error, what string) {
	if err != nil {
		m.logger.Warn(context.Background(), "failed to create "+what, zap.Error(err))
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			err := next(c)

			status := statusOf(c, err)
			attrs := []attribute.KeyValue{
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", status),
			}
			actuator, isCommand := actuatorOf(c)
			if isCommand {
				attrs = append(attrs, attribute.String("actuator", actuator))
			}

			set := metric.WithAttributes(attrs...)
			if m.requests != nil {
				m.requests.Add(ctx, 1, set)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), set)
			}
			if isCommand && m.commands != nil {
				m.commands.Add(ctx, 1, metric.WithAttributes(
					attribute.String("actuator", actuator),
					attribute.String("outcome", commandOutcome(status)),
				))
			}
			return err
		}
	}
}

// statusOf reports the status the error handler will write when the
// handler failed, since nothing is committed yet at this point.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// actuatorOf returns the actuator label for command routes. Unknown names
// collapse to "unknown" to keep label cardinality bounded.
func actuatorOf(c echo.Context) (string, bool) {
	if c.Request().Method != http.MethodPost || !strings.Contains(c.Path(), ":actuador") {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(c.Param("actuador")))
	if !knownActuators[name] {
		return "unknown", true
	}
	return name, true
}

func commandOutcome(status int) string {
	switch {
	case status >= 200 && status < 300:
		return outcomeSent
	case status == http.StatusNotImplemented:
		return outcomeUnsupported
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return outcomeUnauthorized
	case status >= 400 && status < 500:
		return outcomeRejected
	}
	return outcomeFailed
}

// normalizePath turns an unmatched route (404s report an empty path) into
// "/" so unknown URLs do not become label values. Matched routes are already
// patterns such as /api/v1/apiarios/:id/sugerencias.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
