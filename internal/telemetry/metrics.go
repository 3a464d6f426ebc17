package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServerMetrics holds metric instruments for HTTP server telemetry.
// Initialize once at server startup and reuse throughout the application lifecycle.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter     // Total HTTP requests
	RequestDuration metric.Float64Histogram // HTTP request latency
	ErrorCounter    metric.Int64Counter     // Total HTTP errors (5xx)
}

// NewServerMetrics creates the HTTP instruments on the global meter provider.
func NewServerMetrics() (*ServerMetrics, error) {
	meter := otel.Meter("blogapi/http")

	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records an HTTP request with method, route, status, and duration.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route string, status int, durationMs float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.Int(AttrHTTPStatusCode, status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)
	if status >= http.StatusInternalServerError {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// Middleware records every request under its chi route pattern. Unmatched
// requests are recorded with an empty route to keep cardinality bounded.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		m.RecordRequest(r.Context(), r.Method, route, status, float64(time.Since(start).Microseconds())/1000)
	})
}

// AuthMetrics holds metric instruments for authentication operations.
type AuthMetrics struct {
	LoginAttempts   metric.Int64Counter
	LoginFailures   metric.Int64Counter
	TokenRejections metric.Int64Counter
}

// NewAuthMetrics creates metric instruments for authentication telemetry.
func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter("blogapi/auth")

	loginAttempts, err := meter.Int64Counter(
		"auth.login.attempt.count",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	loginFailures, err := meter.Int64Counter(
		"auth.login.failure.count",
		metric.WithDescription("Total number of rejected logins"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	tokenRejections, err := meter.Int64Counter(
		"auth.token.rejection.count",
		metric.WithDescription("Bearer tokens rejected by verification, by failure kind"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		LoginAttempts:   loginAttempts,
		LoginFailures:   loginFailures,
		TokenRejections: tokenRejections,
	}, nil
}

// RecordLogin records a login attempt and its outcome.
func (a *AuthMetrics) RecordLogin(ctx context.Context, success bool) {
	if a == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool(AttrAuthSuccess, success))
	a.LoginAttempts.Add(ctx, 1, attrs)
	if !success {
		a.LoginFailures.Add(ctx, 1, attrs)
	}
}

// RecordTokenRejection counts a rejected bearer token.
func (a *AuthMetrics) RecordTokenRejection(ctx context.Context, kind string) {
	if a == nil {
		return
	}
	a.TokenRejections.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrAuthFailureKind, kind)))
}

// Common metric attribute keys
const (
	// HTTP attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"

	// Auth attributes
	AttrAuthSuccess     = "auth.success"
	AttrAuthFailureKind = "auth.failure_kind"
)
