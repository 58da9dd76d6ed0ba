// Package telemetry wires OpenTelemetry tracing and Prometheus metrics into
// the HTTP server. Spans are exported over OTLP/HTTP when an endpoint is
// configured; metrics are served in Prometheus text format at /metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/carepath/carepath/internal/platform/telemetry"

// TelemetryConfig holds all configuration for the telemetry provider.
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // host:port of an OTLP/HTTP collector; empty disables export
	OTLPInsecure   bool
	MetricsEnabled *bool // nil = true
	TracingEnabled *bool // nil = true
	SampleRate     float64
}

func (c *TelemetryConfig) metricsOn() bool {
	if c.MetricsEnabled == nil {
		return true
	}
	return *c.MetricsEnabled
}

func (c *TelemetryConfig) tracingOn() bool {
	if c.TracingEnabled == nil {
		return true
	}
	return *c.TracingEnabled
}

func (c *TelemetryConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "carepath-server"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// BoolPtr is a helper to create a *bool for TelemetryConfig fields.
func BoolPtr(b bool) *bool {
	return &b
}

var defaultDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// TelemetryProvider owns the tracer provider and the metric registry.
type TelemetryProvider struct {
	cfg TelemetryConfig

	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
	dbPoolConns     *prometheus.GaugeVec
	domainEvents    *prometheus.CounterVec
}

// NewTelemetryProvider creates the tracer provider, registers it globally
// together with the W3C propagators and builds the metric collectors.
func NewTelemetryProvider(ctx context.Context, cfg TelemetryConfig) (*TelemetryProvider, error) {
	cfg.applyDefaults()

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}
	if cfg.OTLPEndpoint != "" && cfg.tracingOn() {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tp := &TelemetryProvider{
		cfg:            cfg,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(tracerName),
		registry:       prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: defaultDurationBuckets,
		}, []string{"method", "route", "status_code"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of in-flight HTTP requests.",
		}),
		dbPoolConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Database pool connections by state.",
		}, []string{"state"}),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carepath_domain_events_total",
			Help: "Domain events published, by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	tp.registry.MustRegister(
		tp.requestsTotal,
		tp.requestDuration,
		tp.activeRequests,
		tp.dbPoolConns,
		tp.domainEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return tp, nil
}

// Shutdown flushes pending spans.
func (tp *TelemetryProvider) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tp.tracerProvider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

// TracerProvider exposes the SDK provider, mainly so tests can attach a
// span recorder.
func (tp *TelemetryProvider) TracerProvider() *sdktrace.TracerProvider {
	return tp.tracerProvider
}

// Registry is the Prometheus registry backing /metrics.
func (tp *TelemetryProvider) Registry() *prometheus.Registry {
	return tp.registry
}

// SetDBPool records the current pool connection counts.
func (tp *TelemetryProvider) SetDBPool(acquired, idle, total int32) {
	tp.dbPoolConns.WithLabelValues("acquired").Set(float64(acquired))
	tp.dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	tp.dbPoolConns.WithLabelValues("total").Set(float64(total))
}

// ObserveEvent counts a publish attempt for a domain event.
func (tp *TelemetryProvider) ObserveEvent(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	tp.domainEvents.WithLabelValues(eventType, outcome).Inc()
}

// TracingMiddleware starts a server span per request, continuing any trace
// carried in the incoming headers.
func (tp *TelemetryProvider) TracingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tp.cfg.tracingOn() {
				return next(c)
			}

			req := c.Request()
			ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			route := routeOf(c)
			ctx, span := tp.tracer.Start(ctx, "HTTP "+req.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", route),
					attribute.String("http.url", req.URL.String()),
					attribute.String("http.user_agent", req.UserAgent()),
					attribute.String("http.client_ip", c.RealIP()),
				),
			)
			defer span.End()

			if rid, ok := c.Get("request_id").(string); ok && rid != "" {
				span.SetAttributes(attribute.String("request.id", rid))
			}
			if span.SpanContext().HasTraceID() {
				c.Response().Header().Set("X-Trace-Id", span.SpanContext().TraceID().String())
			}

			c.SetRequest(req.WithContext(ctx))
			err := next(c)

			status := statusOf(c, err)
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(status))
				if err != nil {
					span.RecordError(err)
				}
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

// MetricsMiddleware records request counts, durations and in-flight requests.
func (tp *TelemetryProvider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !tp.cfg.metricsOn() {
				return next(c)
			}

			tp.activeRequests.Inc()
			defer tp.activeRequests.Dec()

			start := time.Now()
			err := next(c)

			labels := prometheus.Labels{
				"method":      c.Request().Method,
				"route":       routeOf(c),
				"status_code": strconv.Itoa(statusOf(c, err)),
			}
			tp.requestsTotal.With(labels).Inc()
			tp.requestDuration.With(labels).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// PrometheusHandler serves the registry in Prometheus text exposition format.
func (tp *TelemetryProvider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(tp.registry, promhttp.HandlerOpts{}))
}

// routeOf returns the route pattern, falling back to the raw path for
// unmatched requests.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}

// statusOf resolves the status that will be written for err when the
// response has not been committed yet.
func statusOf(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		if s := c.Response().Status; s != 0 {
			return s
		}
		return 200
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 500
}
