package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yakoovad/member-search/internal/service"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type Metrics struct {
	registry *prometheus.Registry

	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	searchPages    *prometheus.CounterVec
	bulkRows       *prometheus.CounterVec
}

// NewMetrics registers the collectors in a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "member_search",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "member_search",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		searchPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "member_search",
			Subsystem: "search",
			Name:      "page_requests_total",
			Help:      "Paged member searches by count strategy",
		}, []string{"mode"}),
		bulkRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "member_search",
			Subsystem: "bulk",
			Name:      "rows_affected_total",
			Help:      "Rows changed by bulk member operations",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.requestTotal,
		m.requestLatency,
		m.searchPages,
		m.bulkRows,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			labels := prometheus.Labels{
				"method": c.Request().Method,
				"route":  c.Path(),
				"status": strconv.Itoa(status),
			}
			m.requestTotal.With(labels).Inc()
			m.requestLatency.With(labels).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// ObserveSearchPage counts a served page. Modes outside the known set are not recorded.
func (m *Metrics) ObserveSearchPage(mode service.PageMode) {
	switch mode {
	case "":
		mode = service.PageModeOptimized
	case service.PageModeSimple, service.PageModeComplex, service.PageModeOptimized:
	default:
		return
	}
	m.searchPages.With(prometheus.Labels{"mode": string(mode)}).Inc()
}

func (m *Metrics) ObserveBulk(operation string, affected int64) {
	m.bulkRows.With(prometheus.Labels{"operation": operation}).Add(float64(affected))
}

func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
