// Package health serves the liveness, readiness and metrics endpoints and
// owns the service's Prometheus collectors.
package health

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pg_manager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pg_manager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	dbConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pg_manager_db_connection_status",
		Help: "Database connection status (1 = connected, 0 = disconnected)",
	})

	rentRemindersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pg_manager_rent_reminders_total",
		Help: "Rent due reminders published by the scheduler",
	})

	serviceInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pg_manager_info",
			Help: "Service information",
		},
		[]string{"version"},
	)
)

// Pinger is an optional dependency checked by /health, e.g. the report cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db        *gorm.DB
	deps      map[string]Pinger
	ready     atomic.Bool
	startTime time.Time
	version   string
}

func NewHealthChecker(db *gorm.DB, version string) *HealthChecker {
	serviceInfo.WithLabelValues(version).Set(1)
	return &HealthChecker{
		db:        db,
		deps:      map[string]Pinger{},
		startTime: time.Now(),
		version:   version,
	}
}

// AddDependency registers a named dependency reported by /health. It never
// affects readiness.
func (h *HealthChecker) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) CheckDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		dbConnectionStatus.Set(0)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		dbConnectionStatus.Set(0)
		return err
	}

	dbConnectionStatus.Set(1)
	return nil
}

func (h *HealthChecker) LivezHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// ReadyzHandler returns 200 only once SetReady(true) was called and the
// database answers.
func (h *HealthChecker) ReadyzHandler(c *gin.Context) {
	if !h.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "service not initialized",
		})
		return
	}

	if err := h.CheckDatabase(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthChecker) HealthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "connected"
	if err := h.CheckDatabase(ctx); err != nil {
		dbStatus = "disconnected"
	}

	deps := gin.H{}
	for name, p := range h.deps {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		status := "connected"
		if err := p.Ping(pctx); err != nil {
			status = "disconnected"
		}
		cancel()
		deps[name] = gin.H{"status": status}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "pg-manager",
		"version":      h.version,
		"uptime":       time.Since(h.startTime).String(),
		"database":     gin.H{"status": dbStatus},
		"dependencies": deps,
	})
}

func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware records request counts and latency per route template.
// Probe and scrape endpoints are skipped.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		switch path {
		case "/livez", "/readyz", "/metrics", "/health":
			return
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordRentReminders adds n published reminders to the counter.
func RecordRentReminders(n int) {
	rentRemindersTotal.Add(float64(n))
}
