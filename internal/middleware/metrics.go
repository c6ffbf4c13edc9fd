package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics holds in-memory request counters
type Metrics struct {
	mu               sync.RWMutex
	started          time.Time
	totalRequests    uint64
	rateLimited      uint64
	requestsByRoute  map[string]uint64
	requestsByStatus map[string]uint64
	latencyByRoute   map[string]time.Duration
}

// MetricsSnapshot is a copy of the counters at one point in time
type MetricsSnapshot struct {
	UptimeSeconds      int64              `json:"uptime_seconds"`
	TotalRequests      uint64             `json:"total_requests"`
	RateLimited        uint64             `json:"rate_limited"`
	RequestsByEndpoint map[string]uint64  `json:"requests_by_endpoint"`
	RequestsByStatus   map[string]uint64  `json:"requests_by_status"`
	AvgLatencyMs       map[string]float64 `json:"avg_latency_ms"`
}

// NewMetrics creates an empty set of counters
func NewMetrics() *Metrics {
	return &Metrics{
		started:          time.Now(),
		requestsByRoute:  make(map[string]uint64),
		requestsByStatus: make(map[string]uint64),
		latencyByRoute:   make(map[string]time.Duration),
	}
}

// Record counts one handled request
func (m *Metrics) Record(method, route string, status int, latency time.Duration) {
	endpoint := method + " " + route
	class := strconv.Itoa(status/100) + "xx"

	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
	m.requestsByRoute[endpoint]++
	m.requestsByStatus[class]++
	m.latencyByRoute[endpoint] += latency
	if status == http.StatusTooManyRequests {
		m.rateLimited++
	}
}

// Snapshot returns a copy of the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	avg := make(map[string]float64, len(m.latencyByRoute))
	for endpoint, total := range m.latencyByRoute {
		if n := m.requestsByRoute[endpoint]; n > 0 {
			avg[endpoint] = float64(total.Microseconds()) / float64(n) / 1000
		}
	}
	return MetricsSnapshot{
		UptimeSeconds:      int64(time.Since(m.started).Seconds()),
		TotalRequests:      m.totalRequests,
		RateLimited:        m.rateLimited,
		RequestsByEndpoint: copyMap(m.requestsByRoute),
		RequestsByStatus:   copyMap(m.requestsByStatus),
		AvgLatencyMs:       avg,
	}
}

// copyMap creates a copy of the map
func copyMap(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MetricsHandler returns current request metrics
func MetricsHandler(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	}
}
