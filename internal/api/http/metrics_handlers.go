package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
)

// MetricsSnapshot is the JSON view of the running totals
type MetricsSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Totals    monitoring.Snapshot `json:"totals"`
	Summary   MetricsSummary      `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests    int64   `json:"total_requests"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
	ToolFailureRate  float64 `json:"tool_failure_rate"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

func summarize(s monitoring.Snapshot) MetricsSummary {
	summary := MetricsSummary{
		TotalRequests:    s.TotalRequests,
		AverageLatencyMs: s.AvgLatencyMs,
		UptimeSeconds:    s.UptimeSeconds,
	}
	if s.TotalRequests > 0 {
		summary.ErrorRate = float64(s.TotalErrors) / float64(s.TotalRequests)
	}
	if s.ToolCalls > 0 {
		summary.ToolFailureRate = float64(s.ToolFailures) / float64(s.ToolCalls)
	}
	return summary
}

// Prometheus serves the metrics registry in exposition format
func (h *Handlers) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// MetricsJSON returns the running totals and derived rates
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	totals := h.metrics.Snapshot()
	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Totals:    totals,
		Summary:   summarize(totals),
	})
}
