package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetricsIsolated tests that collectors do not share a registry
func TestNewMetricsIsolated(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordToolCall("filesystem", "filesystem.cwd", "", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ToolCalls.WithLabelValues("filesystem", "filesystem.cwd", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ToolCalls.WithLabelValues("filesystem", "filesystem.cwd", "ok")))
}

// TestRecordToolCall tests success and failure accounting
func TestRecordToolCall(t *testing.T) {
	m := NewMetrics()

	m.RecordToolCall("filesystem", "filesystem.file.read", "", time.Millisecond)
	m.RecordToolCall("filesystem", "filesystem.file.read", "escape", time.Millisecond)
	m.RecordToolCall("filesystem", "filesystem.file.read", "escape", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("filesystem", "filesystem.file.read", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("filesystem", "filesystem.file.read", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolErrors.WithLabelValues("filesystem", "filesystem.file.read", "escape")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.ToolCalls)
	assert.Equal(t, int64(2), snap.ToolFailures)
}

// TestSandboxGauges tests the version and archive metrics
func TestSandboxGauges(t *testing.T) {
	m := NewMetrics()

	m.SetVersionsTracked(3)
	m.AddArchiveMembers("decompress", 4)
	m.AddArchiveMembers("decompress", 0)
	m.AddSkipped("symlink_refused", 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.VersionsTracked))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ArchiveMembers.WithLabelValues("decompress")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SkippedEntries.WithLabelValues("symlink_refused")))
}

// TestMiddleware tests HTTP request recording by route template
func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

// TestHandler tests the exposition endpoint
func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordToolCall("filesystem", "filesystem.cwd", "", time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "sandboxfs_tool_calls_total")
	assert.Contains(t, body, "sandboxfs_uptime_seconds")
}

// TestTimer tests that a stopped timer records the call
func TestTimer(t *testing.T) {
	m := NewMetrics()

	timer := NewTimer(m, "filesystem", "filesystem.glob")
	elapsed := timer.Stop("invalid_argument")

	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolErrors.WithLabelValues("filesystem", "filesystem.glob", "invalid_argument")))

	assert.NotPanics(t, func() { NewTimer(nil, "x", "y").Stop("") })
}
