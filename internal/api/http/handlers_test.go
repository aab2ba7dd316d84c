package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sandboxfs/internal/providers/filesystem"
	"github.com/GriffinCanCode/sandboxfs/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p, err := filesystem.NewProvider(filesystem.DefaultOptions(t.TempDir()))
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	registry := service.NewRegistry(nil).WithMetrics(metrics)
	require.NoError(t, registry.Register(p))

	h := NewHandlers(registry, metrics, nil)
	router := gin.New()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/services", h.ListServices)
	router.GET("/services/:id", h.GetService)
	router.POST("/services/discover", h.DiscoverServices)
	router.POST("/services/execute", h.ExecuteService)
	router.GET("/metrics", h.Prometheus)
	router.GET("/metrics/json", h.MetricsJSON)

	return router, p.Ops().Resolver.Root()
}

func do(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRootAndHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sandboxfs", decode(t, w)["service"])

	w = do(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	stats := body["service_registry"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total_services"])
}

func TestListAndGetServices(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/services", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["services"], 1)

	w = do(router, http.MethodGet, "/services?category=system", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["services"])

	w = do(router, http.MethodGet, "/services?category=bad%20cat", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/services/filesystem", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "filesystem", decode(t, w)["id"])

	w = do(router, http.MethodGet, "/services/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDiscoverServices(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodPost, "/services/discover", map[string]interface{}{"message": "decompress an archive"})
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].([]interface{})
	require.Len(t, services, 1)
	assert.Equal(t, "filesystem", services[0].(map[string]interface{})["id"])

	w = do(router, http.MethodPost, "/services/discover", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteService(t *testing.T) {
	router, root := setupRouter(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0o644))

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantOK     bool
		wantKind   string
	}{
		{
			name:       "read",
			body:       map[string]interface{}{"tool_id": "filesystem.file.read", "params": map[string]interface{}{"file_name": "hello.txt"}},
			wantStatus: http.StatusOK,
			wantOK:     true,
		},
		{
			name:       "escape",
			body:       map[string]interface{}{"tool_id": "filesystem.file.read", "params": map[string]interface{}{"file_name": "../../etc/passwd"}},
			wantStatus: http.StatusOK,
			wantKind:   "escape",
		},
		{
			name:       "unknown service",
			body:       map[string]interface{}{"tool_id": "nope.tool"},
			wantStatus: http.StatusOK,
			wantKind:   "unknown_tool",
		},
		{
			name:       "missing tool id",
			body:       map[string]interface{}{"params": map[string]interface{}{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid tool id",
			body:       map[string]interface{}{"tool_id": "filesystem/read"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/services/execute", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			body := decode(t, w)
			assert.Equal(t, tt.wantOK, body["ok"])
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, body["error_kind"])
			}
			assert.NotContains(t, w.Body.String(), root)
		})
	}
}

func TestMetricsEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	do(router, http.MethodPost, "/services/execute", map[string]interface{}{"tool_id": "filesystem.cwd"})

	w := do(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "sandboxfs_tool_calls_total"))

	w = do(router, http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap MetricsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Totals.ToolCalls)
	assert.GreaterOrEqual(t, snap.Summary.TotalRequests, int64(1))
}

func TestSummarize(t *testing.T) {
	s := summarize(monitoring.Snapshot{TotalRequests: 4, TotalErrors: 1, ToolCalls: 10, ToolFailures: 5})
	assert.InDelta(t, 0.25, s.ErrorRate, 1e-9)
	assert.InDelta(t, 0.5, s.ToolFailureRate, 1e-9)

	assert.Zero(t, summarize(monitoring.Snapshot{}).ErrorRate)
}
