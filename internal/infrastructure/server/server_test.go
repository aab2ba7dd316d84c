package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/infrastructure/config"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Sandbox.Root = t.TempDir()
	cfg.Sandbox.DisplayRoot = "/workspace"
	cfg.Logging.Level = "error"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	return cfg
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	_, err := NewServer(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Sandbox.Root = filepath.Join(t.TempDir(), "missing")
	_, err = NewServer(cfg)
	assert.Error(t, err)
}

func TestServerRoutes(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Sandbox.Root, "notes.txt"), []byte("hi"), 0o644))

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	body, _ := json.Marshal(types.ExecuteRequest{
		ToolID: "filesystem.exists",
		Params: map[string]interface{}{"path": "/workspace/notes.txt"},
	})
	req := httptest.NewRequest(http.MethodPost, "/services/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "it-1")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "it-1", w.Header().Get("X-Request-ID"))

	var res types.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.OK, res.Error)
	op, ok := res.Payload.(*types.FileOp)
	require.True(t, ok)
	require.NotNil(t, op.Exists)
	assert.True(t, *op.Exists)
	assert.Equal(t, "/workspace/notes.txt", op.Path)
	assert.NotContains(t, w.Body.String(), cfg.Sandbox.Root)

	for _, path := range []string{"/", "/health", "/services", "/metrics", "/metrics/json"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
