package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winbridge/winbridge/pkg/types"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mcpServer := server.NewMCPServer("winbridge-test", "0.0.0", server.WithToolCapabilities(true))
	s, err := NewServer(&ServerOptions{
		Port:      "8080",
		MCPServer: mcpServer,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	return s
}

func TestNewServerRequiresMCPServer(t *testing.T) {
	_, err := NewServer(&ServerOptions{Port: "8080"})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetadataEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metadata", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var m types.ServerMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "winbridge", m.Name)
	assert.NotEmpty(t, m.Version)
}

func TestMetricsEndpointAbsentWhenTelemetryDisabled(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMCPEndpointIsMounted(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	// The transport answers; anything but a routing 404 means it is wired.
	assert.NotEqual(t, http.StatusNotFound, w.Code)
}
