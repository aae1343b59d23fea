// Package api provides the HTTP transport for the winbridge server.
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/winbridge/winbridge/internal/telemetry"
	"github.com/winbridge/winbridge/pkg/types"
	"github.com/winbridge/winbridge/pkg/version"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type ServerOptions struct {
	// Port is the TCP port to bind the HTTP server to.
	Port string

	// MCPServer carries all registered winbridge tools. It is served both
	// over streamable HTTP on /mcp and over SSE on /sse + /message.
	MCPServer *server.MCPServer

	OtelProviders *telemetry.Providers
	Logger        *zap.Logger
}

// Server serves the winbridge tools over HTTP.
type Server struct {
	port   string
	router *gin.Engine

	mcpServer *server.MCPServer

	otelProviders *telemetry.Providers
	logger        *zap.Logger
}

// NewServer initializes a new Gin server exposing the MCP endpoints.
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts.MCPServer == nil {
		return nil, fmt.Errorf("an MCP server instance is required")
	}
	s := &Server{
		port:          opts.Port,
		mcpServer:     opts.MCPServer,
		otelProviders: opts.OtelProviders,
		logger:        opts.Logger,
	}
	s.router = s.setupRouter()
	return s, nil
}

// Start runs the Gin server (blocking call).
func (s *Server) Start() error {
	if err := s.router.Run(":" + s.port); err != nil {
		return fmt.Errorf("failed to run the server: %w", err)
	}
	return nil
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter sets up the Gin router with the MCP and operational endpoints.
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// if otel is enabled, instrument gin and expose prometheus metrics
	if s.otelProviders != nil && s.otelProviders.IsEnabled() {
		r.Use(otelgin.Middleware(s.otelProviders.ServiceName()))
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET(
		"/health",
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		},
	)

	r.GET(
		"/metadata",
		func(c *gin.Context) {
			m := &types.ServerMetadata{
				Name:    "winbridge",
				Version: version.GetVersion(),
			}
			c.JSON(http.StatusOK, m)
		},
	)

	// Streamable HTTP transport on /mcp
	streamableHTTPServer := server.NewStreamableHTTPServer(s.mcpServer)
	r.Any("/mcp", gin.WrapH(streamableHTTPServer))

	// SSE transport for clients that haven't moved to streamable HTTP yet
	sseServer := server.NewSSEServer(s.mcpServer)
	r.Any("/sse", gin.WrapH(sseServer.SSEHandler()))
	r.Any("/message", gin.WrapH(sseServer.MessageHandler()))

	return r
}
