package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/winbridge/winbridge/internal/api"
	"github.com/winbridge/winbridge/internal/config"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"github.com/winbridge/winbridge/internal/telemetry"
	"github.com/winbridge/winbridge/internal/tools/filesystem"
	"github.com/winbridge/winbridge/internal/tools/network"
	"github.com/winbridge/winbridge/internal/tools/perfmon"
	"github.com/winbridge/winbridge/internal/tools/process"
	"github.com/winbridge/winbridge/internal/tools/services"
	"github.com/winbridge/winbridge/internal/tools/system"
	"github.com/winbridge/winbridge/internal/tools/winreg"
	"github.com/winbridge/winbridge/pkg/version"
	"go.uber.org/zap"
)

const (
	BindPortEnvVar         = "PORT"
	ConfigFileEnvVar       = "WINBRIDGE_CONFIG"
	TelemetryEnabledEnvVar = "OTEL_ENABLED"

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

var (
	startCmdTransport  string
	startCmdBindPort   string
	startCmdConfigFile string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the winbridge MCP server",
	Long: "Starts the winbridge MCP server over the chosen transport.\n\n" +
		"With --transport stdio (the default) the server speaks MCP on stdin/stdout,\n" +
		"which is how desktop MCP clients launch it. Logs go to stderr.\n" +
		"With --transport http the server exposes /mcp (streamable HTTP), /sse and\n" +
		"/message (SSE), plus /health and /metadata.\n\n" +
		"An optional YAML config file sets the port, the external command timeout,\n" +
		"telemetry, and which tools to disable. Point to it with --config or the\n" +
		"WINBRIDGE_CONFIG environment variable.",
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(
		&startCmdTransport,
		"transport",
		TransportStdio,
		fmt.Sprintf("transport to serve on: '%s' or '%s'", TransportStdio, TransportHTTP),
	)
	startCmd.Flags().StringVar(
		&startCmdBindPort,
		"port",
		"",
		fmt.Sprintf("port to bind the HTTP server to (overrides env var %s)", BindPortEnvVar),
	)
	startCmd.Flags().StringVar(
		&startCmdConfigFile,
		"config",
		"",
		fmt.Sprintf("path to a YAML config file (overrides env var %s)", ConfigFileEnvVar),
	)

	rootCmd.AddCommand(startCmd)
}

// getConfigPath returns the config file path.
// precedence: command line flag > environment variable > none
func getConfigPath() string {
	if startCmdConfigFile != "" {
		return startCmdConfigFile
	}
	return os.Getenv(ConfigFileEnvVar)
}

// getBindPort returns the TCP port to bind the HTTP server to.
// precedence: command line flag > environment variable > config file > default
func getBindPort(cfg *config.Config) string {
	if startCmdBindPort != "" {
		return startCmdBindPort
	}
	if port := os.Getenv(BindPortEnvVar); port != "" {
		return port
	}
	return cfg.Port
}

// isTelemetryEnabled returns true if telemetry should be enabled.
// The env var, when set, takes precedence over the config file.
func isTelemetryEnabled(cfg *config.Config) (bool, error) {
	enabled := cfg.Telemetry.Enabled

	envEnabled := strings.ToLower(os.Getenv(TelemetryEnabledEnvVar))
	switch envEnabled {
	case "":
	case "true", "1":
		enabled = true
	case "false", "0":
		enabled = false
	default:
		return false, fmt.Errorf(
			"invalid value for %s environment variable: '%s', valid values are 'true' or 'false'",
			TelemetryEnabledEnvVar, envEnabled,
		)
	}
	return enabled, nil
}

// newLogger builds the process logger. All output goes to stderr: on the
// stdio transport, stdout belongs to the MCP protocol.
func newLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func runStart(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	if startCmdTransport != TransportStdio && startCmdTransport != TransportHTTP {
		return fmt.Errorf(
			"invalid transport '%s', valid values are '%s' and '%s'",
			startCmdTransport, TransportStdio, TransportHTTP,
		)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(afero.NewOsFs(), getConfigPath())
	if err != nil {
		return err
	}

	// Initialize metrics if enabled
	telemetryEnabled, err := isTelemetryEnabled(cfg)
	if err != nil {
		return err
	}
	otelConfig := &telemetry.Config{
		ServiceName: "winbridge",
		Enabled:     telemetryEnabled,
	}
	otelProviders, err := telemetry.Init(cmd.Context(), otelConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Opentelemetry providers: %v", err)
	}
	defer func() {
		if err := otelProviders.Shutdown(cmd.Context()); err != nil {
			logger.Warn("failed to shutdown opentelemetry providers", zap.Error(err))
		}
	}()

	// By default, a no-op metrics implementation is used, assuming metrics
	// are disabled. The rest of the code records through the CustomMetrics
	// interface without checking whether metrics are enabled.
	toolMetrics := telemetry.NewNoopCustomMetrics()
	if otelProviders.IsEnabled() {
		toolMetrics, err = telemetry.NewOtelCustomMetrics(otelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create tool metrics: %v", err)
		}
	}

	run := runner.New(logger, runner.WithTimeout(
		time.Duration(cfg.CommandTimeoutSeconds)*time.Second,
	))

	reg := registry.New(logger, toolMetrics)
	tools := []*registry.Tool{
		filesystem.NewService(afero.NewOsFs(), run, logger).Tool(),
		process.NewService(run, logger).Tool(),
		system.NewService(run, logger).Tool(),
		winreg.NewService(run, logger).Tool(),
		services.NewService(run, logger).Tool(),
		network.NewService(run, network.NewProber(), logger).Tool(),
		perfmon.NewService(run, logger).Tool(),
	}
	for _, t := range tools {
		if cfg.IsToolDisabled(t.Name) {
			logger.Info("tool disabled by config", zap.String("tool", t.Name))
			continue
		}
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("failed to register tool %s: %v", t.Name, err)
		}
	}

	mcpServer := server.NewMCPServer(
		"winbridge",
		version.GetVersion(),
		server.WithToolCapabilities(true),
	)
	reg.Attach(mcpServer)

	if startCmdTransport == TransportStdio {
		logger.Info("serving MCP over stdio", zap.String("version", version.GetVersion()))
		if err := server.ServeStdio(mcpServer); err != nil {
			return fmt.Errorf("failed to run the stdio server: %v", err)
		}
		return nil
	}

	bindPort := getBindPort(cfg)
	s, err := api.NewServer(&api.ServerOptions{
		Port:          bindPort,
		MCPServer:     mcpServer,
		OtelProviders: otelProviders,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}

	cmd.Printf("winbridge HTTP server listening on :%s\n", bindPort)
	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to run the server: %v", err)
	}
	return nil
}
