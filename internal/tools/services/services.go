// Package services implements the service tool: listing Windows services
// and controlling their lifecycle through PowerShell.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/winbridge/winbridge/internal/format"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

// listLimit bounds how many services list_services reports.
const listLimit = 50

// Service implements the service tool.
type Service struct {
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the service tool service.
func NewService(run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	nameParam := registry.Param{
		Name: "name", Type: registry.ParamString,
		Description: "Service name, e.g. Spooler", Required: true,
	}
	return &registry.Tool{
		Name:        "service",
		Description: "Manage Windows services: list them, check status, and start, stop or restart one.",
		Actions: []registry.Action{
			{
				Name:        "list_services",
				Description: "List services and their state (first 50).",
				Handler:     s.listServices,
			},
			{
				Name:        "get_service_status",
				Description: "Show the status of one service.",
				Params:      []registry.Param{nameParam},
				Handler:     s.getServiceStatus,
			},
			{
				Name:        "start_service",
				Description: "Start a stopped service.",
				Params:      []registry.Param{nameParam},
				Handler:     s.controlHandler("Start-Service", "started"),
			},
			{
				Name:        "stop_service",
				Description: "Stop a running service.",
				Params:      []registry.Param{nameParam},
				Handler:     s.controlHandler("Stop-Service", "stopped"),
			},
			{
				Name:        "restart_service",
				Description: "Restart a service.",
				Params:      []registry.Param{nameParam},
				Handler:     s.controlHandler("Restart-Service", "restarted"),
			},
		},
	}
}

func (s *Service) listServices(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx, fmt.Sprintf(
		"Get-Service | Select-Object -First %d Name, DisplayName, Status | Format-Table -AutoSize",
		listLimit))
	if err != nil {
		return "", err
	}
	return format.NewReport(fmt.Sprintf("Services (first %d)", listLimit)).Raw(out).String(), nil
}

func (s *Service) getServiceStatus(ctx context.Context, args registry.Args) (string, error) {
	name := args.String("name", "")

	out, err := s.runner.RunPowerShell(ctx,
		"Get-Service -Name "+psQuote(name)+
			" | Select-Object Name, DisplayName, Status, StartType | Format-List")
	if err != nil {
		return "", err
	}
	return format.NewReport("Service Status: " + name).Raw(out).String(), nil
}

// controlHandler builds a handler for one lifecycle verb. The cmdlet is run
// first and the resulting status queried afterwards so the report reflects
// the state the service actually reached.
func (s *Service) controlHandler(cmdlet, pastTense string) registry.HandlerFunc {
	return func(ctx context.Context, args registry.Args) (string, error) {
		name := args.String("name", "")

		s.logger.Info("controlling service",
			zap.String("cmdlet", cmdlet), zap.String("service", name))
		if _, err := s.runner.RunPowerShell(ctx, cmdlet+" -Name "+psQuote(name)); err != nil {
			return "", err
		}

		status, err := s.runner.RunPowerShell(ctx,
			"(Get-Service -Name "+psQuote(name)+").Status")
		if err != nil {
			return "", err
		}

		return format.NewReport("Service Control").
			Line(fmt.Sprintf("Service %q %s.", name, pastTense)).
			Field("Current status", strings.TrimSpace(status)).
			String(), nil
	}
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
