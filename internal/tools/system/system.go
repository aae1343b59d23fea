// Package system implements the system tool: OS and hardware summaries,
// environment variables and uptime, all queried through PowerShell CIM.
package system

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/winbridge/winbridge/internal/format"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

// Service implements the system tool.
type Service struct {
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the system tool service.
func NewService(run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "system",
		Description: "System information: OS and machine overview, hardware inventory, environment variables and uptime.",
		ReadOnly:    true,
		Actions: []registry.Action{
			{
				Name:        "get_overview",
				Description: "Show an operating system and computer system overview.",
				Handler:     s.getOverview,
			},
			{
				Name:        "get_hardware_info",
				Description: "Show processor, memory and video hardware details.",
				Handler:     s.getHardwareInfo,
			},
			{
				Name:        "get_environment",
				Description: "List environment variables, or show one by name.",
				Params: []registry.Param{
					{Name: "name", Type: registry.ParamString, Description: "Variable name to look up. Omit to list all."},
				},
				Handler: s.getEnvironment,
			},
			{
				Name:        "get_uptime",
				Description: "Show how long the system has been running since last boot.",
				Handler:     s.getUptime,
			},
		},
	}
}

// getOverview issues the OS and computer system queries separately so a
// diagnostic can name which of the two failed. A failure in either aborts
// the whole action.
func (s *Service) getOverview(ctx context.Context, _ registry.Args) (string, error) {
	osInfo, err := s.runner.RunPowerShell(ctx,
		"Get-CimInstance Win32_OperatingSystem | Select-Object Caption, Version, BuildNumber, OSArchitecture, LastBootUpTime, TotalVisibleMemorySize, FreePhysicalMemory | Format-List")
	if err != nil {
		return "", fmt.Errorf("failed to query operating system info: %w", err)
	}

	csInfo, err := s.runner.RunPowerShell(ctx,
		"Get-CimInstance Win32_ComputerSystem | Select-Object Name, Manufacturer, Model, Domain, NumberOfProcessors, NumberOfLogicalProcessors, TotalPhysicalMemory | Format-List")
	if err != nil {
		return "", fmt.Errorf("failed to query computer system info: %w", err)
	}

	return format.NewReport("System Overview").
		Section("Operating System").Raw(osInfo).
		Section("Computer System").Raw(csInfo).
		String(), nil
}

func (s *Service) getHardwareInfo(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx, strings.Join([]string{
		"Get-CimInstance Win32_Processor | Select-Object Name, NumberOfCores, NumberOfLogicalProcessors, MaxClockSpeed | Format-List",
		"Get-CimInstance Win32_PhysicalMemory | Select-Object Manufacturer, Capacity, Speed | Format-Table -AutoSize",
		"Get-CimInstance Win32_VideoController | Select-Object Name, AdapterRAM, DriverVersion | Format-List",
	}, "; "))
	if err != nil {
		return "", err
	}
	return format.NewReport("Hardware Information").Raw(out).String(), nil
}

func (s *Service) getEnvironment(ctx context.Context, args registry.Args) (string, error) {
	name := strings.TrimSpace(args.String("name", ""))
	if name == "" {
		out, err := s.runner.RunPowerShell(ctx,
			"Get-ChildItem Env: | Sort-Object Name | Format-Table -AutoSize")
		if err != nil {
			return "", err
		}
		return format.NewReport("Environment Variables").Raw(out).String(), nil
	}

	out, err := s.runner.RunPowerShell(ctx,
		"[Environment]::GetEnvironmentVariable('"+strings.ReplaceAll(name, "'", "''")+"')")
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(out)
	if value == "" {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return format.NewReport("Environment Variable").Field(name, value).String(), nil
}

// getUptime asks PowerShell for the seconds elapsed since last boot and
// renders them as a human-readable duration.
func (s *Service) getUptime(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		"((Get-Date) - (Get-CimInstance Win32_OperatingSystem).LastBootUpTime).TotalSeconds")
	if err != nil {
		return "", err
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return "", fmt.Errorf("unexpected uptime output %q: %w", strings.TrimSpace(out), err)
	}

	return format.NewReport("System Uptime").
		Line("System has been up for " + format.Uptime(time.Duration(seconds*float64(time.Second))) + ".").
		String(), nil
}
