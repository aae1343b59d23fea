// Package process implements the process tool: listing, inspecting and
// terminating Windows processes through PowerShell.
package process

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/winbridge/winbridge/internal/format"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

// defaultListLimit is how many processes list_processes reports when the
// caller does not ask for a specific count.
const defaultListLimit = 20

// Service implements the process tool.
type Service struct {
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the process tool service.
func NewService(run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "process",
		Description: "Manage Windows processes: list the top consumers, inspect a process, or terminate one by id or name.",
		Actions: []registry.Action{
			{
				Name:        "list_processes",
				Description: "List the top CPU-consuming processes (default 20).",
				Params: []registry.Param{
					{Name: "limit", Type: registry.ParamNumber, Description: "Number of processes to list (default 20)", Default: defaultListLimit},
				},
				Handler: s.listProcesses,
			},
			{
				Name:        "get_process_details",
				Description: "Show details for one process by its id.",
				Params: []registry.Param{
					{Name: "pid", Type: registry.ParamNumber, Description: "Process id", Required: true},
				},
				Handler: s.getProcessDetails,
			},
			{
				Name:        "kill_process",
				Description: "Terminate a process by id or by name. One of the two must be supplied.",
				Params: []registry.Param{
					{Name: "pid", Type: registry.ParamNumber, Description: "Process id to terminate"},
					{Name: "name", Type: registry.ParamString, Description: "Process name to terminate, e.g. notepad"},
				},
				Handler: s.killProcess,
			},
		},
	}
}

func (s *Service) listProcesses(ctx context.Context, args registry.Args) (string, error) {
	limit := args.Int("limit", defaultListLimit)
	if limit < 1 {
		limit = defaultListLimit
	}

	script := fmt.Sprintf(
		"Get-Process | Sort-Object CPU -Descending | Select-Object -First %d Id, ProcessName, CPU, WorkingSet | Format-Table -AutoSize",
		limit,
	)
	out, err := s.runner.RunPowerShell(ctx, script)
	if err != nil {
		return "", err
	}
	return format.NewReport(fmt.Sprintf("Top %d Processes by CPU", limit)).Raw(out).String(), nil
}

func (s *Service) getProcessDetails(ctx context.Context, args registry.Args) (string, error) {
	pid := args.Int("pid", 0)
	if pid <= 0 {
		return "", fmt.Errorf("invalid process id %d", pid)
	}

	script := "Get-Process -Id " + strconv.Itoa(pid) +
		" | Select-Object Id, ProcessName, Path, CPU, WorkingSet, StartTime, Responding | Format-List"
	out, err := s.runner.RunPowerShell(ctx, script)
	if err != nil {
		return "", err
	}
	return format.NewReport(fmt.Sprintf("Process %d", pid)).Raw(out).String(), nil
}

// killProcess terminates a process identified either by pid or by name.
// Supplying neither is a MissingParameter failure before any command runs.
func (s *Service) killProcess(ctx context.Context, args registry.Args) (string, error) {
	pid := args.Int("pid", 0)
	name := strings.TrimSpace(args.String("name", ""))

	var script, target string
	switch {
	case pid > 0:
		script = "Stop-Process -Id " + strconv.Itoa(pid) + " -Force"
		target = fmt.Sprintf("process %d", pid)
	case name != "":
		script = "Stop-Process -Name '" + strings.ReplaceAll(name, "'", "''") + "' -Force"
		target = fmt.Sprintf("process %q", name)
	default:
		return "", registry.NewMissingParameterError("kill_process", "pid", "name")
	}

	s.logger.Info("terminating process", zap.Int("pid", pid), zap.String("name", name))
	if _, err := s.runner.RunPowerShell(ctx, script); err != nil {
		return "", err
	}
	return format.NewReport("Process Terminated").Line("Successfully terminated " + target + ".").String(), nil
}
