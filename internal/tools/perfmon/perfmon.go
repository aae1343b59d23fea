// Package perfmon implements the performance tool: live counter samples,
// CPU, memory and disk utilization snapshots.
package perfmon

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

// Service implements the performance tool.
type Service struct {
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the performance tool service.
func NewService(run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "performance",
		Description: "Performance monitoring: sample arbitrary counters, or take CPU, memory and disk utilization snapshots.",
		ReadOnly:    true,
		Actions: []registry.Action{
			{
				Name:        "get_counters",
				Description: "Sample a performance counter path.",
				Params: []registry.Param{
					{Name: "counter", Type: registry.ParamString, Description: `Counter path, e.g. \Processor(_Total)\% Processor Time`, Required: true},
					{Name: "samples", Type: registry.ParamNumber, Description: "Number of samples to take (default 1)", Default: 1},
				},
				Handler: s.getCounters,
			},
			{
				Name:        "get_cpu_usage",
				Description: "Show total CPU utilization.",
				Handler:     s.getCPUUsage,
			},
			{
				Name:        "get_memory_usage",
				Description: "Show physical memory utilization.",
				Handler:     s.getMemoryUsage,
			},
			{
				Name:        "get_disk_usage",
				Description: "Show capacity and free space per logical disk.",
				Handler:     s.getDiskUsage,
			},
		},
	}
}

func (s *Service) getCounters(ctx context.Context, args registry.Args) (string, error) {
	counter := args.String("counter", "")
	samples := args.Int("samples", 1)
	if samples < 1 {
		samples = 1
	}

	out, err := s.runner.RunPowerShell(ctx, fmt.Sprintf(
		"Get-Counter -Counter %s -MaxSamples %d | Select-Object -ExpandProperty CounterSamples | Select-Object Path, CookedValue | Format-Table -AutoSize",
		psQuote(counter), samples))
	if err != nil {
		return "", err
	}
	return format.NewReport("Performance Counter: " + counter).Raw(out).String(), nil
}

func (s *Service) getCPUUsage(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		`(Get-Counter '\Processor(_Total)\% Processor Time').CounterSamples[0].CookedValue`)
	if err != nil {
		return "", err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return "", fmt.Errorf("unexpected counter output %q: %w", strings.TrimSpace(out), err)
	}
	return format.NewReport("CPU Usage").
		Field("Total processor time", fmt.Sprintf("%.1f%%", value)).
		String(), nil
}

// getMemoryUsage reads total and free physical memory in one query and
// derives the used figures locally.
func (s *Service) getMemoryUsage(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		`$os = Get-CimInstance Win32_OperatingSystem; "$($os.TotalVisibleMemorySize) $($os.FreePhysicalMemory)"`)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return "", fmt.Errorf("unexpected memory query output %q", strings.TrimSpace(out))
	}
	totalKB, err1 := strconv.ParseInt(fields[0], 10, 64)
	freeKB, err2 := strconv.ParseInt(fields[1], 10, 64)
	if err1 != nil || err2 != nil || totalKB <= 0 || freeKB < 0 || freeKB > totalKB {
		return "", fmt.Errorf("unexpected memory query output %q", strings.TrimSpace(out))
	}

	usedKB := totalKB - freeKB
	return format.NewReport("Memory Usage").
		Field("Total", format.Bytes(totalKB*1024)).
		Field("Used", format.Bytes(usedKB*1024)).
		Field("Free", format.Bytes(freeKB*1024)).
		Field("Utilization", fmt.Sprintf("%.1f%%", float64(usedKB)/float64(totalKB)*100)).
		String(), nil
}

func (s *Service) getDiskUsage(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		"Get-CimInstance Win32_LogicalDisk -Filter \"DriveType=3\" | Select-Object DeviceID, VolumeName, Size, FreeSpace | Format-Table -AutoSize")
	if err != nil {
		return "", err
	}
	return format.NewReport("Disk Usage").Raw(out).String(), nil
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
