// Package network implements the network tool: reachability diagnostics via
// native utilities (ping, tracert, netstat), adapter and DNS queries via
// PowerShell, and a bounded sequential port scan done natively in Go.
package network

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

// connectionLimit bounds how many netstat lines get_connections reports.
const connectionLimit = 50

// Service implements the network tool.
type Service struct {
	runner runner.CommandRunner
	prober *Prober
	logger *zap.Logger
}

// NewService creates the network tool service.
func NewService(run runner.CommandRunner, prober *Prober, logger *zap.Logger) *Service {
	return &Service{runner: run, prober: prober, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "network",
		Description: "Network diagnostics: ping, trace route, active connections, adapters, DNS lookups and a bounded TCP port scan.",
		ReadOnly:    true,
		Actions: []registry.Action{
			{
				Name:        "ping",
				Description: "Ping a host and report round-trip statistics.",
				Params: []registry.Param{
					{Name: "host", Type: registry.ParamString, Description: "Hostname or IP address", Required: true},
					{Name: "count", Type: registry.ParamNumber, Description: "Number of echo requests (default 4)", Default: 4},
				},
				Handler: s.ping,
			},
			{
				Name:        "trace_route",
				Description: "Trace the route packets take to a host.",
				Params: []registry.Param{
					{Name: "host", Type: registry.ParamString, Description: "Hostname or IP address", Required: true},
				},
				Handler: s.traceRoute,
			},
			{
				Name:        "get_connections",
				Description: "List active network connections (first 50).",
				Handler:     s.getConnections,
			},
			{
				Name:        "get_adapters",
				Description: "List network adapters and their link state.",
				Handler:     s.getAdapters,
			},
			{
				Name:        "dns_lookup",
				Description: "Resolve a DNS name.",
				Params: []registry.Param{
					{Name: "name", Type: registry.ParamString, Description: "DNS name to resolve", Required: true},
				},
				Handler: s.dnsLookup,
			},
			{
				Name:        "scan_open_ports",
				Description: "Probe TCP ports on a host sequentially. Ranges are capped at 101 ports and at most the first 20 ports are probed.",
				Params: []registry.Param{
					{Name: "host", Type: registry.ParamString, Description: "Hostname or IP address", Required: true},
					{Name: "port_range", Type: registry.ParamString, Description: "Ports to probe: 'start-end' range or comma list. Defaults to a well-known set."},
				},
				Handler: s.scanOpenPorts,
			},
		},
	}
}

func (s *Service) ping(ctx context.Context, args registry.Args) (string, error) {
	host := args.String("host", "")
	count := args.Int("count", 4)

	out, err := s.runner.Run(ctx, "ping", "-n", strconv.Itoa(count), host)
	if err != nil {
		return "", err
	}
	return format.NewReport("Ping: " + host).Raw(out).String(), nil
}

func (s *Service) traceRoute(ctx context.Context, args registry.Args) (string, error) {
	host := args.String("host", "")

	out, err := s.runner.Run(ctx, "tracert", "-d", host)
	if err != nil {
		return "", err
	}
	return format.NewReport("Trace Route: " + host).Raw(out).String(), nil
}

func (s *Service) getConnections(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.Run(ctx, "netstat", "-ano")
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\n")
	truncated := false
	if len(lines) > connectionLimit {
		lines = lines[:connectionLimit]
		truncated = true
	}

	r := format.NewReport("Active Connections").Raw(strings.Join(lines, "\n"))
	if truncated {
		r.Line(fmt.Sprintf("(output truncated to the first %d lines)", connectionLimit))
	}
	return r.String(), nil
}

func (s *Service) getAdapters(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		"Get-NetAdapter | Select-Object Name, InterfaceDescription, Status, LinkSpeed, MacAddress | Format-Table -AutoSize")
	if err != nil {
		return "", err
	}
	return format.NewReport("Network Adapters").Raw(out).String(), nil
}

func (s *Service) dnsLookup(ctx context.Context, args registry.Args) (string, error) {
	name := args.String("name", "")

	out, err := s.runner.RunPowerShell(ctx,
		"Resolve-DnsName -Name "+psQuote(name)+" | Format-Table -AutoSize")
	if err != nil {
		return "", err
	}
	return format.NewReport("DNS Lookup: " + name).Raw(out).String(), nil
}

// scanOpenPorts runs the bounded native port scan. Results are reported in
// the order the ports were probed, one classification per probed port.
func (s *Service) scanOpenPorts(_ context.Context, args registry.Args) (string, error) {
	host := args.String("host", "")

	ports, err := ParsePortSpec(args.String("port_range", ""))
	if err != nil {
		return "", err
	}

	results := s.prober.Scan(host, ports)

	r := format.NewReport("Port Scan: " + host)
	open := 0
	for _, res := range results {
		r.Line(fmt.Sprintf("- Port %d: %s", res.Port, res.State))
		if res.State == StateOpen {
			open++
		}
	}
	r.Line(fmt.Sprintf("\n%d of %d probed ports open", open, len(results)))
	if len(ports) > len(results) {
		r.Line(fmt.Sprintf("(%d ports requested, probing capped at %d)", len(ports), maxProbes))
	}
	return r.String(), nil
}

// psQuote single-quotes a value for safe interpolation into a PowerShell
// command line.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
