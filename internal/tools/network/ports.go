package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// maxRangeSpan caps how far a start-end range is expanded beyond its
	// start, so a range never materializes more than 101 ports.
	maxRangeSpan = 100

	// maxProbes bounds how many ports a single scan actually probes,
	// regardless of how many the specification expanded to.
	maxProbes = 20

	// defaultProbeTimeout is the per-probe connect timeout.
	defaultProbeTimeout = 2 * time.Second
)

// defaultPorts are probed when the caller gives no port specification.
var defaultPorts = []int{80, 443, 22, 21, 25, 53, 110, 993, 995}

// Probe classifications. A failed probe never aborts the scan; it is
// recorded with one of these states.
const (
	StateOpen   = "open"
	StateClosed = "closed or filtered"
	StateError  = "timeout or error"
)

// ProbeResult is the outcome of probing one port.
type ProbeResult struct {
	Port  int
	State string
}

// ParsePortSpec expands a port specification into the list of ports to scan.
// An empty spec yields the default well-known set. A spec containing '-' is
// an inclusive start-end range, expanded but capped at start+100. Anything
// else is a comma-separated list of ports.
func ParsePortSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return append([]int(nil), defaultPorts...), nil
	}

	if strings.Contains(spec, "-") {
		startStr, endStr, _ := strings.Cut(spec, "-")
		start, err := parsePort(startStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", spec, err)
		}
		end, err := parsePort(endStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q: %w", spec, err)
		}
		if end < start {
			return nil, fmt.Errorf("invalid port range %q: end is below start", spec)
		}

		last := end
		if last > start+maxRangeSpan {
			last = start + maxRangeSpan
		}
		ports := make([]int, 0, last-start+1)
		for p := start; p <= last; p++ {
			ports = append(ports, p)
		}
		return ports, nil
	}

	var ports []int
	for _, field := range strings.Split(spec, ",") {
		p, err := parsePort(field)
		if err != nil {
			return nil, fmt.Errorf("invalid port list %q: %w", spec, err)
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", strings.TrimSpace(s))
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d is out of range 1-65535", p)
	}
	return p, nil
}

// dialFunc matches net.DialTimeout and is replaceable in tests.
type dialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Prober performs TCP connect probes with a per-probe timeout. Probes run
// sequentially, so a scan holds at most one outstanding connection.
type Prober struct {
	timeout time.Duration
	dial    dialFunc
}

// NewProber creates a prober with the default per-probe timeout.
func NewProber() *Prober {
	return &Prober{timeout: defaultProbeTimeout, dial: net.DialTimeout}
}

// Scan probes at most maxProbes of the given ports against host, in order,
// and classifies each as open, closed-or-filtered or timeout-or-error. A
// failure on one port never aborts probing of subsequent ports.
func (p *Prober) Scan(host string, ports []int) []ProbeResult {
	if len(ports) > maxProbes {
		ports = ports[:maxProbes]
	}

	results := make([]ProbeResult, 0, len(ports))
	for _, port := range ports {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		conn, err := p.dial("tcp", addr, p.timeout)
		switch {
		case err == nil:
			conn.Close()
			results = append(results, ProbeResult{Port: port, State: StateOpen})
		case isTimeout(err):
			results = append(results, ProbeResult{Port: port, State: StateError})
		default:
			results = append(results, ProbeResult{Port: port, State: StateClosed})
		}
	}
	return results
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
