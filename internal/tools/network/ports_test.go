package network

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortSpecDefaults(t *testing.T) {
	ports, err := ParsePortSpec("")
	require.NoError(t, err)
	assert.Equal(t, []int{80, 443, 22, 21, 25, 53, 110, 993, 995}, ports)
}

func TestParsePortSpecRange(t *testing.T) {
	ports, err := ParsePortSpec("80-443")
	require.NoError(t, err)
	require.Len(t, ports, 101, "range expansion is capped at start+100")
	assert.Equal(t, 80, ports[0])
	assert.Equal(t, 180, ports[100])
}

func TestParsePortSpecShortRange(t *testing.T) {
	ports, err := ParsePortSpec("8080-8082")
	require.NoError(t, err)
	assert.Equal(t, []int{8080, 8081, 8082}, ports)
}

func TestParsePortSpecList(t *testing.T) {
	ports, err := ParsePortSpec("80, 443,8080")
	require.NoError(t, err)
	assert.Equal(t, []int{80, 443, 8080}, ports)
}

func TestParsePortSpecInvalid(t *testing.T) {
	for _, spec := range []string{"abc", "80-", "-443", "443-80", "0-10", "80,99999", "80,,443"} {
		_, err := ParsePortSpec(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func fakeDial(open, timeout map[int]bool) dialFunc {
	return func(_, address string, _ time.Duration) (net.Conn, error) {
		_, portStr, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		port := 0
		for _, c := range portStr {
			port = port*10 + int(c-'0')
		}
		switch {
		case open[port]:
			c1, c2 := net.Pipe()
			go c2.Close()
			return c1, nil
		case timeout[port]:
			return nil, timeoutError{}
		default:
			return nil, errors.New("connection refused")
		}
	}
}

func TestScanClassifiesEachPort(t *testing.T) {
	p := &Prober{timeout: time.Second, dial: fakeDial(map[int]bool{80: true}, map[int]bool{25: true})}

	results := p.Scan("localhost", []int{80, 25, 443})
	require.Len(t, results, 3)
	assert.Equal(t, ProbeResult{Port: 80, State: StateOpen}, results[0])
	assert.Equal(t, ProbeResult{Port: 25, State: StateError}, results[1])
	assert.Equal(t, ProbeResult{Port: 443, State: StateClosed}, results[2])
}

func TestScanProbesAtMostTwenty(t *testing.T) {
	probed := 0
	p := &Prober{timeout: time.Second, dial: func(_, _ string, _ time.Duration) (net.Conn, error) {
		probed++
		return nil, errors.New("refused")
	}}

	ports, err := ParsePortSpec("1-500")
	require.NoError(t, err)
	require.Len(t, ports, 101, "1-500 is capped to 101 entries")

	results := p.Scan("localhost", ports)
	assert.Equal(t, 20, probed, "at most 20 probes are issued")
	require.Len(t, results, 20)
	for i, res := range results {
		assert.Equal(t, i+1, res.Port, "ports 1..20 in ascending order")
	}
}

func TestScanFailureDoesNotAbortSubsequentProbes(t *testing.T) {
	p := &Prober{timeout: time.Second, dial: fakeDial(map[int]bool{22: true}, map[int]bool{21: true})}

	results := p.Scan("localhost", []int{21, 22})
	require.Len(t, results, 2)
	assert.Equal(t, StateError, results[0].State)
	assert.Equal(t, StateOpen, results[1].State)
}
