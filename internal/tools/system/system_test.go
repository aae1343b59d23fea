package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

func newTestService(fake *runner.Fake) *Service {
	return NewService(fake, zap.NewNop())
}

func TestGetOverviewCombinesBothQueries(t *testing.T) {
	fake := &runner.Fake{Outputs: map[string]string{
		"Win32_OperatingSystem": "Caption : Microsoft Windows Server 2022",
		"Win32_ComputerSystem":  "Manufacturer : Dell Inc.",
	}}
	s := newTestService(fake)

	out, err := s.getOverview(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "## Operating System")
	assert.Contains(t, out, "Windows Server 2022")
	assert.Contains(t, out, "## Computer System")
	assert.Contains(t, out, "Dell Inc.")
	assert.Len(t, fake.Calls, 2, "the two queries are issued independently")
}

func TestGetOverviewNamesFailedQuery(t *testing.T) {
	fake := &runner.Fake{Err: errors.New("Access denied")}
	s := newTestService(fake)

	_, err := s.getOverview(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operating system info")
}

func TestGetEnvironmentListsAll(t *testing.T) {
	fake := &runner.Fake{Output: "Name Value\nPATH C:\\Windows"}
	s := newTestService(fake)

	out, err := s.getEnvironment(context.Background(), registry.Args{})
	require.NoError(t, err)
	assert.Contains(t, out, "PATH C:\\Windows")
	assert.Contains(t, fake.Calls[0].Script, "Get-ChildItem Env:")
}

func TestGetEnvironmentSingleVariable(t *testing.T) {
	fake := &runner.Fake{Output: "C:\\Windows\\TEMP\r\n"}
	s := newTestService(fake)

	out, err := s.getEnvironment(context.Background(), registry.Args{"name": "TEMP"})
	require.NoError(t, err)
	assert.Contains(t, out, "TEMP: C:\\Windows\\TEMP")
}

func TestGetEnvironmentUnsetVariable(t *testing.T) {
	fake := &runner.Fake{Output: "  \r\n"}
	s := newTestService(fake)

	_, err := s.getEnvironment(context.Background(), registry.Args{"name": "NOPE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"NOPE" is not set`)
}

func TestGetUptimeFormatsDuration(t *testing.T) {
	// 3 days, 4 hours, 12 minutes
	fake := &runner.Fake{Output: "274320.5\r\n"}
	s := newTestService(fake)

	out, err := s.getUptime(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "3 days, 4 hours, 12 minutes")
}

func TestGetUptimeRejectsGarbageOutput(t *testing.T) {
	fake := &runner.Fake{Output: "not a number"}
	s := newTestService(fake)

	_, err := s.getUptime(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected uptime output")
}
