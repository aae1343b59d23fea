package services

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

func TestListServicesCapsAtFifty(t *testing.T) {
	fake := &runner.Fake{Output: "Name DisplayName Status"}
	s := newTestService(fake)

	out, err := s.listServices(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Services (first 50)")
	assert.Contains(t, fake.Calls[0].Script, "-First 50")
}

func TestGetServiceStatusQuotesName(t *testing.T) {
	fake := &runner.Fake{Output: "Status : Running"}
	s := newTestService(fake)

	out, err := s.getServiceStatus(context.Background(), registry.Args{"name": "Spooler"})
	require.NoError(t, err)
	assert.Contains(t, out, "Status : Running")
	assert.Contains(t, fake.Calls[0].Script, "Get-Service -Name 'Spooler'")
}

func TestStartServiceReportsResultingStatus(t *testing.T) {
	fake := &runner.Fake{Outputs: map[string]string{
		").Status": "Running\r\n",
	}}
	s := newTestService(fake)

	handler := s.controlHandler("Start-Service", "started")
	out, err := handler(context.Background(), registry.Args{"name": "Spooler"})
	require.NoError(t, err)

	require.Len(t, fake.Calls, 2)
	assert.Equal(t, "Start-Service -Name 'Spooler'", fake.Calls[0].Script)
	assert.Contains(t, out, `Service "Spooler" started.`)
	assert.Contains(t, out, "Current status: Running")
}

func TestStopServiceFailurePropagates(t *testing.T) {
	fake := &runner.Fake{Err: errors.New("Cannot stop service 'Spooler'")}
	s := newTestService(fake)

	handler := s.controlHandler("Stop-Service", "stopped")
	_, err := handler(context.Background(), registry.Args{"name": "Spooler"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot stop service")
	assert.Len(t, fake.Calls, 1, "no status query after a failed control command")
}

func TestToolDefinesFiveActions(t *testing.T) {
	tool := newTestService(&runner.Fake{}).Tool()

	names := make([]string, 0, len(tool.Actions))
	for _, a := range tool.Actions {
		names = append(names, a.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_services", "get_service_status",
		"start_service", "stop_service", "restart_service",
	}, names)
	assert.False(t, tool.ReadOnly)
}
