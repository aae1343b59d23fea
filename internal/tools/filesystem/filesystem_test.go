package filesystem

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, fake *runner.Fake) *Service {
	t.Helper()
	return NewService(newTestFs(t), fake, zap.NewNop())
}

func TestListDirectoryHandler(t *testing.T) {
	s := newTestService(t, &runner.Fake{})

	out, err := s.listDirectory(context.Background(), registry.Args{
		"path": "/data", "recursive": false, "max_depth": float64(2),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Directory Listing: /data\n"))
	assert.Contains(t, out, "- [DIR] logs")
	assert.NotContains(t, out, "###")
}

func TestListDirectoryHandlerMissingPath(t *testing.T) {
	s := newTestService(t, &runner.Fake{})

	_, err := s.listDirectory(context.Background(), registry.Args{"path": "/does-not-exist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/does-not-exist")
}

func TestGetFileInfo(t *testing.T) {
	s := newTestService(t, &runner.Fake{})

	out, err := s.getFileInfo(context.Background(), registry.Args{"path": "/data/notes.txt"})
	require.NoError(t, err)
	assert.Contains(t, out, "Kind: file")
	assert.Contains(t, out, "Size: 1.50 KB")

	out, err = s.getFileInfo(context.Background(), registry.Args{"path": "/data/logs"})
	require.NoError(t, err)
	assert.Contains(t, out, "Kind: directory")
}

func TestReadFile(t *testing.T) {
	s := newTestService(t, &runner.Fake{})

	out, err := s.readFile(context.Background(), registry.Args{"path": "/data/logs/app.log"})
	require.NoError(t, err)
	assert.Contains(t, out, "line")

	_, err = s.readFile(context.Background(), registry.Args{"path": "/data/logs"})
	require.Error(t, err, "directories are not readable as files")
}

func TestReadFileTruncatesLargeFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	big := strings.Repeat("a", maxReadBytes+10)
	require.NoError(t, afero.WriteFile(fsys, "/big.txt", []byte(big), 0o644))
	s := NewService(fsys, &runner.Fake{}, zap.NewNop())

	out, err := s.readFile(context.Background(), registry.Args{"path": "/big.txt"})
	require.NoError(t, err)
	assert.Contains(t, out, "output truncated")
	assert.NotContains(t, out, big, "full content must not be embedded")
}

func TestListDrives(t *testing.T) {
	fake := &runner.Fake{Output: "Name Used Free Root\nC    100  200  C:\\"}
	s := newTestService(t, fake)

	out, err := s.listDrives(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "C:\\")
	require.Len(t, fake.Calls, 1)
	assert.Contains(t, fake.Calls[0].Script, "Get-PSDrive")
}

func TestToolDefinition(t *testing.T) {
	tool := newTestService(t, &runner.Fake{}).Tool()

	assert.Equal(t, "filesystem", tool.Name)
	assert.True(t, tool.ReadOnly)

	names := make([]string, 0, len(tool.Actions))
	for _, a := range tool.Actions {
		names = append(names, a.Name)
	}
	assert.ElementsMatch(t, []string{"list_directory", "get_file_info", "read_file", "list_drives"}, names)
}
