package filesystem

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultyFs wraps an afero.Fs and injects failures for specific paths.
type faultyFs struct {
	afero.Fs
	statErr map[string]bool
	openErr map[string]bool
}

func (f *faultyFs) Stat(name string) (os.FileInfo, error) {
	if f.statErr[name] {
		return nil, os.ErrPermission
	}
	return f.Fs.Stat(name)
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	if f.openErr[name] {
		return nil, os.ErrPermission
	}
	return f.Fs.Open(name)
}

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data/logs/archive", 0o755))
	require.NoError(t, fsys.MkdirAll("/data/temp", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/data/notes.txt", []byte(strings.Repeat("x", 1536)), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/logs/app.log", []byte("line"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/logs/archive/old.log", []byte("old"), 0o644))
	return fsys
}

func listing(t *testing.T, fsys afero.Fs, dir string, recursive bool, maxDepth int) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, writeListing(fsys, &b, dir, recursive, maxDepth))
	return b.String()
}

func TestListingNonRecursive(t *testing.T) {
	out := listing(t, newTestFs(t), "/data", false, 5)

	assert.Equal(t, 2, strings.Count(out, "- [DIR] "), "two directory entries")
	assert.Contains(t, out, "- [DIR] logs")
	assert.Contains(t, out, "- [DIR] temp")
	assert.Contains(t, out, "- notes.txt (1.50 KB, modified ")
	assert.Equal(t, 1, strings.Count(out, "- notes"), "one file entry")
	assert.NotContains(t, out, "###", "no recursive subsections")
}

func TestListingNeverRecursesWhenDepthExhausted(t *testing.T) {
	for _, depth := range []int{0, -1, -100} {
		out := listing(t, newTestFs(t), "/data", true, depth)
		assert.NotContains(t, out, "###", "depth %d must not recurse", depth)
	}
}

func TestListingRecursionIsDepthBounded(t *testing.T) {
	out := listing(t, newTestFs(t), "/data", true, 1)

	assert.Contains(t, out, "### /data/logs")
	assert.Contains(t, out, "- app.log")
	// depth 1 exhausted: archive is listed as an entry but never expanded
	assert.Contains(t, out, "- [DIR] archive")
	assert.NotContains(t, out, "### /data/logs/archive")
	assert.NotContains(t, out, "old.log")
}

func TestListingFullRecursion(t *testing.T) {
	out := listing(t, newTestFs(t), "/data", true, 5)

	assert.Contains(t, out, "### /data/logs/archive")
	assert.Contains(t, out, "- old.log")
}

func TestListingIsolatesPerEntryStatFailure(t *testing.T) {
	fsys := &faultyFs{Fs: newTestFs(t), statErr: map[string]bool{"/data/notes.txt": true}}
	out := listing(t, fsys, "/data", false, 0)

	assert.Contains(t, out, "- notes.txt (access denied)")
	// readable siblings still listed
	assert.Contains(t, out, "- [DIR] logs")
	assert.Contains(t, out, "- [DIR] temp")
}

func TestListingIsolatesSubdirectoryOpenFailure(t *testing.T) {
	fsys := &faultyFs{Fs: newTestFs(t), openErr: map[string]bool{"/data/logs": true}}
	out := listing(t, fsys, "/data", true, 3)

	// the unreadable subtree is marked, siblings still proceed
	idx := strings.Index(out, "### /data/logs")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, out[idx:], "(access denied)")
	assert.Contains(t, out, "### /data/temp")
	assert.NotContains(t, out, "app.log")
}

func TestListingTopLevelFailurePropagates(t *testing.T) {
	fsys := &faultyFs{Fs: newTestFs(t), openErr: map[string]bool{"/data": true}}
	var b strings.Builder
	err := writeListing(fsys, &b, "/data", false, 0)
	assert.Error(t, err)
}

func TestReadEntriesKeepsEnumerationOrderWithinGroups(t *testing.T) {
	entries, err := readEntries(newTestFs(t), "/data/logs")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.denied)
	}
}
