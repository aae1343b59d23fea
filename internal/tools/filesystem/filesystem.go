// Package filesystem implements the filesystem tool: directory browsing
// with a bounded recursive walker, file metadata, bounded file reads and
// drive enumeration.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/winbridge/winbridge/internal/format"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

// maxReadBytes bounds how much of a file read_file returns.
const maxReadBytes = 512 * 1024

// defaultMaxDepth is the recursion bound applied when the caller asks for a
// recursive listing without specifying max_depth.
const defaultMaxDepth = 2

// Service implements the filesystem tool. Directory and file access goes
// through an afero.Fs; only drive enumeration shells out.
type Service struct {
	fs     afero.Fs
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the filesystem tool service.
func NewService(fsys afero.Fs, run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{fs: fsys, runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "filesystem",
		Description: "Browse the Windows file system: list directories (optionally recursively), inspect file metadata, read text files and enumerate drives.",
		ReadOnly:    true,
		Actions: []registry.Action{
			{
				Name:        "list_directory",
				Description: "List the entries of a directory, directories first, optionally recursing into subdirectories up to max_depth.",
				Params: []registry.Param{
					{Name: "path", Type: registry.ParamString, Description: "Directory to list, e.g. C:\\Users", Required: true},
					{Name: "recursive", Type: registry.ParamBoolean, Description: "Descend into subdirectories", Default: false},
					{Name: "max_depth", Type: registry.ParamNumber, Description: "Maximum recursion depth (default 2)", Default: defaultMaxDepth},
				},
				Handler: s.listDirectory,
			},
			{
				Name:        "get_file_info",
				Description: "Show metadata (kind, size, timestamps, permissions) for a file or directory.",
				Params: []registry.Param{
					{Name: "path", Type: registry.ParamString, Description: "File or directory path", Required: true},
				},
				Handler: s.getFileInfo,
			},
			{
				Name:        "read_file",
				Description: "Read a text file. Output is capped at 512 KB.",
				Params: []registry.Param{
					{Name: "path", Type: registry.ParamString, Description: "File to read", Required: true},
				},
				Handler: s.readFile,
			},
			{
				Name:        "list_drives",
				Description: "List the file system drives with used and free space.",
				Handler:     s.listDrives,
			},
		},
	}
}

// listDirectory produces the bounded recursive listing. Failure to open the
// requested directory itself is a handler-level failure; per-entry failures
// inside the walk are rendered inline.
func (s *Service) listDirectory(_ context.Context, args registry.Args) (string, error) {
	path := args.String("path", "")
	recursive := args.Bool("recursive", false)
	maxDepth := args.Int("max_depth", defaultMaxDepth)

	var b strings.Builder
	b.WriteString("# Directory Listing: " + path + "\n")
	if err := writeListing(s.fs, &b, path, recursive, maxDepth); err != nil {
		return "", fmt.Errorf("failed to list directory %s: %w", path, err)
	}
	return b.String(), nil
}

func (s *Service) getFileInfo(_ context.Context, args registry.Args) (string, error) {
	path := args.String("path", "")

	info, err := s.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	kind := "file"
	if info.IsDir() {
		kind = "directory"
	}
	r := format.NewReport("File Info: " + path).
		Field("Name", info.Name()).
		Field("Kind", kind).
		Field("Size", format.Bytes(info.Size())).
		Field("Modified", info.ModTime().Format("2006-01-02 15:04:05")).
		Field("Mode", info.Mode().String())
	return r.String(), nil
}

func (s *Service) readFile(_ context.Context, args registry.Args) (string, error) {
	path := args.String("path", "")

	info, err := s.fs.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, maxReadBytes)
	n, err := readFull(f, buf)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	r := format.NewReport("File: " + path).
		Field("Size", format.Bytes(info.Size())).
		Raw(string(buf[:n]))
	if info.Size() > maxReadBytes {
		r.Line(fmt.Sprintf("(output truncated to the first %s)", format.Bytes(maxReadBytes)))
	}
	return r.String(), nil
}

// readFull reads until buf is full or EOF, returning the bytes read.
func readFull(f afero.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) listDrives(ctx context.Context, _ registry.Args) (string, error) {
	out, err := s.runner.RunPowerShell(ctx,
		"Get-PSDrive -PSProvider FileSystem | Select-Object Name, Used, Free, Root | Format-Table -AutoSize")
	if err != nil {
		return "", err
	}
	return format.NewReport("File System Drives").Raw(out).String(), nil
}
