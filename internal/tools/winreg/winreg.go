// Package winreg implements the registry tool: read-only value and key
// queries plus an installed-software search across the uninstall hives.
package winreg

import (
	"context"
	"fmt"
	"strings"

	"github.com/winbridge/winbridge/internal/format"
	"github.com/winbridge/winbridge/internal/registry"
	"github.com/winbridge/winbridge/internal/runner"
	"go.uber.org/zap"
)

// uninstallHives are the locations installed software registers itself
// under. 64-bit, 32-bit-on-64 and per-user installs each use their own hive.
var uninstallHives = []struct {
	label string
	path  string
}{
	{"64-bit machine-wide", `HKLM:\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{"32-bit machine-wide", `HKLM:\SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	{"current user", `HKCU:\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// allowedRoots are the registry drive prefixes a caller-supplied path may
// start with.
var allowedRoots = []string{`HKLM:\`, `HKCU:\`, `HKCR:\`, `HKU:\`, `HKCC:\`}

// Service implements the registry tool.
type Service struct {
	runner runner.CommandRunner
	logger *zap.Logger
}

// NewService creates the registry tool service.
func NewService(run runner.CommandRunner, logger *zap.Logger) *Service {
	return &Service{runner: run, logger: logger}
}

// Tool returns the tool definition for registration.
func (s *Service) Tool() *registry.Tool {
	return &registry.Tool{
		Name:        "registry",
		Description: "Read-only Windows registry queries: read a value, list subkeys, or search installed software.",
		ReadOnly:    true,
		Actions: []registry.Action{
			{
				Name:        "read_value",
				Description: "Read a single registry value.",
				Params: []registry.Param{
					{Name: "path", Type: registry.ParamString, Description: `Registry key path, e.g. HKLM:\SOFTWARE\Microsoft\Windows NT\CurrentVersion`, Required: true},
					{Name: "name", Type: registry.ParamString, Description: "Value name to read", Required: true},
				},
				Handler: s.readValue,
			},
			{
				Name:        "list_keys",
				Description: "List the subkeys of a registry key.",
				Params: []registry.Param{
					{Name: "path", Type: registry.ParamString, Description: "Registry key path", Required: true},
				},
				Handler: s.listKeys,
			},
			{
				Name:        "find_software",
				Description: "Search installed software across the machine-wide and per-user uninstall hives.",
				Params: []registry.Param{
					{Name: "name", Type: registry.ParamString, Description: "Substring of the display name to match. Omit to list everything."},
				},
				Handler: s.findSoftware,
			},
		},
	}
}

// validatePath rejects paths that do not start with a known registry drive,
// before anything reaches PowerShell.
func validatePath(path string) error {
	for _, root := range allowedRoots {
		if strings.HasPrefix(strings.ToUpper(path), root) {
			return nil
		}
	}
	return fmt.Errorf("invalid registry path %q: must start with one of %s",
		path, strings.Join(allowedRoots, ", "))
}

func (s *Service) readValue(ctx context.Context, args registry.Args) (string, error) {
	path := args.String("path", "")
	name := args.String("name", "")
	if err := validatePath(path); err != nil {
		return "", err
	}

	out, err := s.runner.RunPowerShell(ctx, fmt.Sprintf(
		"Get-ItemProperty -Path %s -Name %s | Select-Object -ExpandProperty %s",
		psQuote(path), psQuote(name), psQuote(name)))
	if err != nil {
		return "", err
	}

	return format.NewReport("Registry Value").
		Field("Key", path).
		Field("Name", name).
		Field("Value", strings.TrimSpace(out)).
		String(), nil
}

func (s *Service) listKeys(ctx context.Context, args registry.Args) (string, error) {
	path := args.String("path", "")
	if err := validatePath(path); err != nil {
		return "", err
	}

	out, err := s.runner.RunPowerShell(ctx,
		"Get-ChildItem -Path "+psQuote(path)+" -Name")
	if err != nil {
		return "", err
	}

	r := format.NewReport("Registry Keys: " + path)
	keys := strings.Fields(strings.TrimSpace(out))
	if len(keys) == 0 {
		return r.Line("(no subkeys)").String(), nil
	}
	for _, key := range strings.Split(strings.TrimSpace(out), "\n") {
		r.Line("- " + strings.TrimSpace(key))
	}
	return r.String(), nil
}

// findSoftware queries each uninstall hive independently. A hive that cannot
// be read is reported inline and does not abort the search of the others.
func (s *Service) findSoftware(ctx context.Context, args registry.Args) (string, error) {
	name := strings.TrimSpace(args.String("name", ""))

	r := format.NewReport("Installed Software")
	if name != "" {
		r.Line("Matching: " + name)
	}

	for _, hive := range uninstallHives {
		script := "Get-ItemProperty -Path " + psQuote(hive.path+`\*`) +
			" | Where-Object { $_.DisplayName }"
		if name != "" {
			script += " | Where-Object { $_.DisplayName -like " + psQuote("*"+name+"*") + " }"
		}
		script += " | Select-Object DisplayName, DisplayVersion, Publisher | Format-Table -AutoSize"

		r.Section(hive.label + " (" + hive.path + ")")
		out, err := s.runner.RunPowerShell(ctx, script)
		if err != nil {
			s.logger.Warn("uninstall hive query failed",
				zap.String("hive", hive.path), zap.Error(err))
			r.Line("(hive unavailable: " + err.Error() + ")")
			continue
		}
		if strings.TrimSpace(out) == "" {
			r.Line("(no matches)")
			continue
		}
		r.Raw(out)
	}
	return r.String(), nil
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
