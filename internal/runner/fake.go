package runner

import (
	"context"
	"strings"
)

// FakeCall records one invocation made against a Fake.
type FakeCall struct {
	Name   string
	Args   []string
	Script string
}

// Fake is an in-memory CommandRunner for handler tests. It records every
// invocation and serves canned output instead of spawning processes.
type Fake struct {
	// Output is returned for every call unless a more specific entry in
	// Outputs matches.
	Output string
	// Outputs maps a substring of the command line (or PowerShell script)
	// to the output to return when it matches.
	Outputs map[string]string
	// Err, when set, is returned by every call.
	Err error

	Calls []FakeCall
}

var _ CommandRunner = (*Fake)(nil)

func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	f.Calls = append(f.Calls, FakeCall{Name: name, Args: args})
	return f.respond(name + " " + strings.Join(args, " "))
}

func (f *Fake) RunPowerShell(_ context.Context, script string) (string, error) {
	f.Calls = append(f.Calls, FakeCall{Name: "powershell.exe", Script: script})
	return f.respond(script)
}

func (f *Fake) respond(commandLine string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	for needle, out := range f.Outputs {
		if strings.Contains(commandLine, needle) {
			return out, nil
		}
	}
	return f.Output, nil
}
