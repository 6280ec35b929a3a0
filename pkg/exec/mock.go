package exec

import (
	"context"
	"strings"
)

// MockCommandExecutor records commands instead of running them.
type MockCommandExecutor struct {
	// Commands records all commands that were executed
	Commands []string

	// Stdins records the input fed to each command
	Stdins []string

	// LookPathFunc allows custom behavior for LookPath in tests
	LookPathFunc func(file string) (string, error)

	// RunFunc allows custom behavior for Run in tests
	RunFunc func(ctx context.Context, stdin string, name string, arg ...string) (string, error)
}

// LookPath implements CommandExecutor.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	// By default, assume commands exist
	return "/path/to/" + file, nil
}

// Run implements CommandExecutor.
func (m *MockCommandExecutor) Run(ctx context.Context, stdin string, name string, arg ...string) (string, error) {
	cmdStr := name
	if len(arg) > 0 {
		cmdStr = name + " " + strings.Join(arg, " ")
	}
	m.Commands = append(m.Commands, cmdStr)
	m.Stdins = append(m.Stdins, stdin)

	if m.RunFunc != nil {
		return m.RunFunc(ctx, stdin, name, arg...)
	}
	return "", nil
}
