// Package exec runs external model command-line tools.
package exec

import "context"

// CommandExecutor runs external commands. Tests substitute MockCommandExecutor.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Run executes name with args, feeding stdin to the process, and returns
	// its standard output once it exits.
	Run(ctx context.Context, stdin string, name string, arg ...string) (string, error)
}
