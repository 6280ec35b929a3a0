package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattsolo1/grove-core/command"
)

// ExecError wraps an execution error with the command's stderr.
type ExecError struct {
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

// RealCommandExecutor runs commands through grove-core's SafeBuilder, which
// validates the command name and arguments before execution.
type RealCommandExecutor struct {
	builder *command.SafeBuilder
}

// NewRealCommandExecutor creates a RealCommandExecutor.
func NewRealCommandExecutor() *RealCommandExecutor {
	return &RealCommandExecutor{builder: command.NewSafeBuilder()}
}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable.
func (e *RealCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes the command and waits for it to exit.
func (e *RealCommandExecutor) Run(ctx context.Context, stdin string, name string, arg ...string) (string, error) {
	// SafeBuilder rejects unsafe names and arguments before anything runs
	cmd, err := e.builder.Build(ctx, name, arg...)
	if err != nil {
		return "", fmt.Errorf("building %s command: %w", name, err)
	}
	execCmd := cmd.Exec()
	// The prompt is fed on stdin, never as an argument
	execCmd.Stdin = strings.NewReader(stdin)

	// Capture stderr separately to include it in error messages
	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		// Wrap with the trimmed stderr
		return "", &ExecError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.String(), nil
}
