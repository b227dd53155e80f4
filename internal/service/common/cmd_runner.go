package common

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CmdRunner is interface for executing external commands
type CmdRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// realCmdRunner implements CmdRunner using os/exec
type realCmdRunner struct{}

// NewCmdRunner creates a new CmdRunner
func NewCmdRunner() CmdRunner {
	return &realCmdRunner{}
}

// Run executes external command with given arguments and returns its stdout.
// A non-zero exit includes the tail of stderr in the error.
func (r *realCmdRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, lastLine(exitErr.Stderr))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// LookPath reports whether name is on PATH
func LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
