package render

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Runner starts a child process and waits for it to exit.
//
// exitCode is the child's exit status. err is non-nil when the child could
// not be started, was killed, or exited non-zero.
type Runner interface {
	Run(ctx context.Context, tool string, args []string) (exitCode int, err error)
}

// ExecRunner runs OpenSCAD through os/exec without a shell.
type ExecRunner struct {
	// Stdout and Stderr receive the child's output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the child's working directory; empty means the current one.
	Dir string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, tool string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Dir = r.Dir

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	return -1, err
}
