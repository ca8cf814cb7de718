package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Output is what a finished process left behind.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts the renderer. The error is reserved for processes that
// could not be started; a non-zero exit is reported through Output.
type Runner interface {
	Run(ctx context.Context, argv []string) (Output, error)
}

// ExecRunner runs argv as a local process. In-flight processes are left to
// finish even when ctx ends, so no artifact is left half-written.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run implements Runner.
func (ExecRunner) Run(_ context.Context, argv []string) (Output, error) {
	if len(argv) == 0 {
		return Output{}, errors.New("renderer: empty command")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("starting %s: %w", argv[0], err)
	}
	return out, nil
}

// ExitError is a render that ran but did not succeed.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("renderer exited with status %d", e.Code)
	}
	return fmt.Sprintf("renderer exited with status %d: %s", e.Code, msg)
}

// Render runs argv and turns a non-zero exit into an *ExitError.
func Render(ctx context.Context, r Runner, argv []string) error {
	out, err := r.Run(ctx, argv)
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return &ExitError{Code: out.ExitCode, Stderr: string(out.Stderr)}
	}
	return nil
}

// SupportsManifold asks the renderer at binary for its help text and
// reports whether it mentions the manifold backend.
func SupportsManifold(ctx context.Context, r Runner, binary string) (bool, error) {
	out, err := r.Run(ctx, []string{binary, "-h"})
	if err != nil {
		return false, err
	}
	text := string(out.Stdout) + string(out.Stderr)
	return strings.Contains(text, "manifold"), nil
}
