// Package external runs the command line tools some build steps delegate to
// (code sample validators and syntax highlighters).
package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrToolNotFound is returned when the command is not on PATH.
	ErrToolNotFound = errors.New("external tool not found")
	// ErrToolFailed is returned when the command exits nonzero or times out.
	ErrToolFailed = errors.New("external tool failed")
)

// Command describes one invocation.
type Command struct {
	Args    []string
	Stdin   io.Reader
	Dir     string
	Timeout time.Duration
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner abstracts process execution so steps can be tested without the
// real tools installed.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner invokes binaries with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if len(c.Args) == 0 {
		return Result{}, fmt.Errorf("%w: empty command", ErrToolFailed)
	}
	if _, err := exec.LookPath(c.Args[0]); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrToolNotFound, c.Args[0], err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking external tool", "command", strings.Join(c.Args, " "))
	err := cmd.Run()

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%w: %s: %w", ErrToolFailed, c.Args[0], ctxErr)
		}
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		if output != "" {
			return res, fmt.Errorf("%w: %w: %s", ErrToolFailed, err, output)
		}
		return res, fmt.Errorf("%w: %w", ErrToolFailed, err)
	}
	return res, nil
}

// Expand replaces {name} placeholders in argv.
func Expand(argv []string, vars map[string]string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		for k, v := range vars {
			a = strings.ReplaceAll(a, "{"+k+"}", v)
		}
		out[i] = a
	}
	return out
}

// FuncRunner adapts a function to Runner.
type FuncRunner func(ctx context.Context, cmd Command) (Result, error)

func (f FuncRunner) Run(ctx context.Context, cmd Command) (Result, error) { return f(ctx, cmd) }
