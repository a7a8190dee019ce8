package builder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Command is one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // nil inherits the current environment
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is the captured output of a command.
type Output struct {
	Stdout string
	Stderr string
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd, capturing stdout and stderr. A non-zero exit returns an
// error carrying the captured output.
func (ExecRunner) Run(ctx context.Context, c Command) (Output, error) {
	if _, err := exec.LookPath(c.Name); err != nil {
		return Output{}, fmt.Errorf("%s not found: %w", c.Name, err)
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) // #nosec G204 - argv comes from configuration
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("running command", slog.String("command", c.String()), slog.String("dir", c.Dir))

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if out.Stdout != "" {
		slog.Debug("command stdout", slog.String("command", c.Name), slog.String("output", out.Stdout))
	}
	if out.Stderr != "" {
		slog.Debug("command stderr", slog.String("command", c.Name), slog.String("output", out.Stderr))
	}
	if err != nil {
		// generators print errors to either stream
		output := strings.TrimSpace(out.Stderr)
		if output == "" {
			output = strings.TrimSpace(out.Stdout)
		}
		if output != "" {
			return out, fmt.Errorf("%s: %w: %s", c.Name, err, output)
		}
		return out, fmt.Errorf("%s: %w", c.Name, err)
	}
	return out, nil
}
