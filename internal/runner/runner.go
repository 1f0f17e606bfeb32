// Package runner executes validation commands after a batch has been applied.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Options controls how a command is executed.
type Options struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env holds extra environment variables layered over the process env.
	Env map[string]string
	// Shell runs command as a "sh -c" script when true, with args passed
	// through as the positional parameters $1..$n.
	Shell bool
	// Stream additionally receives combined command output as it is produced.
	Stream io.Writer
}

// Result captures the outcome of one command execution.
type Result struct {
	// Success reports a zero exit code.
	Success bool `yaml:"success" json:"success"`
	// ExitCode is the command exit code, or -1 when it could not start.
	ExitCode int `yaml:"exitCode" json:"exitCode"`
	// Stdout is the captured standard output.
	Stdout string `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	// Stderr is the captured standard error.
	Stderr string `yaml:"stderr,omitempty" json:"stderr,omitempty"`
}

// Runner shells out to external commands with captured output.
type Runner struct {
	logger *slog.Logger
}

// NewRunner constructs a Runner that logs through the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run executes command with args and returns the captured result. A failed
// start is reported as an unsuccessful result with exit code -1 rather
// than an error: callers decide policy from the result alone.
func (r *Runner) Run(ctx context.Context, command string, args []string, opts Options) Result {
	var cmd *exec.Cmd
	if opts.Shell {
		// command is the script; args arrive untouched as $1..$n so the
		// shell never re-tokenizes them.
		shellArgs := append([]string{"-c", command, "sh"}, args...)
		cmd = exec.CommandContext(ctx, "sh", shellArgs...)
	} else {
		cmd = exec.CommandContext(ctx, command, args...)
	}

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		env := os.Environ()
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if opts.Stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, opts.Stream)
		cmd.Stderr = io.MultiWriter(&stderr, opts.Stream)
	}

	r.logger.Debug("running command", "command", command, "args", args, "dir", opts.Dir, "shell", opts.Shell)

	err := cmd.Run()
	res := Result{
		Success:  err == nil,
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			if res.Stderr == "" {
				res.Stderr = err.Error()
			}
		}
		r.logger.Warn("command failed", "command", command, "exitCode", res.ExitCode)
	}
	return res
}
