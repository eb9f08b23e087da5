package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every external tool invocation.
const DefaultTimeout = 5 * time.Second

// Runner runs an external tool and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Executor runs tools with os/exec
type Executor struct {
	Timeout time.Duration
	Logger  *logrus.Entry

	// lookPath is swapped in tests
	lookPath func(file string) (string, error)
}

// NewExecutor creates an executor with the given per-call timeout.
// A non-positive timeout selects DefaultTimeout.
func NewExecutor(timeout time.Duration, logger *logrus.Entry) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Executor{
		Timeout:  timeout,
		Logger:   logger.WithField("component", "command"),
		lookPath: exec.LookPath,
	}
}

// Run executes name with args and returns stdout.
//
// A missing binary yields *ToolNotFoundError. A non-zero exit or a timeout
// yields *ToolExecutionError. Nothing is retried.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (string, error) {
	bin, err := e.lookPath(name)
	if err != nil {
		return "", &ToolNotFoundError{Tool: name, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.Logger.WithField("cmd", cmd.String()).Debug("running tool")

	err = cmd.Run()
	if ctx.Err() != nil {
		return "", &ToolExecutionError{
			Tool:     name,
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      ctx.Err(),
		}
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", &ToolExecutionError{
			Tool:     name,
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.String(), nil
}
