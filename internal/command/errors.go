package command

import (
	"errors"
	"fmt"
	"strings"
)

// ToolNotFoundError reports a binary that could not be located in PATH
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s: not found: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// ToolExecutionError reports a tool that exited non-zero or timed out.
// ExitCode is -1 when the process did not exit on its own.
type ToolExecutionError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a *ToolNotFoundError
func IsNotFound(err error) bool {
	var nf *ToolNotFoundError
	return errors.As(err, &nf)
}
