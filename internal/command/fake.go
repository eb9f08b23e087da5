package command

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Fake is a Runner answering from canned outputs keyed by the full
// command line ("lsblk -no TYPE /dev/sdb1"). Unknown command lines fail
// with a *ToolExecutionError. It is safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	missing map[string]bool
	calls   []string
}

// NewFake creates an empty Fake
func NewFake() *Fake {
	return &Fake{
		outputs: make(map[string]string),
		errs:    make(map[string]error),
		missing: make(map[string]bool),
	}
}

// Set registers the stdout for a command line
func (f *Fake) Set(cmdline, stdout string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[cmdline] = stdout
	return f
}

// Fail registers an execution failure for a command line
func (f *Fake) Fail(cmdline string, exitCode int) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields := strings.Fields(cmdline)
	f.errs[cmdline] = &ToolExecutionError{
		Tool:     fields[0],
		Args:     fields[1:],
		ExitCode: exitCode,
		Err:      errors.New("canned failure"),
	}
	return f
}

// Missing makes every invocation of tool fail with *ToolNotFoundError
func (f *Fake) Missing(tool string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[tool] = true
	return f
}

// Calls returns the command lines run so far, in order
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Run implements Runner
func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)

	if f.missing[name] {
		return "", &ToolNotFoundError{Tool: name, Err: errors.New("executable file not found in $PATH")}
	}
	if err, ok := f.errs[cmdline]; ok {
		return "", err
	}
	if out, ok := f.outputs[cmdline]; ok {
		return out, nil
	}
	return "", &ToolExecutionError{Tool: name, Args: args, ExitCode: 1, Err: errors.New("no canned output")}
}
