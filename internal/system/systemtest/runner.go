// Package systemtest provides a scripted system.Runner for tests.
package systemtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"housekeeper/internal/system"
)

// Runner answers commands from a table keyed by "name arg1 arg2 ...".
// Commands absent from Installed fail LookPath and Run with
// system.ErrCommandNotFound.
type Runner struct {
	mu        sync.Mutex
	Installed map[string]bool
	Outputs   map[string]string
	Errors    map[string]error
	Calls     []string
}

func NewRunner() *Runner {
	return &Runner{
		Installed: map[string]bool{},
		Outputs:   map[string]string{},
		Errors:    map[string]error{},
	}
}

// Script installs name and registers the output for the exact command line.
func (r *Runner) Script(out string, name string, args ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Installed[name] = true
	r.Outputs[key(name, args)] = out
	return r
}

// Fail installs name and makes the exact command line return err.
func (r *Runner) Fail(err error, name string, args ...string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Installed[name] = true
	r.Errors[key(name, args)] = err
	return r
}

func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Installed[name] {
		return "", fmt.Errorf("%s: %w", name, system.ErrCommandNotFound)
	}
	return "/usr/bin/" + name, nil
}

func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, args)
	r.Calls = append(r.Calls, k)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.Installed[name] {
		return nil, fmt.Errorf("%s: %w", name, system.ErrCommandNotFound)
	}
	if err, ok := r.Errors[k]; ok {
		return nil, err
	}
	out, ok := r.Outputs[k]
	if !ok {
		return nil, fmt.Errorf("%s: exit status 1", k)
	}
	return []byte(out), nil
}

// CallCount reports how many times the exact command line ran.
func (r *Runner) CallCount(name string, args ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(name, args)
	n := 0
	for _, c := range r.Calls {
		if c == k {
			n++
		}
	}
	return n
}

func key(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
