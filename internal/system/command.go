package system

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

var ErrCommandNotFound = errors.New("command not found")

const DefaultCommandTimeout = 5 * time.Second

// Runner executes external tools. Every call is bounded by a timeout.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs real processes via os/exec.
type ExecRunner struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	return p, nil
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", name, ErrCommandNotFound)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out after %s: %w", name, r.Timeout, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	r.Logger.Debug("command finished", "cmd", name, "elapsed", time.Since(start))
	return out, nil
}

// RunSoft runs a command and degrades every failure to empty output, logging
// at warn level. Collectors use it so a broken tool never reaches the core.
func RunSoft(ctx context.Context, r Runner, logger *slog.Logger, name string, args ...string) []byte {
	out, err := r.Run(ctx, name, args...)
	if err != nil {
		if logger != nil && ctx.Err() == nil {
			logger.Warn("external command failed", "cmd", name, "error", err)
		}
		return nil
	}
	return out
}

// Available reports whether name resolves on PATH.
func Available(r Runner, name string) bool {
	_, err := r.LookPath(name)
	return err == nil
}

// ParseCSV reads headerless vendor CSV (nvidia-smi, hl-smi) with ragged rows
// and trimmed cells.
func ParseCSV(out []byte) [][]string {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil
	}
	reader := csv.NewReader(bytes.NewReader(out))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows
}
