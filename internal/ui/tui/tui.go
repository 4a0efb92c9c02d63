package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Frontend owns the terminal for the lifetime of one dashboard session.
type Frontend struct {
	source   FrameSource
	interval IntervalControl
	opts     Options
}

func New(source FrameSource, interval IntervalControl, opts Options) *Frontend {
	return &Frontend{source: source, interval: interval, opts: opts}
}

// Run blocks until the user quits or ctx ends. Cancellation is a normal
// exit.
func (f *Frontend) Run(ctx context.Context) error {
	updates, cancel := f.source.Subscribe()
	defer cancel()

	m := NewModel(f.source, updates, f.interval, f.opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
