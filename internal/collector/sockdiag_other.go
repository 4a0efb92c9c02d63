//go:build !linux

package collector

import (
	"log/slog"

	"housekeeper/internal/system"
)

// NewConnLister uses ss where sock_diag does not exist.
func NewConnLister(runner system.Runner, _ *slog.Logger) ConnLister {
	return NewSSLister(runner)
}
