package agent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context, fe Frontend) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	if a.ipmi != nil {
		g.Go(func() error {
			return a.ipmi.Run(gctx)
		})
	}
	if fe != nil {
		g.Go(func() error {
			// the frontend quitting ends the session
			defer cancel()
			return fe.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := a.clk.NewTicker(a.cfg.HealthInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			a.refreshHealth()
			a.logger.Debug("agent health", "snapshot", a.health.Snapshot())
		}
	}
}

func (a *Agent) refreshHealth() {
	if a.conn != nil {
		a.health.SetLibvirtConnected(a.conn.Connected())
	}
	if a.ipmi != nil {
		a.health.SetIPMIAvailable(a.ipmi.Available())
	}
	if last, ok := a.health.LastPass(); ok && time.Since(last) > 3*a.cfg.VerySlowInterval {
		a.logger.Warn("collection stalled", "last_pass", last)
	}
}

func (a *Agent) shutdown() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("libvirt close failed", "error", err)
		}
		a.health.SetLibvirtConnected(false)
	}
}
