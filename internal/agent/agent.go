package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"housekeeper/internal/clock"
	"housekeeper/internal/collector"
	"housekeeper/internal/config"
	"housekeeper/internal/libvirt"
	"housekeeper/internal/model"
	"housekeeper/internal/source"
	"housekeeper/internal/stream"
	"housekeeper/internal/system"
)

// Frontend owns the terminal while the agent collects. Returning ends the
// session.
type Frontend interface {
	Run(ctx context.Context) error
}

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	clk       clock.Clock
	fs        system.FS
	runner    system.Runner
	platform  *source.Platform
	set       collector.Set
	ipmi      *collector.IPMIWorker
	conn      *libvirt.ConnManager
	board     *stream.Board
	scheduler *collector.Scheduler
	health    *HealthStatus
}

// New probes the host and wires every collector that applies to it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Agent, error) {
	fs := system.FS{ProcRoot: cfg.ProcRoot, SysRoot: cfg.SysRoot}
	clk := clock.Real()
	runner := system.NewExecRunner(cfg.CommandTimeout, logger)

	platform, err := source.New(fs, clk)
	if err != nil {
		return nil, fmt.Errorf("platform sources: %w", err)
	}

	a := &Agent{
		cfg:      cfg,
		logger:   logger,
		clk:      clk,
		fs:       fs,
		runner:   runner,
		platform: platform,
		board:    stream.NewBoard(),
		health:   NewHealthStatus(),
	}
	a.set = a.buildCollectors(ctx)
	a.scheduler = collector.NewScheduler(
		logger,
		a.board,
		clk,
		a.set.Tasks(),
		collector.TierIntervals{Fast: cfg.Interval, Slow: cfg.SlowInterval, VerySlow: cfg.VerySlowInterval},
		cfg.Profile,
		cfg.ErrorBackoff,
	)
	a.scheduler.OnPass(a.health.MarkPass)
	return a, nil
}

func (a *Agent) buildCollectors(ctx context.Context) collector.Set {
	cfg, p, logger := a.cfg, a.platform, a.logger
	set := collector.Set{
		CPU:       collector.NewCPUCollector(p.CPU, !cfg.NoPerCore, logger),
		Memory:    collector.NewMemoryCollector(p.Memory, logger),
		Disk:      collector.NewDiskCollector(p.Disk, logger),
		Network:   collector.NewNetworkCollector(p.Net, collector.NewLinkInspector(), a.clk, logger),
		Kernel:    collector.NewKernelCollector(p.Kernel, p.Host, logger),
		Processes: collector.NewProcessCollector(p.Processes, cfg.TopProcesses, logger),
		NetFS:     collector.NewNetFSCollector(p.Mounts, a.clk, logger),
	}

	if membw := collector.NewMemBandwidthCollector(a.fs, a.clk, logger); membw.Probe(ctx) {
		set.MemBW = membw
	}
	if conns := collector.NewConnectionsCollector(collector.NewConnLister(a.runner, logger), a.clk, cfg.TopConnections, logger); conns.Probe(ctx) {
		set.Connections = conns
	}
	if !cfg.NoPCIe {
		if pcie := collector.NewPCIeCollector(a.fs, a.runner, p.Disk, p.Net, a.clk, logger); pcie.Probe(ctx) {
			set.PCIe = pcie
		}
	}
	if !cfg.NoGPU {
		gpu := collector.NewGPUCollector(logger,
			collector.NewNVIDIAReader(a.runner, a.fs, logger),
			collector.NewAMDReader(a.runner, logger),
			collector.NewGaudiReader(a.runner, logger),
			collector.NewAppleReader(a.runner, logger),
		)
		if gpu.Probe(ctx) {
			set.GPU = gpu
		}
	}

	temps := collector.NewTemperatureCollector(a.fs, a.clk, nil, logger)
	if worker := collector.NewIPMIWorker(a.runner, a.clk, cfg.IPMIInterval, logger); cfg.Interactive() && worker.Probe(ctx) {
		a.ipmi = worker
		temps = collector.NewTemperatureCollector(a.fs, a.clk, worker.Results(), logger)
	}
	if temps.Probe(ctx) || a.ipmi != nil {
		set.Temperature = temps
	}

	if cfg.EnableVM {
		a.conn = libvirt.NewConnManager(cfg.LibvirtURI, cfg.ReconnectInterval, cfg.MaxReconnectJitter, a.clk, logger)
		set.VM = collector.NewVMCollector(a.conn, a.clk, runtime.NumCPU(), logger)
	}
	return set
}

func (a *Agent) Board() *stream.Board { return a.board }

func (a *Agent) Scheduler() *collector.Scheduler { return a.scheduler }

// Sample takes a baseline, waits, and samples again so every rate has a
// full interval behind it. The one-shot text report uses it.
func (a *Agent) Sample(ctx context.Context, wait time.Duration) (model.Frame, error) {
	if err := a.scheduler.CollectAll(ctx); err != nil {
		a.logger.Warn("baseline collect failed", "error", err)
	}
	select {
	case <-ctx.Done():
		return model.Frame{}, ctx.Err()
	case <-a.clk.After(wait):
	}
	if err := a.scheduler.CollectAll(ctx); err != nil {
		return a.board.Latest(), err
	}
	return a.board.Latest(), nil
}

// Run collects in the background while fe owns the terminal. It returns
// when fe returns, on SIGTERM, or when ctx ends.
func (a *Agent) Run(ctx context.Context, fe Frontend) error {
	a.logger.Info("starting housekeeper", "mode", a.cfg.Mode, "interval", a.cfg.Interval)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx, fe)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	a.shutdown()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("housekeeper stopped")
	return nil
}

// BuildLogger returns the process logger and a closer for its file, if any.
// Interactive modes without a log file discard every record so the dashboard
// is not scribbled over; fatal errors still surface through Run's return.
func BuildLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f.Close
	case cfg.Interactive():
		return slog.New(slog.DiscardHandler), closer, nil
	}

	hOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, hOpts)
	if cfg.LogJSON {
		h = slog.NewJSONHandler(w, hOpts)
	}
	return slog.New(h), closer, nil
}
