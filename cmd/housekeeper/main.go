package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"housekeeper/internal/agent"
	"housekeeper/internal/config"
	"housekeeper/internal/stream"
	"housekeeper/internal/ui/text"
	"housekeeper/internal/ui/tui"
)

// textSampleWait is the gap between baseline and sample in --text mode.
const textSampleWait = 500 * time.Millisecond

type cliFlags struct {
	configPath string
	interval   float64
	noPerCore  bool
	noGPU      bool
	noPCIe     bool
	text       bool
	character  bool
	gui        bool
	full       bool
	profile    bool
	detect     bool
	json       bool
	fahrenheit bool
	vm         bool
	logLevel   string
	logFile    string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags cliFlags
	cmd := &cobra.Command{
		Use:           "housekeeper",
		Short:         "Live host telemetry dashboard",
		Long:          "housekeeper samples CPU, memory, disk, network, PCIe, GPU, sensor and VM counters and renders them as rates.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.Context(), cmd.Flags(), flags)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/housekeeper/config.yaml)")
	f.Float64VarP(&flags.interval, "interval", "i", 1.0, "update interval in seconds")
	f.BoolVar(&flags.noPerCore, "no-per-core", false, "hide per-core CPU rows")
	f.BoolVar(&flags.noGPU, "no-gpu", false, "skip GPU collectors")
	f.BoolVar(&flags.noPCIe, "no-pcie", false, "skip the PCIe collector")
	f.BoolVar(&flags.text, "text", false, "print one report and exit")
	f.BoolVarP(&flags.character, "character", "c", false, "compact ASCII-only dashboard")
	f.BoolVarP(&flags.gui, "gui", "x", false, "dashboard with history charts")
	f.BoolVarP(&flags.full, "full", "f", false, "show every row instead of the busiest")
	f.BoolVar(&flags.profile, "profile", false, "record per-collector timings")
	f.BoolVar(&flags.detect, "detect", false, "print detected hardware and tools as YAML and exit")
	f.BoolVar(&flags.json, "json", false, "with --text, print the frame as JSON")
	f.BoolVar(&flags.fahrenheit, "fahrenheit", false, "show temperatures in Fahrenheit")
	f.BoolVar(&flags.vm, "vm", false, "collect libvirt domain statistics")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&flags.logFile, "log-file", "", "write logs to this file")
	return cmd
}

// applyFlags overrides file and environment settings with the flags the user
// actually set.
func applyFlags(cfg *config.Config, set *pflag.FlagSet, flags cliFlags) {
	if set.Changed("interval") {
		cfg.Interval = time.Duration(flags.interval * float64(time.Second))
	}
	if set.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if set.Changed("log-file") {
		cfg.LogFile = flags.logFile
	}
	cfg.NoPerCore = cfg.NoPerCore || flags.noPerCore
	cfg.NoGPU = cfg.NoGPU || flags.noGPU
	cfg.NoPCIe = cfg.NoPCIe || flags.noPCIe
	cfg.Full = cfg.Full || flags.full
	cfg.Profile = cfg.Profile || flags.profile
	cfg.Fahrenheit = cfg.Fahrenheit || flags.fahrenheit
	cfg.EnableVM = cfg.EnableVM || flags.vm
	cfg.Detect = flags.detect
	cfg.JSON = flags.json

	switch {
	case flags.text || flags.detect:
		cfg.Mode = config.ModeText
	case flags.character:
		cfg.Mode = config.ModeCharacter
	case flags.gui:
		cfg.Mode = config.ModeGUI
	}
}

func run(ctx context.Context, set *pflag.FlagSet, flags cliFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(&cfg, set, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := agent.BuildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := agent.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("agent initialization failed", "error", err)
		return err
	}

	switch {
	case cfg.Detect:
		return agent.WriteDetect(os.Stdout, a.Detect(ctx))
	case cfg.Mode == config.ModeText:
		frame, err := a.Sample(ctx, textSampleWait)
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}
		if cfg.JSON {
			return stream.EncodeFrame(os.Stdout, frame)
		}
		return text.Render(os.Stdout, frame, text.Options{
			Fahrenheit: cfg.Fahrenheit,
			Full:       cfg.Full,
			Width:      text.TerminalWidth(),
		})
	}

	fe := tui.New(a.Board(), a.Scheduler(), tui.OptionsFrom(cfg))
	if err := a.Run(ctx, fe); err != nil {
		logger.Error("housekeeper runtime failed", "error", err)
		return err
	}
	return nil
}
