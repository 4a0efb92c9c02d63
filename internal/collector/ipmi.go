package collector

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"housekeeper/internal/classify"
	"housekeeper/internal/clock"
	"housekeeper/internal/mailbox"
	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

const DefaultIPMIInterval = 10 * time.Second

var ipmiCommands = [][]string{
	{"ipmitool"},
	{"sudo", "-n", "ipmitool"},
}

// IPMIWorker polls the BMC sensor repository off the collection path. The
// call routinely takes seconds, so results are handed over through a
// single-slot mailbox and the temperature collector never waits on it.
type IPMIWorker struct {
	runner   system.Runner
	clk      clock.Clock
	interval time.Duration
	logger   *slog.Logger
	slot     *mailbox.Slot[[]model.TempDevice]

	cmd       []string
	available atomic.Bool
}

func NewIPMIWorker(runner system.Runner, clk clock.Clock, interval time.Duration, logger *slog.Logger) *IPMIWorker {
	if interval <= 0 {
		interval = DefaultIPMIInterval
	}
	return &IPMIWorker{
		runner:   runner,
		clk:      clk,
		interval: interval,
		logger:   logger.With("collector", "ipmi"),
		slot:     mailbox.NewSlot[[]model.TempDevice](),
	}
}

// Probe reports whether ipmitool is installed at all.
func (w *IPMIWorker) Probe(context.Context) bool {
	return system.Available(w.runner, "ipmitool")
}

// Available reports whether a working ipmitool invocation has been found.
func (w *IPMIWorker) Available() bool {
	return w.available.Load()
}

// Results is the mailbox the temperature collector drains.
func (w *IPMIWorker) Results() *mailbox.Slot[[]model.TempDevice] {
	return w.slot
}

// Run polls until ctx is done. It returns nil early when no invocation of
// ipmitool works, which is the normal case on hosts without a BMC.
func (w *IPMIWorker) Run(ctx context.Context) error {
	if !w.Probe(ctx) {
		return nil
	}
	if err := w.resolve(ctx); err != nil {
		w.logger.Info("ipmi disabled", "error", err)
		return nil
	}

	ticker := w.clk.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			w.poll(ctx)
		}
	}
}

// resolve finds the first invocation that lists sensors and publishes its
// output as the first result.
func (w *IPMIWorker) resolve(ctx context.Context) error {
	for _, cmd := range ipmiCommands {
		args := append(append([]string{}, cmd[1:]...), "sdr", "list")
		out, err := w.runner.Run(ctx, cmd[0], args...)
		if err != nil || strings.TrimSpace(string(out)) == "" {
			continue
		}
		w.cmd = cmd
		w.available.Store(true)
		w.slot.Put(ParseSDR(out))
		return nil
	}
	return errors.New("no working ipmitool invocation")
}

func (w *IPMIWorker) poll(ctx context.Context) {
	args := append(append([]string{}, w.cmd[1:]...), "sdr", "list")
	out := system.RunSoft(ctx, w.runner, w.logger, w.cmd[0], args...)
	if out == nil {
		return
	}
	w.slot.Put(ParseSDR(out))
}

// ParseSDR turns `ipmitool sdr list` output into grouped devices. Only rows
// with status "ok" are used.
func ParseSDR(out []byte) []model.TempDevice {
	var mbTemps, ddrTemps, vrmTemps, otherTemps []model.TempSensor
	var fans []model.FanSensor

	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.TrimSpace(parts[2]) != "ok" {
			continue
		}

		if strings.Contains(strings.ToUpper(name), "FAN") && strings.Contains(value, "RPM") {
			rpm, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, "RPM")), 64)
			if err == nil {
				fans = append(fans, model.FanSensor{Label: name, RPM: rpm})
			}
			continue
		}
		if !strings.Contains(value, "degrees C") {
			continue
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(value, "degrees C", "")), 64)
		if err != nil {
			continue
		}
		s := model.TempSensor{Label: name, Celsius: c}
		switch classify.IPMISensorGroup(name) {
		case "DDR":
			ddrTemps = append(ddrTemps, s)
		case "VRM":
			vrmTemps = append(vrmTemps, s)
		case "Mainboard":
			mbTemps = append(mbTemps, s)
		default:
			otherTemps = append(otherTemps, s)
		}
	}

	var devices []model.TempDevice
	if len(mbTemps) > 0 || len(fans) > 0 {
		devices = append(devices, ipmiDevice("Mainboard", "IPMI BMC", mbTemps, fans))
	}
	if len(vrmTemps) > 0 {
		devices = append(devices, ipmiDevice("VRM", "VRM", vrmTemps, nil))
	}
	if len(ddrTemps) > 0 {
		devices = append(devices, ipmiDevice("DDR", "DDR5", ddrTemps, nil))
	}
	if len(otherTemps) > 0 {
		devices = append(devices, ipmiDevice("Other", "IPMI", otherTemps, nil))
	}
	return devices
}

func ipmiDevice(category, label string, temps []model.TempSensor, fans []model.FanSensor) model.TempDevice {
	return model.TempDevice{
		Name:        model.SensorSourceIPMI,
		Category:    category,
		DeviceLabel: label,
		Temps:       temps,
		Fans:        fans,
	}
}
