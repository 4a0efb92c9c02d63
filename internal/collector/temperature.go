package collector

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"housekeeper/internal/classify"
	"housekeeper/internal/clock"
	"housekeeper/internal/mailbox"
	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

const (
	tempCacheTTL         = 5 * time.Second
	hwmonRediscoverEvery = 30
	maxTempIndex         = 19
	maxFanIndex          = 9
)

type hwmonTemp struct {
	input string
	label string
	high  float64
	crit  float64
}

type hwmonFan struct {
	input string
	label string
	min   float64
}

type hwmonChip struct {
	driver   string
	category string
	label    string
	temps    []hwmonTemp
	fans     []hwmonFan
}

// TemperatureCollector reads hwmon temperatures and fan speeds. Sensor paths
// and their static thresholds are discovered up front and refreshed every
// few dozen calls; each read touches only the input files.
type TemperatureCollector struct {
	fs     system.FS
	clk    clock.Clock
	ipmi   *mailbox.Slot[[]model.TempDevice]
	logger *slog.Logger

	layout    []hwmonChip
	sinceScan int
	cached    []model.TempDevice
	cachedAt  clock.Instant
	ipmiLast  []model.TempDevice
}

// NewTemperatureCollector builds the collector. ipmi may be nil when no BMC
// worker runs.
func NewTemperatureCollector(fs system.FS, clk clock.Clock, ipmi *mailbox.Slot[[]model.TempDevice], logger *slog.Logger) *TemperatureCollector {
	return &TemperatureCollector{fs: fs, clk: clk, ipmi: ipmi, logger: logger.With("collector", "temperature")}
}

func (c *TemperatureCollector) root() string {
	return c.fs.Sys("class", "hwmon")
}

func (c *TemperatureCollector) Probe(context.Context) bool {
	return len(system.ListDir(c.root())) > 0
}

func (c *TemperatureCollector) Collect(context.Context) []model.TempDevice {
	now := c.clk.Now()
	if c.cached != nil && now.Sub(c.cachedAt) < tempCacheTTL {
		return c.cached
	}

	if c.layout == nil || c.sinceScan >= hwmonRediscoverEvery {
		c.layout = c.discover()
		c.sinceScan = 0
		c.logger.Debug("hwmon layout discovered", "chips", len(c.layout))
	}
	c.sinceScan++

	devices := make([]model.TempDevice, 0, len(c.layout))
	for _, chip := range c.layout {
		d := model.TempDevice{Name: chip.driver, Category: chip.category, DeviceLabel: chip.label}
		for _, t := range chip.temps {
			milli, ok := system.ReadInt(t.input)
			if !ok || milli == 0 {
				continue
			}
			d.Temps = append(d.Temps, model.TempSensor{
				Label:   t.label,
				Celsius: float64(milli) / 1000,
				High:    t.high,
				Crit:    t.crit,
			})
		}
		for _, f := range chip.fans {
			rpm, _ := system.ReadInt(f.input)
			d.Fans = append(d.Fans, model.FanSensor{Label: f.label, RPM: float64(rpm), Min: f.min})
		}
		if len(d.Temps) > 0 || len(d.Fans) > 0 {
			devices = append(devices, d)
		}
	}

	if c.ipmi != nil {
		if v, ok := c.ipmi.TryTake(); ok {
			c.ipmiLast = v
		}
		devices = append(devices, c.ipmiLast...)
	}

	c.cached = devices
	c.cachedAt = now
	return devices
}

func (c *TemperatureCollector) discover() []hwmonChip {
	var chips []hwmonChip
	for _, entry := range system.ListDir(c.root()) {
		dir := filepath.Join(c.root(), entry)
		driver := system.ReadString(filepath.Join(dir, "name"))
		if driver == "" {
			continue
		}
		chip := hwmonChip{
			driver:   driver,
			category: classify.HwmonCategory(driver),
			label:    hwmonDeviceLabel(dir),
		}
		for i := 1; i <= maxTempIndex; i++ {
			prefix := filepath.Join(dir, "temp"+strconv.Itoa(i))
			if !system.Exists(prefix + "_input") {
				continue
			}
			chip.temps = append(chip.temps, hwmonTemp{
				input: prefix + "_input",
				label: system.FirstNonEmpty(system.ReadString(prefix+"_label"), "temp"+strconv.Itoa(i)),
				high:  milliCelsius(prefix + "_max"),
				crit:  milliCelsius(prefix + "_crit"),
			})
		}
		for i := 1; i <= maxFanIndex; i++ {
			prefix := filepath.Join(dir, "fan"+strconv.Itoa(i))
			if !system.Exists(prefix + "_input") {
				continue
			}
			minRPM, _ := system.ReadInt(prefix + "_min")
			chip.fans = append(chip.fans, hwmonFan{
				input: prefix + "_input",
				label: system.FirstNonEmpty(system.ReadString(prefix+"_label"), "fan"+strconv.Itoa(i)),
				min:   float64(minRPM),
			})
		}
		if len(chip.temps) > 0 || len(chip.fans) > 0 {
			chips = append(chips, chip)
		}
	}
	return chips
}

func milliCelsius(path string) float64 {
	v, _ := system.ReadInt(path)
	return float64(v) / 1000
}

// hwmonDeviceLabel names the device behind a chip when its link target is
// recognisable: an NVMe controller or a PCI address.
func hwmonDeviceLabel(dir string) string {
	target, err := filepath.EvalSymlinks(filepath.Join(dir, "device"))
	if err != nil {
		return ""
	}
	name := filepath.Base(target)
	if strings.HasPrefix(name, "nvme") || strings.Contains(name, ":") {
		return name
	}
	return ""
}
