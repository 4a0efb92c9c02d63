package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
	"housekeeper/internal/mailbox"
	"housekeeper/internal/model"
	"housekeeper/internal/system"
)

func hwmonFixture(t *testing.T) system.FS {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"class/hwmon/hwmon0/name":        "coretemp\n",
		"class/hwmon/hwmon0/temp1_input": "45000\n",
		"class/hwmon/hwmon0/temp1_label": "Package id 0\n",
		"class/hwmon/hwmon0/temp1_max":   "80000\n",
		"class/hwmon/hwmon0/temp1_crit":  "100000\n",
		"class/hwmon/hwmon0/temp2_input": "0\n",

		"class/hwmon/hwmon1/name":        "nvme\n",
		"class/hwmon/hwmon1/temp1_input": "38850\n",

		"class/hwmon/hwmon2/name":        "nct6798\n",
		"class/hwmon/hwmon2/fan1_input":  "900\n",
		"class/hwmon/hwmon2/fan1_min":    "300\n",
		"class/hwmon/hwmon2/fan2_input":  "0\n",
		"class/hwmon/hwmon2/fan2_label":  "Chassis\n",

		"class/hwmon/hwmon3/name": "acpitz\n",

		"devices/pci0000:00/0000:01:00.0/nvme/nvme0/.keep": "",
	})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "devices/pci0000:00/0000:01:00.0/nvme/nvme0"),
		filepath.Join(root, "class/hwmon/hwmon1/device")))
	return system.FS{SysRoot: root}
}

func TestTemperatureDiscoversChips(t *testing.T) {
	fs := hwmonFixture(t)
	c := NewTemperatureCollector(fs, clock.Fake(at(0)), nil, discardLogger())
	require.True(t, c.Probe(context.Background()))

	devices := c.Collect(context.Background())
	require.Len(t, devices, 3, "acpitz has no sensors")

	cpu := devices[0]
	assert.Equal(t, "CPU", cpu.Category)
	require.Len(t, cpu.Temps, 1, "zero readings are skipped")
	assert.Equal(t, model.TempSensor{Label: "Package id 0", Celsius: 45, High: 80, Crit: 100}, cpu.Temps[0])

	nvme := devices[1]
	assert.Equal(t, "NVMe", nvme.Category)
	assert.Equal(t, "nvme0", nvme.DeviceLabel)
	assert.Equal(t, "temp1", nvme.Temps[0].Label)
	assert.InDelta(t, 38.85, nvme.Temps[0].Celsius, 1e-9)

	board := devices[2]
	assert.Equal(t, "Mainboard", board.Category)
	require.Len(t, board.Fans, 2)
	assert.Equal(t, model.FanSensor{Label: "fan1", RPM: 900, Min: 300}, board.Fans[0])
	assert.Equal(t, "Chassis", board.Fans[1].Label)
}

func TestTemperatureCachesForFiveSeconds(t *testing.T) {
	fs := hwmonFixture(t)
	clk := clock.Fake(at(0))
	c := NewTemperatureCollector(fs, clk, nil, discardLogger())
	c.Collect(context.Background())

	input := fs.Sys("class", "hwmon", "hwmon0", "temp1_input")
	require.NoError(t, os.WriteFile(input, []byte("60000\n"), 0o644))

	clk.Advance(4 * time.Second)
	assert.Equal(t, 45.0, c.Collect(context.Background())[0].Temps[0].Celsius)

	clk.Advance(time.Second)
	assert.Equal(t, 60.0, c.Collect(context.Background())[0].Temps[0].Celsius)
}

func TestTemperatureAppendsLatestIPMI(t *testing.T) {
	fs := hwmonFixture(t)
	clk := clock.Fake(at(0))
	slot := mailbox.NewSlot[[]model.TempDevice]()
	c := NewTemperatureCollector(fs, clk, slot, discardLogger())

	assert.Len(t, c.Collect(context.Background()), 3)

	slot.Put(ParseSDR([]byte(sdrOutput)))
	clk.Advance(tempCacheTTL)
	assert.Len(t, c.Collect(context.Background()), 7)

	clk.Advance(tempCacheTTL)
	assert.Len(t, c.Collect(context.Background()), 7, "the last BMC reading is kept between polls")
}

func TestTemperatureNoHwmon(t *testing.T) {
	c := NewTemperatureCollector(system.FS{SysRoot: t.TempDir()}, clock.Real(), nil, discardLogger())
	assert.False(t, c.Probe(context.Background()))
	assert.Empty(t, c.Collect(context.Background()))
}
