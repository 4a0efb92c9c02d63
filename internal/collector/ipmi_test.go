package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/system/systemtest"
)

const sdrOutput = `CPU Temp         | 45 degrees C      | ok
MB Temp          | 38 degrees C      | ok
VRM Temp         | 52 degrees C      | ok
DDR5_A1 Temp     | 41 degrees C      | ok
PCH Temp         | 50 degrees C      | ok
Inlet Temp       | no reading        | ns
FAN1             | 1200 RPM          | ok
FAN2             | 0 RPM             | cr
PS1 Status       | 0x01              | ok
`

func TestParseSDR(t *testing.T) {
	devices := ParseSDR([]byte(sdrOutput))
	require.Len(t, devices, 4)

	mb := devices[0]
	assert.Equal(t, "Mainboard", mb.Category)
	assert.Equal(t, model.SensorSourceIPMI, mb.Name)
	require.Len(t, mb.Temps, 1)
	assert.Equal(t, "MB Temp", mb.Temps[0].Label)
	require.Len(t, mb.Fans, 1)
	assert.Equal(t, 1200.0, mb.Fans[0].RPM)

	assert.Equal(t, "VRM", devices[1].Category)
	assert.Equal(t, "DDR", devices[2].Category)
	assert.Equal(t, 41.0, devices[2].Temps[0].Celsius)

	other := devices[3]
	assert.Equal(t, "Other", other.Category)
	assert.Len(t, other.Temps, 2, "CPU Temp and PCH Temp")
}

func TestParseSDREmpty(t *testing.T) {
	assert.Empty(t, ParseSDR(nil))
	assert.Empty(t, ParseSDR([]byte("garbage\n| |\n")))
}

func TestIPMIWorkerFallsBackToSudoAndPolls(t *testing.T) {
	runner := systemtest.NewRunner().
		Fail(errBoom, "ipmitool", "sdr", "list").
		Script(sdrOutput, "sudo", "-n", "ipmitool", "sdr", "list")
	clk := clock.Fake(at(0))
	w := NewIPMIWorker(runner, clk, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Results().Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("no first result")
	}
	first, ok := w.Results().TryTake()
	require.True(t, ok)
	assert.Len(t, first, 4)
	assert.True(t, w.Available())

	assert.Eventually(t, func() bool {
		clk.Advance(time.Second)
		return runner.CallCount("sudo", "-n", "ipmitool", "sdr", "list") >= 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, runner.CallCount("ipmitool", "sdr", "list"), "the working invocation is remembered")

	cancel()
	require.NoError(t, <-done)
}

func TestIPMIWorkerWithoutTool(t *testing.T) {
	w := NewIPMIWorker(systemtest.NewRunner(), clock.Real(), 0, discardLogger())
	assert.False(t, w.Probe(context.Background()))
	assert.NoError(t, w.Run(context.Background()))
	assert.False(t, w.Available())
}

func TestIPMIWorkerNoWorkingInvocation(t *testing.T) {
	runner := systemtest.NewRunner().
		Fail(errBoom, "ipmitool", "sdr", "list").
		Fail(errBoom, "sudo", "-n", "ipmitool", "sdr", "list")
	w := NewIPMIWorker(runner, clock.Real(), time.Second, discardLogger())
	assert.NoError(t, w.Run(context.Background()))
	assert.False(t, w.Available())
}
