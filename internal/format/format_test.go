package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBytesPerSec(t *testing.T) {
	assert.Equal(t, "0B/s", BytesPerSec(0))
	assert.Equal(t, "999B/s", BytesPerSec(999))
	assert.Equal(t, "1.0K/s", BytesPerSec(1024))
	assert.Equal(t, "1.5M/s", BytesPerSec(1.5*1024*1024))
	assert.Equal(t, "2.0G/s", BytesPerSec(2*1024*1024*1024))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "17", Rate(17))
	assert.Equal(t, "3.4K", Rate(3_400))
	assert.Equal(t, "1.2M", Rate(1_200_000))
}

func TestMiB(t *testing.T) {
	assert.Equal(t, "812M", MiB(812))
	assert.Equal(t, "23.5G", MiB(23.5*1024))
}

func TestBytesAndBits(t *testing.T) {
	assert.Equal(t, "1.0 KiB", Bytes(1024))
	assert.Equal(t, "8 kbit/s", BitsPerSec(1000))
}

func TestUptime(t *testing.T) {
	assert.Equal(t, "0m", Uptime(59*time.Second))
	assert.Equal(t, "5m", Uptime(5*time.Minute+10*time.Second))
	assert.Equal(t, "4h 12m", Uptime(4*time.Hour+12*time.Minute))
	assert.Equal(t, "3d 0h 1m", Uptime(72*time.Hour+time.Minute))
}

func TestTemp(t *testing.T) {
	assert.Equal(t, "62C", Temp(62, 0, false))
	assert.Equal(t, "62C/95C", Temp(62, 95, false))
	assert.Equal(t, "212F/32F", Temp(100, 0.0001, true))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "NVIDIA ...", Truncate("NVIDIA GeForce RTX 4090", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
