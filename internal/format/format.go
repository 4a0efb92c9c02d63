// Package format renders rates and sizes for the dashboard.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"housekeeper/internal/rate"
)

const (
	kib = 1024.0
	mib = 1024.0 * kib
	gib = 1024.0 * mib
)

// BytesPerSec renders a byte rate with binary units: 1.5G/s, 12.0M/s, 3.2K/s, 17B/s.
func BytesPerSec(bps float64) string {
	switch {
	case bps >= gib:
		return fmt.Sprintf("%.1fG/s", bps/gib)
	case bps >= mib:
		return fmt.Sprintf("%.1fM/s", bps/mib)
	case bps >= kib:
		return fmt.Sprintf("%.1fK/s", bps/kib)
	}
	return fmt.Sprintf("%.0fB/s", bps)
}

// BitsPerSec renders a byte rate as SI bits per second.
func BitsPerSec(bps float64) string {
	if bps < 0 {
		bps = 0
	}
	return humanize.SIWithDigits(bps*rate.BitsPerByte, 1, "bit/s")
}

// Rate renders an event rate with decimal suffixes: 1.2M, 3.4K, 17.
func Rate(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	}
	return fmt.Sprintf("%.0f", v)
}

// MiB renders a MiB quantity as 812M or 23.5G.
func MiB(v float64) string {
	if v >= 1024 {
		return fmt.Sprintf("%.1fG", v/1024)
	}
	return fmt.Sprintf("%.0fM", v)
}

// Bytes renders an absolute size with IEC units.
func Bytes(v uint64) string {
	return humanize.IBytes(v)
}

// Uptime renders "3d 4h 12m", "4h 12m" or "12m".
func Uptime(d time.Duration) string {
	s := int64(d / time.Second)
	days := s / 86400
	hours := (s % 86400) / 3600
	mins := (s % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Temp renders a Celsius reading in the chosen unit, with an optional
// critical threshold: "62C/95C" or "144F".
func Temp(celsius, crit float64, fahrenheit bool) string {
	conv := func(c float64) float64 {
		if fahrenheit {
			return c*9/5 + 32
		}
		return c
	}
	unit := "C"
	if fahrenheit {
		unit = "F"
	}
	s := fmt.Sprintf("%.0f%s", conv(celsius), unit)
	if crit > 0 {
		s += fmt.Sprintf("/%.0f%s", conv(crit), unit)
	}
	return s
}

// Truncate shortens s to n runes with a trailing ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
