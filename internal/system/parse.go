package system

import (
	"strconv"
	"strings"
)

// NormalizeField maps the various "no value" spellings vendor tools use to "".
func NormalizeField(raw string) string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "n/a", "[n/a]", "[not supported]", "not supported", "unknown", "-", "none":
		return ""
	default:
		return v
	}
}

// ParseFloatFlexible parses the leading number of a cell, tolerating unit
// suffixes such as "%", "W", "C", "MiB" and "RPM". Garbage yields 0.
func ParseFloatFlexible(raw string) float64 {
	raw = NormalizeField(raw)
	if raw == "" {
		return 0
	}
	raw = strings.Fields(raw)[0]
	raw = strings.TrimRight(raw, "%WCcMiBRPM")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != v {
		return 0
	}
	return v
}

// ParseUintFlexible parses an unsigned integer, accepting float text.
func ParseUintFlexible(raw string) uint64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	raw = strings.Fields(raw)[0]
	value, err := strconv.ParseUint(raw, 10, 64)
	if err == nil {
		return value
	}
	floatValue, err := strconv.ParseFloat(raw, 64)
	if err != nil || floatValue < 0 {
		return 0
	}
	return uint64(floatValue)
}

func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
