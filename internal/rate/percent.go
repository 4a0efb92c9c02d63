package rate

// ClampPercent bounds v to [0, 100].
func ClampPercent(value float64) float64 {
	if value < 0 || value != value {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// PercentOf returns value as a clamped percentage of total.
func PercentOf(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return ClampPercent(value / total * 100)
}
