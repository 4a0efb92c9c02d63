package model

import "strings"

type TempSensor struct {
	Label   string  `json:"label"`
	Celsius float64 `json:"celsius"`
	High    float64 `json:"high,omitempty"`
	Crit    float64 `json:"crit,omitempty"`
}

type FanSensor struct {
	Label string  `json:"label"`
	RPM   float64 `json:"rpm"`
	Min   float64 `json:"min,omitempty"`
}

const (
	SensorSourceHwmon = "hwmon"
	SensorSourceIPMI  = "ipmi"
)

// TempDevice groups the sensors of one hwmon chip or IPMI sensor group.
// Name is the hwmon driver name, or "ipmi".
type TempDevice struct {
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	DeviceLabel string       `json:"device_label,omitempty"`
	Temps       []TempSensor `json:"temps"`
	Fans        []FanSensor  `json:"fans,omitempty"`
}

func (d TempDevice) DisplayName() string {
	switch {
	case d.Category == "CPU":
		return "CPU (" + d.Name + ")"
	case d.Name == SensorSourceIPMI:
		return d.Category
	case d.DeviceLabel != "" && !strings.Contains(d.DeviceLabel, ":"):
		return d.Category + ": " + d.DeviceLabel
	default:
		return d.Category + ": " + d.Name
	}
}

// Hottest returns the highest sensor reading, or 0.
func (d TempDevice) Hottest() float64 {
	hottest := 0.0
	for _, s := range d.Temps {
		if s.Celsius > hottest {
			hottest = s.Celsius
		}
	}
	return hottest
}
