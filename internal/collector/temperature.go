package collector

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/sensors"

	"github.com/nhdewitt/statfeed/internal/protocol"
)

// sensorGroups is a priority list across platform sensor naming
// conventions, not an exhaustive one: the first group with a reading wins.
var sensorGroups = []string{"coretemp", "k10temp", "acpitz", "cpu-thermal", "nvme"}

// Swappable in tests.
var readSensorTemps = sensors.TemperaturesWithContext

// cpuTempF probes the known sensor groups and returns the first reading in
// Fahrenheit, falling through to the platform-specific source and finally
// to the unknown sentinel.
func cpuTempF(ctx context.Context) float64 {
	if stats, err := readSensorTemps(ctx); err == nil {
		if c, ok := matchSensorGroup(stats); ok {
			return CToF(c)
		}
	}

	if c, ok := platformTempC(ctx); ok {
		return CToF(c)
	}

	return protocol.TempUnknownF
}

func matchSensorGroup(stats []sensors.TemperatureStat) (float64, bool) {
	for _, group := range sensorGroups {
		for _, stat := range stats {
			if strings.HasPrefix(stat.SensorKey, group) {
				return stat.Temperature, true
			}
		}
	}
	return 0, false
}
