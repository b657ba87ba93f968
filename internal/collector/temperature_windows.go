//go:build windows

package collector

import (
	"context"

	"github.com/yusufpapurcu/wmi"
)

// MSAcpi_ThermalZoneTemperature maps to the WMI class.
// The tags tell the library which WMI properties to load.
type MSAcpi_ThermalZoneTemperature struct {
	CurrentTemperature uint32
	InstanceName       string
}

// platformTempC falls back to the ACPI thermal zone when no sensor group
// matched. Windows rarely exposes the package sensor any other way without
// vendor drivers.
func platformTempC(ctx context.Context) (float64, bool) {
	var dst []MSAcpi_ThermalZoneTemperature

	q := wmi.CreateQuery(&dst, "")
	if err := wmi.QueryNamespace(q, &dst, `root\wmi`); err != nil || len(dst) == 0 {
		return 0, false
	}

	return decikelvinToCelsius(dst[0].CurrentTemperature), true
}

// WMI reports thermal zone temperature in tenths of a kelvin.
func decikelvinToCelsius(dk uint32) float64 {
	return (float64(dk) - 2732.0) / 10.0
}
