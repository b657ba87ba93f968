package gpu

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlBackend queries a device through the in-process NVML library. NVML
// is a process-wide singleton: Init once per run, Shutdown on release.
type nvmlBackend struct {
	device nvml.Device
}

func newNVMLBackend(index int) (Backend, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml init: %s", nvml.ErrorString(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, fmt.Errorf("nvml device %d: %s", index, nvml.ErrorString(ret))
	}

	return &nvmlBackend{device: device}, nil
}

func (b *nvmlBackend) Query() (Reading, error) {
	util, ret := b.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return Reading{}, fmt.Errorf("nvml utilization: %s", nvml.ErrorString(ret))
	}

	temp, ret := b.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return Reading{}, fmt.Errorf("nvml temperature: %s", nvml.ErrorString(ret))
	}

	return Reading{
		UtilPercent: float64(util.Gpu),
		TempC:       float64(temp),
	}, nil
}

func (b *nvmlBackend) Close() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}

func (b *nvmlBackend) Name() string { return "nvml" }
