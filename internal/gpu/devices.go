package gpu

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Device is one selectable GPU, as shown in the configuration surface.
type Device struct {
	Index int
	Name  string
}

// Devices enumerates the GPUs on this host: NVML first, nvidia-smi -L if
// the library is unusable, and a single synthetic entry when both fail so
// the configuration surface always has something to offer. Called once at
// configuration time, never per tick.
func Devices() []Device {
	if devices := nvmlDevices(); len(devices) > 0 {
		return devices
	}
	if devices := smiDevices(); len(devices) > 0 {
		return devices
	}
	return []Device{{Index: 0, Name: "GPU 0"}}
}

func nvmlDevices() []Device {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil
	}
	defer nvml.Shutdown()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil
	}

	devices := make([]Device, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("GPU %d", i)
		if device, ret := nvml.DeviceGetHandleByIndex(i); ret == nvml.SUCCESS {
			if n, ret := device.GetName(); ret == nvml.SUCCESS {
				name = n
			}
		}
		devices = append(devices, Device{Index: i, Name: name})
	}

	return devices
}

func smiDevices() []Device {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil
	}

	out, err := exec.Command(path, "-L").Output()
	if err != nil {
		return nil
	}

	return parseSMIDeviceList(string(out))
}

// parseSMIDeviceList parses `nvidia-smi -L` output, one device per line:
//
//	GPU 0: NVIDIA GeForce RTX 3080 (UUID: GPU-...)
func parseSMIDeviceList(out string) []Device {
	var devices []Device

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "GPU ") {
			continue
		}

		rest := strings.TrimPrefix(line, "GPU ")
		colon := strings.Index(rest, ":")
		if colon < 0 {
			continue
		}

		var index int
		if _, err := fmt.Sscanf(rest[:colon], "%d", &index); err != nil {
			continue
		}

		name := strings.TrimSpace(rest[colon+1:])
		if paren := strings.Index(name, "(UUID:"); paren >= 0 {
			name = strings.TrimSpace(name[:paren])
		}

		devices = append(devices, Device{Index: index, Name: name})
	}

	return devices
}
