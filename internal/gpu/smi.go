package gpu

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Each fallback query spawns a process, so it runs under a short deadline
// to keep the sampling loop close to its target cadence.
const smiTimeout = 600 * time.Millisecond

// smiBackend queries a device by running nvidia-smi. Much slower than NVML
// but present on systems where the library cannot be loaded.
type smiBackend struct {
	path  string
	index int
}

func newSMIBackend(index int) (Backend, error) {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi not on PATH: %w", err)
	}
	return &smiBackend{path: path, index: index}, nil
}

func (b *smiBackend) Query() (Reading, error) {
	ctx, cancel := context.WithTimeout(context.Background(), smiTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, b.path,
		"--query-gpu=utilization.gpu,temperature.gpu",
		"--format=csv,noheader,nounits",
		"-i", strconv.Itoa(b.index),
	).Output()
	if err != nil {
		return Reading{}, fmt.Errorf("nvidia-smi query: %w", err)
	}

	return parseSMIReading(string(out))
}

// parseSMIReading parses one "util, temp" line, e.g. "45, 67".
func parseSMIReading(out string) (Reading, error) {
	fields := strings.Split(strings.TrimSpace(out), ",")
	if len(fields) != 2 {
		return Reading{}, fmt.Errorf("unexpected nvidia-smi output %q", out)
	}

	util, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parsing utilization: %w", err)
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Reading{}, fmt.Errorf("parsing temperature: %w", err)
	}

	return Reading{UtilPercent: util, TempC: temp}, nil
}

func (b *smiBackend) Close() error { return nil }

func (b *smiBackend) Name() string { return "nvidia-smi" }
