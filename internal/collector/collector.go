// Package collector performs one full sampling pass per tick: CPU, memory,
// disk throughput, temperatures, GPU and free space. Every probe failure
// is isolated to its own field; a bad source never aborts the pass.
package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/nhdewitt/statfeed/internal/config"
	"github.com/nhdewitt/statfeed/internal/gpu"
	"github.com/nhdewitt/statfeed/internal/protocol"
)

// GPUReader is the resolved GPU source. ok=false means no reading this
// tick.
type GPUReader interface {
	Read(index int) (gpu.Reading, bool)
}

// OS probes, swappable in tests.
var (
	cpuPercent    = cpu.PercentWithContext
	virtualMemory = mem.VirtualMemoryWithContext
	ioCounters    = disk.IOCountersWithContext
	freeBytes     = platformFreeBytes
)

// Prime takes the throwaway readings that make the first real tick
// meaningful: the CPU meter needs a previous observation and the rate
// tracker needs a counter baseline.
func Prime(ctx context.Context, tracker *RateTracker) {
	cpuPercent(ctx, 0, false)

	if snap, err := readCounters(ctx); err == nil {
		tracker.Update(snap)
	}
}

// Collect runs one sampling pass against a single config snapshot.
func Collect(ctx context.Context, snap config.Snapshot, tracker *RateTracker, gpus GPUReader) protocol.Sample {
	s := protocol.Unavailable(len(snap.Volumes))

	if pcts, err := cpuPercent(ctx, 0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = clamp(pcts[0], 0.0, 100.0)
	}

	if vm, err := virtualMemory(ctx); err == nil {
		s.MemPercent = clamp(vm.UsedPercent, 0.0, 100.0)
	}

	if counters, err := readCounters(ctx); err == nil {
		readMBps, writeMBps := tracker.Update(counters)
		s.DiskMBps = readMBps + writeMBps
		s.DiskPercent = diskPercent(s.DiskMBps, snap.DiskScaleMBps)
	}

	s.CPUTempF = cpuTempF(ctx)

	if snap.GPUEnabled && gpus != nil {
		if reading, ok := gpus.Read(snap.GPUIndex); ok {
			s.GPUPercent = clamp(reading.UtilPercent, 0.0, 100.0)
			s.GPUTempF = CToF(reading.TempC)
		}
	}

	for i, volume := range snap.Volumes {
		if free, err := freeBytes(ctx, volume); err == nil {
			s.FreeGB[i] = float64(free) / (1024 * 1024 * 1024)
		}
	}

	return s
}

func readCounters(ctx context.Context) (CounterSnapshot, error) {
	counters, err := ioCounters(ctx)
	if err != nil {
		return CounterSnapshot{}, err
	}
	return aggregateCounters(counters, time.Now()), nil
}
