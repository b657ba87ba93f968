package collector

import (
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

const (
	bytesPerMB = 1024.0 * 1024.0

	// Floor for the elapsed time between snapshots. Protects the rate
	// division against clock anomalies and identical timestamps.
	minElapsed = time.Microsecond
)

// CounterSnapshot is one observation of the cumulative OS disk counters.
type CounterSnapshot struct {
	ReadBytes  uint64
	WriteBytes uint64
	At         time.Time
}

// ioRate converts two counter snapshots into instantaneous MB/s. A counter
// that appears to decrease (wrap or reset) contributes zero for this tick
// rather than a negative rate.
func ioRate(prev, curr CounterSnapshot) (readMBps, writeMBps float64) {
	elapsed := curr.At.Sub(prev.At)
	if elapsed < minElapsed {
		elapsed = minElapsed
	}
	seconds := elapsed.Seconds()

	readMBps = float64(counterDelta(prev.ReadBytes, curr.ReadBytes)) / bytesPerMB / seconds
	writeMBps = float64(counterDelta(prev.WriteBytes, curr.WriteBytes)) / bytesPerMB / seconds

	return readMBps, writeMBps
}

func counterDelta(prev, curr uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}

// RateTracker holds the previous snapshot between ticks. It belongs to a
// single connection and is never shared across goroutines.
type RateTracker struct {
	prev   CounterSnapshot
	primed bool
}

// Update replaces the stored snapshot and returns the rates since the last
// call. The first call establishes the baseline and reports zero.
func (t *RateTracker) Update(curr CounterSnapshot) (readMBps, writeMBps float64) {
	if t.primed {
		readMBps, writeMBps = ioRate(t.prev, curr)
	}
	t.prev = curr
	t.primed = true
	return readMBps, writeMBps
}

// diskPercent maps a combined throughput onto 0-100 using the configured
// "100% = scale MB/s" mapping. A zero or negative scale behaves as 1.
func diskPercent(mbps, scale float64) float64 {
	if scale < 1 {
		scale = 1
	}
	return clamp(mbps/scale*100.0, 0.0, 100.0)
}

// aggregateCounters sums per-device counters into one snapshot, skipping
// partitions when their parent device is present (sda1 under sda, nvme0n1p1
// under nvme0n1) so bytes are not counted twice.
func aggregateCounters(counters map[string]disk.IOCountersStat, at time.Time) CounterSnapshot {
	snap := CounterSnapshot{At: at}

	for name, stat := range counters {
		if hasParentDevice(name, counters) {
			continue
		}
		snap.ReadBytes += stat.ReadBytes
		snap.WriteBytes += stat.WriteBytes
	}

	return snap
}

func hasParentDevice(name string, counters map[string]disk.IOCountersStat) bool {
	for other := range counters {
		if other != name && strings.HasPrefix(name, other) {
			return true
		}
	}
	return false
}
