package protocol

import (
	"fmt"
	"strings"
)

// framePositions is how many free-space fields the frame carries. The
// display firmware expects a fixed-width record, so the encoder always
// emits exactly this many regardless of how many volumes are configured.
const framePositions = 2

// Encode renders a Sample as one wire frame:
//
//	cpu,mem,gpu,diskPct,diskMBps,cpuTempF,gpuTempF,freeC_GB,freeD_GB\n
//
// Percent fields and temperatures use one decimal place, throughput two,
// free space zero. Encoding the same Sample always yields identical bytes.
func Encode(s Sample) []byte {
	freeC, freeD := freeAt(s.FreeGB, 0), freeAt(s.FreeGB, 1)

	line := fmt.Sprintf("%.1f,%.1f,%.1f,%.1f,%.2f,%.1f,%.1f,%.0f,%.0f\n",
		s.CPUPercent, s.MemPercent, s.GPUPercent, s.DiskPercent,
		s.DiskMBps, s.CPUTempF, s.GPUTempF, freeC, freeD)

	return []byte(line)
}

func freeAt(free []float64, i int) float64 {
	if i < len(free) {
		return free[i]
	}
	return FreeUnknownGB
}

// StatusLine renders the human-readable status shown while connected.
// labels name the free-space fields; extra readings beyond the labels are
// numbered by position.
func StatusLine(s Sample, labels []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CPU %.0f%%  MEM %.0f%%  GPU %.0f%%  DISK %.0f%% (%.1f MB/s)  ",
		s.CPUPercent, s.MemPercent, s.GPUPercent, s.DiskPercent, s.DiskMBps)
	fmt.Fprintf(&b, "CPUt %.0fF  GPUt %.0fF", s.CPUTempF, s.GPUTempF)

	for i, free := range s.FreeGB {
		label := fmt.Sprintf("vol%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Fprintf(&b, "  %s: %.0f GB", label, free)
	}

	return b.String()
}
