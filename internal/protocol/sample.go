package protocol

// Sentinel values reserved for "metric unavailable this tick". Both are
// outside the range of any real reading (-999F is below absolute zero,
// free space cannot be negative).
const (
	TempUnknownF  = -999.0
	FreeUnknownGB = -1.0
)

// Sample is one complete telemetry reading. It is built once per tick and
// discarded after encoding; nothing retains it across ticks.
type Sample struct {
	CPUPercent  float64 // 0-100
	MemPercent  float64 // 0-100
	GPUPercent  float64 // 0-100, 0.0 when GPU data is unavailable
	DiskPercent float64 // 0-100, clamped against the configured scale
	DiskMBps    float64 // combined read+write throughput, >= 0
	CPUTempF    float64 // TempUnknownF when no sensor matched
	GPUTempF    float64 // TempUnknownF when no GPU data
	FreeGB      []float64
}

// Unavailable returns a Sample with every field at its sentinel. Used as
// the starting point of a collection pass so that any probe failure leaves
// the corresponding field in a well-defined state.
func Unavailable(volumes int) Sample {
	free := make([]float64, volumes)
	for i := range free {
		free[i] = FreeUnknownGB
	}
	return Sample{
		CPUTempF: TempUnknownF,
		GPUTempF: TempUnknownF,
		FreeGB:   free,
	}
}
