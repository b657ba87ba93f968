//go:build !windows

package collector

import (
	"context"

	"github.com/shirou/gopsutil/v4/disk"
)

// platformFreeBytes reports free bytes on the filesystem holding path.
// Volumes are configured as mount paths on this platform.
func platformFreeBytes(ctx context.Context, volume string) (uint64, error) {
	usage, err := disk.UsageWithContext(ctx, volume)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}
