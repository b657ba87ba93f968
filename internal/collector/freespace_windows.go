//go:build windows

package collector

import (
	"context"
	"strings"

	"golang.org/x/sys/windows"
)

// platformFreeBytes reports free bytes for a drive. Volumes may be
// configured as "C", "C:" or "C:\"; all normalize to the root path.
func platformFreeBytes(ctx context.Context, volume string) (uint64, error) {
	root := volumeRoot(volume)

	rootPtr, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, err
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(rootPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, err
	}

	return freeBytesAvailable, nil
}

func volumeRoot(volume string) string {
	v := strings.TrimSpace(volume)
	v = strings.TrimSuffix(v, `\`)
	v = strings.TrimSuffix(v, ":")
	return v + `:\`
}
