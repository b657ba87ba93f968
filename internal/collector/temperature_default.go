//go:build !windows

package collector

import "context"

// No extra source beyond the sensor groups on this platform.
func platformTempC(ctx context.Context) (float64, bool) {
	return 0, false
}
