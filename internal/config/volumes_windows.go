//go:build windows

package config

// The display firmware was built around two drive slots, so the Windows
// default mirrors the usual system/data split.
func defaultVolumes() []string {
	return []string{"C", "D"}
}
