//go:build !windows

package config

func defaultVolumes() []string {
	return []string{"/"}
}
