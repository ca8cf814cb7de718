//go:build !unix

package validation

import "os"

// writable probes with a temporary file where access(2) is unavailable.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".partforge-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
