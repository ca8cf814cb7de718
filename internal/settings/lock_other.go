//go:build !unix

package settings

import "os"

// lockFile only ensures the lock file exists; other platforms rely on the
// atomic rename alone.
func lockFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}
