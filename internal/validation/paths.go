package validation

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/partforge/internal/fsutil"
)

// BundleBinary is the executable inside a macOS OpenSCAD.app bundle.
const BundleBinary = "Contents/MacOS/OpenSCAD"

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Executable accepts a program that resolves on the search path. On darwin a
// value that does not resolve is retried as an application bundle, so
// "/Applications/OpenSCAD.app" normalizes to the binary inside it.
func Executable(goos string) Rule {
	return func(value string) (string, error) {
		location := ExpandHome(strings.TrimSpace(value))
		if location == "" {
			return "", Reject(value, "is empty")
		}
		if goos == "darwin" {
			if _, err := lookPath(location); err != nil {
				location = filepath.Join(location, BundleBinary)
			}
		}
		location = filepath.Clean(location)
		if _, err := lookPath(location); err != nil {
			return "", Reject(value, "is not an executable on the search path")
		}
		return location, nil
	}
}

// Directory accepts an existing directory.
func Directory() Rule {
	return func(value string) (string, error) {
		dir := ExpandHome(strings.TrimSpace(value))
		if dir == "" {
			return "", Reject(value, "is empty")
		}
		dir = filepath.Clean(dir)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return "", Reject(value, "is not a directory")
		}
		return dir, nil
	}
}

// WritableParent accepts a path whose parent directory exists and is
// writable. The path itself does not need to exist yet.
func WritableParent() Rule {
	return func(value string) (string, error) {
		target := ExpandHome(strings.TrimSpace(value))
		if target == "" {
			return "", Reject(value, "is empty")
		}
		target = filepath.Clean(target)
		parent := filepath.Dir(target)
		info, err := os.Stat(parent)
		if err != nil || !info.IsDir() {
			return "", Reject(value, "has no parent directory")
		}
		if !writable(parent) {
			return "", Reject(value, "has a parent directory that is not writable")
		}
		return target, nil
	}
}

// FileWithExtension accepts a file ending in ext. A value that is a path to
// an existing file is taken as is; a bare file name is searched for beneath
// the directory returned by root, and when it occurs more than once the last
// match in walk order wins. Errors from root are returned unchanged so that
// an aborted dependency is not mistaken for a rejection.
func FileWithExtension(ext string, root func() (string, error)) Rule {
	return func(value string) (string, error) {
		name := ExpandHome(strings.TrimSpace(value))
		if name == "" {
			return "", Reject(value, "is empty")
		}
		if !fsutil.HasExtension(name, ext) {
			return "", Reject(value, "does not have the %s extension", ext)
		}

		if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
			if isFile(name) {
				abs, err := filepath.Abs(name)
				if err != nil {
					return "", Reject(value, "cannot be made absolute: %v", err)
				}
				return abs, nil
			}
			if filepath.IsAbs(name) {
				return "", Reject(value, "is not an existing file")
			}
		}

		searchRoot, err := root()
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(name) && strings.ContainsAny(name, `/\`) {
			candidate := filepath.Join(searchRoot, name)
			if isFile(candidate) {
				return filepath.Clean(candidate), nil
			}
			return "", Reject(value, "is not a file under %s", searchRoot)
		}
		found := fsutil.FindLastNamed(searchRoot, name)
		if found == "" {
			return "", Reject(value, "was not found under %s", searchRoot)
		}
		return found, nil
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
