// Package validation provides composable rules that normalize a candidate
// setting value or reject it with a reason.
//
// A Rule returns the normalized value on success. A rejection is reported as
// a *Failure; any other error means the rule itself could not be evaluated
// (for example because a dependency could not be resolved) and must be
// treated as fatal by the caller.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rule validates and normalizes a single value.
type Rule func(value string) (string, error)

// Failure is a rejected candidate. It is recoverable: callers re-prompt.
type Failure struct {
	Value  string
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%q %s", f.Value, f.Reason)
}

// Reject builds a *Failure for value.
func Reject(value, format string, args ...any) error {
	return &Failure{Value: value, Reason: fmt.Sprintf(format, args...)}
}

// IsFailure reports whether err is (or wraps) a *Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Check runs rule and collapses the outcome to (normalized, ok). Any error,
// including non-Failure ones, counts as not ok.
func Check(rule Rule, value string) (string, bool) {
	normalized, err := rule(value)
	if err != nil {
		return "", false
	}
	return normalized, true
}

// All chains rules; each receives the previous rule's normalized output.
func All(rules ...Rule) Rule {
	return func(value string) (string, error) {
		current := value
		for _, rule := range rules {
			next, err := rule(current)
			if err != nil {
				return "", err
			}
			current = next
		}
		return current, nil
	}
}

// Any returns the first successful rule's result. When every rule rejects
// the value the last failure is returned; a non-Failure error stops the
// search immediately.
func Any(rules ...Rule) Rule {
	return func(value string) (string, error) {
		var last error = Reject(value, "matched no rule")
		for _, rule := range rules {
			normalized, err := rule(value)
			if err == nil {
				return normalized, nil
			}
			if !IsFailure(err) {
				return "", err
			}
			last = err
		}
		return "", last
	}
}

// NotBlank trims surrounding whitespace and rejects empty values.
func NotBlank() Rule {
	return func(value string) (string, error) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "", Reject(value, "is empty")
		}
		return trimmed, nil
	}
}

// OneOf accepts a case-insensitive member of options and normalizes it to
// the option's canonical spelling.
func OneOf(options ...string) Rule {
	return func(value string) (string, error) {
		trimmed := strings.TrimSpace(value)
		for _, option := range options {
			if strings.EqualFold(trimmed, option) {
				return option, nil
			}
		}
		return "", Reject(value, "is not one of: %s", strings.Join(options, ", "))
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
