package settings

import "errors"

var (
	// ErrAborted means the operator quit a prompt. It is fatal for the run.
	ErrAborted = errors.New("aborted by operator")

	// ErrNoInput means a value had to be prompted for but input is disabled
	// or exhausted. It is fatal for the run.
	ErrNoInput = errors.New("input required but not available")
)

// IsFatal reports whether err ends the whole run rather than one attempt.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, ErrNoInput)
}
