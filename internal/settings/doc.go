// Package settings resolves the handful of values every export needs (the
// renderer binary, project root, definition file, output directory, naming
// strategy, color scheme and renderer capability).
//
// Each key is resolved at most once per process. Resolution tries the value
// persisted in the durable store, then the key's default candidates, and
// finally asks the operator. Accepted values are written back to the store
// with a read-merge-write so unrelated keys edited elsewhere survive.
//
// Concurrency: callers may request keys from many goroutines. Each key has
// its own lock, with a double check inside it, so concurrent first use
// triggers exactly one resolution. Store writes serialize on a separate
// lock, and only one prompt is shown at a time. When the operator quits a
// prompt the resolver is aborted: every caller waiting on any key, and every
// later caller, receives ErrAborted.
package settings
