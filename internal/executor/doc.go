// Package executor renders flattened part trees. It resolves the settings
// snapshot, plans every artifact up front (refusing runs where two artifacts
// would share a file), then feeds the jobs to a fixed pool of workers. Each
// worker renders one job through the renderer and makes the extra copies a
// job's quantity asks for. Failures are reported per artifact; the run
// carries on.
package executor
