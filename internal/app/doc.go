// Package app contains the core application logic. It wires the tree loaders,
// the settings resolver, the executor and the report into one export run,
// decoupled from any specific entrypoint like a CLI.
package app
