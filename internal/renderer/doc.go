// Package renderer builds the argument vector for one render and runs the
// external renderer process.
package renderer
