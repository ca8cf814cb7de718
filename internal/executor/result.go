package executor

import (
	"time"

	"github.com/vk/partforge/internal/tree"
)

// Status is the outcome of one artifact.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusPlanned
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusPlanned:
		return "planned"
	}
	return "unknown"
}

// Result describes one artifact: a rendered file or one of its copies.
type Result struct {
	Job *tree.Job
	// Path is the display path, "<dir>/<file>" relative to the output
	// directory.
	Path string
	// File is the absolute output file.
	File string
	// Copy is 1 for the rendered file and 2..N for copies.
	Copy   int
	Status Status
	// Err is the diagnostic for a failed artifact.
	Err      error
	Duration time.Duration
}

// Summary counts results by status.
type Summary struct {
	Succeeded int
	Failed    int
	Planned   int
}

// Summarize counts results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusPlanned:
			s.Planned++
		}
	}
	return s
}
