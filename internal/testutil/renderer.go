package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vk/partforge/internal/renderer"
)

type failure struct {
	code   int
	stderr string
}

// FakeRenderer stands in for the external renderer. It writes a small
// deterministic file to the -o target, fails the parts it was told to fail
// and records how many renders ran at once.
type FakeRenderer struct {
	// Delay is slept inside every render.
	Delay time.Duration
	// Help is returned for "-h" probes.
	Help string

	mu         sync.Mutex
	failures   map[string]failure
	calls      [][]string
	executions map[string]ExecutionRecord
	active     int
	peak       int
}

var _ renderer.Runner = (*FakeRenderer)(nil)

// NewFakeRenderer returns a renderer that succeeds for every part.
func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{
		failures:   make(map[string]failure),
		executions: make(map[string]ExecutionRecord),
	}
}

// Fail makes renders of part exit with code and stderr.
func (f *FakeRenderer) Fail(part string, code int, stderr string) *FakeRenderer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[part] = failure{code: code, stderr: stderr}
	return f
}

// Run implements renderer.Runner.
func (f *FakeRenderer) Run(_ context.Context, argv []string) (renderer.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.mu.Unlock()

	if len(argv) == 2 && argv[1] == "-h" {
		return renderer.Output{Stdout: []byte(f.Help)}, nil
	}

	output, part := parseArgs(argv)

	f.mu.Lock()
	f.active++
	f.peak = max(f.peak, f.active)
	fail, failing := f.failures[part]
	f.mu.Unlock()

	start := time.Now()
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	var out renderer.Output
	switch {
	case failing:
		out = renderer.Output{ExitCode: fail.code, Stderr: []byte(fail.stderr)}
	case output == "":
		out = renderer.Output{ExitCode: 1, Stderr: []byte("no output file given")}
	default:
		if err := os.WriteFile(output, []byte(Rendered(part)), 0o644); err != nil {
			out = renderer.Output{ExitCode: 1, Stderr: []byte(err.Error())}
		}
	}

	f.mu.Lock()
	f.active--
	f.executions[output] = ExecutionRecord{Start: start, End: time.Now()}
	f.mu.Unlock()
	return out, nil
}

// Rendered is the file content the fake writes for part.
func Rendered(part string) string {
	return fmt.Sprintf("solid %s\nendsolid %s\n", part, part)
}

// Calls returns a copy of every argument vector received.
func (f *FakeRenderer) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Peak is the largest number of renders that were in flight together.
func (f *FakeRenderer) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// Executions returns the timing of every render keyed by output path.
func (f *FakeRenderer) Executions() map[string]ExecutionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(f.executions))
	for k, v := range f.executions {
		out[k] = v
	}
	return out
}

func parseArgs(argv []string) (output, part string) {
	for _, arg := range argv {
		switch {
		case strings.HasPrefix(arg, "-o"):
			output = strings.TrimPrefix(arg, "-o")
		case strings.HasPrefix(arg, "-Dpart="):
			raw := strings.TrimPrefix(arg, "-Dpart=")
			if unquoted, err := strconv.Unquote(raw); err == nil {
				raw = unquoted
			}
			part = raw
		}
	}
	return output, part
}
