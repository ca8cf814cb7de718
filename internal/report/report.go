// Package report prints export outcomes for people.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vk/partforge/internal/executor"
)

// Status icons.
const (
	IconPass = "✓"
	IconFail = "✗"
	IconSkip = "-"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorKey  = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// Printer writes styled lines. Styling is dropped automatically when w is
// not a terminal.
type Printer struct {
	w     io.Writer
	pass  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
	key   lipgloss.Style
}

// New returns a printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		pass:  r.NewStyle().Foreground(colorPass),
		fail:  r.NewStyle().Foreground(colorFail),
		muted: r.NewStyle().Foreground(colorMute),
		key:   r.NewStyle().Bold(true).Foreground(colorKey),
	}
}

// Start announces a run.
func (p *Printer) Start(jobs int) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("Starting export of %d jobs", jobs)))
}

// Results prints one line per result in the given order, then the summary.
func (p *Printer) Results(results []executor.Result) {
	for _, r := range results {
		fmt.Fprintln(p.w, p.line(r))
	}
	p.Summary(executor.Summarize(results))
}

func (p *Printer) line(r executor.Result) string {
	switch r.Status {
	case executor.StatusSucceeded:
		return p.pass.Render(IconPass) + " Finished exporting: " + r.Path
	case executor.StatusPlanned:
		return p.muted.Render(IconSkip) + " Planned: " + r.Path
	default:
		return p.fail.Render(IconFail) + " Failed to export: " + r.Path + ", Error: " + Diagnostic(r.Err)
	}
}

// Summary prints the closing totals.
func (p *Printer) Summary(s executor.Summary) {
	text := fmt.Sprintf("Done! %d exported, %d failed", s.Succeeded, s.Failed)
	if s.Planned > 0 {
		text += fmt.Sprintf(", %d planned", s.Planned)
	}
	style := p.pass
	if s.Failed > 0 {
		style = p.fail
	}
	fmt.Fprintln(p.w, style.Render(text))
}

// Settings prints stored settings as key = value lines in the given order.
func (p *Printer) Settings(keys []string, values map[string]string) {
	if len(keys) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("No stored settings."))
		return
	}
	for _, k := range keys {
		fmt.Fprintf(p.w, "%s = %s\n", p.key.Render(k), values[k])
	}
}

// Diagnostic flattens an error onto one line.
func Diagnostic(err error) string {
	if err == nil {
		return "unknown error"
	}
	lines := strings.FieldsFunc(err.Error(), func(r rune) bool { return r == '\n' || r == '\r' })
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "; ")
}
