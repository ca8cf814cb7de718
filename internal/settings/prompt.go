package settings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/partforge/internal/validation"
)

// QuitToken aborts any prompt when entered.
const QuitToken = "q"

// Request is one question put to the operator.
type Request struct {
	Label string
	// Options are already-validated candidates offered as a menu.
	Options []string
	// Current is the working value, shown as a hint.
	Current string
	// Validate must accept the returned value.
	Validate validation.Rule
}

// Prompter asks the operator for a value. Implementations return a value
// that passed req.Validate, ErrAborted when the operator quits, or
// ErrNoInput when no answer can be obtained.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (string, error)
}

// LinePrompter reads answers line by line. It is used when stdin is not a
// terminal.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter returns a prompter reading from in and writing to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements Prompter.
func (p *LinePrompter) Prompt(_ context.Context, req Request) (string, error) {
	if len(req.Options) > 0 {
		value, custom, err := p.choose(req)
		if err != nil || !custom {
			return value, err
		}
	}
	return p.enter(req)
}

// choose shows the numbered menu. custom is true when the operator asked to
// type a value instead.
func (p *LinePrompter) choose(req Request) (value string, custom bool, err error) {
	fmt.Fprintf(p.out, "\nChoose %s:\n", req.Label)
	for i, opt := range req.Options {
		fmt.Fprintf(p.out, "  %d - %s\n", i+1, opt)
	}
	customIndex := len(req.Options) + 1
	fmt.Fprintf(p.out, "  %d - [Enter custom value]\n", customIndex)

	for {
		answer, err := p.readLine(fmt.Sprintf("Enter option number or %q to quit: ", QuitToken))
		if err != nil {
			return "", false, err
		}
		n, convErr := strconv.Atoi(answer)
		switch {
		case convErr != nil || n < 1 || n > customIndex:
			fmt.Fprintf(p.out, "%q is not an option.\n", answer)
		case n == customIndex:
			return "", true, nil
		default:
			return req.Options[n-1], false, nil
		}
	}
}

func (p *LinePrompter) enter(req Request) (string, error) {
	label := "Enter " + req.Label
	if req.Current != "" {
		label += fmt.Sprintf(" [current: %s]", req.Current)
	}
	for {
		answer, err := p.readLine(fmt.Sprintf("%s or %q to quit: ", label, QuitToken))
		if err != nil {
			return "", err
		}
		if _, err := req.Validate(answer); err != nil {
			if !validation.IsFailure(err) {
				return "", err
			}
			fmt.Fprintf(p.out, "Invalid %s: %v\n", req.Label, err)
			continue
		}
		return answer, nil
	}
}

func (p *LinePrompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: input closed", ErrNoInput)
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.TrimSpace(line)
	if strings.EqualFold(answer, QuitToken) {
		return "", ErrAborted
	}
	return answer, nil
}

// NoInputPrompter refuses every request. It backs --no-input.
type NoInputPrompter struct{}

// Prompt implements Prompter.
func (NoInputPrompter) Prompt(_ context.Context, req Request) (string, error) {
	return "", fmt.Errorf("%w: no valid value for %s", ErrNoInput, req.Label)
}
