package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/vk/partforge/internal/validation"
)

const customChoice = "\x00custom"

// HuhPrompter asks through interactive terminal forms.
type HuhPrompter struct {
	theme *huh.Theme
}

// NewHuhPrompter returns a form-based prompter.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeCharm()}
}

// Prompt implements Prompter.
func (p *HuhPrompter) Prompt(ctx context.Context, req Request) (string, error) {
	if len(req.Options) > 0 {
		choice := req.Options[0]
		options := make([]huh.Option[string], 0, len(req.Options)+1)
		for _, opt := range req.Options {
			options = append(options, huh.NewOption(opt, opt))
		}
		options = append(options, huh.NewOption("[Enter custom value]", customChoice))

		err := p.run(ctx, huh.NewSelect[string]().
			Title("Choose "+req.Label).
			Options(options...).
			Value(&choice))
		if err != nil {
			return "", err
		}
		if choice != customChoice {
			return choice, nil
		}
	}

	var value string
	input := huh.NewInput().
		Title("Enter " + req.Label).
		Description(fmt.Sprintf("Type %q to quit.", QuitToken)).
		Placeholder(req.Current).
		Value(&value).
		Validate(func(s string) error {
			if strings.EqualFold(strings.TrimSpace(s), QuitToken) {
				return nil
			}
			_, err := req.Validate(s)
			return err
		})
	if err := p.run(ctx, input); err != nil {
		return "", err
	}
	if strings.EqualFold(strings.TrimSpace(value), QuitToken) {
		return "", ErrAborted
	}
	// The rule may fail fatally outside the form; surface that here.
	if _, err := req.Validate(value); err != nil && !validation.IsFailure(err) {
		return "", err
	}
	return value, nil
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).WithTheme(p.theme).RunWithContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return ErrAborted
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("prompt: %w", err)
	}
}
