package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrPromptUnavailable is returned when input is needed but stdin is not a terminal.
var ErrPromptUnavailable = errors.New("input required but no terminal is attached")

// PromptUnlockReason asks for the audited unlock reason.
func (c *Context) PromptUnlockReason(dateKey string) (string, error) {
	if !c.Interactive {
		return "", ErrPromptUnavailable
	}
	var reason string
	err := huh.NewInput().
		Title("Why are you unlocking " + dateKey + "?").
		Placeholder("e.g. forgot to check off my run").
		Value(&reason).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("a reason is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reason), nil
}

// Confirm asks a yes/no question. Non-interactive sessions answer no.
func (c *Context) Confirm(title, description string) (bool, error) {
	if !c.Interactive {
		return false, nil
	}
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}
