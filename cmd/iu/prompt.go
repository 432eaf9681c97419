package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/conn-castle/install-unity/internal/messages"
	"github.com/conn-castle/install-unity/internal/terminal"
)

var runFormFunc = func(ctx context.Context, form *huh.Form) error { return form.RunWithContext(ctx) }

func terminalInteractive() bool {
	return terminal.IsInteractive()
}

// confirm asks a yes/no question. --yes skips it; without a terminal the answer
// must have been given with --yes.
func confirm(ctx context.Context, out io.Writer, title string, yes bool) error {
	if yes {
		return nil
	}
	if !isInteractive() {
		return errors.New(messages.InstallNeedsConfirmation)
	}
	ok, err := confirmFunc(ctx, title)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintln(out, messages.InstallCancelled)
		return &SilentExitError{Code: 1}
	}
	return nil
}

func confirmPrompt(ctx context.Context, title string) (bool, error) {
	value := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&value),
	)).WithOutput(os.Stderr)
	if err := runFormFunc(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return value, nil
}

func passwordPrompt(ctx context.Context, out io.Writer) (string, error) {
	if !isInteractive() {
		return "", errors.New(messages.InstallNeedsConfirmation)
	}
	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(messages.PasswordPromptTitle).
			Description(messages.PasswordPromptDescription).
			EchoMode(huh.EchoModePassword).
			Value(&password),
	)).WithOutput(out)
	if err := runFormFunc(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("%s: %w", messages.InstallCancelled, context.Canceled)
		}
		return "", err
	}
	return password, nil
}
