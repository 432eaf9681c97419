package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/conn-castle/install-unity/internal/messages"
)

// promptForPassword asks for and checks the sudo password once per process. It
// does nothing when running as root.
func promptForPassword(ctx context.Context, opts Options) error {
	if opts.System.Geteuid() == 0 || opts.Runner.HasPassword() {
		return nil
	}
	if opts.Prompt == nil {
		return errors.New(messages.PlatformPasswordUnavailable)
	}
	pw, err := opts.Prompt(ctx)
	if err != nil {
		return err
	}
	opts.Runner.SetPassword(pw)
	if err := opts.Runner.Run(ctx, Command{Name: "true", Sudo: true}); err != nil {
		opts.Runner.SetPassword("")
		return fmt.Errorf("%s: %w", messages.PlatformPasswordInvalid, err)
	}
	return nil
}
