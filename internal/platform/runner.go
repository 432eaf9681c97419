package platform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/conn-castle/install-unity/internal/messages"
)

// Command is an external program invocation.
type Command struct {
	Name string
	Args []string
	// Sudo runs the command as the administrator.
	Sudo bool
}

func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	if c.Sudo {
		parts = append([]string{"sudo"}, parts...)
	}
	return strings.Join(parts, " ")
}

// Runner executes external commands for the installers.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
	// SetPassword sets the password fed to sudo.
	SetPassword(password string)
	HasPassword() bool
}

// ExecRunner runs commands with os/exec. Privileged commands go through
// `sudo -S` with the stored password on stdin unless AsRoot is set.
type ExecRunner struct {
	AsRoot bool

	mu       sync.Mutex
	password string
}

// SetPassword stores the sudo password.
func (r *ExecRunner) SetPassword(password string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.password = password
}

// HasPassword reports whether a sudo password is stored.
func (r *ExecRunner) HasPassword() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.password != ""
}

// Run executes cmd and returns its trimmed output in the error when it fails.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	name, args := cmd.Name, cmd.Args
	var stdin string
	if cmd.Sudo && !r.AsRoot {
		r.mu.Lock()
		stdin = r.password + "\n"
		r.mu.Unlock()
		args = append([]string{"-S", "-k", "-p", "", "--", name}, args...)
		name = "sudo"
	}
	c := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		c.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	if err := c.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if trimmed := strings.TrimSpace(out.String()); trimmed != "" {
			return fmt.Errorf(messages.PlatformCommandFailedOutputFmt, cmd.Name, err, trimmed)
		}
		return fmt.Errorf(messages.PlatformCommandFailedFmt, cmd.Name, err)
	}
	return nil
}
